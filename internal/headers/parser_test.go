package headers

import "testing"

func TestParse(t *testing.T) {
	m := Parse([]string{
		"Authorization: Bearer token",
		"X-Custom:  spaced  ",
		"malformed-no-colon",
	})

	if len(m) != 2 {
		t.Fatalf("expected 2 headers, got %d: %v", len(m), m)
	}
	if m["Authorization"] != "Bearer token" {
		t.Errorf("unexpected value: %q", m["Authorization"])
	}
	if m["X-Custom"] != "spaced" {
		t.Errorf("expected trimmed value, got %q", m["X-Custom"])
	}
}
