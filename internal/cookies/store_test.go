package cookies

import (
	"net/http"
	"testing"
	"time"
)

// forceFileStorage routes the store to a temp dir for the test.
func forceFileStorage(t *testing.T) {
	t.Helper()
	t.Setenv("SURF_SESSION_DIR", t.TempDir())
	fileBased := true
	fileBasedStorageCache = &fileBased
}

func TestSaveLoadDelete_Roundtrip(t *testing.T) {
	forceFileStorage(t)

	session := &Session{
		Name:      "test-login",
		URL:       "https://example.com/",
		Cookies:   []Cookie{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"}},
		Headers:   map[string]string{"X-Token": "t"},
		CreatedAt: time.Now(),
	}

	if err := Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load("test-login")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.URL != session.URL || len(loaded.Cookies) != 1 || loaded.Cookies[0].Value != "abc" {
		t.Errorf("Loaded session differs: %+v", loaded)
	}
	if loaded.Headers["X-Token"] != "t" {
		t.Errorf("Headers not preserved: %v", loaded.Headers)
	}

	names, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "test-login" {
		t.Errorf("Unexpected session list: %v", names)
	}

	if err := Delete("test-login"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Load("test-login"); err == nil {
		t.Error("Expected error loading deleted session")
	}
}

func TestLoad_Expired(t *testing.T) {
	forceFileStorage(t)

	session := &Session{
		Name:      "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := Load("stale"); err == nil {
		t.Error("Expected error for expired session")
	}
}

func TestCookieConversion(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	httpCookies := []*http.Cookie{
		{Name: "sid", Value: "v", Domain: "example.com", Path: "/", Expires: expires, HttpOnly: true, Secure: true},
	}

	session := FromHTTPCookies("conv", "https://example.com/", httpCookies)
	if len(session.Cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(session.Cookies))
	}
	if !session.Cookies[0].HTTPOnly || !session.Cookies[0].Secure {
		t.Error("Cookie flags lost in conversion")
	}

	back := session.HTTPCookies()
	if len(back) != 1 || back[0].Name != "sid" || back[0].Value != "v" {
		t.Errorf("Roundtrip failed: %+v", back)
	}
	if !back[0].Expires.Equal(expires) {
		t.Errorf("Expiry mismatch: %v vs %v", back[0].Expires, expires)
	}
}
