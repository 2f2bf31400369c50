package urlutil

import (
	"testing"

	"github.com/html-makers/surf/pkg/models"
)

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	if got := ResolveURL("http://example.com/a/", "b.html"); got != "http://example.com/a/b.html" {
		t.Errorf("relative resolve failed: %s", got)
	}
	if got := ResolveURL("http://example.com/", "https://other.com/x"); got != "https://other.com/x" {
		t.Errorf("absolute URL should pass through: %s", got)
	}
}

func TestResolveRelativeLinks(t *testing.T) {
	page := &models.Page{
		URL:     "http://example.com/dir/",
		Links:   []string{"/root", "sub"},
		Images:  []string{"img.png"},
		Scripts: []string{"https://cdn.example.com/app.js"},
	}
	ResolveRelativeLinks(page)

	if page.Links[0] != "http://example.com/root" || page.Links[1] != "http://example.com/dir/sub" {
		t.Errorf("links not resolved: %v", page.Links)
	}
	if page.Images[0] != "http://example.com/dir/img.png" {
		t.Errorf("images not resolved: %v", page.Images)
	}
	if page.Scripts[0] != "https://cdn.example.com/app.js" {
		t.Errorf("absolute script changed: %v", page.Scripts)
	}
}
