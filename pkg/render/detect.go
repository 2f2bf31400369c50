package render

import "strings"

// frameworkMarkers maps framework names to substrings that betray them
// in page markup.
var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"React", []string{"react", "_react", "data-reactroot"}},
	{"Vue", []string{"vue", "v-app", "data-v-"}},
	{"Angular", []string{"angular", "ng-app", "ng-version"}},
	{"Ember", []string{"ember"}},
	{"Svelte", []string{"svelte"}},
}

// DetectFramework names the JavaScript framework a page appears to be
// built with, or "Unknown".
func DetectFramework(html string) string {
	html = strings.ToLower(html)
	for _, fw := range frameworkMarkers {
		for _, m := range fw.markers {
			if strings.Contains(html, m) {
				return fw.name
			}
		}
	}
	return "Unknown"
}

// NeedsJavaScript guesses whether static markup is incomplete without
// running scripts: script-heavy pages, known SPA frameworks, and
// near-empty bodies with scripts all qualify.
func NeedsJavaScript(html string, scriptCount int) bool {
	if scriptCount > 5 {
		return true
	}
	if DetectFramework(html) != "Unknown" {
		return true
	}
	if strings.Count(html, "<div") < 3 && scriptCount > 0 {
		return true
	}
	return false
}
