// Package cookies persists named cookie sessions so that an
// authenticated browsing state can be reused across runs and handed to
// the browser renderer. Sessions live in the OS keyring when one is
// available, with a file fallback for headless environments.
package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "surf-cli"
	// FallbackDir is the directory for file-based session storage (when keyring fails)
	FallbackDir = ".surf/sessions"
)

// Cookie is one browser cookie in the shape both net/http and the CDP
// cookie APIs can consume.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Session is a named bundle of cookies and headers.
type Session struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Cookies   []Cookie          `json:"cookies"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// HTTPCookies converts the session's cookies for use with an HTTP
// cookie jar.
func (s *Session) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}

// FromHTTPCookies builds a session from cookies captured off an HTTP
// exchange.
func FromHTTPCookies(name, url string, cs []*http.Cookie) *Session {
	s := &Session{Name: name, URL: url, CreatedAt: time.Now()}
	for _, c := range cs {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if !c.Expires.IsZero() {
			cookie.Expires = float64(c.Expires.Unix())
		}
		s.Cookies = append(s.Cookies, cookie)
	}
	return s
}

// useFileBasedStorage checks if we should use file-based storage.
// This is a fallback for environments where a keyring isn't available
// (containers, CI).
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" || os.Getenv("SURF_SESSION_DIR") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	// Probe the keyring; if it fails, fall back to files.
	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := (err != nil)
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}

// sessionDir returns the session storage directory
func sessionDir() (string, error) {
	if dir := os.Getenv("SURF_SESSION_DIR"); dir != "" {
		return dir, os.MkdirAll(dir, 0700)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	return dir, os.MkdirAll(dir, 0700)
}

// sessionPath returns the file path for a session
func sessionPath(name string) (string, error) {
	dir, err := sessionDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// Save persists a session to the OS keyring or file
func Save(session *Session) error {
	if session.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if useFileBasedStorage() {
		path, err := sessionPath(session.Name)
		if err != nil {
			return fmt.Errorf("failed to get session path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return updateManifest(session.Name, true)
}

// Load retrieves a session from the OS keyring or file
func Load(name string) (*Session, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	var data string
	if useFileBasedStorage() {
		path, err := sessionPath(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get session path: %w", err)
		}
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
		data = string(fileData)
	} else {
		var err error
		data, err = keyring.Get(KeyringService, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

// Delete removes a session from the OS keyring or file
func Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if useFileBasedStorage() {
		path, err := sessionPath(name)
		if err != nil {
			return fmt.Errorf("failed to get session path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return updateManifest(name, false)
}

// List returns the names of all stored sessions
func List() ([]string, error) {
	if useFileBasedStorage() {
		dir, err := sessionDir()
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}

		var sessions []string
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				sessions = append(sessions, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		return sessions, nil
	}

	// The keyring cannot enumerate keys, so a manifest entry tracks
	// session names.
	manifestData, err := keyring.Get(KeyringService, "_manifest")
	if err != nil {
		return []string{}, nil
	}

	var sessions []string
	if err := json.Unmarshal([]byte(manifestData), &sessions); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	return sessions, nil
}

// updateManifest adds or removes a session from the keyring manifest
func updateManifest(sessionName string, add bool) error {
	sessions, _ := List()

	if add {
		found := false
		for _, s := range sessions {
			if s == sessionName {
				found = true
				break
			}
		}
		if !found {
			sessions = append(sessions, sessionName)
		}
	} else {
		kept := sessions[:0]
		for _, s := range sessions {
			if s != sessionName {
				kept = append(kept, s)
			}
		}
		sessions = kept
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, "_manifest", string(data))
}
