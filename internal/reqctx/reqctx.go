// Package reqctx tags each fetch with an identity that follows it
// through logs and errors.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type infoKey struct{}

// Info identifies one fetch.
type Info struct {
	ID    string
	URL   string
	Start time.Time
}

// Elapsed reports how long the fetch has been running.
func (i *Info) Elapsed() time.Duration {
	return time.Since(i.Start)
}

// Tag stamps the context with a fresh fetch identity and returns it
// alongside the derived context.
func Tag(ctx context.Context, url string) (context.Context, *Info) {
	info := &Info{
		ID:    newID(),
		URL:   url,
		Start: time.Now(),
	}
	return context.WithValue(ctx, infoKey{}, info), info
}

// From recovers the fetch identity, or a placeholder when the context
// was never tagged.
func From(ctx context.Context) *Info {
	if info, ok := ctx.Value(infoKey{}).(*Info); ok {
		return info
	}
	return &Info{ID: "-", Start: time.Now()}
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// FetchError ties a failure to the fetch it happened in.
type FetchError struct {
	ID  string
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("fetch %s [%s]: %v", e.URL, e.ID, e.Err)
	}
	return fmt.Sprintf("fetch [%s]: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Wrap attaches the context's fetch identity to err.
func Wrap(ctx context.Context, err error) error {
	info := From(ctx)
	return &FetchError{ID: info.ID, URL: info.URL, Err: err}
}
