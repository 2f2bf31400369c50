// Package download saves media files referenced by a page, streaming
// each file to disk through a bounded worker pool.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Result describes one finished download.
type Result struct {
	URL       string
	FilePath  string
	Size      int64
	Success   bool
	Error     error
	StartTime time.Time
	Duration  time.Duration
}

// Options configures downloads.
type Options struct {
	OutputDir string
	Filename  string
	Headers   map[string]string
	// Progress draws a per-file progress bar on stderr.
	Progress bool
}

// Downloader streams single files to disk.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a Downloader with its own HTTP client.
func NewDownloader(timeout time.Duration, userAgent string) *Downloader {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Download fetches one file. Failures are reported in the Result
// rather than as a return error so batch callers can keep going.
func (d *Downloader) Download(ctx context.Context, fileURL string, opts Options) *Result {
	result := &Result{URL: fileURL, StartTime: time.Now()}
	fail := func(err error) *Result {
		result.Error = err
		result.Duration = time.Since(result.StartTime)
		return result
	}

	if _, err := url.Parse(fileURL); err != nil {
		return fail(fmt.Errorf("invalid URL: %w", err))
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}

	filename := opts.Filename
	if filename == "" {
		filename = fileURL
	}
	filename = SanitizeFilename(filename)
	result.FilePath = filepath.Join(opts.OutputDir, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("bad status: %d %s", resp.StatusCode, resp.Status))
	}

	outFile, err := os.Create(result.FilePath)
	if err != nil {
		return fail(fmt.Errorf("failed to create file: %w", err))
	}
	defer outFile.Close()

	var dst io.Writer = outFile
	if opts.Progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, filename)
		dst = io.MultiWriter(outFile, bar)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		os.Remove(result.FilePath)
		return fail(fmt.Errorf("failed to write file: %w", err))
	}

	result.Size = written
	result.Success = true
	result.Duration = time.Since(result.StartTime)

	log.Debug().
		Str("url", fileURL).
		Str("file", result.FilePath).
		Int64("bytes", written).
		Dur("duration", result.Duration).
		Msg("Download completed")

	return result
}

// SanitizeFilename derives a safe local filename from a URL or a user
// supplied name, guarding against path traversal.
func SanitizeFilename(input string) string {
	var queryHash string
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		parts := strings.Split(u.Path, "/")
		if len(parts) > 0 {
			input = parts[len(parts)-1]
		}
		if u.RawQuery != "" {
			queryHash = "_" + hashString(u.RawQuery)
		}
	}

	replacer := strings.NewReplacer(
		"/", "_", `\`, "_", "..", "_", ":", "_", "*", "_",
		"?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
	)
	input = replacer.Replace(input)
	input = strings.Trim(strings.TrimSpace(input), ".")

	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	if queryHash != "" {
		input = stem + queryHash + ext
	}

	if input == "" {
		input = fmt.Sprintf("download_%d", time.Now().Unix())
	}
	if len(input) > 200 {
		input = input[:200]
	}
	return input
}

func hashString(s string) string {
	hash := 0
	for _, c := range s {
		hash = ((hash << 5) - hash) + int(c)
	}
	if hash < 0 {
		hash = -hash
	}
	return fmt.Sprintf("%08x", uint32(hash))
}
