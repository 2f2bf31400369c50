package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/download"
	"github.com/html-makers/surf/internal/headers"
	"github.com/html-makers/surf/internal/ui"
	"github.com/html-makers/surf/pkg/session"
)

var (
	mediaKind        string
	mediaConcurrency int
	mediaOutputDir   string
	mediaHeaders     []string
	mediaSession     string
	mediaMode        string
	mediaProgress    bool
)

var mediaCmd = &cobra.Command{
	Use:   "media <url>",
	Short: "Download media files from a page",
	Long: `Extracts image, video, and audio URLs from a page and downloads them
with a pool of concurrent workers. Files stream to disk, so large
downloads stay cheap on memory.`,
	Example: `  # Download all images from a page
  surf media https://example.com --type image

  # Videos with ten workers and progress bars
  surf media https://example.com/videos -t video -c 10 --progress

  # Everything, into a specific directory
  surf media https://example.com -t all -o ./downloads`,
	Args: cobra.ExactArgs(1),
	RunE: runMedia,
}

func init() {
	rootCmd.AddCommand(mediaCmd)

	mediaCmd.Flags().StringVarP(&mediaKind, "type", "t", "all", "Media type to download: image, video, audio, or all")
	mediaCmd.Flags().IntVarP(&mediaConcurrency, "concurrency", "c", 5, "Number of concurrent download workers (1-50)")
	mediaCmd.Flags().StringVarP(&mediaOutputDir, "output", "o", "./downloads", "Directory to save downloaded files")
	mediaCmd.Flags().StringVarP(&mediaMode, "mode", "m", "auto", "Fetch mode: auto, static, or render")
	mediaCmd.Flags().StringArrayVarP(&mediaHeaders, "header", "H", nil, "Custom headers")
	mediaCmd.Flags().StringVar(&mediaSession, "session", "", "Name of a saved cookie session to use")
	mediaCmd.Flags().BoolVar(&mediaProgress, "progress", false, "Show download progress bars")
}

func runMedia(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	pageURL := args[0]

	kind, err := download.ParseMediaType(mediaKind)
	if err != nil {
		return err
	}
	mode, err := parseMode(mediaMode)
	if err != nil {
		return err
	}
	headerMap := headers.Parse(mediaHeaders)

	resp, err := a.Session.Get(cmd.Context(), pageURL, &session.RequestOptions{
		Headers:       headerMap,
		CookieSession: mediaSession,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	if shouldRender(resp, mode) {
		renderer, err := a.Renderer(cmd.Context())
		if err != nil {
			return fmt.Errorf("renderer unavailable: %w", err)
		}
		if _, err := renderer.Render(cmd.Context(), resp, renderDefaults(a)); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	doc, err := resp.HTML()
	if err != nil {
		return err
	}

	mediaURLs, err := download.ExtractMedia(doc, kind)
	if err != nil {
		return fmt.Errorf("failed to extract media: %w", err)
	}
	if len(mediaURLs) == 0 {
		fmt.Println("No media files found. JavaScript-heavy pages may need --mode render.")
		return nil
	}

	fmt.Printf("%s %d media file(s)\n", ui.Bold("Found"), len(mediaURLs))
	for i, url := range mediaURLs {
		fmt.Printf("  %d. %s\n", i+1, url)
	}
	fmt.Println()

	absOutputDir, err := filepath.Abs(mediaOutputDir)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}

	pool := download.NewWorkerPool(mediaConcurrency, 60*time.Second, a.Session.UserAgent())
	log.Debug().Int("workers", mediaConcurrency).Str("dir", absOutputDir).Msg("Starting downloads")

	results := pool.DownloadBatch(cmd.Context(), mediaURLs, download.Options{
		OutputDir: absOutputDir,
		Headers:   headerMap,
		Progress:  mediaProgress,
	})

	var succeeded, failed int
	var totalSize int64
	var totalDuration time.Duration

	fmt.Println(ui.Header("Download Results"))
	fmt.Println(strings.Repeat("=", 60))
	for i, result := range results {
		if result.Success {
			succeeded++
			totalSize += result.Size
			totalDuration += result.Duration
			fmt.Printf("%s [%d/%d] %s (%s, %v)\n", ui.Success("✓"), i+1, len(results),
				filepath.Base(result.FilePath), formatBytes(result.Size), result.Duration.Round(time.Millisecond))
		} else {
			failed++
			fmt.Printf("%s [%d/%d] %s: %v\n", ui.Error("✗"), i+1, len(results), result.URL, result.Error)
		}
	}
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n%s\n", ui.Bold("Summary:"))
	fmt.Printf("  Total:      %d files\n", len(results))
	fmt.Printf("  Success:    %s\n", ui.Success(fmt.Sprintf("%d", succeeded)))
	fmt.Printf("  Failed:     %s\n", ui.Error(fmt.Sprintf("%d", failed)))
	fmt.Printf("  Total Size: %s\n", formatBytes(totalSize))
	if succeeded > 0 {
		avg := totalDuration / time.Duration(succeeded)
		fmt.Printf("  Avg Time:   %s\n", avg.Round(time.Millisecond))
	}
	fmt.Printf("  Directory:  %s\n", absOutputDir)

	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
