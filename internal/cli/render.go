package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/app"
	"github.com/html-makers/surf/internal/metadata"
	"github.com/html-makers/surf/internal/ui"
	"github.com/html-makers/surf/pkg/render"
	"github.com/html-makers/surf/pkg/session"
)

var (
	renderReload  bool
	renderWait    time.Duration
	renderWaitFor string
	renderScript  string
	renderOutput  string
	renderSession string
)

var renderCmd = &cobra.Command{
	Use:   "render <url>",
	Short: "Render a page in a headless browser",
	Long: `Fetches a URL, loads it into headless Chrome so scripts run, and
prints the resulting HTML. With --script the JavaScript result is
printed instead.`,
	Example: `  # Render a single-page app
  surf render https://example.com

  # Wait for a specific element before capturing
  surf render https://example.com --wait-for "#app .loaded"

  # Evaluate JavaScript in the rendered page
  surf render https://example.com --script "document.title"`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderReload, "reload", false, "Re-fetch the page in the browser instead of rendering the downloaded body")
	renderCmd.Flags().DurationVar(&renderWait, "wait", 0, "Pause after navigation before capturing (e.g., 2s)")
	renderCmd.Flags().StringVar(&renderWaitFor, "wait-for", "", "CSS selector to wait for before capturing")
	renderCmd.Flags().StringVar(&renderScript, "script", "", "JavaScript to evaluate in the rendered page")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "File path to save output")
	renderCmd.Flags().StringVar(&renderSession, "session", "", "Name of a saved cookie session to use")
}

// renderDefaults is the rendering configuration used when a command
// renders implicitly rather than via explicit render flags.
func renderDefaults(a *app.Application) render.Options {
	return render.Options{Wait: a.Config.RenderWait}
}

func runRender(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	url := args[0]

	resp, err := a.Session.Get(cmd.Context(), url, &session.RequestOptions{
		CookieSession: renderSession,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}

	renderer, err := a.Renderer(cmd.Context())
	if err != nil {
		return fmt.Errorf("renderer unavailable: %w", err)
	}

	wait := renderWait
	if wait <= 0 {
		wait = a.Config.RenderWait
	}
	result, err := renderer.Render(cmd.Context(), resp, render.Options{
		Reload:       renderReload,
		Wait:         wait,
		WaitSelector: renderWaitFor,
		Script:       renderScript,
	})
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if renderScript != "" {
		if renderOutput != "" {
			if err := os.WriteFile(renderOutput, result, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Println(ui.Success("✓ Saved to " + renderOutput))
			return nil
		}
		fmt.Println(string(result))
		return nil
	}

	if renderOutput != "" {
		doc, err := resp.HTML()
		if err != nil {
			return err
		}
		page := metadata.BuildPage(resp, doc)
		return savePage(page, renderOutput)
	}

	doc, err := resp.HTML()
	if err != nil {
		return err
	}
	log.Debug().Str("url", url).Int("bytes", len(resp.Body)).Msg("Page rendered")
	fmt.Println(doc.HTML())
	return nil
}
