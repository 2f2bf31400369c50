package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/app"
	"github.com/html-makers/surf/internal/cache"
	"github.com/html-makers/surf/internal/headers"
	"github.com/html-makers/surf/internal/metadata"
	"github.com/html-makers/surf/internal/output"
	"github.com/html-makers/surf/internal/script"
	"github.com/html-makers/surf/internal/ui"
	"github.com/html-makers/surf/pkg/dom"
	"github.com/html-makers/surf/pkg/models"
	"github.com/html-makers/surf/pkg/render"
	"github.com/html-makers/surf/pkg/session"
)

var (
	getMode        string
	getSelector    string
	getXPath       string
	getWhere       string
	getProject     string
	getFirst       bool
	getOutput      string
	getHeaders     []string
	getSession     string
	getConcurrency int
	getNoCache     bool
)

var getCmd = &cobra.Command{
	Use:   "get <url> [url...]",
	Short: "Fetch pages and extract content",
	Long: `Fetches one or more URLs, optionally renders them in a headless
browser, and extracts content with CSS selectors or XPath expressions.

JavaScript filters narrow and reshape matches: --where keeps elements
for which the expression returns true, and --select projects each
element into a value. Both expressions see a binding "e" with tag,
text, attrs, classes and html fields.`,
	Example: `  # Fetch a page and print a summary
  surf get https://example.com

  # Extract headlines with a CSS selector
  surf get https://example.com --selector "h2.headline"

  # XPath with a JavaScript filter
  surf get https://example.com --xpath "//a" --where "e.classes.indexOf('external') >= 0"

  # Project matches into structured values and save as CSV
  surf get https://example.com -s "a.story" --select "({text: e.text, href: e.attrs.href})" -o stories.csv

  # Force browser rendering
  surf get https://example.com --mode render`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getMode, "mode", "m", "auto", "Fetch mode: auto, static, or render")
	getCmd.Flags().StringVarP(&getSelector, "selector", "s", "", "CSS selector to extract")
	getCmd.Flags().StringVar(&getXPath, "xpath", "", "XPath expression to extract")
	getCmd.Flags().StringVar(&getWhere, "where", "", "JavaScript predicate to filter matches")
	getCmd.Flags().StringVar(&getProject, "select", "", "JavaScript expression to project each match")
	getCmd.Flags().BoolVar(&getFirst, "first", false, "Keep only the first match")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "File path to save output (.json, .csv, .md, .html, .txt)")
	getCmd.Flags().StringArrayVarP(&getHeaders, "header", "H", nil, "Custom headers (e.g., -H \"Authorization: Bearer token\")")
	getCmd.Flags().StringVar(&getSession, "session", "", "Name of a saved cookie session to use")
	getCmd.Flags().IntVar(&getConcurrency, "concurrency", 5, "Concurrent fetches per domain")
	getCmd.Flags().BoolVar(&getNoCache, "no-cache", false, "Bypass the page cache")
}

func runGet(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)

	if getSelector != "" && getXPath != "" {
		return fmt.Errorf("--selector and --xpath are mutually exclusive")
	}
	if (getWhere != "" || getProject != "") && getSelector == "" && getXPath == "" {
		return fmt.Errorf("--where and --select require --selector or --xpath")
	}
	if getOutput != "" && len(args) > 1 {
		return fmt.Errorf("--output needs a single URL, got %d", len(args))
	}

	mode, err := parseMode(getMode)
	if err != nil {
		return err
	}

	var where, project *script.Filter
	if getWhere != "" {
		if where, err = script.Compile(getWhere); err != nil {
			return fmt.Errorf("invalid --where expression: %w", err)
		}
	}
	if getProject != "" {
		if project, err = script.Compile(getProject); err != nil {
			return fmt.Errorf("invalid --select expression: %w", err)
		}
	}

	headerMap := headers.Parse(getHeaders)
	query := queryFingerprint(getSelector, getXPath, getWhere, getProject, getFirst)

	// Cache hits skip the network entirely.
	var pages []*models.Page
	var toFetch []string
	for _, url := range args {
		if !getNoCache {
			if page, ok := a.Cache.Get(cache.Key(url, query)); ok {
				log.Debug().Str("url", url).Msg("Cache hit")
				pages = append(pages, page)
				continue
			}
		}
		toFetch = append(toFetch, url)
	}

	reqOpts := &session.RequestOptions{
		Headers:       headerMap,
		CookieSession: getSession,
	}

	var failed int
	for res := range a.Session.GetBatch(cmd.Context(), toFetch, reqOpts, getConcurrency) {
		if res.Err != nil {
			log.Error().Str("url", res.URL).Err(res.Err).Msg("Fetch failed")
			failed++
			continue
		}

		page, err := buildPage(cmd, a, res.Response, mode, where, project)
		if err != nil {
			log.Error().Str("url", res.URL).Err(err).Msg("Extraction failed")
			failed++
			continue
		}

		if !getNoCache {
			if err := a.Cache.Set(cache.Key(res.URL, query), page, a.Config.CacheTTL); err != nil {
				log.Debug().Err(err).Msg("Cache store failed")
			}
		}
		pages = append(pages, page)
	}

	if getOutput != "" {
		if len(pages) == 0 {
			return fmt.Errorf("nothing to save: fetch failed")
		}
		return savePage(pages[0], getOutput)
	}

	for _, page := range pages {
		printPage(page)
	}
	return fetchSummaryError(failed, len(toFetch))
}

// fetchSummaryError reports failures against the URLs actually
// fetched; cache hits never reach the network and do not count.
func fetchSummaryError(failed, attempted int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d URLs failed", failed, attempted)
}

// buildPage turns a response into a page: render if needed, extract
// metadata, then apply the selector/filter pipeline.
func buildPage(cmd *cobra.Command, a *app.Application, resp *session.Response, mode models.FetchMode, where, project *script.Filter) (*models.Page, error) {
	if shouldRender(resp, mode) {
		renderer, err := a.Renderer(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("renderer unavailable: %w", err)
		}
		if _, err := renderer.Render(cmd.Context(), resp, renderDefaults(a)); err != nil {
			return nil, fmt.Errorf("render failed: %w", err)
		}
	}

	doc, err := resp.HTML()
	if err != nil {
		return nil, err
	}
	page := metadata.BuildPage(resp, doc)

	if getSelector == "" && getXPath == "" {
		return page, nil
	}

	var col *dom.Collection
	if getSelector != "" {
		col, err = doc.Find(getSelector)
	} else {
		col, err = doc.XPath(getXPath)
	}
	if err != nil {
		return nil, err
	}

	if where != nil {
		if col, err = col.Where(where.Predicate()); err != nil {
			return nil, err
		}
	}

	if project != nil {
		page.Extracted, err = dom.Select(col, project.Projection())
		if err != nil {
			return nil, err
		}
		if getFirst && len(page.Extracted) > 1 {
			page.Extracted = page.Extracted[:1]
		}
		return page, nil
	}

	elements := col.Elements()
	if getFirst && len(elements) > 1 {
		elements = elements[:1]
	}
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		markup, err := el.HTML()
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, models.Item{Text: el.Text(), HTML: markup})
		texts = append(texts, el.Text())
	}
	page.Content = strings.Join(texts, "\n")
	return page, nil
}

func shouldRender(resp *session.Response, mode models.FetchMode) bool {
	switch mode {
	case models.ModeStatic:
		return false
	case models.ModeRender:
		return true
	}
	html := strings.ToLower(string(resp.Body))
	return render.NeedsJavaScript(html, strings.Count(html, "<script"))
}

func parseMode(s string) (models.FetchMode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return models.ModeAuto, nil
	case "static":
		return models.ModeStatic, nil
	case "render":
		return models.ModeRender, nil
	}
	return "", fmt.Errorf("invalid mode: %s (must be auto, static, or render)", s)
}

// queryFingerprint builds the cache key suffix for a fetch. Every knob
// that changes what gets extracted must appear here, otherwise a page
// cached under one filter would be served for another.
func queryFingerprint(selector, xpathExpr, where, project string, first bool) string {
	q := selector
	if q == "" {
		q = xpathExpr
	}
	if where != "" {
		q += "\x1fwhere=" + where
	}
	if project != "" {
		q += "\x1fselect=" + project
	}
	if first {
		q += "\x1ffirst"
	}
	return q
}

func savePage(page *models.Page, path string) error {
	var err error
	switch {
	case strings.HasSuffix(path, ".json"):
		err = output.SaveJSON(page, path)
	case strings.HasSuffix(path, ".csv"):
		err = output.SaveCSV(page, path)
	case strings.HasSuffix(path, ".md"):
		err = output.SaveMarkdown(page, path)
	case strings.HasSuffix(path, ".html"):
		err = os.WriteFile(path, []byte(page.HTML), 0644)
	case strings.HasSuffix(path, ".txt"):
		err = os.WriteFile(path, []byte(page.Content), 0644)
	default:
		err = output.SaveJSON(page, path)
	}
	if err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	log.Info().Str("file", path).Msg("Output saved")
	fmt.Println(ui.Success("✓ Saved to " + path))
	return nil
}

func printPage(page *models.Page) {
	// Projected values print as JSON, extracted items as text.
	if len(page.Extracted) > 0 {
		if err := output.WriteJSON(os.Stdout, page.Extracted); err != nil {
			log.Error().Err(err).Msg("JSON output failed")
		}
		return
	}
	if getSelector != "" || getXPath != "" {
		fmt.Println(page.Content)
		return
	}

	fmt.Printf("\n")
	fmt.Printf("%s %s\n", ui.Bold("URL:"), page.URL)
	fmt.Printf("%s %d\n", ui.Bold("Status:"), page.StatusCode)
	fmt.Printf("%s %s\n", ui.Bold("Title:"), page.Title)
	fmt.Printf("%s %dms\n", ui.Bold("Response Time:"), page.ResponseTime)
	fmt.Printf("%s %d\n", ui.Bold("Links:"), len(page.Links))
	fmt.Printf("%s %d\n", ui.Bold("Images:"), len(page.Images))
	fmt.Printf("%s %d\n", ui.Bold("Scripts:"), len(page.Scripts))
	fmt.Printf("\n")

	preview := page.Content
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	fmt.Printf("Content Preview:\n%s\n", preview)
}
