package output

import (
	"fmt"
	"io"
	"os"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/html-makers/surf/internal/urlutil"
	"github.com/html-makers/surf/pkg/models"
)

// WriteMarkdown converts the page's markup to GitHub-flavored
// Markdown, resolving relative links against the page URL.
func WriteMarkdown(w io.Writer, page *models.Page) error {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, sel *goquery.Selection, opt *md.Options) *string {
			href, exists := sel.Attr("href")
			if !exists {
				return nil
			}
			resolved := urlutil.ResolveURL(page.URL, href)
			link := fmt.Sprintf("[%s](%s)", sel.Text(), resolved)
			if title, ok := sel.Attr("title"); ok {
				link = fmt.Sprintf("[%s](%s %q)", sel.Text(), resolved, title)
			}
			return &link
		},
	})

	cleaned, err := CleanHTML(page.HTML)
	if err != nil {
		return err
	}

	text, err := converter.ConvertString(cleaned)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, text)
	return err
}

// SaveMarkdown writes the Markdown conversion to a file.
func SaveMarkdown(page *models.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteMarkdown(f, page)
}
