package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/html-makers/surf/pkg/session"
)

var (
	linksAbsolute bool
	linksSession  string
)

var linksCmd = &cobra.Command{
	Use:   "links <url>",
	Short: "List the links on a page",
	Example: `  # Links as they appear in the markup
  surf links https://example.com

  # Resolved against the page URL
  surf links https://example.com --absolute`,
	Args: cobra.ExactArgs(1),
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)

	linksCmd.Flags().BoolVar(&linksAbsolute, "absolute", false, "Resolve links against the page URL")
	linksCmd.Flags().StringVar(&linksSession, "session", "", "Name of a saved cookie session to use")
}

func runLinks(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)

	resp, err := a.Session.Get(cmd.Context(), args[0], &session.RequestOptions{
		CookieSession: linksSession,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}

	doc, err := resp.HTML()
	if err != nil {
		return err
	}

	links := doc.Root().Links()
	if linksAbsolute {
		links = doc.Root().AbsoluteLinks()
	}
	for _, link := range links {
		fmt.Println(link)
	}
	return nil
}
