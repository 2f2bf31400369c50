package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/app"
	"github.com/html-makers/surf/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "surf",
	Short: "Fetch, render, and query web pages from the command line",
	Long: `Surf fetches web pages over HTTP, optionally renders them in a
headless browser to execute JavaScript, and extracts content with CSS
selectors, XPath expressions, and JavaScript filters.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI. The context carries signal cancellation from
// main.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// The application starts lazily so help and version never pay for
	// initialization.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if getApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		setApp(cmd, a)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := getApp(cmd)
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown reported an error")
		}
	}
}
