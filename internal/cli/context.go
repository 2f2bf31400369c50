// Package cli implements the surf command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/app"
)

type appKey struct{}

// setApp stores the Application in the command's context so every
// RunE can reach it.
func setApp(cmd *cobra.Command, a *app.Application) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
}

// getApp retrieves the Application, or nil before initialization.
func getApp(cmd *cobra.Command) *app.Application {
	if cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey{}).(*app.Application)
	return a
}
