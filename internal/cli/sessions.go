package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/html-makers/surf/internal/capture"
	"github.com/html-makers/surf/internal/cookies"
	"github.com/html-makers/surf/internal/ui"
)

var (
	importURL     string
	importFormat  string
	deleteForce   bool
	captureURL    string
	captureWait   string
	captureDebug  int
	captureExpiry time.Duration
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved cookie sessions",
	Long: `List, inspect, import, capture, and delete saved cookie sessions.

Sessions are stored in the OS keyring when one is available, with a
file fallback for headless environments. A saved session can be
attached to any fetch with the --session flag.`,
	Example: `  # List all saved sessions
  surf sessions list

  # Import cookies exported from browser DevTools
  surf sessions import github --url https://github.com < cookies.json

  # Log in by hand in a visible browser and save the cookies
  surf sessions capture github --url https://github.com/login

  # Delete a session
  surf sessions delete github --force`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import cookies from stdin",
	Long: `Reads cookies from stdin and saves them as a named session.

Two formats are supported: "json", the array format browser DevTools
and cookie extensions export, and "netscape", the tab-separated
cookies.txt format.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsImport,
}

var sessionsCaptureCmd = &cobra.Command{
	Use:   "capture <name>",
	Short: "Capture cookies by logging in through a visible browser",
	Long: `Opens a visible browser at the given URL so you can log in by hand,
then saves the browser's cookies as a named session. Requires a
display server; in headless environments use "sessions import".`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsCapture,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsImportCmd)
	sessionsCmd.AddCommand(sessionsCaptureCmd)

	sessionsDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Delete without confirmation")

	sessionsImportCmd.Flags().StringVar(&importURL, "url", "", "Site the cookies belong to (required)")
	sessionsImportCmd.Flags().StringVar(&importFormat, "format", "json", "Input format: json or netscape")
	sessionsImportCmd.MarkFlagRequired("url")

	sessionsCaptureCmd.Flags().StringVar(&captureURL, "url", "", "Login page to open (required)")
	sessionsCaptureCmd.Flags().StringVar(&captureWait, "wait-for", "", "CSS selector that appears once login completes")
	sessionsCaptureCmd.Flags().IntVar(&captureDebug, "remote-debug", 0, "Expose Chrome DevTools on this port")
	sessionsCaptureCmd.Flags().DurationVar(&captureExpiry, "timeout", capture.DefaultTimeout, "Time allowed for the login")
	sessionsCaptureCmd.MarkFlagRequired("url")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	names, err := cookies.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No saved sessions.")
		fmt.Println("Create one with: surf sessions capture <name> --url <url>")
		return nil
	}

	fmt.Println(ui.Header(fmt.Sprintf("Saved Sessions (%d)", len(names))))
	fmt.Println(strings.Repeat("─", 50))
	for _, name := range names {
		sess, err := cookies.Load(name)
		if err != nil {
			fmt.Printf("%s  %v\n", ui.Bold(name), ui.Error(err.Error()))
			continue
		}
		fmt.Printf("%s\n", ui.Bold(name))
		fmt.Printf("  URL:     %s\n", sess.URL)
		fmt.Printf("  Cookies: %d\n", len(sess.Cookies))
		fmt.Printf("  Created: %s\n", sess.CreatedAt.Format(time.RFC1123))
		if !sess.ExpiresAt.IsZero() {
			if time.Now().After(sess.ExpiresAt) {
				fmt.Printf("  Status:  %s\n", ui.Warn(fmt.Sprintf("expired %s ago", time.Since(sess.ExpiresAt).Round(time.Hour))))
			} else {
				fmt.Printf("  Expires: %s (in %s)\n", sess.ExpiresAt.Format(time.RFC1123), time.Until(sess.ExpiresAt).Round(time.Hour))
			}
		}
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	sess, err := cookies.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", name, err)
	}

	fmt.Println(ui.Header("Session: " + name))
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("URL:     %s\n", sess.URL)
	fmt.Printf("Created: %s\n", sess.CreatedAt.Format(time.RFC1123))
	if !sess.ExpiresAt.IsZero() {
		fmt.Printf("Expires: %s\n", sess.ExpiresAt.Format(time.RFC1123))
		if time.Now().After(sess.ExpiresAt) {
			fmt.Printf("Status:  %s\n", ui.Warn("expired"))
		} else {
			fmt.Printf("Status:  %s\n", ui.Success(fmt.Sprintf("valid (expires in %s)", time.Until(sess.ExpiresAt).Round(time.Hour))))
		}
	}

	fmt.Printf("\nCookies (%d):\n", len(sess.Cookies))
	for i, c := range sess.Cookies {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(sess.Cookies)-5)
			break
		}
		fmt.Printf("  - %s (domain: %s)\n", c.Name, c.Domain)
	}

	if len(sess.Headers) > 0 {
		fmt.Printf("\nHeaders (%d):\n", len(sess.Headers))
		for key, value := range sess.Headers {
			fmt.Printf("  - %s: %s\n", key, value)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !deleteForce {
		fmt.Printf("Delete session %q? [y/N]: ", name)
		var confirm string
		fmt.Scanln(&confirm)
		if !strings.EqualFold(confirm, "y") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cookies.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Println(ui.Success("✓ Session " + name + " deleted"))
	return nil
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	name := args[0]

	var cs []cookies.Cookie
	var err error
	switch strings.ToLower(importFormat) {
	case "json":
		cs, err = cookies.ParseJSON(os.Stdin)
	case "netscape":
		cs, err = cookies.ParseNetscape(os.Stdin)
	default:
		return fmt.Errorf("invalid format: %s (must be json or netscape)", importFormat)
	}
	if err != nil {
		return err
	}

	sess := &cookies.Session{
		Name:      name,
		URL:       importURL,
		Cookies:   cs,
		CreatedAt: time.Now(),
	}
	if max := cookies.MaxExpiry(cs); max > 0 {
		sess.ExpiresAt = time.Unix(int64(max), 0)
	}

	if err := cookies.Save(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	fmt.Println(ui.Success(fmt.Sprintf("✓ Imported %d cookies into session %q", len(cs), name)))
	return nil
}

func runSessionsCapture(cmd *cobra.Command, args []string) error {
	sess, err := capture.Interactive(cmd.Context(), capture.Options{
		SessionName:     args[0],
		URL:             captureURL,
		WaitSelector:    captureWait,
		Timeout:         captureExpiry,
		RemoteDebugPort: captureDebug,
	})
	if err != nil {
		return err
	}

	if err := cookies.Save(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	fmt.Println(ui.Success(fmt.Sprintf("✓ Captured %d cookies into session %q", len(sess.Cookies), sess.Name)))
	return nil
}
