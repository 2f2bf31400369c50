package config

import "github.com/spf13/cobra"

// RegisterFlags registers the global flags on the root command.
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json-log", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("proxy", "", "HTTP/SOCKS5 proxy (e.g. http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "", "Request timeout (e.g. 45s)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
}
