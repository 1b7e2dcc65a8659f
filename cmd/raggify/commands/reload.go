package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raggify/raggify-go/internal/client"
)

// NewReloadCmd constructs the `raggify reload` command, a thin CLI wrapper
// around a running server's GET /v1/reload — it does not build its own
// runtime, only asks an already-running raggify serve to rebuild its own.
func NewReloadCmd() *cobra.Command {
	var addr string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running raggify server to reload its config",
		Long: `Send GET /v1/reload to a running raggify server, causing it to re-read
its YAML config from disk and rebuild every downstream dependency (vector
stores, embed backends, rerank, document/metadata/ingest-cache stores).

Examples:
  raggify reload
  raggify reload --addr http://127.0.0.1:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(addr, client.WithAPIKey(apiKey))
			resp, err := cl.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("reload: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reload: %s\n", resp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "Base URL of the running raggify server")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to authenticate with, if the server requires one")

	return cmd
}
