package commands

import (
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/runtime"
	"github.com/raggify/raggify-go/internal/tracing"
)

// NewIngestCmd constructs the `raggify ingest` command, which runs the
// ingestion pipeline against one or more paths/URLs without starting the
// HTTP server — useful for one-shot batch loads and scripted backfills.
func NewIngestCmd() *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest local files or URLs into the configured vector stores",
		Long: `Run the ingestion pipeline directly against one or more inputs, bypassing
the HTTP server and its background job queue. Each input may be a local
file path or a URL; the reader registry dispatches http(s) URLs to the
web loader and files by extension.

Examples:
  raggify ingest --input ./docs/eks_cluster.md
  raggify ingest --input https://example.com/guide.html --input ./notes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if len(inputs) == 0 {
				return fmt.Errorf("ingest: at least one --input is required")
			}

			if handler, flush, ok := tracing.Setup(); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			rt := runtime.New(loadedConfigPath, log)
			if err := rt.Build(ctx); err != nil {
				return fmt.Errorf("ingest: failed to build runtime: %w", err)
			}

			jobID := uuid.NewString()
			ctx = tracing.SetIngestTrace(ctx, jobID)
			log.Info("ingest: starting", "job_id", jobID, "inputs", len(inputs))

			result, err := rt.Pipeline().Run(ctx, inputs, nil)
			for _, e := range result.Errors {
				log.Error("ingest: input failed", "error", e)
			}
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingest: complete",
				"inputs_processed", result.InputsProcessed,
				"nodes_committed", result.NodesCommitted,
				"nodes_skipped", result.NodesSkipped,
			)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Local path or URL to ingest (repeatable)")

	return cmd
}
