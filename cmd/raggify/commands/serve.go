package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/runtime"
	"github.com/raggify/raggify-go/internal/server"
	"github.com/raggify/raggify-go/internal/tracing"
	"github.com/raggify/raggify-go/internal/worker"
)

// NewServeCmd constructs the `raggify serve` command, which builds the
// runtime from config and starts the HTTP server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var queueSize int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the runtime and start the raggify HTTP server",
		Long: `Start the raggify HTTP server on localhost.

The server exposes ingestion (/v1/ingest/*, /v1/upload, /v1/job), retrieval
(/v1/query/*), and operational (/v1/health, /v1/reload, /metrics) routes
over the runtime built from the resolved YAML config.

Examples:
  raggify serve
  raggify serve --port 9090
  raggify serve --config /etc/raggify/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()

			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("serve: langfuse tracing enabled")
			} else {
				log.Info("serve: langfuse tracing disabled (LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set)")
			}

			rt := runtime.New(loadedConfigPath, log)
			if err := rt.Build(ctx); err != nil {
				return fmt.Errorf("serve: failed to build runtime: %w", err)
			}
			log.Info("serve: runtime built", "config", loadedConfigPath)

			wm := worker.New(rt.Pipeline().Run, log, queueSize)

			cfg := rt.Config()
			srvCfg := &server.Config{
				Host:      firstNonEmpty(host, cfg.General.Host),
				Port:      firstNonZeroInt(port, cfg.General.Port),
				Logger:    log,
				APIKey:    cfg.General.APIKey,
				UploadDir: cfg.Ingest.UploadDir,
			}

			srv, err := server.New(rt, wm, srvCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default: config general.host, falling back to 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default: config general.port, falling back to 8080)")
	cmd.Flags().IntVar(&queueSize, "queue-size", 256, "Maximum number of PENDING ingest jobs buffered before submit blocks")

	return cmd
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func firstNonZeroInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
