// Package commands defines all Cobra CLI commands for the raggify binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/raggify/raggify-go/internal/audit"
	"github.com/raggify/raggify-go/internal/config"
	"github.com/raggify/raggify-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "raggify",
		Short: "raggify — a cross-modal retrieval-augmented-generation service",
		Long: `raggify ingests documents, images, audio, and video into per-modality
vector stores and serves cross-modal retrieval over a REST API.

Configuration is read from a YAML file (default: raggify/config.yaml under
the user config directory, e.g. ~/.config/raggify/config.yaml on Linux),
resolved once at startup and again on every GET /reload.
See 'raggify --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			cfg, err := config.Read(path)
			if err != nil {
				return err
			}

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath, cfg)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: <user config dir>/raggify/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewReloadCmd(),
		NewVersionCmd(),
	)

	return root
}
