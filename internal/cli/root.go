package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"companion-booking-backend/config"
	"companion-booking-backend/internal/logging"
)

const serviceName = "booking-backend"

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// NewRootCmd builds the bookingd command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bookingd",
		Short:         "Hospital companion booking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML configuration file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
		logging.Init(serviceName, cfg.Log.Env, cfg.Log.Level)
		return cfg, nil
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd(load))
	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newTokenCmd(load))
	root.AddCommand(newQuoteCmd())

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)
