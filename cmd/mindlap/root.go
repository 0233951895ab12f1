// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mindlap/mindlap/internal/config"
	"github.com/mindlap/mindlap/internal/logging"
)

const serviceName = "mindlap"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the MindLap CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mindlap",
		Short: "MindLap - driver performance platform",
		Long: `MindLap is the account and session service of the driver performance
platform: registration, login, password reset and user administration
backed by PostgreSQL.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/mindlap/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateSuperuserCmd())

	return cmd
}

// loadConfig reads configuration for cmd, honouring --config and any
// configuration flags the command defines.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	//nolint:wrapcheck // config errors are already coded
	return config.Load(config.LoadOptions{
		File:  configFile,
		Flags: cmd.Flags(),
	})
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg *config.Config) *slog.Logger {
	return logging.SetDefault(serviceName, version, cfg.Log.Format, cfg.Log.Level)
}
