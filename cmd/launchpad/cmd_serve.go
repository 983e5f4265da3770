package main

import (
	"context"

	"github.com/spf13/cobra"
)

var serveConfigPath string

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Launchpad HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(serveConfigPath)
		if err != nil {
			return &ServerError{Op: "LoadConfig", Err: err, ExitCode: ExitConfigError}
		}

		logger := SetupLogger(cfg)
		logger.Info("starting launchpad",
			"version", Version,
			"config", serveConfigPath,
		)

		server, err := NewServer(cfg, logger)
		if err != nil {
			logger.Error("failed to create server", "error", err)
			return err
		}

		if err := server.Start(context.Background()); err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	},
}
