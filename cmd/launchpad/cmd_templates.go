package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var templatesConfigPath string

func init() {
	templatesCmd.Flags().StringVar(&templatesConfigPath, "config", "", "path to config file")
	rootCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the effective template registry as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(templatesConfigPath)
		if err != nil {
			return &ServerError{Op: "LoadConfig", Err: err, ExitCode: ExitConfigError}
		}

		// stdout carries the YAML document
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		store, err := loadTemplates(cfg, logger)
		if err != nil {
			return &ServerError{Op: "LoadTemplates", Err: err, ExitCode: ExitConfigError}
		}

		data, err := store.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
