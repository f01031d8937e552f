package main

import (
	"github.com/spf13/cobra"

	"studiorit/internal/config"
	"studiorit/internal/logging"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "studiorit",
		Short:         "Studio RIT project and task collaboration backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
		return cfg, nil
	}

	cmd.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
	)
	return cmd
}
