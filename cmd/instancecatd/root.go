package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instancecat/internal/app"
	"instancecat/internal/app/config"
	"instancecat/internal/infra/telemetry"
)

type rootOptions struct {
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := rootOptions{
		output: outputTable,
	}

	root := &cobra.Command{
		Use:           "instancecatd",
		Short:         "Instance type catalog synchronization daemon",
		Version:       fmt.Sprintf("%s (%s)", app.Version, app.Build),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (yaml, toml or json)")
	flags.StringVarP(&opts.output, "output", "o", opts.output, "output format: table, json or yaml")
	flags.String("source-kind", "", "pricing source kind: file, url or s3")
	flags.String("source-path", "", "pricing list file path")
	flags.String("source-url", "", "pricing list URL")
	flags.String("stores-path", "", "directory holding the catalog database")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: json or console")

	root.AddCommand(
		newServeCmd(&opts),
		newRefreshCmd(&opts),
		newValidateCmd(&opts),
		newListCmd(&opts),
		newGetCmd(&opts),
		newEnrichCmd(&opts),
		newServiceCmd(&opts),
	)

	return root
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:  opts.configPath,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return config.Config{}, classify(err)
	}
	return cfg, nil
}

func newCLILogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := app.BuildLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String(telemetry.FieldComponent, telemetry.ComponentCLI)), nil
}
