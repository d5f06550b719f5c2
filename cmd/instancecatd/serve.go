package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instancecat/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the catalog store in sync with the pricing source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := app.BuildLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, cleanup, err := app.InitializeApplication(ctx, cfg, app.LoggingConfig{Logger: logger})
			if err != nil {
				logger.Error("initialize application", zap.Error(err))
				return err
			}
			defer cleanup()
			return application.Run()
		},
	}

	flags := cmd.Flags()
	flags.Bool("watch", false, "refresh as soon as a file source changes")
	flags.String("listen", "", "address for /metrics and /healthz")
	flags.Int("success-every", 0, "seconds to wait after a successful refresh")
	flags.Int("retry-every", 0, "seconds to wait after a failed refresh")

	return cmd
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run a single refresh cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := newCLILogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, cleanup, err := app.InitializeApplication(ctx, cfg, app.LoggingConfig{Logger: logger})
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := application.RefreshOnce(ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, result, func(p *printer) {
				p.refreshResult(result)
			})
		},
	}
}
