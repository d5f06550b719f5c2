package main

import (
	"github.com/spf13/cobra"

	"instancecat/internal/app"
	"instancecat/internal/domain"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pricing-file]",
		Short: "Parse a pricing document without touching the store",
		Long: "Validate loads the configuration, reads the configured pricing source " +
			"(or the given file) and reports what the parser would keep.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Source.Kind = domain.SourceKindFile
				cfg.Source.Path = args[0]
			}
			logger, err := newCLILogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			report, err := app.ValidateDocument(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, report, func(p *printer) {
				p.documentReport(report)
			})
		},
	}
}
