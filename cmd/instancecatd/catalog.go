package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"instancecat/internal/app"
	"instancecat/internal/app/catalog"
	"instancecat/internal/domain"
)

func openCatalog(cmd *cobra.Command, opts *rootOptions) (*catalog.Service, func(), error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newCLILogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	service, cleanup, err := app.OpenCatalog(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return service, func() {
		cleanup()
		_ = logger.Sync()
	}, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every instance type in the catalog store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, cleanup, err := openCatalog(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := service.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, records, func(p *printer) {
				p.instanceTypes(records)
			})
		},
	}
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show one instance type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := openCatalog(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			record, err := service.Get(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, record, func(p *printer) {
				p.instanceTypes([]domain.InstanceType{record})
			})
		},
	}
}

func newEnrichCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <nodegroups-file>",
		Short: "Attach catalog entries to node groups read from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := readNodeGroups(args[0])
			if err != nil {
				return err
			}
			service, cleanup, err := openCatalog(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			enriched := service.EnrichNodeGroups(cmd.Context(), groups)
			return writeOutput(cmd.OutOrStdout(), opts.output, enriched, func(p *printer) {
				p.nodeGroups(enriched)
			})
		},
	}
}

// readNodeGroups accepts YAML, which also covers JSON documents.
func readNodeGroups(path string) ([]domain.NodeGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read node groups: %w", err)
	}
	var groups []domain.NodeGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("decode node groups: %w", err)
	}
	return groups, nil
}
