package main

import (
	"context"

	"github.com/spf13/cobra"

	"instancecat/internal/infra/service"
)

type serviceOptions struct {
	binary string
	listen string
}

func newServiceCmd(opts *rootOptions) *cobra.Command {
	svcOpts := serviceOptions{}

	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage instancecatd as a per-user system service",
	}
	cmd.PersistentFlags().StringVar(&svcOpts.binary, "binary", "", "path to the instancecatd binary (defaults to PATH lookup)")
	cmd.PersistentFlags().StringVar(&svcOpts.listen, "listen", "", "observability address passed to the service")

	actions := []struct {
		use   string
		short string
		run   func(*service.Manager, context.Context) (service.Status, error)
	}{
		{"install", "Write and enable the service unit", (*service.Manager).Install},
		{"uninstall", "Disable and remove the service unit", (*service.Manager).Uninstall},
		{"start", "Start the installed service", (*service.Manager).Start},
		{"stop", "Stop the running service", (*service.Manager).Stop},
		{"status", "Show whether the service is installed and running", (*service.Manager).Status},
	}
	for _, action := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				storesPath, _ := cmd.Flags().GetString("stores-path")
				manager, err := service.NewManager(service.Options{
					BinaryPath:    svcOpts.binary,
					ConfigPath:    opts.configPath,
					StoresPath:    storesPath,
					ListenAddress: svcOpts.listen,
				})
				if err != nil {
					return err
				}
				status, err := action.run(manager, cmd.Context())
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, status, func(p *printer) {
					p.serviceStatus(status)
				})
			},
		})
	}

	return cmd
}
