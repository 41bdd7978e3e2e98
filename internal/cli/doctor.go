package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeforge-ai/codeforge/internal/workspace"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))
			fmt.Fprintf(out, "Sandbox enabled: %v, metrics: %v\n", cfg.Sandbox.Enabled, cfg.Server.MetricsEnabled)

			resolver, err := workspace.NewResolver(cfg.Sandbox.WorkspaceRoot)
			if err != nil {
				return fmt.Errorf("workspace root: %w", err)
			}
			fmt.Fprintf(out, "Workspace root: %s\n", resolver.Root())
			return nil
		},
	}
}
