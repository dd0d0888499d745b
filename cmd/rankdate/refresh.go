package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osuqueue/rankdate/internal/config"
)

func newRefreshCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one scheduling cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "rankdate.yaml", "path to rankdate config file")
	return cmd
}

func runRefresh(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cycle, err := buildCycle(cfg)
	if err != nil {
		return err
	}

	if err := cycle.Run(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Refresh cycle complete.")
	return nil
}
