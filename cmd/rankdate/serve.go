package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/osuqueue/rankdate/internal/config"
	"github.com/osuqueue/rankdate/internal/refresh"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cron-scheduled refresh daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "rankdate.yaml", "path to rankdate config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cycle, err := buildCycle(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Serving on cron %q\n", cfg.Refresh.Cron)

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	refresh.RunForever(cfg.Refresh.Cron, stop, func() {
		if err := cycle.Run(context.Background()); err != nil {
			log.Printf("rankdate: refresh cycle failed: %v", err)
		}
	})
	return nil
}
