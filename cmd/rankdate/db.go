package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osuqueue/rankdate/internal/config"
	"github.com/osuqueue/rankdate/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the beatmapsets table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "rankdate.yaml", "path to rankdate config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Connect(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	if err := store.AutoMigrate(db); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated beatmapsets table on %s (%s)\n", cfg.Store.Driver, cfg.Store.DSN)
	return nil
}
