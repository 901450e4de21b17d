package main

import (
	"errors"
	"fmt"

	"dubbing-orchestrator/internal/config"
	pg "dubbing-orchestrator/internal/infra/db/postgres"
	"dubbing-orchestrator/internal/infra/logging"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres job store migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		logger := logging.New(cfg.Log, cfg.Debug)
		if cfg.Database.URL == "" {
			return errors.New("database.url is required")
		}

		pool, err := pg.Connect(cmd.Context(), &cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(cmd.Context(), pool, logger); err != nil {
			return err
		}
		logger.Info().Msg("db migrated")
		return nil
	},
}
