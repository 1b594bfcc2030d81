package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/newsletter/pkg/pg"
)

var errMigrateNeedsPostgres = errors.New("migrate requires KV_BACKEND=postgres")

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.App.KVBackend != backendPostgres {
				return errMigrateNeedsPostgres
			}
			log := newLogger(cfg)

			pool, err := pg.Connect(cmd.Context(), cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			if err := pg.Migrate(cmd.Context(), pool, cfg.Postgres, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
