// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/mudcore/internal/config"
	"github.com/holomush/mudcore/internal/store"
)

// NewMigrateCmd creates the migrate subcommand tree over
// internal/store.Migrator (spec §6.2's schema, embedded as golang-migrate
// SQL files).
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the KeyedStore schema",
	}
	cmd.PersistentFlags().String("store-dsn", "", "Postgres DSN (overrides config file store.dsn)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error { return m.Up() })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error { return m.Down() })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty=%t)\n", version, dirty)
				return nil
			})
		},
	})
	cmd.AddCommand(newMigrateStepsCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateStepsCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Apply n migrations (negative n rolls back)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error { return m.Steps(n) })
		},
	}
	cmd.Flags().IntVar(&n, "n", 1, "number of migrations to apply (negative to roll back)")
	return cmd
}

func newMigrateForceCmd() *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "force",
		Short: "Set the schema version without running migrations",
		Long: `Force sets the recorded schema version without applying any
migration. Use only to recover from a dirty state after manually fixing
the database; an incorrect version causes subsequent migrations to be
skipped or re-applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if version < 0 {
				return fmt.Errorf("version must be non-negative, got %d", version)
			}
			return withMigrator(cmd, func(m *store.Migrator) error { return m.Force(version) })
		},
	}
	cmd.Flags().IntVar(&version, "version", -1, "version to force (required)")
	return cmd
}

// withMigrator resolves the store DSN from --config/--store-dsn,
// builds a Migrator, runs fn, and always closes it.
func withMigrator(cmd *cobra.Command, fn func(*store.Migrator) error) error {
	dsn, err := resolveStoreDSN(cmd)
	if err != nil {
		return err
	}
	m, err := store.NewMigrator(dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}

// resolveStoreDSN layers internal/config's defaults/file/flags, then
// lets this command's own --store-dsn flag override the result.
func resolveStoreDSN(cmd *cobra.Command) (string, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if dsn, _ := cmd.Flags().GetString("store-dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if cfg.Store.DSN == "" {
		return "", fmt.Errorf("no store DSN configured (set store.dsn in the config file or pass --store-dsn)")
	}
	return cfg.Store.DSN, nil
}
