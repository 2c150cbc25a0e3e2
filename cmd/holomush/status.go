// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/mudcore/internal/config"
	"github.com/holomush/mudcore/internal/store"
)

// NewStatusCmd creates the status subcommand: reports the KeyedStore's
// schema version and Consensus Layer bookkeeping without starting a
// Scheduler, for operators checking a universe between deploys.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report schema version and raft log status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd)
		},
	}
	cmd.Flags().String("store-dsn", "", "Postgres DSN (overrides config file store.dsn)")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dsn, _ := cmd.Flags().GetString("store-dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("no store DSN configured (set store.dsn in the config file or pass --store-dsn)")
	}

	migrator, err := store.NewMigrator(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	pending, err := migrator.PendingMigrations()
	if err != nil {
		return fmt.Errorf("list pending migrations: %w", err)
	}
	cmd.Printf("schema version: %d (dirty=%t)\n", version, dirty)
	cmd.Printf("pending migrations: %d\n", len(pending))

	ks, err := store.NewKeyedStore(ctx, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer ks.Close()

	lastIndex, err := ks.LastRaftIndex(ctx)
	if err != nil {
		return fmt.Errorf("read raft log: %w", err)
	}
	vote, err := ks.LoadRaftVote(ctx)
	if err != nil {
		return fmt.Errorf("read raft vote: %w", err)
	}
	cmd.Printf("raft log: last index %d\n", lastIndex)
	cmd.Printf("raft vote: term %d, node %q, committed=%t\n", vote.Term, vote.NodeID, vote.Committed)

	universes, err := ks.ListUniverses(ctx)
	if err != nil {
		return fmt.Errorf("list universes: %w", err)
	}
	cmd.Printf("universes: %d\n", len(universes))
	for _, u := range universes {
		cmd.Printf("  %s (%s)\n", u.ID, u.Name)
	}
	return nil
}
