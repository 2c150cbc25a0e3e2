// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the HoloMUSH CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holomush",
		Short: "HoloMUSH core - a Raft-replicated, script-sandboxed MUD engine",
		Long: `HoloMUSH core runs one or more universes, each its own Object
Graph, Class Registry, Code Store, and Consensus Layer instance, driven
by a single-writer command/timer/heart-beat scheduler.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewCoreCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewEvalCmd())

	return cmd
}
