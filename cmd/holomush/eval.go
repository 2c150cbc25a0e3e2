// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/mudcore/internal/access"
	"github.com/holomush/mudcore/internal/config"
	"github.com/holomush/mudcore/internal/gateway"
)

// NewEvalCmd creates the wizard eval REPL subcommand: a debugging tool
// that runs raw Lua source through the same sandbox.Execution path a
// wizard's in-game `eval` command takes (10x metering, spec §4.4
// table), against an ephemeral in-memory universe that is discarded on
// exit. Grounded on the raw error/line/column eval path original_source
// /mudd/src/lua implements as distinct from normal command dispatch.
func NewEvalCmd() *cobra.Command {
	var universeID, actorID string
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Wizard eval REPL against an ephemeral in-memory universe",
		Long: `Reads Lua source from stdin one line at a time and runs each
non-empty line on its own through the sandbox at wizard eval's relaxed
metering; blank lines are skipped and a statement cannot span lines.
State does not persist across invocations of this command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd.Context(), cmd, universeID, actorID)
		},
	}
	cmd.Flags().StringVar(&universeID, "universe", "eval", "universe ID for the ephemeral session")
	cmd.Flags().StringVar(&actorID, "actor", "wizard", "actor ID the REPL executes as")
	return cmd
}

func runEval(ctx context.Context, cmd *cobra.Command, universeID, actorID string) error {
	cfg := config.Default()
	gw := gateway.NewInMemory(8)
	st, err := buildStack(ctx, cfg, nil, universeID, gw)
	if err != nil {
		return fmt.Errorf("build ephemeral universe: %w", err)
	}
	st.Universe.SetAccessLevel(actorID, access.LevelWizard)

	cmd.Println("eval REPL: wizard-privileged, 10x metering, state discarded on exit")
	printed := 0
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		source := strings.TrimSpace(scanner.Text())
		if source == "" {
			continue
		}
		if source == "exit" || source == "quit" {
			break
		}

		// Dispatched synchronously (no live Gateway loop behind this
		// REPL), so the staged message batch is ready to read the
		// moment DispatchCommand returns.
		st.Engine.DispatchCommand(ctx, actorID, "eval "+source)

		all := gw.Delivered(actorID)
		for _, out := range all[printed:] {
			printOutbound(cmd, actorID, out)
		}
		printed = len(all)
	}
	return scanner.Err()
}
