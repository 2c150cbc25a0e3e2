// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import "github.com/holomush/mudcore/internal/sandbox"

// Budget converts the configured sandbox limits into sandbox.Budget for
// an ordinary command/handler execution.
func (s Sandbox) Budget() sandbox.Budget {
	return sandbox.Budget{
		Instructions: s.MaxInstructions,
		MemoryBytes:  s.MaxMemoryBytes,
		WallClock:    s.WallClock,
		OracleCalls:  s.MaxOracleCalls,
		StoreQueries: s.MaxStoreQueries,
	}
}

// EvalBudget is the wizard `eval` REPL's 10x-metered budget (spec §4.4
// table, SPEC_FULL.md supplemented-features note), reusing WallClock
// from EvalWallClock rather than the ordinary command deadline.
func (s Sandbox) EvalBudget() sandbox.Budget {
	b := s.Budget()
	b.Instructions *= 10
	b.MemoryBytes *= 10
	b.WallClock = s.EvalWallClock
	b.OracleCalls *= 10
	b.StoreQueries *= 10
	return b
}
