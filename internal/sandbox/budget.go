// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sandbox implements the metered Lua execution context (spec
// §4.4): a fresh, capability-restricted VM per invocation, with
// instruction/memory/wall-clock/oracle-call/store-query limits enforced
// uniformly regardless of which game.* call trips them.
package sandbox

import "time"

// Budget bounds one sandbox execution. Zero Instructions/Memory disables
// that particular check (used by tests); zero WallClock is never valid
// and Default always sets one.
type Budget struct {
	Instructions int64
	MemoryBytes  int64
	WallClock    time.Duration
	OracleCalls  int
	StoreQueries int
}

// Default returns the spec's §4.4 default limits.
func Default() Budget {
	return Budget{
		Instructions: 1_000_000,
		MemoryBytes:  64 * 1024 * 1024,
		WallClock:    500 * time.Millisecond,
		OracleCalls:  5,
		StoreQueries: 100,
	}
}

// WizardEval returns the relaxed budget used by the wizard `eval` REPL:
// 10x instructions, memory, and wall clock; oracle/store limits unchanged.
func WizardEval() Budget {
	b := Default()
	b.Instructions *= 10
	b.MemoryBytes *= 10
	b.WallClock *= 10
	return b
}
