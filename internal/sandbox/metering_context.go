// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sandbox

import (
	"context"
	"sync/atomic"
)

// instructionPollCost is the charge levied each time gopher-lua's
// interpreter polls L.Context().Done() — which it does at every
// backward jump (loop iteration) and at every call boundary, including
// every game.* host call, since a call is compiled the same way a
// backward jump is: a point the VM checks for cancellation before
// continuing. Piggybacking the instruction charge on that poll ties
// metering to genuine interpreter progress instead of a static,
// pre-execution estimate of the source text.
const instructionPollCost = 1

// instructionContext wraps the execution's wall-clock deadline context
// and turns every poll of it into an instruction charge. Once the
// charge trips the budget, Done() starts reporting cancelled (via its
// own, separately-closed channel) and Err() reports the instructions
// kind rather than deferring to the parent's wall_clock kind — so a
// genuine infinite loop aborts with ResourceExceeded{instructions} the
// moment its iteration count crosses the budget, not whenever the
// wall-clock deadline eventually also catches up.
type instructionContext struct {
	context.Context
	meter    *Meter
	exceeded atomic.Bool
	done     chan struct{}
}

func newInstructionContext(parent context.Context, meter *Meter) *instructionContext {
	return &instructionContext{Context: parent, meter: meter, done: make(chan struct{})}
}

func (c *instructionContext) Done() <-chan struct{} {
	if c.exceeded.Load() {
		return c.done
	}
	if err := c.meter.ChargeInstructions(instructionPollCost); err != nil {
		if c.exceeded.CompareAndSwap(false, true) {
			close(c.done)
		}
		return c.done
	}
	return c.Context.Done()
}

func (c *instructionContext) Err() error {
	if c.exceeded.Load() {
		return errResourceExceeded("instructions")
	}
	return c.Context.Err()
}
