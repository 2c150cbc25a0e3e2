// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sandbox

import (
	"context"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// ExecContext is the implicit execution context injected into every
// invocation (spec §4.4): which actor is driving it, which universe, the
// object the call is dispatched against, the verb/handler name, and the
// source hash being run. Host API functions read this via
// game.get_actor() / game.this_object().
type ExecContext struct {
	ActorID    string
	UniverseID string
	ObjectID   string
	Verb       string
	CodeHash   string
	Now        time.Time
	Args       []lua.LValue
}

// Registrar installs the game.* host API surface (and any other globals)
// into a freshly created state, wiring it to meter and execCtx so that
// every host call can charge the right budget and see the right actor.
// Implemented by the hostapi package; sandbox never imports it, avoiding
// a dependency cycle (hostapi depends on sandbox's types, not vice versa).
type Registrar interface {
	Register(L *lua.LState, meter *Meter, execCtx ExecContext) error
}

// VM runs one metered Lua execution to completion or abort.
type VM struct {
	factory *StateFactory
}

// New creates a VM using the default sandbox state factory.
func New() *VM {
	return &VM{factory: NewStateFactory()}
}

// Result is what a completed execution produced.
type Result struct {
	Values []lua.LValue
}

// Execute compiles and runs source under budget, with execCtx available
// to the Registrar for implicit-argument host calls. On any error
// (syntax, runtime panic, or metering abort) the caller's Collector/
// message batch for this execution MUST be discarded; VM itself does not
// know about either and only reports the failure.
func (vm *VM) Execute(ctx context.Context, source string, budget Budget, execCtx ExecContext, reg Registrar) (*Result, error) {
	exec, err := vm.Open(ctx, budget, execCtx, reg)
	if err != nil {
		return nil, err
	}
	defer exec.Close()
	return exec.RunSource(source, execCtx.Args)
}

// Execution is one open, metered Lua state kept alive across multiple
// handler dispatches (spec §4.6: "the cascade runs inside the same
// sandbox execution as the triggering call", so on_enter/on_init/
// on_move and nested game.parent() calls must all share one VM and one
// Meter). Callers that use Open instead of Execute directly are
// responsible for calling Close exactly once.
type Execution struct {
	L      *lua.LState
	Meter  *Meter
	cancel context.CancelFunc
}

// Open creates a fresh, capability-restricted, metered Lua state and
// runs reg.Register against it, without compiling or running any
// script body. Used by the engine's handler-dispatch driver (command
// verbs, init() cascades, heart-beats, call_outs), which invokes one or
// more compiled class handlers by name against the returned state
// rather than a single top-level script.
func (vm *VM) Open(ctx context.Context, budget Budget, execCtx ExecContext, reg Registrar) (*Execution, error) {
	meter := NewMeter(budget, execCtx.Now)
	deadlineCtx, cancel := context.WithDeadline(ctx, meter.Deadline())
	meteredCtx := newInstructionContext(deadlineCtx, meter)

	L, err := vm.factory.NewState()
	if err != nil {
		cancel()
		return nil, oops.In("sandbox").Wrapf(err, "create lua state")
	}
	L.SetContext(meteredCtx)

	if reg != nil {
		if err := reg.Register(L, meter, execCtx); err != nil {
			L.Close()
			cancel()
			return nil, oops.In("sandbox").Wrapf(err, "register host api")
		}
	}
	return &Execution{L: L, Meter: meter, cancel: cancel}, nil
}

// Close releases the Lua state and its deadline context. Safe to call
// once, after the last handler dispatch of the execution.
func (e *Execution) Close() {
	e.L.Close()
	e.cancel()
}

// RunSource compiles and runs a top-level script body against the
// already-open state (used by Execute, and directly by callers running
// arbitrary source such as wizard `eval`).
func (e *Execution) RunSource(source string, args []lua.LValue) (*Result, error) {
	if err := e.Meter.CheckMemory(estimateMemory(e.L)); err != nil {
		return nil, err
	}

	fn, err := e.L.LoadString(source)
	if err != nil {
		return nil, oops.In("sandbox").Code("SCRIPT_ERROR").Wrapf(err, "compile script")
	}
	e.L.Push(fn)
	for _, arg := range args {
		e.L.Push(arg)
	}
	if err := e.L.PCall(len(args), lua.MultRet, nil); err != nil {
		if ctxErr := e.L.Context().Err(); ctxErr != nil {
			if _, ok := oops.AsOops(ctxErr); ok {
				return nil, ctxErr
			}
			return nil, errResourceExceeded("wall_clock")
		}
		return nil, oops.In("sandbox").Code("SCRIPT_ERROR").Wrapf(err, "run script")
	}

	top := e.L.GetTop()
	values := make([]lua.LValue, top)
	for i := 0; i < top; i++ {
		values[i] = e.L.Get(i + 1)
	}
	e.L.SetTop(0)
	return &Result{Values: values}, nil
}

// estimateMemory approximates interpreter heap use as 64 bytes per value
// on the Lua stack; table and string allocations are not counted, since
// gopher-lua does not expose a true GC byte count.
func estimateMemory(L *lua.LState) int64 {
	return int64(L.GetTop()) * 64
}
