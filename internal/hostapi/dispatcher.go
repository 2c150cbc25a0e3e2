// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

// Dispatcher lets the engine invoke class handlers by name against the
// same open sandbox.Execution a command handler is already running in
// (spec §4.6: the init() cascade shares one sandbox execution with its
// triggering call). The engine obtains one from Registrar.Current after
// sandbox.VM.Open/Execute registers the game.* surface, then drives
// on_enter/on_init/on_move, heart-beats, and call_out dispatch through
// it using plain Go values.
type Dispatcher struct {
	L  *lua.LState
	St *State
}

// NewDispatcher builds a Dispatcher over an already-registered state.
func NewDispatcher(L *lua.LState, st *State) *Dispatcher {
	return &Dispatcher{L: L, St: st}
}

// Call invokes class's handler by name with args, returning the
// handler's first return value as a Go value, whether a handler of that
// name was found on the class's chain, and any runtime error. A handler
// invoked this way may itself call game.parent(), game.add_action, or
// any other game.* function, since it runs on the same Lua state as the
// rest of the execution.
func (d *Dispatcher) Call(class, handler string, args ...any) (any, bool, error) {
	lvArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lvArgs[i] = goToLua(d.L, a)
	}
	ret, ok, err := DispatchHandler(d.L, d.St, class, handler, lvArgs)
	if err != nil || !ok {
		return nil, ok, err
	}
	return luaToGo(ret), true, nil
}
