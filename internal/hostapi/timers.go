// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

func registerTimers(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "call_out", L.NewFunction(func(L *lua.LState) int {
		delay := float64(L.CheckNumber(1))
		method := L.CheckString(2)
		var args []any
		if t, ok := L.Get(3).(*lua.LTable); ok {
			args = tableToSlice(t)
		}
		id, err := st.world.CallOut(st.world.ThisObject(), delay, method, args)
		if err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(lua.LString(id))
		return 1
	}))

	L.SetField(game, "remove_call_out", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(st.world.RemoveCallOut(L.CheckString(1))))
		return 1
	}))

	L.SetField(game, "find_call_out", L.NewFunction(func(L *lua.LState) int {
		remaining, ok := st.world.FindCallOut(L.CheckString(1), L.CheckString(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(remaining))
		return 1
	}))

	L.SetField(game, "set_heart_beat", L.NewFunction(func(L *lua.LState) int {
		interval := int(L.CheckNumber(1))
		if err := st.world.SetHeartBeat(st.world.ThisObject(), interval); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))
}
