// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

func registerCodeStorage(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "store_code", L.NewFunction(func(L *lua.LState) int {
		hash := st.world.StoreCode(L.CheckString(1))
		L.Push(lua.LString(hash))
		return 1
	}))

	L.SetField(game, "get_code", L.NewFunction(func(L *lua.LState) int {
		source, ok := st.world.GetCode(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(source))
		return 1
	}))
}
