// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

func registerPermissions(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "check_permission", L.NewFunction(func(L *lua.LState) int {
		action := L.CheckString(1)
		targetID := L.CheckString(2)
		isFixed := L.OptBool(3, false)
		regionID := L.OptString(4, "")
		res := st.world.CheckPermission(st.world.Actor(), action, targetID, isFixed, regionID)
		t := L.NewTable()
		L.SetField(t, "allowed", lua.LBool(res.Allowed))
		if res.Reason != "" {
			L.SetField(t, "error", lua.LString(res.Reason))
		}
		L.Push(t)
		return 1
	}))

	L.SetField(game, "get_access_level", L.NewFunction(func(L *lua.LState) int {
		level, err := st.world.GetAccessLevel(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(level))
		return 1
	}))

	L.SetField(game, "set_access_level", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("set_access_level requires wizard+ access")
			return 0
		}
		if err := st.world.SetAccessLevel(L.CheckString(1), L.CheckString(2)); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))

	L.SetField(game, "assign_region", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("assign_region requires wizard+ access")
			return 0
		}
		if err := st.world.AssignRegion(L.CheckString(1), L.CheckString(2)); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))

	L.SetField(game, "unassign_region", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("unassign_region requires wizard+ access")
			return 0
		}
		if err := st.world.UnassignRegion(L.CheckString(1), L.CheckString(2)); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))
}
