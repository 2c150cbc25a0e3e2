// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

func registerActionsAndMessaging(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "add_action", L.NewFunction(func(L *lua.LState) int {
		playerID := L.CheckString(1)
		verb := L.CheckString(2)
		ref := L.CheckTable(3)
		objectID := ref.RawGetString("object_id").String()
		handler := ref.RawGetString("handler").String()
		st.world.AddAction(playerID, verb, ActionRef{ObjectID: objectID, Handler: handler})
		return 0
	}))

	L.SetField(game, "remove_action", L.NewFunction(func(L *lua.LState) int {
		st.world.RemoveAction(L.CheckString(1), L.CheckString(2))
		return 0
	}))

	L.SetField(game, "get_actions", L.NewFunction(func(L *lua.LState) int {
		actions := st.world.GetActions(L.CheckString(1))
		t := L.NewTable()
		for verb, ref := range actions {
			rt := L.NewTable()
			L.SetField(rt, "object_id", lua.LString(ref.ObjectID))
			L.SetField(rt, "handler", lua.LString(ref.Handler))
			L.SetField(t, verb, rt)
		}
		L.Push(t)
		return 1
	}))

	L.SetField(game, "send", L.NewFunction(func(L *lua.LState) int {
		st.world.Send(L.CheckString(1), L.CheckString(2))
		return 0
	}))

	L.SetField(game, "broadcast", L.NewFunction(func(L *lua.LState) int {
		st.world.Broadcast(L.CheckString(1), L.CheckString(2))
		return 0
	}))

	L.SetField(game, "broadcast_except", L.NewFunction(func(L *lua.LState) int {
		st.world.BroadcastExcept(L.CheckString(1), L.CheckString(2), L.CheckString(3))
		return 0
	}))

	L.SetField(game, "broadcast_region", L.NewFunction(func(L *lua.LState) int {
		st.world.BroadcastRegion(L.CheckString(1), L.CheckString(2))
		return 0
	}))
}
