// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import lua "github.com/yuin/gopher-lua"

func chargeOracleCall(L *lua.LState, st *State) bool {
	if err := st.meter.ChargeOracle(); err != nil {
		L.RaiseError("%s", err.Error())
		return false
	}
	return true
}

func registerOracleAndCredits(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "llm_chat", L.NewFunction(func(L *lua.LState) int {
		if !chargeOracleCall(L, st) {
			return 0
		}
		messagesTbl := L.CheckTable(1)
		tier := L.OptString(2, "balanced")
		var messages []map[string]any
		messagesTbl.ForEach(func(_, v lua.LValue) {
			if mt, ok := v.(*lua.LTable); ok {
				messages = append(messages, tableToMap(mt))
			}
		})
		reply, err := st.world.LLMChat(messages, tier)
		if err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(lua.LString(reply))
		return 1
	}))

	L.SetField(game, "llm_image", L.NewFunction(func(L *lua.LState) int {
		if !chargeOracleCall(L, st) {
			return 0
		}
		prompt := L.CheckString(1)
		style := L.OptString(2, "")
		size := L.OptString(3, "")
		url, err := st.world.LLMImage(prompt, style, size)
		if err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(lua.LString(url))
		return 1
	}))

	L.SetField(game, "get_credits", L.NewFunction(func(L *lua.LState) int {
		amount, err := st.world.GetCredits(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(amount))
		return 1
	}))

	L.SetField(game, "deduct_credits", L.NewFunction(func(L *lua.LState) int {
		amount := int64(L.CheckNumber(2))
		reason := L.OptString(3, "")
		ok, err := st.world.DeductCredits(L.CheckString(1), amount, reason)
		L.Push(lua.LBool(ok && err == nil))
		return 1
	}))

	L.SetField(game, "admin_grant_credits", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("admin_grant_credits requires wizard+ access")
			return 0
		}
		amount := int64(L.CheckNumber(2))
		ok, err := st.world.AdminGrantCredits(L.CheckString(1), amount)
		L.Push(lua.LBool(ok && err == nil))
		return 1
	}))
}
