// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

func registerRNGAndTime(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "random", L.NewFunction(func(L *lua.LState) int {
		min := int64(L.CheckNumber(1))
		max := int64(L.CheckNumber(2))
		L.Push(lua.LNumber(st.world.Random(min, max)))
		return 1
	}))

	L.SetField(game, "roll_dice", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(st.world.RollDice(L.CheckString(1))))
		return 1
	}))

	L.SetField(game, "time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(st.world.Time().UnixMilli()))
		return 1
	}))

	L.SetField(game, "set_time", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("set_time requires wizard+ access")
			return 0
		}
		ms := int64(L.CheckNumber(1))
		if err := st.world.SetTime(time.UnixMilli(ms)); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))

	L.SetField(game, "advance_time", L.NewFunction(func(L *lua.LState) int {
		if !st.world.Privileged() {
			L.RaiseError("advance_time requires wizard+ access")
			return 0
		}
		deltaMS := int64(L.CheckNumber(1))
		if err := st.world.AdvanceTime(time.Duration(deltaMS) * time.Millisecond); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))

	// time_gate(object_id, property, cooldown_ms) reads property off
	// object_id as a last-fired timestamp, and — only if at least
	// cooldown_ms has elapsed since it — stamps property to the current
	// time and returns true. Used by cooldown-gated behavior (spawners,
	// recharging items) so a class doesn't hand-roll game.time() plus
	// get_object/update_object itself (spec §8 "Spawner cooldown").
	L.SetField(game, "time_gate", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		objectID := L.CheckString(1)
		property := L.CheckString(2)
		cooldownMS := int64(L.CheckNumber(3))

		obj, err := st.world.GetObject(objectID)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		var last int64
		switch v := obj.Properties[property].(type) {
		case int64:
			last = v
		case float64:
			last = int64(v)
		}
		now := st.world.Time().UnixMilli()
		if now-last < cooldownMS {
			L.Push(lua.LBool(false))
			return 1
		}
		if err := st.world.UpdateObject(objectID, map[string]any{property: now}); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LBool(true))
		return 1
	}))
}
