// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import (
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// matchPresent finds the object whose Name case-insensitively starts
// with name, breaking ties lexicographically by id (spec §4.1 present
// lookup semantics).
func matchPresent(objs []*ObjectView, name string) *ObjectView {
	needle := strings.ToLower(name)
	var matches []*ObjectView
	for _, o := range objs {
		if strings.HasPrefix(strings.ToLower(o.Name), needle) {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches[0]
}

func objectSliceToLua(L *lua.LState, objs []*ObjectView) *lua.LTable {
	t := L.NewTable()
	for i, o := range objs {
		t.RawSetInt(i+1, objectToLua(L, o))
	}
	return t
}

func registerEnvironmentOps(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "environment", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		obj, err := st.world.Environment(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(objectToLua(L, obj))
		return 1
	}))

	L.SetField(game, "all_inventory", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		objs, err := st.world.AllInventory(L.CheckString(1))
		if err != nil {
			L.Push(L.NewTable())
			return 1
		}
		L.Push(objectSliceToLua(L, objs))
		return 1
	}))

	L.SetField(game, "deep_inventory", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		objs, err := st.world.DeepInventory(L.CheckString(1))
		if err != nil {
			L.Push(L.NewTable())
			return 1
		}
		L.Push(objectSliceToLua(L, objs))
		return 1
	}))

	L.SetField(game, "present", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		name := L.CheckString(1)
		envID := L.CheckString(2)
		objs, err := st.world.Present(envID)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		if match := matchPresent(objs, name); match != nil {
			L.Push(objectToLua(L, match))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	L.SetField(game, "present_living", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		name := L.CheckString(1)
		envID := L.CheckString(2)
		objs, err := st.world.PresentLiving(envID)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		if match := matchPresent(objs, name); match != nil {
			L.Push(objectToLua(L, match))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
}
