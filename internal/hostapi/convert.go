// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package hostapi implements the game.* host API (spec §4.5): the
// surface a sandboxed script sees, wired to the world's Object Graph,
// Class Registry, Action Table, Scheduler, Credit Ledger, Content
// Oracle, and Code Store through the narrow World interface.
package hostapi

import lua "github.com/yuin/gopher-lua"

// goToLua converts a Go value produced by the world (property values,
// object field values) into a Lua value.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, goToLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range val {
			L.SetField(t, k, goToLua(L, e))
		}
		return t
	default:
		return lua.LString(toString(val))
	}
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// luaToGo converts a Lua value, typically a property override or
// host-call argument, into a plain Go value suitable for storage on an
// Object.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		if isArray(val) {
			return tableToSlice(val)
		}
		return tableToMap(val)
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}

func tableToMap(tbl *lua.LTable) map[string]any {
	result := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		result[k.String()] = luaToGo(v)
	})
	return result
}

func tableToSlice(tbl *lua.LTable) []any {
	var result []any
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); ok {
			result = append(result, luaToGo(v))
		}
	})
	return result
}

func tableToStringSlice(tbl *lua.LTable) []string {
	var result []string
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); ok {
			result = append(result, v.String())
		}
	})
	return result
}

func isArray(tbl *lua.LTable) bool {
	return tbl.MaxN() > 0
}

// objectToLua renders a world.Object-shaped value (see World.GetObject)
// into the table shape scripts expect: id/class/parent/owner/name/
// description/properties.
func objectToLua(L *lua.LState, o *ObjectView) lua.LValue {
	if o == nil {
		return lua.LNil
	}
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(o.ID))
	L.SetField(t, "class", lua.LString(o.Class))
	if o.Parent != nil {
		L.SetField(t, "parent", lua.LString(*o.Parent))
	}
	if o.Owner != nil {
		L.SetField(t, "owner", lua.LString(*o.Owner))
	}
	L.SetField(t, "name", lua.LString(o.Name))
	L.SetField(t, "description", lua.LString(o.Description))
	props := L.NewTable()
	for k, v := range o.Properties {
		L.SetField(props, k, goToLua(L, v))
	}
	L.SetField(t, "properties", props)
	return t
}

func errTable(L *lua.LState, code, message string) lua.LValue {
	t := L.NewTable()
	L.SetField(t, "error", lua.LString(code))
	L.SetField(t, "message", lua.LString(message))
	return t
}
