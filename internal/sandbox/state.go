// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sandbox

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary is one Lua standard library considered safe to expose
// inside a sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// defaultSafeLibraries is the allow-list (spec §4.4 "string/table/math/
// utf8 equivalents only"). os, io, debug, package, and coroutine are
// never loaded.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// blockedBaseFunctions removes base-library entry points that would
// otherwise let a script load arbitrary code or reach outside the VM.
var blockedBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load", "collectgarbage"}

// StateFactory builds fresh, capability-restricted Lua states. A new
// state is created for every execution; nothing is reused across
// scripts, so there is no cross-execution state leakage to reason about.
type StateFactory struct {
	libraries []safeLibrary
}

// NewStateFactory returns a factory configured with the default
// sandbox library allow-list.
func NewStateFactory() *StateFactory {
	return &StateFactory{libraries: defaultSafeLibraries()}
}

// NewState creates a fresh Lua state with only the allow-listed
// libraries loaded and the unsafe base functions removed.
func (f *StateFactory) NewState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       256,
		RegistrySize:        4096,
		IncludeGoStackTrace: false,
	})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open library %s: %w", lib.name, err)
		}
	}

	for _, name := range blockedBaseFunctions {
		L.SetGlobal(name, lua.LNil)
	}

	return L, nil
}
