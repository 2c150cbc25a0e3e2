// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/mudcore/internal/sandbox"
)

// frame tracks which class's handler table is currently executing, so
// game.parent() knows where to resume the trampoline.
type frame struct {
	class   string
	handler string
}

// State is the per-execution bookkeeping behind the game.* closures.
// One State is created per Register call (one per sandbox execution)
// and exposed via Registrar.Current so the scheduler can drive handler
// dispatch (on_init cascade, heart-beats, add_action callbacks) through
// the same frame-tracking DispatchHandler used by game.parent().
type State struct {
	world       World
	meter       *sandbox.Meter
	execCtx     sandbox.ExecContext
	modules     map[string]*lua.LTable // compiled class handler tables, memoized for this execution
	frames      []frame
}

// Registrar adapts World to sandbox.Registrar. After VM.Execute calls
// Register, Current holds the State for that execution, which the
// scheduler uses to drive handler dispatch (DispatchHandler) for
// on_init cascades, heart-beats, and add_action callbacks within the
// same Lua state.
type Registrar struct {
	World   World
	Current *State
}

var _ sandbox.Registrar = (*Registrar)(nil)

func (r *Registrar) Register(L *lua.LState, meter *sandbox.Meter, execCtx sandbox.ExecContext) error {
	st := &State{
		world:   r.World,
		meter:   meter,
		execCtx: execCtx,
		modules: make(map[string]*lua.LTable),
	}
	r.Current = st

	game := L.NewTable()
	registerObjectOps(L, game, st)
	registerEnvironmentOps(L, game, st)
	registerActionsAndMessaging(L, game, st)
	registerTimers(L, game, st)
	registerOracleAndCredits(L, game, st)
	registerPermissions(L, game, st)
	registerRNGAndTime(L, game, st)
	registerCodeStorage(L, game, st)

	L.SetField(game, "get_actor", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(st.world.Actor()))
		return 1
	}))
	L.SetField(game, "this_object", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(st.world.ThisObject()))
		return 1
	}))

	L.SetGlobal("game", game)
	return nil
}

func chargeStoreQuery(L *lua.LState, st *State) bool {
	if err := st.meter.ChargeStoreQuery(); err != nil {
		L.RaiseError("%s", err.Error())
		return false
	}
	return true
}

func registerObjectOps(L *lua.LState, game *lua.LTable, st *State) {
	L.SetField(game, "create_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		path := L.CheckString(1)
		class := L.CheckString(2)
		var parent *string
		if p, ok := L.Get(3).(lua.LString); ok {
			s := string(p)
			parent = &s
		}
		var overrides map[string]any
		if t, ok := L.Get(4).(*lua.LTable); ok {
			overrides = tableToMap(t)
		}
		obj, err := st.world.CreateObject(path, class, parent, nil, overrides)
		if err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(objectToLua(L, obj))
		return 1
	}))

	L.SetField(game, "get_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		id := L.CheckString(1)
		obj, err := st.world.GetObject(id)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(objectToLua(L, obj))
		return 1
	}))

	L.SetField(game, "update_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		id := L.CheckString(1)
		changes := tableToMap(L.CheckTable(2))
		err := st.world.UpdateObject(id, changes)
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	L.SetField(game, "delete_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		err := st.world.DeleteObject(L.CheckString(1))
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	L.SetField(game, "move_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		id := L.CheckString(1)
		var parent *string
		if p, ok := L.Get(2).(lua.LString); ok {
			s := string(p)
			parent = &s
		}
		err := st.world.MoveObject(id, parent)
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	L.SetField(game, "clone_object", L.NewFunction(func(L *lua.LState) int {
		if !chargeStoreQuery(L, st) {
			return 0
		}
		src := L.CheckString(1)
		newPath := L.CheckString(2)
		var parent *string
		if p, ok := L.Get(3).(lua.LString); ok {
			s := string(p)
			parent = &s
		}
		obj, err := st.world.CloneObject(src, newPath, parent)
		if err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(objectToLua(L, obj))
		return 1
	}))

	L.SetField(game, "define_class", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		def := L.CheckTable(2)
		cd := ClassDef{ParentName: def.RawGetString("parent").String()}
		if pd, ok := def.RawGetString("property_defaults").(*lua.LTable); ok {
			cd.PropertyDefaults = tableToMap(pd)
		}
		if v := def.RawGetString("version"); v != lua.LNil {
			cd.Version = v.String()
		}
		if code := def.RawGetString("code"); code != lua.LNil {
			cd.Code = code.String()
		}
		if handlers, ok := def.RawGetString("handlers").(*lua.LTable); ok {
			cd.Handlers = tableToStringSlice(handlers)
		}
		if err := st.world.DefineClass(name, cd); err != nil {
			L.Push(errTable(L, "error", err.Error()))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	L.SetField(game, "get_class", L.NewFunction(func(L *lua.LState) int {
		cd, ok := st.world.GetClass(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "parent", lua.LString(cd.ParentName))
		L.Push(t)
		return 1
	}))

	L.SetField(game, "get_class_chain", L.NewFunction(func(L *lua.LState) int {
		chain, err := st.world.GetClassChain(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		for i, c := range chain {
			t.RawSetInt(i+1, lua.LString(c))
		}
		L.Push(t)
		return 1
	}))

	L.SetField(game, "is_a", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(st.world.IsA(L.CheckString(1), L.CheckString(2))))
		return 1
	}))

	L.SetField(game, "parent", L.NewFunction(func(L *lua.LState) int {
		return callParentTrampoline(L, st)
	}))
}

// callParentTrampoline resolves, compiles (once per execution), and
// invokes the nearest ancestor class's handler of the same name as the
// currently executing frame, passing through the caller's arguments
// (spec §4.5 `parent(self, ...args)`).
func callParentTrampoline(L *lua.LState, st *State) int {
	if len(st.frames) == 0 {
		L.RaiseError("game.parent() called outside a handler invocation")
		return 0
	}
	top := st.frames[len(st.frames)-1]
	self := L.CheckString(1)

	nextClass, ok := st.world.NextHandlerClass(self, top.class, top.handler)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	fn, ok := lookupHandler(L, st, nextClass, top.handler)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	args := []lua.LValue{}
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, L.Get(i))
	}

	st.frames = append(st.frames, frame{class: nextClass, handler: top.handler})
	defer func() { st.frames = st.frames[:len(st.frames)-1] }()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	ret := L.Get(-1)
	L.Pop(1)
	L.Push(ret)
	return 1
}

func lookupHandler(L *lua.LState, st *State, class, handler string) (lua.LValue, bool) {
	mod, ok := st.modules[class]
	if !ok {
		source, found := st.world.ResolveHandlerModule(class)
		if !found {
			return nil, false
		}
		fn, err := L.LoadString(source)
		if err != nil {
			return nil, false
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
			return nil, false
		}
		ret := L.Get(-1)
		L.Pop(1)
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return nil, false
		}
		mod = tbl
		st.modules[class] = mod
	}
	fn := mod.RawGetString(handler)
	if fn == lua.LNil {
		return nil, false
	}
	return fn, true
}

// DispatchHandler invokes class's handler by name with args, tracking
// the frame so a nested game.parent() call resolves correctly. Used by
// the scheduler to run on_init/on_move/on_enter/heart-beat/verb
// dispatch and by add_action callback invocation.
func DispatchHandler(L *lua.LState, st *State, class, handler string, args []lua.LValue) (lua.LValue, bool, error) {
	fn, ok := lookupHandler(L, st, class, handler)
	if !ok {
		return lua.LNil, false, nil
	}
	st.frames = append(st.frames, frame{class: class, handler: handler})
	defer func() { st.frames = st.frames[:len(st.frames)-1] }()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, true, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, true, nil
}
