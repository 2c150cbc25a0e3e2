// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi_test

import (
	"time"

	"github.com/holomush/mudcore/internal/hostapi"
)

// fakeWorld is a minimal, stateful hostapi.World double driving the
// game.* Lua surface end to end through a real *lua.LState, the way
// internal/scheduler's execution does for real games. Methods the
// registered tests never reach panic, the same convention
// internal/combat's scriptedWorld uses.
type fakeWorld struct {
	objects    map[string]*hostapi.ObjectView
	children   map[string][]string // parentID -> child IDs, insertion order
	actions    map[string]map[string]hostapi.ActionRef
	sent       map[string][]string
	broadcasts map[string][]string
	now        time.Time
	privileged bool
	code       map[string]string
	actorID    string
	thisID     string
	draws      []int64
	nextDraw   int
}

func newFakeWorld(now time.Time) *fakeWorld {
	return &fakeWorld{
		objects:    make(map[string]*hostapi.ObjectView),
		children:   make(map[string][]string),
		actions:    make(map[string]map[string]hostapi.ActionRef),
		sent:       make(map[string][]string),
		broadcasts: make(map[string][]string),
		code:       make(map[string]string),
		now:        now,
	}
}

func (w *fakeWorld) put(id, class string, parent *string, props map[string]any) *hostapi.ObjectView {
	obj := &hostapi.ObjectView{ID: id, Class: class, Parent: parent, Name: id, Properties: props}
	w.objects[id] = obj
	if parent != nil {
		w.children[*parent] = append(w.children[*parent], id)
	}
	return obj
}

func (w *fakeWorld) CreateObject(path, class string, parentID, ownerID *string, overrides map[string]any) (*hostapi.ObjectView, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	return w.put(path, class, parentID, overrides), nil
}

func (w *fakeWorld) GetObject(id string) (*hostapi.ObjectView, error) {
	obj, ok := w.objects[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return obj, nil
}

func (w *fakeWorld) UpdateObject(id string, changes map[string]any) error {
	obj, ok := w.objects[id]
	if !ok {
		return errNotFound(id)
	}
	if obj.Properties == nil {
		obj.Properties = make(map[string]any)
	}
	for k, v := range changes {
		obj.Properties[k] = v
	}
	return nil
}

func (w *fakeWorld) DeleteObject(id string) error {
	delete(w.objects, id)
	return nil
}

func (w *fakeWorld) MoveObject(string, *string) error { panic("unused") }
func (w *fakeWorld) CloneObject(string, string, *string) (*hostapi.ObjectView, error) {
	panic("unused")
}
func (w *fakeWorld) DefineClass(string, hostapi.ClassDef) error { panic("unused") }
func (w *fakeWorld) GetClass(string) (hostapi.ClassDef, bool)   { panic("unused") }
func (w *fakeWorld) GetClassChain(string) ([]string, error)     { panic("unused") }
func (w *fakeWorld) IsA(string, string) bool                    { panic("unused") }
func (w *fakeWorld) ResolveHandlerModule(string) (string, bool) { panic("unused") }
func (w *fakeWorld) NextHandlerClass(string, string, string) (string, bool) {
	panic("unused")
}

func (w *fakeWorld) Environment(id string) (*hostapi.ObjectView, error) {
	obj, ok := w.objects[id]
	if !ok || obj.Parent == nil {
		return nil, errNotFound(id)
	}
	return w.GetObject(*obj.Parent)
}

func (w *fakeWorld) AllInventory(id string) ([]*hostapi.ObjectView, error) {
	out := make([]*hostapi.ObjectView, 0, len(w.children[id]))
	for _, childID := range w.children[id] {
		out = append(out, w.objects[childID])
	}
	return out, nil
}

func (w *fakeWorld) DeepInventory(string) ([]*hostapi.ObjectView, error) { panic("unused") }

func (w *fakeWorld) Present(envID string) ([]*hostapi.ObjectView, error) {
	return w.AllInventory(envID)
}

func (w *fakeWorld) PresentLiving(string) ([]*hostapi.ObjectView, error) { panic("unused") }

func (w *fakeWorld) AddAction(playerID, verb string, ref hostapi.ActionRef) {
	if w.actions[playerID] == nil {
		w.actions[playerID] = make(map[string]hostapi.ActionRef)
	}
	w.actions[playerID][verb] = ref
}

func (w *fakeWorld) RemoveAction(playerID, verb string) {
	delete(w.actions[playerID], verb)
}

func (w *fakeWorld) GetActions(playerID string) map[string]hostapi.ActionRef {
	return w.actions[playerID]
}

func (w *fakeWorld) Send(targetID, text string) {
	w.sent[targetID] = append(w.sent[targetID], text)
}

func (w *fakeWorld) Broadcast(roomID, text string) {
	w.broadcasts[roomID] = append(w.broadcasts[roomID], text)
}

func (w *fakeWorld) BroadcastExcept(roomID, _, text string) {
	w.broadcasts[roomID] = append(w.broadcasts[roomID], text)
}

func (w *fakeWorld) BroadcastRegion(regionID, text string) {
	w.broadcasts[regionID] = append(w.broadcasts[regionID], text)
}

func (w *fakeWorld) CallOut(string, float64, string, []any) (string, error) { panic("unused") }
func (w *fakeWorld) RemoveCallOut(string) bool                              { panic("unused") }
func (w *fakeWorld) FindCallOut(string, string) (float64, bool)             { panic("unused") }
func (w *fakeWorld) SetHeartBeat(string, int) error                         { panic("unused") }
func (w *fakeWorld) LLMChat([]map[string]any, string) (string, error)       { panic("unused") }
func (w *fakeWorld) LLMImage(string, string, string) (string, error)        { panic("unused") }
func (w *fakeWorld) GetCredits(string) (int64, error)                       { panic("unused") }
func (w *fakeWorld) DeductCredits(string, int64, string) (bool, error)      { panic("unused") }
func (w *fakeWorld) AdminGrantCredits(string, int64) (bool, error)          { panic("unused") }
func (w *fakeWorld) CheckPermission(string, string, string, bool, string) hostapi.PermissionResult {
	panic("unused")
}
func (w *fakeWorld) GetAccessLevel(string) (string, error) { panic("unused") }
func (w *fakeWorld) SetAccessLevel(string, string) error   { panic("unused") }
func (w *fakeWorld) AssignRegion(string, string) error     { panic("unused") }
func (w *fakeWorld) UnassignRegion(string, string) error   { panic("unused") }

func (w *fakeWorld) Random(int64, int64) int64 {
	v := w.draws[w.nextDraw]
	w.nextDraw++
	return v
}

func (w *fakeWorld) RollDice(string) int64 {
	v := w.draws[w.nextDraw]
	w.nextDraw++
	return v
}

func (w *fakeWorld) Time() time.Time { return w.now }

func (w *fakeWorld) SetTime(t time.Time) error {
	w.now = t
	return nil
}

func (w *fakeWorld) AdvanceTime(delta time.Duration) error {
	w.now = w.now.Add(delta)
	return nil
}

func (w *fakeWorld) StoreCode(source string) string {
	hash := source // identity hash is good enough for a test double
	w.code[hash] = source
	return hash
}

func (w *fakeWorld) GetCode(hash string) (string, bool) {
	source, ok := w.code[hash]
	return source, ok
}

func (w *fakeWorld) Actor() string      { return w.actorID }
func (w *fakeWorld) ThisObject() string { return w.thisID }
func (w *fakeWorld) Privileged() bool   { return w.privileged }

var _ hostapi.World = (*fakeWorld)(nil)

type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "no such object: " + e.id }

func errNotFound(id string) error { return notFoundError{id: id} }
