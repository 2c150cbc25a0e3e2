// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package objectgraph

import (
	"time"

	"github.com/holomush/mudcore/internal/property"
)

// View is a copy-on-write overlay over a Graph's committed state, scoped
// to one script execution or command handler (spec §4.1, §9 single-writer
// execution model). Reads see overlay writes immediately; nothing is
// visible outside the View until Commit.
type View struct {
	base      *Graph
	overlay   map[string]*Object
	tombstone map[string]bool
	order     []Intent
	collector Collector
	now       func() time.Time
}

// Get resolves id against the overlay first, falling back to committed
// state. Returns NotFound if id is deleted in this execution or absent.
func (v *View) Get(id string) (*Object, error) {
	if v.tombstone[id] {
		return nil, errNotFound(id)
	}
	if o, ok := v.overlay[id]; ok {
		return o.Clone(), nil
	}
	return v.base.Get(id)
}

func (v *View) exists(id string) bool {
	_, err := v.Get(id)
	return err == nil
}

// Create instantiates a new Object of class, resolving its property
// cascade from overrides, and stages it into the overlay.
func (v *View) Create(id, class string, parent, owner *string, name, description string, overrides map[string]any) (*Object, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if v.exists(id) {
		return nil, errDuplicateID(id)
	}
	defs, err := v.base.classes.AncestorDefs(class)
	if err != nil {
		return nil, errUnknownClass(class)
	}
	if parent != nil {
		if !v.exists(*parent) {
			return nil, errMissingParent(*parent)
		}
	}

	props := property.Resolve(defs, overrides)
	now := v.now()
	obj := &Object{
		ID:          id,
		Universe:    v.base.universe,
		Class:       class,
		Parent:      parent,
		Owner:       owner,
		Name:        name,
		Description: description,
		Properties:  props,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	v.stage(obj)
	if err := v.record(Intent{Kind: IntentCreate, ObjectID: id, Object: obj.Clone()}); err != nil {
		return nil, err
	}
	return obj.Clone(), nil
}

// Update applies patch to a clone of the current object and stages the
// result. patch must not retain the pointer it receives.
func (v *View) Update(id string, patch func(*Object)) (*Object, error) {
	obj, err := v.Get(id)
	if err != nil {
		return nil, err
	}
	patch(obj)
	obj.UpdatedAt = v.now()
	v.stage(obj)
	if err := v.record(Intent{Kind: IntentUpdate, ObjectID: id, Object: obj.Clone()}); err != nil {
		return nil, err
	}
	return obj.Clone(), nil
}

// Move reparents id to newParent (nil moves it to the root/void),
// rejecting a move that would place id inside its own subtree.
func (v *View) Move(id string, newParent *string) error {
	obj, err := v.Get(id)
	if err != nil {
		return err
	}
	if newParent != nil {
		if !v.exists(*newParent) {
			return errMissingParent(*newParent)
		}
		cur := *newParent
		for {
			if cur == id {
				return errCycle(id)
			}
			next, err := v.Get(cur)
			if err != nil || next.Parent == nil {
				break
			}
			cur = *next.Parent
		}
	}
	obj.Parent = newParent
	obj.UpdatedAt = v.now()
	v.stage(obj)
	return v.record(Intent{Kind: IntentMove, ObjectID: id, Parent: newParent})
}

// Delete removes id and, recursively, everything it contains.
func (v *View) Delete(id string) error {
	if _, err := v.Get(id); err != nil {
		return err
	}
	for _, child := range v.Children(id) {
		if err := v.Delete(child.ID); err != nil {
			return err
		}
	}
	v.tombstone[id] = true
	delete(v.overlay, id)
	return v.record(Intent{Kind: IntentDelete, ObjectID: id})
}

// Children returns every object directly parented to parent.
func (v *View) Children(parent string) []*Object {
	var out []*Object
	for id, o := range v.all() {
		if o.Parent != nil && *o.Parent == parent {
			out = append(out, v.mustGet(id))
		}
	}
	return out
}

// Present returns the objects directly contained in roomID, i.e. what a
// player standing there would see listed.
func (v *View) Present(roomID string) []*Object {
	return v.Children(roomID)
}

// PresentLiving narrows Present to objects descended from "living".
func (v *View) PresentLiving(roomID string) []*Object {
	var out []*Object
	for _, o := range v.Present(roomID) {
		if v.base.classes.IsA(o.Class, "living") {
			out = append(out, o)
		}
	}
	return out
}

// Commit applies every staged write to the backing Graph atomically.
// The Collector has already seen every intent by this point; Commit only
// updates the in-memory read view other executions observe.
func (v *View) Commit() {
	v.base.mu.Lock()
	defer v.base.mu.Unlock()
	for id := range v.tombstone {
		delete(v.base.objects, id)
	}
	for id, o := range v.overlay {
		v.base.objects[id] = o
	}
}

// Discard drops every staged write without touching the Graph.
func (v *View) Discard() {
	v.overlay = nil
	v.tombstone = nil
}

// Intents returns every intent recorded so far, in order, for handoff to
// the replication layer alongside Commit.
func (v *View) Intents() []Intent {
	return v.order
}

func (v *View) stage(o *Object) {
	delete(v.tombstone, o.ID)
	v.overlay[o.ID] = o
}

func (v *View) record(i Intent) error {
	if err := v.collector.Record(i); err != nil {
		return err
	}
	v.order = append(v.order, i)
	return nil
}

func (v *View) mustGet(id string) *Object {
	o, _ := v.Get(id)
	return o
}

func (v *View) all() map[string]*Object {
	v.base.mu.RLock()
	merged := make(map[string]*Object, len(v.base.objects)+len(v.overlay))
	for id, o := range v.base.objects {
		merged[id] = o
	}
	v.base.mu.RUnlock()
	for id, o := range v.overlay {
		merged[id] = o
	}
	for id := range v.tombstone {
		delete(merged, id)
	}
	return merged
}
