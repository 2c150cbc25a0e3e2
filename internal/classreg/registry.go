// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package classreg implements the Class Registry (spec §4.2): a per-universe
// table of class definitions built on a built-in, immutable root chain
// (thing -> {item -> {weapon, armor, container}, living -> {player, npc}},
// room, region).
package classreg

import (
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// PropertyDefault is one entry in a class's property_defaults map.
type PropertyDefault struct {
	Type    string
	Default any
}

// ClassDef is a class definition: name, parent, default properties, and
// the set of handler names the class advertises.
type ClassDef struct {
	Name             string
	ParentName       string // "" for the root "thing"
	PropertyDefaults map[string]PropertyDefault
	HandlerNames     map[string]bool
	Builtin          bool
	Version          *semver.Version
	CodeHash         *string // spec §6.2 classes.code_hash; the handler module's content address
}

// builtinChain is the always-present root class chain (spec §3).
// thing -> item -> {weapon, armor, container}; thing -> living -> {player, npc};
// thing -> room; thing -> region.
var builtinChain = []ClassDef{
	{Name: "thing"},
	{Name: "item", ParentName: "thing"},
	{Name: "weapon", ParentName: "item"},
	{Name: "armor", ParentName: "item"},
	{Name: "container", ParentName: "item"},
	{Name: "living", ParentName: "thing"},
	{Name: "player", ParentName: "living"},
	{Name: "npc", ParentName: "living"},
	{Name: "room", ParentName: "thing"},
	{Name: "region", ParentName: "thing"},
}

// Mutator records class-definition writes against the Mutation Collector
// so custom class definitions are replicated like any other state change.
type Mutator interface {
	RecordClassDefine(def ClassDef) error
}

// Registry is a per-universe class table. The built-in chain shadows
// anything persisted under the same names and can never be redefined.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]ClassDef
	mutator Mutator
}

// New creates a Registry seeded with the built-in chain.
func New(mutator Mutator) *Registry {
	r := &Registry{
		classes: make(map[string]ClassDef, len(builtinChain)),
		mutator: mutator,
	}
	for _, c := range builtinChain {
		c.Builtin = true
		r.classes[c.Name] = c
	}
	return r
}

// Define registers a custom class definition. Returns BuiltinLocked if
// name collides with a built-in, ClassRedefine if a custom class with
// the same name already exists at a higher version than def.Version
// (a monotonic version guard), or UnknownParent if def.ParentName does
// not resolve. Redefining an existing custom class at an equal or higher
// version, or where either version is unset, replaces the old definition;
// no duplicate-name error is returned.
func (r *Registry) Define(def ClassDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.classes[def.Name]; ok {
		if existing.Builtin {
			return oops.In("classreg").Code("BUILTIN_LOCKED").With("class", def.Name).
				Errorf("class %q is a built-in and cannot be redefined", def.Name)
		}
		if def.Version != nil && existing.Version != nil && def.Version.LessThan(existing.Version) {
			return oops.In("classreg").Code("CLASS_REDEFINE").With("class", def.Name).
				With("existing_version", existing.Version.String()).With("new_version", def.Version.String()).
				Errorf("redefinition of %q must not lower its version", def.Name)
		}
	}
	if def.ParentName != "" {
		if _, ok := r.classes[def.ParentName]; !ok {
			return oops.In("classreg").Code("UNKNOWN_PARENT").With("class", def.Name).
				With("parent", def.ParentName).Errorf("unknown parent class %q", def.ParentName)
		}
	}

	if r.mutator != nil {
		if err := r.mutator.RecordClassDefine(def); err != nil {
			return oops.In("classreg").Wrapf(err, "record class define %s", def.Name)
		}
	}
	r.classes[def.Name] = def
	return nil
}

// Get retrieves a class definition by name.
func (r *Registry) Get(name string) (ClassDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.classes[name]
	if !ok {
		return ClassDef{}, oops.In("classreg").Code("NOT_FOUND").With("class", name).
			Errorf("class %q not defined", name)
	}
	return def, nil
}

// Chain returns the ancestor chain from name up to and including "thing",
// e.g. Chain("weapon") -> ["weapon", "item", "thing"].
func (r *Registry) Chain(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chain []string
	seen := make(map[string]bool)
	cur := name
	for cur != "" {
		if seen[cur] {
			return nil, oops.In("classreg").Code("CLASS_CYCLE").With("class", name).
				Errorf("class graph cycle detected at %q", cur)
		}
		seen[cur] = true
		def, ok := r.classes[cur]
		if !ok {
			return nil, oops.In("classreg").Code("NOT_FOUND").With("class", cur).
				Errorf("class %q not defined", cur)
		}
		chain = append(chain, cur)
		cur = def.ParentName
	}
	return chain, nil
}

// AncestorDefs resolves the full chain of ClassDef root-to-leaf (reverse of
// Chain), used by the property cascade (spec §3 "walk C's ancestor chain
// root->leaf").
func (r *Registry) AncestorDefs(name string) ([]ClassDef, error) {
	chain, err := r.Chain(name)
	if err != nil {
		return nil, err
	}
	defs := make([]ClassDef, len(chain))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, n := range chain {
		defs[len(chain)-1-i] = r.classes[n]
	}
	return defs, nil
}

// IsA reports whether class is in the ancestor chain of objectClass.
func (r *Registry) IsA(objectClass, class string) bool {
	chain, err := r.Chain(objectClass)
	if err != nil {
		return false
	}
	for _, c := range chain {
		if c == class {
			return true
		}
	}
	return false
}

// HandlerOwner walks name's ancestor chain and returns the nearest class
// (starting at name itself) that advertises the given handler, used by
// the parent() trampoline (spec §9) and by init()-cascade dispatch.
func (r *Registry) HandlerOwner(name, handler string) (string, bool) {
	chain, err := r.Chain(name)
	if err != nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range chain {
		if r.classes[c].HandlerNames[handler] {
			return c, true
		}
	}
	return "", false
}

// ParentOf returns the class that follows `fromClass` in name's ancestor
// chain, used to resolve game.parent(self, ...) — the trampoline re-dispatches
// on the parent class of the currently executing handler frame (spec §9).
func (r *Registry) ParentOf(name, fromClass, handler string) (string, bool) {
	chain, err := r.Chain(name)
	if err != nil {
		return "", false
	}
	idx := -1
	for i, c := range chain {
		if c == fromClass {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range chain[idx+1:] {
		if r.classes[c].HandlerNames[handler] {
			return c, true
		}
	}
	return "", false
}

// Custom returns every non-builtin class definition, for persistence
// (spec §6.2 classes/class_properties/class_handlers).
func (r *Registry) Custom() []ClassDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ClassDef
	for _, def := range r.classes {
		if !def.Builtin {
			out = append(out, def)
		}
	}
	return out
}

// Load seeds the registry with persisted custom class definitions,
// e.g. on startup or after InstallSnapshot. It bypasses Define's
// mutator recording and version/parent validation, since the rows
// being loaded were already validated when first defined.
func (r *Registry) Load(defs []ClassDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if existing, ok := r.classes[def.Name]; ok && existing.Builtin {
			continue
		}
		r.classes[def.Name] = def
	}
}
