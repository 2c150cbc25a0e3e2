// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi

import "time"

// ObjectView is the read/write shape Register hands across the Lua
// boundary; it mirrors objectgraph.Object without importing that
// package, keeping hostapi's only required dependency on the world the
// narrow interface below.
type ObjectView struct {
	ID          string
	Class       string
	Parent      *string
	Owner       *string
	Name        string
	Description string
	Properties  map[string]any
}

// ActionRef is a (object_id, handler_name) pair bound to a verb. Actions
// are encoded this way, never as opaque closures, because they must
// survive replay on a follower (spec §4.5 "would not survive replay").
type ActionRef struct {
	ObjectID string
	Handler  string
}

// ClassDef is the wire shape for define_class/get_class. Code holds the
// class's handler module source (spec §6.2 classes.code_hash); Handlers
// names the handler functions it advertises (class_handlers), used by
// the init() cascade and the parent() trampoline to find the nearest
// ancestor that implements a given handler.
type ClassDef struct {
	ParentName       string
	PropertyDefaults map[string]any
	Version          string
	Code             string
	Handlers         []string
}

// PermissionResult is check_permission's return shape.
type PermissionResult struct {
	Allowed bool
	Reason  string
}

// World is the narrow seam hostapi depends on. The scheduler package
// implements it, binding a single script execution to its View over the
// Object Graph, its Action Table, its message batch, and the shared
// Credit Ledger / Content Oracle / Code Store / access checker.
type World interface {
	CreateObject(path, class string, parentID, ownerID *string, overrides map[string]any) (*ObjectView, error)
	GetObject(id string) (*ObjectView, error)
	UpdateObject(id string, changes map[string]any) error
	DeleteObject(id string) error
	MoveObject(id string, newParent *string) error
	CloneObject(srcID, newPath string, newParent *string) (*ObjectView, error)

	DefineClass(name string, def ClassDef) error
	GetClass(name string) (ClassDef, bool)
	GetClassChain(name string) ([]string, error)
	IsA(id, class string) bool

	// ResolveHandlerModule returns the compiled-once Lua source for a
	// class's handler table (convention: `return { on_init = function
	// (self, other) ... end, ... }`), used both for ordinary dispatch
	// and for the parent() trampoline.
	ResolveHandlerModule(class string) (source string, ok bool)
	// NextHandlerClass returns the class after fromClass in id's
	// ancestor chain that advertises handler, for game.parent().
	NextHandlerClass(id, fromClass, handler string) (string, bool)

	Environment(id string) (*ObjectView, error)
	AllInventory(id string) ([]*ObjectView, error)
	DeepInventory(id string) ([]*ObjectView, error)
	Present(envID string) ([]*ObjectView, error)
	PresentLiving(envID string) ([]*ObjectView, error)

	AddAction(playerID, verb string, ref ActionRef)
	RemoveAction(playerID, verb string)
	GetActions(playerID string) map[string]ActionRef

	Send(targetID, text string)
	Broadcast(roomID, text string)
	BroadcastExcept(roomID, exceptID, text string)
	BroadcastRegion(regionID, text string)

	CallOut(objectID string, delaySeconds float64, method string, args []any) (string, error)
	RemoveCallOut(timerID string) bool
	FindCallOut(objectID, method string) (float64, bool)
	SetHeartBeat(objectID string, intervalMS int) error

	LLMChat(messages []map[string]any, tier string) (string, error)
	LLMImage(prompt, style, size string) (string, error)

	GetCredits(accountID string) (int64, error)
	DeductCredits(accountID string, amount int64, reason string) (bool, error)
	AdminGrantCredits(accountID string, amount int64) (bool, error)

	CheckPermission(actorID, action, targetID string, isFixed bool, regionID string) PermissionResult
	GetAccessLevel(accountID string) (string, error)
	SetAccessLevel(accountID, level string) error
	AssignRegion(accountID, regionID string) error
	UnassignRegion(accountID, regionID string) error

	Random(min, max int64) int64
	RollDice(notation string) int64
	Time() time.Time
	SetTime(t time.Time) error
	AdvanceTime(delta time.Duration) error

	StoreCode(source string) string
	GetCode(hash string) (string, bool)

	// Actor/ThisObject answer the execution's implicit arguments.
	Actor() string
	ThisObject() string

	// Privileged reports whether the current actor may call privileged
	// host functions (admin_grant_credits, set_access_level, set_time,
	// advance_time); enforced before the call reaches World itself.
	Privileged() bool
}
