// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package scheduler owns the three ordered execution sources described
// in spec §4.7 (command queue, timer heap, heart-beat wheel), the
// per-player Action Table, and the single-writer-per-universe execution
// loop that ties sandbox runs to the Object Graph and Replicator.
package scheduler

import (
	"sync"

	"github.com/holomush/mudcore/internal/hostapi"
	"github.com/holomush/mudcore/internal/replication"
)

// ActionTable is the per-player verb->handler binding table (spec
// §4.5 add_action/remove_action/get_actions). A later add_action for
// the same (player, verb) deterministically replaces the earlier one;
// a plain map assignment already gives us that.
type ActionTable struct {
	mu      sync.RWMutex
	players map[string]map[string]hostapi.ActionRef
}

// NewActionTable creates an empty table.
func NewActionTable() *ActionTable {
	return &ActionTable{players: make(map[string]map[string]hostapi.ActionRef)}
}

// Add installs or replaces the binding for (playerID, verb).
func (t *ActionTable) Add(playerID, verb string, ref hostapi.ActionRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	verbs, ok := t.players[playerID]
	if !ok {
		verbs = make(map[string]hostapi.ActionRef)
		t.players[playerID] = verbs
	}
	verbs[verb] = ref
}

// Remove deletes the binding for (playerID, verb), if any.
func (t *ActionTable) Remove(playerID, verb string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.players[playerID], verb)
}

// Get returns the binding for (playerID, verb), if any.
func (t *ActionTable) Get(playerID, verb string) (hostapi.ActionRef, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ref, ok := t.players[playerID][verb]
	return ref, ok
}

// All returns every binding for playerID, keyed by verb.
func (t *ActionTable) All(playerID string) map[string]hostapi.ActionRef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]hostapi.ActionRef, len(t.players[playerID]))
	for verb, ref := range t.players[playerID] {
		out[verb] = ref
	}
	return out
}

// ApplyAction implements replication.ActionSink, replaying an
// add_action/remove_action change recorded by the Mutation Collector
// (spec §8's Action Table <-> init() consistency invariant).
func (t *ActionTable) ApplyAction(op replication.Operation, playerID string, payload any) error {
	m, _ := payload.(map[string]any)
	switch op {
	case replication.OpCreate:
		verb, _ := m["verb"].(string)
		objectID, _ := m["object_id"].(string)
		handler, _ := m["handler"].(string)
		t.Add(playerID, verb, hostapi.ActionRef{ObjectID: objectID, Handler: handler})
	case replication.OpRemove:
		verb, _ := m["verb"].(string)
		t.Remove(playerID, verb)
	}
	return nil
}

// ClearPlayer drops every binding for playerID (used on disconnect/delete).
func (t *ActionTable) ClearPlayer(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.players, playerID)
}
