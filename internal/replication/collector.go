// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package replication

import (
	"sync"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/objectgraph"
)

// Collector accumulates one execution's ordered Intent list. It
// implements objectgraph.Collector and classreg.Mutator directly so the
// Object Graph and Class Registry can record into it without either
// package depending on replication; other subsystems (code store,
// credits, timers, path grants, actions) that have no dedicated
// recording interface call the Record* helpers below directly from the
// scheduler's World implementation.
//
// A Collector is scoped to exactly one execution; the scheduler opens a
// fresh one per dispatch and discards it on any abort (spec §4.10/§8
// "Atomicity").
type Collector struct {
	mu      sync.Mutex
	intents []Intent
}

// NewCollector opens an empty Collector for one execution.
func NewCollector() *Collector {
	return &Collector{}
}

// Record implements objectgraph.Collector.
func (c *Collector) Record(in objectgraph.Intent) error {
	c.append(FromObjectGraph(in))
	return nil
}

// RecordClassDefine implements classreg.Mutator.
func (c *Collector) RecordClassDefine(def classreg.ClassDef) error {
	c.append(FromClassDefine(def))
	return nil
}

// RecordCode appends a code-store write or reference-count change.
func (c *Collector) RecordCode(op Operation, hash, source string) {
	c.append(Intent{EntityKind: EntityCode, Operation: op, Key: hash, Payload: source})
}

// RecordCredit appends a signed balance change.
func (c *Collector) RecordCredit(universeID, accountID string, amount int64, reason string) {
	c.append(Intent{
		EntityKind: EntityCredit,
		Operation:  OpUpdate,
		Key:        accountID,
		Payload: map[string]any{
			"universe_id": universeID,
			"amount":      amount,
			"reason":      reason,
		},
	})
}

// RecordTimer appends a call_out creation or removal.
func (c *Collector) RecordTimer(op Operation, timerID string, payload any) {
	c.append(Intent{EntityKind: EntityTimer, Operation: op, Key: timerID, Payload: payload})
}

// RecordHeartBeat appends a set_heart_beat change.
func (c *Collector) RecordHeartBeat(objectID string, intervalMS int) {
	c.append(Intent{EntityKind: EntityHeartBeat, Operation: OpSetHeartBeat, Key: objectID, Payload: intervalMS})
}

// RecordPathGrant appends a grant or revoke.
func (c *Collector) RecordPathGrant(op Operation, grantID string, payload any) {
	c.append(Intent{EntityKind: EntityPathGrant, Operation: op, Key: grantID, Payload: payload})
}

// RecordAction appends an add_action/remove_action change, so the
// Action Table ↔ init() consistency invariant (spec §8) survives
// replay on a follower that never runs the cascade's script itself.
func (c *Collector) RecordAction(op Operation, playerID string, payload any) {
	c.append(Intent{EntityKind: EntityAction, Operation: op, Key: playerID, Payload: payload})
}

// RecordAccessControl appends a set_access_level/assign_region change.
func (c *Collector) RecordAccessControl(op Operation, accountID string, payload any) {
	c.append(Intent{EntityKind: EntityAccessCtrl, Operation: op, Key: accountID, Payload: payload})
}

func (c *Collector) append(in Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, in)
}

// Intents returns the ordered list recorded so far.
func (c *Collector) Intents() []Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Intent, len(c.intents))
	copy(out, c.intents)
	return out
}

// Empty reports whether nothing has been recorded, letting the
// scheduler skip proposing a log entry for a read-only command.
func (c *Collector) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.intents) == 0
}
