// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"sync"
	"time"

	"github.com/holomush/mudcore/internal/access"
	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/objectgraph"
	"github.com/holomush/mudcore/internal/oracle"
	"github.com/holomush/mudcore/internal/replication"
)

// Universe bundles every subsystem a single universe's script
// executions share: the Object Graph, Class Registry, Code Store,
// Credit Ledger, access Checker, Content Oracle, and the three ordered
// execution sources (spec §4.7). A Universe is driven by exactly one
// Loop goroutine at a time (spec §9 single-writer execution model), so
// its own mutex only protects the bookkeeping maps read by other
// goroutines (status reporting, concurrent game.get_credits reads).
type Universe struct {
	ID string

	Graph      *objectgraph.Graph
	Classes    *classreg.Registry
	Code       *codestore.Store
	Credits    *credits.Ledger
	Access     *access.Checker
	Oracle     oracle.ContentOracle
	OracleRate *oracle.RateLimiter

	Actions    *ActionTable
	Timers     *TimerHeap
	HeartBeats *HeartbeatWheel
	Queue      *CommandQueue

	Gateway    gateway.SessionGateway
	Replicator *replication.Replicator

	mu       sync.Mutex
	clock    time.Time
	accounts map[string]access.Level
	regions  map[string]map[string]bool
	seq      uint64
}

// UniverseConfig bundles Universe's dependencies.
type UniverseConfig struct {
	ID         string
	Graph      *objectgraph.Graph
	Classes    *classreg.Registry
	Code       *codestore.Store
	Credits    *credits.Ledger
	Access     *access.Checker
	Oracle     oracle.ContentOracle
	OracleRate *oracle.RateLimiter
	Gateway    gateway.SessionGateway
	Replicator *replication.Replicator
	Now        time.Time
}

// NewUniverse builds a Universe, defaulting any unset ordered-execution
// source or clock to a fresh instance/time.Now.
func NewUniverse(cfg UniverseConfig) *Universe {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Universe{
		ID:         cfg.ID,
		Graph:      cfg.Graph,
		Classes:    cfg.Classes,
		Code:       cfg.Code,
		Credits:    cfg.Credits,
		Access:     cfg.Access,
		Oracle:     cfg.Oracle,
		OracleRate: cfg.OracleRate,
		Actions:    NewActionTable(),
		Timers:     NewTimerHeap(),
		HeartBeats: NewHeartbeatWheel(),
		Queue:      NewCommandQueue(),
		Gateway:    cfg.Gateway,
		Replicator: cfg.Replicator,
		clock:      now,
		accounts:   make(map[string]access.Level),
		regions:    make(map[string]map[string]bool),
	}
}

// Now reports the universe's current clock (spec §4.5 time()/advance_time,
// §4.9's requirement that replayed executions see the leader's frozen
// now_ms rather than wall-clock drift).
func (u *Universe) Now() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.clock
}

func (u *Universe) setClock(t time.Time) {
	u.mu.Lock()
	u.clock = t
	u.mu.Unlock()
}

func (u *Universe) advanceClock(d time.Duration) {
	u.mu.Lock()
	u.clock = u.clock.Add(d)
	u.mu.Unlock()
}

// nextSeq issues the next command sequence number, used both to stamp
// the replicated LogEntry and to derive an execution's deterministic
// RNG seed (spec §4.5 random/roll_dice).
func (u *Universe) nextSeq() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	return u.seq
}

// AccessLevel returns accountID's access level, defaulting to player.
func (u *Universe) AccessLevel(accountID string) access.Level {
	u.mu.Lock()
	defer u.mu.Unlock()
	if lvl, ok := u.accounts[accountID]; ok {
		return lvl
	}
	return access.LevelPlayer
}

// SetAccessLevel installs accountID's access level.
func (u *Universe) SetAccessLevel(accountID string, lvl access.Level) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.accounts[accountID] = lvl
}

// AssignRegion grants accountID authority over regionID (spec §4.8
// region assignment, a coarser-grained alternative to a path grant).
func (u *Universe) AssignRegion(accountID, regionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	set, ok := u.regions[accountID]
	if !ok {
		set = make(map[string]bool)
		u.regions[accountID] = set
	}
	set[regionID] = true
}

// UnassignRegion revokes a region assignment.
func (u *Universe) UnassignRegion(accountID, regionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.regions[accountID], regionID)
}

// HasRegion reports whether accountID is assigned regionID.
func (u *Universe) HasRegion(accountID, regionID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regions[accountID][regionID]
}

// ApplyAccessControl implements replication.AccessSink, replaying a
// set_access_level/assign_region/unassign_region change.
func (u *Universe) ApplyAccessControl(op replication.Operation, accountID string, payload any) error {
	m, _ := payload.(map[string]any)
	switch op {
	case replication.OpSet:
		level, _ := m["level"].(string)
		u.SetAccessLevel(accountID, access.Level(level))
	case replication.OpGrant:
		regionID, _ := m["region_id"].(string)
		u.AssignRegion(accountID, regionID)
	case replication.OpRevoke:
		regionID, _ := m["region_id"].(string)
		u.UnassignRegion(accountID, regionID)
	}
	return nil
}
