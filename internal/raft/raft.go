// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package raft implements the Consensus Layer collaborator contract
// (spec §4.11): propose/append/snapshot/install_snapshot/is_leader over
// a fixed, static node set. No pack example vendors a Raft library, and
// the spec itself treats leader-election mechanics as out of scope
// ("leader election details are outside this spec; the core only
// requires" the three properties below) — so this package hand-builds
// the minimal single-leader replicated log sufficient to satisfy them,
// using google.golang.org/grpc (a teacher dependency, see DESIGN.md)
// for inter-node transport and sethvargo/go-retry for the client-side
// NotLeader single-hop retry (spec §7 propagation policy).
package raft

import (
	"context"
	"time"
)

// Entry is the opaque payload Consensus replicates; the replication
// package supplies a replication.LogEntry marshaled to bytes, so raft
// itself stays ignorant of the engine's log entry shape.
type Entry struct {
	Term    uint64
	Index   uint64
	Payload []byte
}

// Commit is Propose's success result (spec §4.11 Commit{index, term}).
type Commit struct {
	Index uint64
	Term  uint64
}

// NotLeaderError reports that the called node is not the current
// leader. Hint names the leader the node was configured with, if any;
// replication.Replicator retries a NotLeader failure once against the
// same Consensus and does not use Hint to reach another node.
type NotLeaderError struct {
	Hint string
}

func (e *NotLeaderError) Error() string {
	if e.Hint == "" {
		return "raft: not leader"
	}
	return "raft: not leader, try " + e.Hint
}

// TimeoutError reports Propose did not commit within the caller's
// deadline (spec §7 ReplicationTimeout).
type TimeoutError struct{}

func (*TimeoutError) Error() string { return "raft: replication timeout" }

// Consensus matches spec §4.11 exactly. Implementations must guarantee:
// (a) at most one leader per term; (b) committed entries are applied in
// order on every replica; (c) Snapshot's bytes include the full
// KeyedStore image.
type Consensus interface {
	// Propose replicates payload and blocks until it commits or the
	// context is canceled. Returns a *NotLeaderError or *TimeoutError on
	// failure, never a committed index for either.
	Propose(ctx context.Context, payload []byte) (Commit, error)
	// Append is the follower-side entry point a leader's transport
	// calls to extend the follower's local log.
	Append(ctx context.Context, entries []Entry) error
	// Snapshot returns the full KeyedStore image as of the last
	// applied index, for a lagging follower to install.
	Snapshot(ctx context.Context) ([]byte, error)
	// InstallSnapshot replaces this node's applied state wholesale.
	InstallSnapshot(ctx context.Context, snapshot []byte) error
	IsLeader() bool
}

// ApplyFunc is invoked, in log order, for every entry this node commits
// — on the leader immediately after Propose's quorum is satisfied, on a
// follower as Append advances its commit index. It must be
// idempotent-safe to call again after a crash replays the log from the
// last snapshot.
type ApplyFunc func(ctx context.Context, entry Entry) error

// Clock is injected so tests can control commit-timeout behavior
// deterministically.
type Clock func() time.Time
