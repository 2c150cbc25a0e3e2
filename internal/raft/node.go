// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package raft

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// Peer is one other member of the static node set (spec §4.11 "a fixed,
// static node set" — this package does not implement leader election,
// per the spec's own scope note that election mechanics are outside
// it).
type Peer struct {
	ID   string
	Addr string
}

// Transport carries AppendEntries/InstallSnapshot to a peer. The grpc
// subpackage provides the production implementation; tests use an
// in-process fake.
type Transport interface {
	AppendEntries(ctx context.Context, peer Peer, req AppendEntriesRequest) (AppendEntriesResponse, error)
	InstallSnapshot(ctx context.Context, peer Peer, req InstallSnapshotRequest) error
}

// AppendEntriesRequest is the leader→follower replication RPC body.
type AppendEntriesRequest struct {
	Term         uint64
	LeaderID     string
	Entries      []Entry
	LeaderCommit uint64
}

// AppendEntriesResponse is the follower's ack.
type AppendEntriesResponse struct {
	Term    uint64
	Success bool
}

// InstallSnapshotRequest carries a full KeyedStore image to a follower.
type InstallSnapshotRequest struct {
	Term     uint64
	LeaderID string
	Data     []byte
}

// SnapshotSource lets Node delegate the actual snapshot bytes to the
// engine's KeyedStore, rather than owning state serialization itself.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, data []byte) error
}

// Node is a single-leader replicated log over a fixed peer set (spec
// §4.11's three properties only require, not a full election
// protocol): exactly one node is configured as leader; followers only
// Append and InstallSnapshot. A majority ack (including the leader's
// own log write) is required before Propose commits, so the
// implementation still tolerates a minority of unreachable followers.
type Node struct {
	mu sync.Mutex

	id       string
	isLeader bool
	leaderID string // used as the NotLeaderError hint on followers
	term     uint64

	log         []Entry
	commitIndex uint64
	applied     uint64

	peers     []Peer
	transport Transport
	apply     ApplyFunc
	snapshots SnapshotSource

	ackTimeout time.Duration
	now        Clock
}

// Config bundles Node's construction parameters.
type Config struct {
	ID         string
	IsLeader   bool
	LeaderID   string
	Term       uint64
	Peers      []Peer
	Transport  Transport
	Apply      ApplyFunc
	Snapshots  SnapshotSource
	AckTimeout time.Duration
	Now        Clock
}

// NewNode builds a Node from cfg, defaulting AckTimeout to 500ms (the
// sandbox's own per-command deadline, spec §4.4) and Now to time.Now.
func NewNode(cfg Config) *Node {
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = 500 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Node{
		id:         cfg.ID,
		isLeader:   cfg.IsLeader,
		leaderID:   cfg.LeaderID,
		term:       cfg.Term,
		peers:      cfg.Peers,
		transport:  cfg.Transport,
		apply:      cfg.Apply,
		snapshots:  cfg.Snapshots,
		ackTimeout: cfg.AckTimeout,
		now:        cfg.Now,
	}
}

func (n *Node) IsLeader() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isLeader
}

// Propose implements Consensus.Propose. On the leader it appends to the
// local log, fans the entry out to every peer concurrently, and
// commits once a majority (including itself) has acked or the
// caller's context/ackTimeout elapses first.
func (n *Node) Propose(ctx context.Context, payload []byte) (Commit, error) {
	n.mu.Lock()
	if !n.isLeader {
		hint := n.leaderID
		n.mu.Unlock()
		return Commit{}, &NotLeaderError{Hint: hint}
	}
	entry := Entry{Term: n.term, Index: uint64(len(n.log)) + 1, Payload: payload}
	n.log = append(n.log, entry)
	term := n.term
	peers := append([]Peer(nil), n.peers...)
	leaderCommit := n.commitIndex
	n.mu.Unlock()

	if len(peers) == 0 {
		return n.commitAndApply(ctx, entry)
	}
	needed := (len(peers) + 1) / 2 // acks needed from followers for a majority of len(peers)+1 nodes including self

	deadline, cancel := context.WithTimeout(ctx, n.ackTimeout)
	defer cancel()

	acked := make(chan bool, len(peers))
	for _, p := range peers {
		p := p
		go func() {
			resp, err := n.transport.AppendEntries(deadline, p, AppendEntriesRequest{
				Term: term, LeaderID: n.id, Entries: []Entry{entry}, LeaderCommit: leaderCommit,
			})
			acked <- err == nil && resp.Success
		}()
	}

	acks := 0
	for i := 0; i < len(peers); i++ {
		select {
		case ok := <-acked:
			if ok {
				acks++
			}
			if acks >= needed {
				return n.commitAndApply(ctx, entry)
			}
		case <-deadline.Done():
			return Commit{}, &TimeoutError{}
		}
	}
	return Commit{}, &TimeoutError{}
}

func (n *Node) commitAndApply(ctx context.Context, entry Entry) (Commit, error) {
	n.mu.Lock()
	if entry.Index > n.commitIndex {
		n.commitIndex = entry.Index
	}
	n.mu.Unlock()

	if n.apply != nil {
		if err := n.apply(ctx, entry); err != nil {
			return Commit{}, oops.In("raft").Code("APPLY_FAILED").Wrapf(err, "apply committed entry %d", entry.Index)
		}
	}
	n.mu.Lock()
	n.applied = entry.Index
	n.mu.Unlock()
	return Commit{Index: entry.Index, Term: entry.Term}, nil
}

// Append implements Consensus.Append: a follower's transport handler
// calls this with entries pushed by the leader.
func (n *Node) Append(ctx context.Context, entries []Entry) error {
	n.mu.Lock()
	n.log = append(n.log, entries...)
	n.mu.Unlock()

	for _, e := range entries {
		n.mu.Lock()
		alreadyApplied := e.Index <= n.applied
		n.mu.Unlock()
		if alreadyApplied {
			continue
		}
		if n.apply != nil {
			if err := n.apply(ctx, e); err != nil {
				return oops.In("raft").Code("APPLY_FAILED").Wrapf(err, "apply replicated entry %d", e.Index)
			}
		}
		n.mu.Lock()
		n.commitIndex = e.Index
		n.applied = e.Index
		n.mu.Unlock()
	}
	return nil
}

func (n *Node) Snapshot(ctx context.Context) ([]byte, error) {
	if n.snapshots == nil {
		return nil, oops.In("raft").Code("NO_SNAPSHOT_SOURCE").Errorf("node %s has no snapshot source configured", n.id)
	}
	return n.snapshots.Snapshot(ctx)
}

func (n *Node) InstallSnapshot(ctx context.Context, snapshot []byte) error {
	if n.snapshots == nil {
		return oops.In("raft").Code("NO_SNAPSHOT_SOURCE").Errorf("node %s has no snapshot source configured", n.id)
	}
	return n.snapshots.Restore(ctx, snapshot)
}

// CommittedIndex reports the highest index this node knows is
// committed, for status/observability reporting.
func (n *Node) CommittedIndex() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.commitIndex
}
