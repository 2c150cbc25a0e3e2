// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/holomush/mudcore/internal/access"
	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/config"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/objectgraph"
	"github.com/holomush/mudcore/internal/oracle"
	"github.com/holomush/mudcore/internal/raft"
	"github.com/holomush/mudcore/internal/replication"
	"github.com/holomush/mudcore/internal/scheduler"
	"github.com/holomush/mudcore/internal/store"
)

// stack bundles everything one universe's Engine.Run needs, plus the
// pieces a caller tears down on shutdown: the raft node, and (when a
// KeyedStore backs the universe) the UniverseStore snapshot source.
type stack struct {
	Universe      *scheduler.Universe
	Engine        *scheduler.Engine
	Node          *raft.Node
	UniverseStore *store.UniverseStore
}

// buildStack wires one universe's full subsystem graph (spec §5 "each
// universe is an independent instance of every collaborator"): Object
// Graph, Class Registry, Code Store, Credit Ledger, Permissions
// Checker, Content Oracle, Mutation Collector/Replicator, and a
// single-node Consensus Layer whose SnapshotSource is the universe's
// own KeyedStore-backed image when ks is non-nil. A nil ks builds a
// purely in-memory universe (used by the eval REPL, which never
// persists). This node never dials peers, so Propose commits locally
// as soon as it is the leader (spec §4.11's static-node-set contract is
// still satisfied for a one-node set: a lone leader is trivially a
// majority of one). gw is the caller's SessionGateway — core wires a
// push-style adapter over stdin/stdout, eval drives DispatchCommand
// directly and only needs gw to satisfy scheduler.Universe's field.
func buildStack(_ context.Context, cfg config.Config, ks *store.KeyedStore, universeID string, gw gateway.SessionGateway) (*stack, error) {
	classes := classreg.New(nil)
	graph := objectgraph.New(universeID, classes)
	code := codestore.New()
	ledger := credits.New()
	checker := access.NewChecker()
	oracleDouble := oracle.NewTestDouble("")
	rateLimiter := oracle.NewRateLimiter(cfg.Oracle.PerMinutePerSession, time.Now)

	var snapshots raft.SnapshotSource
	var universeStore *store.UniverseStore
	if ks != nil {
		universeStore = store.NewUniverseStore(ks, universeID, graph, classes, code, ledger)
		snapshots = universeStore
	}

	applier := &replication.Applier{Graph: graph, Classes: classes, Code: code, Credits: ledger}
	node := raft.NewNode(raft.Config{
		ID:       cfg.Raft.NodeID,
		IsLeader: cfg.Raft.Leader,
		LeaderID: cfg.Raft.LeaderID,
		Apply: func(ctx context.Context, entry raft.Entry) error {
			logEntry, err := replication.DecodeLogEntry(entry.Payload)
			if err != nil {
				return err
			}
			return applier.Apply(ctx, logEntry)
		},
		Snapshots: snapshots,
	})
	replicator := replication.NewReplicator(node)

	universe := scheduler.NewUniverse(scheduler.UniverseConfig{
		ID:         universeID,
		Graph:      graph,
		Classes:    classes,
		Code:       code,
		Credits:    ledger,
		Access:     checker,
		Oracle:     oracleDouble,
		OracleRate: rateLimiter,
		Gateway:    gw,
		Replicator: replicator,
	})

	return &stack{
		Universe:      universe,
		Engine:        scheduler.NewEngine(universe),
		Node:          node,
		UniverseStore: universeStore,
	}, nil
}
