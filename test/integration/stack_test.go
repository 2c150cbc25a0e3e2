// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration_test

import (
	"context"
	"strings"
	"time"

	"github.com/holomush/mudcore/internal/access"
	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/objectgraph"
	"github.com/holomush/mudcore/internal/oracle"
	"github.com/holomush/mudcore/internal/raft"
	"github.com/holomush/mudcore/internal/replication"
	"github.com/holomush/mudcore/internal/scheduler"
)

// testStack mirrors cmd/holomush's buildStack wiring (spec §5 "each
// universe is an independent instance of every collaborator") without
// the KeyedStore-backed snapshot source a live server needs: a single
// leader node that commits locally, since a lone node is trivially a
// majority of one (spec §4.11).
type testStack struct {
	Universe *scheduler.Universe
	Engine   *scheduler.Engine
	Gateway  *gateway.InMemory
}

func newTestStack(universeID string, now time.Time) *testStack {
	classes := classreg.New(nil)
	graph := objectgraph.New(universeID, classes)
	code := codestore.New()
	ledger := credits.New()
	checker := access.NewChecker()
	oracleDouble := oracle.NewTestDouble("")
	rateLimiter := oracle.NewRateLimiter(60, func() time.Time { return now })

	applier := &replication.Applier{Graph: graph, Classes: classes, Code: code, Credits: ledger}
	node := raft.NewNode(raft.Config{
		ID:       "node-1",
		IsLeader: true,
		LeaderID: "node-1",
		Apply: func(ctx context.Context, entry raft.Entry) error {
			logEntry, err := replication.DecodeLogEntry(entry.Payload)
			if err != nil {
				return err
			}
			return applier.Apply(ctx, logEntry)
		},
	})
	replicator := replication.NewReplicator(node)

	gw := gateway.NewInMemory(16)
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
		Now:        now,
	})

	return &testStack{
		Universe: universe,
		Engine:   scheduler.NewEngine(universe),
		Gateway:  gw,
	}
}

// eval runs source as a privileged wizard eval command, synchronously,
// the way the core's REPL and this suite's fixture setup both do.
func (s *testStack) eval(wizardID, source string) {
	s.Universe.SetAccessLevel(wizardID, access.LevelWizard)
	s.Engine.DispatchCommand(context.Background(), wizardID, "eval "+source)
}

func (s *testStack) command(actorID, text string) {
	s.Engine.DispatchCommand(context.Background(), actorID, text)
}

// allObjects returns the universe's full object graph snapshot, for
// assertions that need to count or filter instances by class rather
// than look one up by a known id.
func (s *testStack) allObjects() []*objectgraph.Object {
	return s.Universe.Graph.Snapshot()
}

// joinText concatenates a delivered batch's Output/Error text fields,
// the parts a "You find a flamebrand!"-style assertion cares about.
func joinText(batch []gateway.Outbound) string {
	var b strings.Builder
	for _, o := range batch {
		b.WriteString(o.Text)
		b.WriteString("\n")
	}
	return b.String()
}
