// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package objectgraph

import (
	"sync"
	"time"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/ids"
)

// IntentKind names the shape of a recorded mutation (spec §4.10).
type IntentKind string

const (
	IntentCreate IntentKind = "object_create"
	IntentUpdate IntentKind = "object_update"
	IntentMove   IntentKind = "object_move"
	IntentDelete IntentKind = "object_delete"
)

// Intent is one ordered record appended to the Mutation Collector by a
// successful graph operation. The Collector batches these into a single
// Raft log entry when the owning execution commits.
type Intent struct {
	Kind     IntentKind
	ObjectID string
	Object   *Object // populated for Create/Update; the post-mutation snapshot
	Parent   *string // populated for Move
}

// Collector receives mutation intents in execution order. Implementations
// live in the replication package; objectgraph only depends on the
// narrow recording contract.
type Collector interface {
	Record(Intent) error
}

type noopCollector struct{}

func (noopCollector) Record(Intent) error { return nil }

// Graph is the live, committed containment tree for one universe. All
// reads and writes during a script execution instead go through a View
// (see view.go) so that a failed execution never mutates committed state.
type Graph struct {
	mu       sync.RWMutex
	objects  map[string]*Object
	classes  *classreg.Registry
	universe string
}

// New creates an empty Graph for the given universe, backed by classes
// for class lookups and property cascade resolution.
func New(universe string, classes *classreg.Registry) *Graph {
	return &Graph{
		objects:  make(map[string]*Object),
		classes:  classes,
		universe: universe,
	}
}

// Load seeds the Graph from persisted rows, e.g. on startup or after
// InstallSnapshot (spec §4.11). It bypasses intent recording.
func (g *Graph) Load(objs []*Object) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range objs {
		g.objects[o.ID] = o
	}
}

// Snapshot returns every committed object, for persistence or replica
// catch-up (spec §4.11 InstallSnapshot / full-image semantics).
func (g *Graph) Snapshot() []*Object {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Object, 0, len(g.objects))
	for _, o := range g.objects {
		out = append(out, o.Clone())
	}
	return out
}

// Get returns a clone of the committed object, independent of any
// in-flight View.
func (g *Graph) Get(id string) (*Object, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	o, ok := g.objects[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return o.Clone(), nil
}

// NewExecution opens a copy-on-write View over the Graph for the
// duration of one script execution or command handler. collector may be
// nil, in which case mutations are not replicated (used by tests and by
// the single-node bootstrap path before replication is wired up).
func (g *Graph) NewExecution(collector Collector) *View {
	if collector == nil {
		collector = noopCollector{}
	}
	return &View{
		base:      g,
		overlay:   make(map[string]*Object),
		tombstone: make(map[string]bool),
		collector: collector,
		now:       time.Now,
	}
}

func (g *Graph) ancestorChain(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var chain []string
	cur := id
	for cur != "" {
		o, ok := g.objects[cur]
		if !ok {
			break
		}
		chain = append(chain, cur)
		if o.Parent == nil {
			break
		}
		cur = *o.Parent
	}
	return chain
}

// Apply replays a single Intent directly against committed state,
// bypassing View/Collector (spec §4.10 "followers apply the same
// intents on their local KeyedStore without running scripts"). Object
// and Parent are taken verbatim from the intent, which already carries
// the leader's fully-resolved post-mutation snapshot.
func (g *Graph) Apply(in Intent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch in.Kind {
	case IntentCreate, IntentUpdate:
		if in.Object == nil {
			return errPathInvalid(in.ObjectID)
		}
		g.objects[in.ObjectID] = in.Object.Clone()
	case IntentMove:
		o, ok := g.objects[in.ObjectID]
		if !ok {
			return errNotFound(in.ObjectID)
		}
		o.Parent = in.Parent
	case IntentDelete:
		delete(g.objects, in.ObjectID)
	}
	return nil
}

func validateID(id string) error {
	if err := ids.Validate(id); err != nil {
		return errPathInvalid(id)
	}
	return nil
}
