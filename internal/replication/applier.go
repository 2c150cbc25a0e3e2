// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package replication

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/objectgraph"
)

// ActionSink, TimerSink, HeartBeatSink, PathGrantSink, and AccessSink
// are the narrow seams Applier uses to replay entity kinds that live
// in the scheduler/access packages, avoiding an import cycle back into
// replication from those packages.
type ActionSink interface {
	ApplyAction(op Operation, playerID string, payload any) error
}

type TimerSink interface {
	ApplyTimer(op Operation, timerID string, payload any) error
}

type HeartBeatSink interface {
	ApplyHeartBeat(objectID string, intervalMS int) error
}

type PathGrantSink interface {
	ApplyPathGrant(op Operation, grantID string, payload any) error
}

type AccessSink interface {
	ApplyAccessControl(op Operation, accountID string, payload any) error
}

// Applier replays a committed LogEntry's intents directly against each
// subsystem's committed state, never invoking the sandbox (spec §4.10
// "followers apply the same intents ... without running scripts").
// The same Applier also serves as the leader's own post-commit apply
// step, so there is exactly one code path for "make an intent list
// durable."
type Applier struct {
	Graph   *objectgraph.Graph
	Classes *classreg.Registry
	Code    *codestore.Store
	Credits *credits.Ledger

	Actions    ActionSink
	Timers     TimerSink
	HeartBeats HeartBeatSink
	Grants     PathGrantSink
	Access     AccessSink
}

// Apply replays every intent and credit delta in entry, in order. A
// failure partway through leaves the subsystems it already touched
// mutated — by this point the entry has already committed in the
// Consensus Layer, so partial application here means local state
// corruption (logged, not expected), not a script-visible failure.
func (a *Applier) Apply(ctx context.Context, entry LogEntry) error {
	for _, in := range entry.Intents {
		if err := a.applyIntent(ctx, in); err != nil {
			return oops.In("replication").Wrapf(err, "apply intent %s/%s on %s", in.EntityKind, in.Operation, in.Key)
		}
	}
	for _, d := range entry.CreditDeltas {
		if a.Credits != nil {
			a.Credits.Apply(credits.Delta{UniverseID: d.UniverseID, AccountID: d.AccountID, Amount: d.Amount, Reason: d.Reason})
		}
	}
	return nil
}

func (a *Applier) applyIntent(_ context.Context, in Intent) error {
	switch in.EntityKind {
	case EntityObject:
		return a.applyObject(in)
	case EntityClass:
		return a.applyClass(in)
	case EntityCode:
		return a.applyCode(in)
	case EntityTimer:
		if a.Timers != nil {
			return a.Timers.ApplyTimer(in.Operation, in.Key, in.Payload)
		}
	case EntityHeartBeat:
		if a.HeartBeats != nil {
			interval, _ := in.Payload.(int)
			return a.HeartBeats.ApplyHeartBeat(in.Key, interval)
		}
	case EntityPathGrant:
		if a.Grants != nil {
			return a.Grants.ApplyPathGrant(in.Operation, in.Key, in.Payload)
		}
	case EntityAction:
		if a.Actions != nil {
			return a.Actions.ApplyAction(in.Operation, in.Key, in.Payload)
		}
	case EntityAccessCtrl:
		if a.Access != nil {
			return a.Access.ApplyAccessControl(in.Operation, in.Key, in.Payload)
		}
	}
	return nil
}

func (a *Applier) applyObject(in Intent) error {
	payload, _ := in.Payload.(map[string]any)
	obj, _ := payload["object"].(*objectgraph.Object)
	var parent *string
	if p, ok := payload["parent"].(*string); ok {
		parent = p
	}
	kind := map[Operation]objectgraph.IntentKind{
		OpCreate: objectgraph.IntentCreate,
		OpUpdate: objectgraph.IntentUpdate,
		OpMove:   objectgraph.IntentMove,
		OpDelete: objectgraph.IntentDelete,
	}[in.Operation]
	return a.Graph.Apply(objectgraph.Intent{Kind: kind, ObjectID: in.Key, Object: obj, Parent: parent})
}

func (a *Applier) applyClass(in Intent) error {
	def, ok := in.Payload.(classreg.ClassDef)
	if !ok {
		return nil
	}
	return a.Classes.Define(def)
}

func (a *Applier) applyCode(in Intent) error {
	source, _ := in.Payload.(string)
	switch in.Operation {
	case OpCreate:
		a.Code.Store(source)
	case OpIncref:
		return a.Code.Incref(in.Key)
	case OpDecref:
		return a.Code.Decref(in.Key)
	}
	return nil
}
