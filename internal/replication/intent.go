// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package replication implements the Mutation Collector and Replicator
// (spec §4.10): it aggregates every subsystem's ordered mutation
// intents during one script execution, serializes them with the
// triggering command's metadata into a log entry, and drives that
// entry through the Consensus Layer before applying it atomically.
package replication

import (
	"encoding/json"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/objectgraph"
)

// EntityKind names which subsystem an Intent belongs to, so a follower
// applying a log entry (without running any script) knows which
// in-memory structure to replay it against.
type EntityKind string

const (
	EntityObject     EntityKind = "object"
	EntityClass      EntityKind = "class"
	EntityCode       EntityKind = "code"
	EntityCredit     EntityKind = "credit"
	EntityTimer      EntityKind = "timer"
	EntityPathGrant  EntityKind = "path_grant"
	EntityAction     EntityKind = "action"
	EntityHeartBeat  EntityKind = "heartbeat"
	EntityAccessCtrl EntityKind = "access_control"
)

// Operation names the mutation shape within an EntityKind.
type Operation string

const (
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpMove         Operation = "move"
	OpDelete       Operation = "delete"
	OpDefine       Operation = "define"
	OpIncref       Operation = "incref"
	OpDecref       Operation = "decref"
	OpGrant        Operation = "grant"
	OpRevoke       Operation = "revoke"
	OpSet          Operation = "set"
	OpRemove       Operation = "remove"
	OpCallOut      Operation = "call_out"
	OpRemoveTimer  Operation = "remove_timer"
	OpSetHeartBeat Operation = "set_heartbeat"
)

// Intent is one semantic mutation record (spec §4.10: "not raw SQL
// strings, but semantic pairs: {entity_kind, operation, key, payload}").
// Payload is a plain, JSON-marshalable value so log entries round-trip
// through any encoding (spec §6.3).
type Intent struct {
	EntityKind EntityKind
	Operation  Operation
	Key        string
	Payload    any
}

// FromObjectGraph converts an objectgraph.Intent into the generic shape
// recorded on a log entry.
func FromObjectGraph(in objectgraph.Intent) Intent {
	op := map[objectgraph.IntentKind]Operation{
		objectgraph.IntentCreate: OpCreate,
		objectgraph.IntentUpdate: OpUpdate,
		objectgraph.IntentMove:   OpMove,
		objectgraph.IntentDelete: OpDelete,
	}[in.Kind]
	payload := map[string]any{"object": in.Object, "parent": in.Parent}
	return Intent{EntityKind: EntityObject, Operation: op, Key: in.ObjectID, Payload: payload}
}

// FromClassDefine converts a classreg.ClassDef write into the generic
// shape recorded on a log entry.
func FromClassDefine(def classreg.ClassDef) Intent {
	return Intent{EntityKind: EntityClass, Operation: OpDefine, Key: def.Name, Payload: def}
}

// UnmarshalJSON restores Payload to the concrete type each EntityKind's
// consumer expects, rather than the generic map/float64 shape the
// encoding/json package would otherwise produce for a bare `any` field.
// A follower decoding a log entry off the wire relies on this to see the
// same *objectgraph.Object and classreg.ClassDef values the leader held
// in-process (spec §4.10 "followers apply the same intents ... without
// running scripts").
func (in *Intent) UnmarshalJSON(data []byte) error {
	var raw struct {
		EntityKind EntityKind
		Operation  Operation
		Key        string
		Payload    json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.EntityKind = raw.EntityKind
	in.Operation = raw.Operation
	in.Key = raw.Key
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		return nil
	}
	switch raw.EntityKind {
	case EntityObject:
		var p struct {
			Object *objectgraph.Object
			Parent *string
		}
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		in.Payload = map[string]any{"object": p.Object, "parent": p.Parent}
	case EntityClass:
		var def classreg.ClassDef
		if err := json.Unmarshal(raw.Payload, &def); err != nil {
			return err
		}
		in.Payload = def
	case EntityHeartBeat:
		var interval int
		if err := json.Unmarshal(raw.Payload, &interval); err != nil {
			return err
		}
		in.Payload = interval
	default:
		var v any
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		in.Payload = v
	}
	return nil
}
