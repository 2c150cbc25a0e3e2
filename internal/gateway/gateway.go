// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package gateway defines the SessionGateway collaborator boundary
// (spec §6.1): command framing in from transport, staged outbound
// message types out. Only the interface and an in-memory test double
// are specified here — the transport implementation (telnet/websocket/
// whatever) is explicitly out of scope (spec §1).
package gateway

// Command is one inbound frame (spec §6.1): actor_id/universe_id
// identify the session, text is the raw line, parsed downstream by
// splitting on whitespace into verb + argument string.
type Command struct {
	ActorID    string
	UniverseID string
	Text       string
}

// OutboundKind enumerates spec §6.1's outbound message types.
type OutboundKind string

const (
	KindWelcome OutboundKind = "welcome"
	KindOutput  OutboundKind = "output"
	KindRoom    OutboundKind = "room"
	KindError   OutboundKind = "error"
	KindEcho    OutboundKind = "echo"
)

// Welcome is sent once per session establishment.
type Welcome struct {
	PlayerID string
	ThemeID  string
}

// Room describes a location render, staged alongside Output/Error for
// a single execution's message batch.
type Room struct {
	Name        string
	Description string
	Exits       []string
	Contents    []string
	ImageHash   string
}

// Outbound is a tagged union over spec §6.1's outbound message shapes;
// exactly one of the typed fields is populated per Kind.
type Outbound struct {
	Kind    OutboundKind
	Welcome *Welcome
	Text    string // Output.text / Error.message / Echo.command
	Room    *Room
}

// SessionGateway is the narrow seam between the core and whatever
// transport owns a live client connection. The Scheduler calls Deliver
// once per committed execution's message batch (spec §4.10 "message
// batch is released to the Router"); it never calls back into the
// gateway mid-execution.
type SessionGateway interface {
	// Receive blocks until the next inbound Command is available, or
	// returns a non-nil error when the gateway is shutting down.
	Receive() (Command, error)
	// Deliver hands a session its staged outbound batch as one unit
	// (spec §5 "message batches handed off as whole units").
	Deliver(actorID string, batch []Outbound) error
}
