// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package replication

// MessageSummary is the minimal shape of a staged outbound batch
// recorded on the log entry (spec §6.3 message_batch_summary): enough
// to redeliver on the leader after commit, without forcing every
// gateway.Outbound value through the replicated log on followers that
// never deliver it.
type MessageSummary struct {
	ActorID string
	Count   int
}

// CreditDelta is the log entry's flattened view of a credits.Delta,
// kept as its own field (spec §6.3 credit_deltas[]) distinct from the
// generic Intent list so a follower can apply ledger changes without
// inspecting EntityKind.
type CreditDelta struct {
	UniverseID string
	AccountID  string
	Amount     int64
	Reason     string
}

// LogEntry is the stable log entry shape (spec §4.10/§6.3):
// {universe_id, command_seq, actor_id, text, now_ms, rng_seed,
// intents[], credit_deltas[], message_batch_summary}. It is the unit
// Consensus.Propose replicates and Applier.Apply consumes.
type LogEntry struct {
	V              int // format version, for forward-compatible decoding
	UniverseID     string
	CommandSeq     uint64
	ActorID        string
	Text           string
	NowMS          int64
	RNGSeed        int64
	Intents        []Intent
	CreditDeltas   []CreditDelta
	MessageSummary MessageSummary
}
