// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package replication

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/mudcore/internal/raft"
)

// CommitResult is Commit's outcome, reported back to the Scheduler so
// it knows whether to deliver the staged message batch.
type CommitResult struct {
	Index uint64
	Term  uint64
}

// Replicator drives one LogEntry through the Consensus Layer (spec
// §4.10 step 2: "Submits to Consensus; blocks until committed or
// rejected"). A NotLeader failure is retried once, after 10ms, against
// the same Consensus; ReplicationTimeout propagates to the caller,
// which the Scheduler surfaces to the originating session as a
// transient failure.
type Replicator struct {
	consensus raft.Consensus
}

// NewReplicator builds a Replicator over consensus.
func NewReplicator(consensus raft.Consensus) *Replicator {
	return &Replicator{consensus: consensus}
}

// Commit serializes entry to JSON (spec §6.3 "stable binary or JSON
// encoding") and proposes it, retrying once on NotLeader.
func (r *Replicator) Commit(ctx context.Context, entry LogEntry) (CommitResult, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return CommitResult{}, oops.In("replication").Code("ENCODE_FAILED").Wrapf(err, "marshal log entry")
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(10*time.Millisecond))
	var result CommitResult
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		commit, proposeErr := r.consensus.Propose(ctx, payload)
		if proposeErr == nil {
			result = CommitResult{Index: commit.Index, Term: commit.Term}
			return nil
		}
		if _, ok := proposeErr.(*raft.NotLeaderError); ok {
			return retry.RetryableError(proposeErr)
		}
		return proposeErr
	})
	if err != nil {
		if _, ok := err.(*raft.TimeoutError); ok {
			return CommitResult{}, oops.In("replication").Code("REPLICATION_TIMEOUT").Wrapf(err, "propose entry for universe %s seq %d", entry.UniverseID, entry.CommandSeq)
		}
		return CommitResult{}, oops.In("replication").Code("NOT_LEADER").Wrapf(err, "propose entry for universe %s seq %d", entry.UniverseID, entry.CommandSeq)
	}
	return result, nil
}

// DecodeLogEntry is Applier's counterpart to Commit's encoding, used by
// a follower's raft.ApplyFunc to recover the LogEntry from raft.Entry's
// opaque payload bytes.
func DecodeLogEntry(payload []byte) (LogEntry, error) {
	var entry LogEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return LogEntry{}, oops.In("replication").Code("DECODE_FAILED").Wrapf(err, "unmarshal log entry")
	}
	return entry, nil
}
