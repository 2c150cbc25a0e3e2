// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mudcore/internal/credits"
)

func TestLedgerGrantAndDeduct(t *testing.T) {
	l := credits.New()
	require.NoError(t, l.Grant("u1", "acct-1", 100))
	assert.EqualValues(t, 100, l.Balance("u1", "acct-1"))

	require.NoError(t, l.Deduct("u1", "acct-1", 40, "sword"))
	assert.EqualValues(t, 60, l.Balance("u1", "acct-1"))
}

func TestLedgerDeductInsufficientCredits(t *testing.T) {
	l := credits.New()
	require.NoError(t, l.Grant("u1", "acct-1", 10))
	err := l.Deduct("u1", "acct-1", 20, "sword")
	require.Error(t, err)
}

func TestLedgerScopedByUniverse(t *testing.T) {
	l := credits.New()
	require.NoError(t, l.Grant("u1", "acct-1", 50))
	assert.EqualValues(t, 0, l.Balance("u2", "acct-1"))
}

func TestLedgerApplyNeverRejects(t *testing.T) {
	l := credits.New()
	l.Apply(credits.Delta{UniverseID: "u1", AccountID: "acct-1", Amount: -50, Reason: "replay"})
	assert.EqualValues(t, -50, l.Balance("u1", "acct-1"))
}

func TestLedgerSnapshotRoundTrip(t *testing.T) {
	l := credits.New()
	require.NoError(t, l.Grant("u1", "acct-1", 30))
	snap := l.Snapshot("u1")

	l2 := credits.New()
	l2.RestoreSnapshot("u1", snap)
	assert.EqualValues(t, 30, l2.Balance("u1", "acct-1"))
}
