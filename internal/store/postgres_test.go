// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotImage_RoundTripsThroughJSON(t *testing.T) {
	image := snapshotImage{
		Credits: map[string]int64{"acct-1": 500},
	}
	// Only the JSON encoding is covered here; UniverseStore.Snapshot/Restore
	// against a live database is exercised in postgres_integration_test.go.
	data, err := json.Marshal(image)
	require.NoError(t, err)
	var decoded snapshotImage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, int64(500), decoded.Credits["acct-1"])
}
