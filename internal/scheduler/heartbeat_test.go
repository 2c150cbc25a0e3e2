// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mudcore/internal/scheduler"
)

func TestHeartbeatWheelSetRejectsBelowFloor(t *testing.T) {
	wheel := scheduler.NewHeartbeatWheel()
	err := wheel.Set("npcs/rat-1", 100, time.Now())
	assert.Error(t, err)
}

func TestHeartbeatWheelSetZeroDisables(t *testing.T) {
	wheel := scheduler.NewHeartbeatWheel()
	now := time.Now()
	require.NoError(t, wheel.Set("npcs/rat-1", 2000, now))
	require.NoError(t, wheel.Set("npcs/rat-1", 0, now))
	assert.Empty(t, wheel.Due(now.Add(time.Hour)))
}

func TestHeartbeatWheelDueReschedulesForNextInterval(t *testing.T) {
	wheel := scheduler.NewHeartbeatWheel()
	now := time.Now()
	require.NoError(t, wheel.Set("npcs/rat-1", 2000, now))

	assert.Empty(t, wheel.Due(now.Add(time.Second)))

	due := wheel.Due(now.Add(2100 * time.Millisecond))
	require.Equal(t, []string{"npcs/rat-1"}, due)

	// Already rescheduled for its next interval, so it isn't due again
	// immediately.
	assert.Empty(t, wheel.Due(now.Add(2200 * time.Millisecond)))
}

func TestHeartbeatWheelApplyHeartBeatReplaysInterval(t *testing.T) {
	wheel := scheduler.NewHeartbeatWheel()
	require.NoError(t, wheel.ApplyHeartBeat("npcs/rat-1", 2000))
	due := wheel.Due(time.Now().Add(3 * time.Second))
	assert.Equal(t, []string{"npcs/rat-1"}, due)
}
