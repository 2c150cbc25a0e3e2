// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAndRollDiceDrawFromWorld(t *testing.T) {
	world := newFakeWorld(time.Now())
	world.draws = []int64{15, 5}
	L := setupLua(t, world, time.Now())

	require.NoError(t, L.DoString(`
		local natural = game.random(1, 20)
		local dmg = game.roll_dice("1d8")
		assert(natural == 15)
		assert(dmg == 5)
	`))
}

func TestTimeSetTimeAdvanceTimeRequireWizard(t *testing.T) {
	now := time.UnixMilli(1_000_000_000_000)
	world := newFakeWorld(now)
	world.privileged = false
	L := setupLua(t, world, now)

	err := L.DoString(`game.set_time(2000)`)
	assert.Error(t, err)

	world.privileged = true
	require.NoError(t, L.DoString(`
		game.set_time(1000000000000)
		assert(game.time() == 1000000000000)
		game.advance_time(86400001)
		assert(game.time() == 1000086400001)
	`))
}

// TestTimeGateSpawnerCooldown exercises spec §8's spawner-cooldown
// sequence directly against the time_gate helper: a chest open at
// now=1_000_000_000_000 succeeds, a second open 10ms later is still on
// cooldown, and a third open past the 86_400_000ms window succeeds
// again.
func TestTimeGateSpawnerCooldown(t *testing.T) {
	now := time.UnixMilli(1_000_000_000_000)
	world := newFakeWorld(now)
	world.privileged = true
	world.put("/items/chest-1", "spawner_chest", nil, map[string]any{})
	L := setupLua(t, world, now)

	require.NoError(t, L.DoString(`
		local first = game.time_gate("/items/chest-1", "last_spawn", 86400000)
		assert(first == true)
	`))

	require.NoError(t, world.AdvanceTime(10*time.Millisecond))
	require.NoError(t, L.DoString(`
		local second = game.time_gate("/items/chest-1", "last_spawn", 86400000)
		assert(second == false)
	`))

	require.NoError(t, world.AdvanceTime(86_400_001*time.Millisecond-10*time.Millisecond))
	require.NoError(t, L.DoString(`
		local third = game.time_gate("/items/chest-1", "last_spawn", 86400000)
		assert(third == true)
	`))
}
