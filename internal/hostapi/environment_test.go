// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hostapi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllInventoryAndPresentListChildren(t *testing.T) {
	world := newFakeWorld(time.Now())
	room := "/rooms/vault"
	world.put(room, "room", nil, nil)
	world.put("/items/chest-1", "container", &room, nil)
	world.put("/npcs/fire-1", "npc", &room, nil)
	L := setupLua(t, world, time.Now())

	require.NoError(t, L.DoString(`
		local inv = game.all_inventory("/rooms/vault")
		assert(#inv == 2)
		assert(inv[1].id == "/items/chest-1")
		assert(inv[2].id == "/npcs/fire-1")
	`))
}

func TestPresentMatchesByNamePrefix(t *testing.T) {
	world := newFakeWorld(time.Now())
	room := "/rooms/vault"
	world.put(room, "room", nil, nil)
	fireOne := world.put("/npcs/fire-1", "npc", &room, nil)
	fireOne.Name = "fire-1"
	L := setupLua(t, world, time.Now())

	require.NoError(t, L.DoString(`
		local match = game.present("fire", "/rooms/vault")
		assert(match ~= nil)
		assert(match.id == "/npcs/fire-1")
		assert(game.present("nope", "/rooms/vault") == nil)
	`))
}
