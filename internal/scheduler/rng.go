// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"hash/fnv"
	"math/rand"
	"strconv"

	"github.com/holomush/mudcore/internal/combat"
)

// seedFor derives a deterministic RNG seed from (universe, command
// sequence, actor), per spec §4.5: "random/roll_dice draw from a
// per-execution RNG seeded from (universe_id, command_sequence_number,
// actor_id)", so a follower replaying the same log entry never needs to
// call either function itself but a leader re-running the identical
// inputs would observe the identical draws.
func seedFor(universeID string, seq uint64, actorID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(universeID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatUint(seq, 10)))
	h.Write([]byte{0})
	h.Write([]byte(actorID))
	return int64(h.Sum64())
}

func newDeterministicRand(universeID string, seq uint64, actorID string) *rand.Rand {
	return rand.New(rand.NewSource(seedFor(universeID, seq, actorID)))
}

// rollDice parses and evaluates an "NdM+K" style notation (spec §4.5
// roll_dice) using the same dice grammar Combat Mechanics parses attack
// damage with; a malformed notation evaluates to 0.
func rollDice(rng *rand.Rand, notation string) int64 {
	d, err := combat.ParseDice(notation)
	if err != nil {
		return 0
	}
	return d.Roll(func(min, max int64) int64 {
		return min + rng.Int63n(max-min+1)
	})
}
