// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package combat

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Dice is a parsed "NdM[+K|-K]" dice notation (spec's Supplemented
// features: dice notation parser, grounded in
// original_source/mudd/src/combat/dice.rs's parse_dice).
type Dice struct {
	Count    int
	Sides    int
	Modifier int
}

// ParseDice parses notation exactly as original_source's parse_dice:
// lowercased and trimmed first; an omitted count before "d" means 1;
// a '+' modifier is unambiguous, a '-' modifier is found via the last
// '-' in the remainder (never at position zero, which would mean "no
// modifier"); both count and sides must be at least 1.
func ParseDice(notation string) (Dice, error) {
	s := strings.ToLower(strings.TrimSpace(notation))
	dPos := strings.IndexByte(s, 'd')
	if dPos < 0 {
		return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("missing 'd' in dice notation %q", notation)
	}

	countStr := s[:dPos]
	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("invalid dice count in %q", notation)
		}
		count = n
	}
	if count < 1 {
		return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("dice count must be at least 1, got %q", notation)
	}

	rest := s[dPos+1:]
	var sidesStr string
	modifier := 0
	switch {
	case strings.ContainsRune(rest, '+'):
		plusPos := strings.IndexByte(rest, '+')
		sidesStr = rest[:plusPos]
		m, err := strconv.Atoi(rest[plusPos+1:])
		if err != nil {
			return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("invalid modifier in %q", notation)
		}
		modifier = m
	case strings.ContainsRune(rest, '-'):
		minusPos := strings.LastIndexByte(rest, '-')
		if minusPos == 0 {
			sidesStr = rest
		} else {
			sidesStr = rest[:minusPos]
			m, err := strconv.Atoi(rest[minusPos:])
			if err != nil {
				return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("invalid modifier in %q", notation)
			}
			modifier = m
		}
	default:
		sidesStr = rest
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("invalid die sides in %q", notation)
	}
	if sides < 1 {
		return Dice{}, oops.In("combat").Code("INVALID_DICE").Errorf("die sides must be at least 1, got %q", notation)
	}
	return Dice{Count: count, Sides: sides, Modifier: modifier}, nil
}

// Roll sums count independent rolls of a die with Sides faces, each
// produced by randInt(1, sides), plus Modifier. randInt is injected so
// callers reuse the same metered, replicated source of randomness the
// sandbox's game.random uses (spec §4.10 rng_seed determinism).
func (d Dice) Roll(randInt func(min, max int64) int64) int64 {
	var total int64
	for i := 0; i < d.Count; i++ {
		total += randInt(1, int64(d.Sides))
	}
	return total + int64(d.Modifier)
}

// Min, Max, and Average mirror original_source's DiceRoll helpers,
// useful for spawner/loot-table balancing without rolling.
func (d Dice) Min() int64 { return int64(d.Count) + int64(d.Modifier) }
func (d Dice) Max() int64 { return int64(d.Count*d.Sides) + int64(d.Modifier) }
func (d Dice) Average() int64 {
	avgPerDie := (1.0 + float64(d.Sides)) / 2.0
	return int64(float64(d.Count)*avgPerDie) + int64(d.Modifier)
}
