// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package combat implements Combat Mechanics (spec §4.9) entirely on
// top of the hostapi.World seam (game.random, game.roll_dice,
// game.get_object, game.update_object, game.broadcast) — it has no
// direct store access, matching the spec's framing of combat as "policy
// built on §4.5".
package combat

import "github.com/holomush/mudcore/internal/hostapi"

// DamageType is the modifier lookup key applied before subtraction.
type DamageType string

const (
	DamageNormal     DamageType = "normal"
	DamageImmune     DamageType = "immune"
	DamageResistant  DamageType = "resistant"
	DamageVulnerable DamageType = "vulnerable"
)

// PvPPolicy gates whether one living may attack another (spec §4.9
// "Combat.initiate requires can_attack(attacker, defender)").
type PvPPolicy string

const (
	PvPDisabled  PvPPolicy = "disabled"
	PvPArenaOnly PvPPolicy = "arena_only"
	PvPFlagged   PvPPolicy = "flagged"
	PvPOpen      PvPPolicy = "open"
)

// Combatant is the minimal shape Combat needs from an ObjectView's
// properties, read/written through World.GetObject/UpdateObject. An
// attacker may deal a second, elemental damage component alongside its
// physical one — e.g. a flaming sword's "1d8" physical plus "1d6" fire
// (spec §8 "Fire-sword damage against immune foe").
type Combatant struct {
	ID                  string
	AttackBonus         int64
	ArmorClass          int64
	DamageDice          string // dice notation, e.g. "2d6"
	DamageBonus         int64
	DamageType          DamageType // this combatant's own damage type, when it deals damage
	ElementalDamageDice string     // optional second damage roll, e.g. "1d6"
	ElementalDamageType DamageType // e.g. "fire"
	HP                  int64
	MaxHP               int64
	Resistances         map[DamageType]DamageType
	Immunities          map[DamageType]bool // metadata.immunities: a flat "can't be hurt by this type at all" map, checked ahead of Resistances
	IsPlayer            bool
	RegionID            string
	Attacking           string // metadata.attacking: target ID
	ArenaRegion         string
}

// AttackResult is one resolved attack, returned for logging/messaging.
// Applied is the total HP lost (PhysicalApplied plus ElementalApplied,
// when present); the two components are broken out so callers can
// broadcast them as the spec's two distinct lines ("hits ... for N
// damage!" and, separately, "is immune to <type>!").
type AttackResult struct {
	Hit              bool
	Critical         bool
	Miss             bool
	PhysicalRaw      int64
	PhysicalApplied  int64
	HasElemental     bool
	ElementalType    DamageType
	ElementalRaw     int64
	ElementalApplied int64
	ElementalImmune  bool
	Applied          int64
}

// Resolver rolls dice and random numbers through the same metered,
// replicated randomness the sandbox uses (game.random/game.roll_dice),
// so combat outcomes replay deterministically from the log entry's
// recorded RNG seed (spec §4.10).
type Resolver struct {
	World hostapi.World
}

// NewResolver builds a Resolver bound to World.
func NewResolver(world hostapi.World) *Resolver {
	return &Resolver{World: world}
}

// ApplyDamageModifier implements spec §4.9's table: immune -> 0,
// resistant -> floor(dmg/2), vulnerable -> dmg*2, otherwise unchanged.
func ApplyDamageModifier(dmg int64, modifier DamageType) int64 {
	switch modifier {
	case DamageImmune:
		return 0
	case DamageResistant:
		return dmg / 2
	case DamageVulnerable:
		return dmg * 2
	default:
		return dmg
	}
}

// Attack resolves one attack from attacker against defender (spec
// §4.9): attack_roll = d20 + attack_bonus; natural 20 always hits and
// is critical; natural 1 always misses; otherwise hit iff attack_roll
// >= defender.armor_class. On hit, roll damage_dice+damage_bonus; a
// critical adds one extra damage_dice roll before the bonus.
func (r *Resolver) Attack(attacker, defender Combatant) AttackResult {
	natural := r.World.Random(1, 20)
	roll := natural + attacker.AttackBonus

	switch {
	case natural == 20:
		return r.finish(attacker, defender, true, true)
	case natural == 1:
		return AttackResult{Miss: true}
	case roll >= defender.ArmorClass:
		return r.finish(attacker, defender, true, false)
	default:
		return AttackResult{Miss: true}
	}
}

// modifierFor resolves the damage-type modifier defender applies
// against dtype: an explicit entry in Immunities always wins (spec §8's
// "metadata.immunities = {fire: true}"), then a graded entry in
// Resistances, otherwise no modifier.
func modifierFor(defender Combatant, dtype DamageType) DamageType {
	if defender.Immunities[dtype] {
		return DamageImmune
	}
	if modifier, ok := defender.Resistances[dtype]; ok {
		return modifier
	}
	return DamageNormal
}

func (r *Resolver) finish(attacker, defender Combatant, hit, critical bool) AttackResult {
	physRaw := r.World.RollDice(attacker.DamageDice) + attacker.DamageBonus
	if critical {
		physRaw += r.World.RollDice(attacker.DamageDice)
	}
	physModifier := modifierFor(defender, attacker.DamageType)
	physApplied := ApplyDamageModifier(physRaw, physModifier)

	result := AttackResult{
		Hit: hit, Critical: critical,
		PhysicalRaw: physRaw, PhysicalApplied: physApplied,
		Applied: physApplied,
	}

	if attacker.ElementalDamageDice != "" {
		elemRaw := r.World.RollDice(attacker.ElementalDamageDice)
		if critical {
			elemRaw += r.World.RollDice(attacker.ElementalDamageDice)
		}
		elemModifier := modifierFor(defender, attacker.ElementalDamageType)
		result.HasElemental = true
		result.ElementalType = attacker.ElementalDamageType
		result.ElementalRaw = elemRaw
		result.ElementalImmune = elemModifier == DamageImmune
		result.ElementalApplied = ApplyDamageModifier(elemRaw, elemModifier)
		result.Applied += result.ElementalApplied
	}
	return result
}

// CanAttack implements spec §4.9's PvP gate for a living-vs-living
// attack. NPC targets are always attackable regardless of policy;
// player-vs-player is gated by policy.
func CanAttack(policy PvPPolicy, attacker, defender Combatant) bool {
	if !defender.IsPlayer {
		return true
	}
	if !attacker.IsPlayer {
		return true
	}
	switch policy {
	case PvPOpen:
		return true
	case PvPDisabled:
		return false
	case PvPArenaOnly:
		return attacker.RegionID != "" && attacker.RegionID == defender.RegionID && attacker.RegionID == attacker.ArenaRegion
	case PvPFlagged:
		return attacker.Attacking == defender.ID || defender.Attacking == attacker.ID
	default:
		return false
	}
}
