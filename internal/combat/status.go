// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package combat

// StatusEffect is one active effect on a living, ticked once per
// heart-beat (spec §4.9: "Status effects tick per heart-beat:
// damage-over-time effects deal their damage_per_tick in the
// configured damage_type; stunned/frozen block action; all effects
// decrement remaining, removed at zero").
type StatusEffect struct {
	Kind          string // "dot", "stunned", "frozen", or any other tag
	DamagePerTick int64
	DamageType    DamageType
	Remaining     int
}

// Blocking reports whether this effect prevents its holder from acting
// this heart-beat.
func (e StatusEffect) Blocking() bool {
	return e.Kind == "stunned" || e.Kind == "frozen"
}

// TickResult is one heart-beat's outcome for a single effect.
type TickResult struct {
	Effect  StatusEffect
	Damage  int64 // post-modifier damage dealt this tick, if any
	Expired bool
}

// Tick advances every effect in effects by one heart-beat, applying
// resistances to any damage-over-time tick and dropping effects whose
// Remaining reaches zero. Returns the surviving effects and the
// resolved ticks for messaging/application by the caller.
func Tick(effects []StatusEffect, resistances map[DamageType]DamageType) ([]StatusEffect, []TickResult) {
	surviving := make([]StatusEffect, 0, len(effects))
	results := make([]TickResult, 0, len(effects))

	for _, e := range effects {
		var dmg int64
		if e.Kind == "dot" {
			dmg = ApplyDamageModifier(e.DamagePerTick, resistances[e.DamageType])
		}
		e.Remaining--
		expired := e.Remaining <= 0
		results = append(results, TickResult{Effect: e, Damage: dmg, Expired: expired})
		if !expired {
			surviving = append(surviving, e)
		}
	}
	return surviving, results
}

// AnyBlocking reports whether any effect in effects blocks action this
// heart-beat.
func AnyBlocking(effects []StatusEffect) bool {
	for _, e := range effects {
		if e.Blocking() {
			return true
		}
	}
	return false
}
