// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"fmt"

	"github.com/holomush/mudcore/internal/combat"
	"github.com/holomush/mudcore/internal/hostapi"
)

// runCombatHeartBeat implements spec §4.9's combat loop: each living's
// heart-beat ticks its status effects first, then — unless a blocking
// effect fired this tick — performs one attack against
// metadata.attacking, provided the target is still present in the same
// room. Runs ahead of the object's own class heart_beat handler, inside
// the same execution, so both share one Collector and one message
// batch.
func runCombatHeartBeat(w *execution, objectID string) {
	if !w.IsA(objectID, "living") {
		return
	}
	obj, err := w.GetObject(objectID)
	if err != nil {
		return
	}
	if tickStatusEffects(w, obj) {
		return
	}
	resolveAttack(w, obj)
}

func combatantFromView(obj *hostapi.ObjectView) combat.Combatant {
	c := combat.Combatant{
		ID:                  obj.ID,
		AttackBonus:         int64Prop(obj, "attack_bonus"),
		ArmorClass:          int64Prop(obj, "armor_class"),
		DamageBonus:         int64Prop(obj, "damage_bonus"),
		HP:                  int64Prop(obj, "health"),
		MaxHP:               int64Prop(obj, "max_health"),
		DamageType:          combat.DamageType(stringProp(obj, "damage_type", "normal")),
		ElementalDamageType: combat.DamageType(stringProp(obj, "elemental_damage_type", "")),
		IsPlayer:            boolProp(obj, "is_player"),
		RegionID:            stringProp(obj, "region", ""),
		ArenaRegion:         stringProp(obj, "arena_region", ""),
	}
	c.DamageDice, _ = obj.Properties["damage_dice"].(string)
	c.ElementalDamageDice, _ = obj.Properties["elemental_damage_dice"].(string)
	if raw, ok := obj.Properties["resistances"].(map[string]any); ok {
		c.Resistances = make(map[combat.DamageType]combat.DamageType, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				c.Resistances[combat.DamageType(k)] = combat.DamageType(s)
			}
		}
	}
	if meta, ok := obj.Properties["metadata"].(map[string]any); ok {
		c.Attacking, _ = meta["attacking"].(string)
		if raw, ok := meta["immunities"].(map[string]any); ok {
			c.Immunities = make(map[combat.DamageType]bool, len(raw))
			for k, v := range raw {
				if b, ok := v.(bool); ok {
					c.Immunities[combat.DamageType(k)] = b
				}
			}
		}
	}
	return c
}

func int64Prop(obj *hostapi.ObjectView, key string) int64 {
	switch v := obj.Properties[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func stringProp(obj *hostapi.ObjectView, key, fallback string) string {
	if s, ok := obj.Properties[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolProp(obj *hostapi.ObjectView, key string) bool {
	b, _ := obj.Properties[key].(bool)
	return b
}

func mapInt64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// tickStatusEffects decrements every active effect's remaining count by
// one, applies a damage-over-time effect's damage_per_tick, and drops
// any effect that hit zero. Reports whether a blocking effect
// (stunned/frozen) was active this tick, in which case the caller skips
// the attack phase entirely.
func tickStatusEffects(w *execution, obj *hostapi.ObjectView) (blocked bool) {
	raw, ok := obj.Properties["status_effects"].([]any)
	if !ok || len(raw) == 0 {
		return false
	}

	hp := int64Prop(obj, "health")
	remaining := make([]any, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := m["kind"].(string)
		damageType, _ := m["damage_type"].(string)
		if damageType == "" {
			damageType = "normal"
		}
		effect := combat.StatusEffect{
			Kind:          kind,
			DamagePerTick: mapInt64(m, "damage_per_tick"),
			DamageType:    combat.DamageType(damageType),
			Remaining:     int(mapInt64(m, "remaining")),
		}
		if effect.Blocking() {
			blocked = true
		}
		if effect.Kind == "dot" {
			hp -= combat.ApplyDamageModifier(effect.DamagePerTick, effect.DamageType)
		}
		effect.Remaining--
		if effect.Remaining <= 0 {
			continue
		}
		remaining = append(remaining, map[string]any{
			"kind":            effect.Kind,
			"damage_per_tick": effect.DamagePerTick,
			"damage_type":     string(effect.DamageType),
			"remaining":       effect.Remaining,
		})
	}

	_ = w.UpdateObject(obj.ID, map[string]any{"health": hp, "status_effects": remaining})
	if hp <= 0 {
		w.Broadcast(roomOf(w, obj.ID), obj.Name+" succumbs to their wounds.")
	}
	return blocked
}

func roomOf(w *execution, id string) string {
	env, err := w.Environment(id)
	if err != nil {
		return ""
	}
	return env.ID
}

// resolveAttack performs spec §4.9's one-attack-per-heart-beat against
// metadata.attacking, provided the target is still present in the
// attacker's room and the active PvP policy (the defender's room's
// pvp_policy property, default "disabled") permits it.
func resolveAttack(w *execution, attackerView *hostapi.ObjectView) {
	attacker := combatantFromView(attackerView)
	if attacker.Attacking == "" {
		return
	}
	attackerRoom, err := w.Environment(attackerView.ID)
	if err != nil {
		return
	}
	defenderView, err := w.GetObject(attacker.Attacking)
	if err != nil {
		return
	}
	defenderRoom, err := w.Environment(attacker.Attacking)
	if err != nil || defenderRoom.ID != attackerRoom.ID {
		return
	}
	defender := combatantFromView(defenderView)

	policy := combat.PvPPolicy(stringProp(attackerRoom, "pvp_policy", string(combat.PvPDisabled)))
	if !combat.CanAttack(policy, attacker, defender) {
		return
	}

	resolver := combat.NewResolver(w)
	result := resolver.Attack(attacker, defender)
	switch {
	case result.Miss:
		w.Broadcast(attackerRoom.ID, fmt.Sprintf("%s attacks %s and misses.", attackerView.Name, defenderView.Name))
		return
	case result.Critical:
		w.Broadcast(attackerRoom.ID, fmt.Sprintf("%s scores a critical hit on %s for %d damage!", attackerView.Name, defenderView.Name, result.PhysicalApplied))
	default:
		w.Broadcast(attackerRoom.ID, fmt.Sprintf("%s hits %s for %d damage!", attackerView.Name, defenderView.Name, result.PhysicalApplied))
	}
	if result.HasElemental {
		if result.ElementalImmune {
			w.Broadcast(attackerRoom.ID, fmt.Sprintf("%s is immune to %s!", defenderView.Name, result.ElementalType))
		} else {
			w.Broadcast(attackerRoom.ID, fmt.Sprintf("%s takes %d %s damage!", defenderView.Name, result.ElementalApplied, result.ElementalType))
		}
	}

	newHP := defender.HP - result.Applied
	_ = w.UpdateObject(defenderView.ID, map[string]any{"health": newHP})
	if newHP <= 0 {
		w.Broadcast(attackerRoom.ID, defenderView.Name+" has been defeated.")
		clearAttacking(w, attackerView)
	}
}

func clearAttacking(w *execution, attackerView *hostapi.ObjectView) {
	meta, _ := attackerView.Properties["metadata"].(map[string]any)
	merged := make(map[string]any, len(meta))
	for k, v := range meta {
		merged[k] = v
	}
	merged["attacking"] = ""
	_ = w.UpdateObject(attackerView.ID, map[string]any{"metadata": merged})
}
