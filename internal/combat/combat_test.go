// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mudcore/internal/combat"
	"github.com/holomush/mudcore/internal/hostapi"
)

// scriptedWorld feeds a fixed sequence of dice/d20 draws to a Resolver,
// reproducing spec §8 scenario 2's "d20=15, weapon=5, elemental=4"
// without wiring a real scheduler execution; every other World method
// is unused by combat.Resolver and panics if ever called.
type scriptedWorld struct {
	draws []int64
	next  int
}

func (w *scriptedWorld) Random(int64, int64) int64 {
	v := w.draws[w.next]
	w.next++
	return v
}

func (w *scriptedWorld) RollDice(string) int64 {
	v := w.draws[w.next]
	w.next++
	return v
}

func (w *scriptedWorld) CreateObject(string, string, *string, *string, map[string]any) (*hostapi.ObjectView, error) {
	panic("unused")
}
func (w *scriptedWorld) GetObject(string) (*hostapi.ObjectView, error)      { panic("unused") }
func (w *scriptedWorld) UpdateObject(string, map[string]any) error         { panic("unused") }
func (w *scriptedWorld) DeleteObject(string) error                         { panic("unused") }
func (w *scriptedWorld) MoveObject(string, *string) error                  { panic("unused") }
func (w *scriptedWorld) CloneObject(string, string, *string) (*hostapi.ObjectView, error) {
	panic("unused")
}
func (w *scriptedWorld) DefineClass(string, hostapi.ClassDef) error { panic("unused") }
func (w *scriptedWorld) GetClass(string) (hostapi.ClassDef, bool)   { panic("unused") }
func (w *scriptedWorld) GetClassChain(string) ([]string, error)     { panic("unused") }
func (w *scriptedWorld) IsA(string, string) bool                    { panic("unused") }
func (w *scriptedWorld) ResolveHandlerModule(string) (string, bool) { panic("unused") }
func (w *scriptedWorld) NextHandlerClass(string, string, string) (string, bool) {
	panic("unused")
}
func (w *scriptedWorld) Environment(string) (*hostapi.ObjectView, error)     { panic("unused") }
func (w *scriptedWorld) AllInventory(string) ([]*hostapi.ObjectView, error)  { panic("unused") }
func (w *scriptedWorld) DeepInventory(string) ([]*hostapi.ObjectView, error) { panic("unused") }
func (w *scriptedWorld) Present(string) ([]*hostapi.ObjectView, error)       { panic("unused") }
func (w *scriptedWorld) PresentLiving(string) ([]*hostapi.ObjectView, error) { panic("unused") }
func (w *scriptedWorld) AddAction(string, string, hostapi.ActionRef)         { panic("unused") }
func (w *scriptedWorld) RemoveAction(string, string)                        { panic("unused") }
func (w *scriptedWorld) GetActions(string) map[string]hostapi.ActionRef     { panic("unused") }
func (w *scriptedWorld) Send(string, string)                                { panic("unused") }
func (w *scriptedWorld) Broadcast(string, string)                           { panic("unused") }
func (w *scriptedWorld) BroadcastExcept(string, string, string)             { panic("unused") }
func (w *scriptedWorld) BroadcastRegion(string, string)                     { panic("unused") }
func (w *scriptedWorld) CallOut(string, float64, string, []any) (string, error) {
	panic("unused")
}
func (w *scriptedWorld) RemoveCallOut(string) bool                    { panic("unused") }
func (w *scriptedWorld) FindCallOut(string, string) (float64, bool)   { panic("unused") }
func (w *scriptedWorld) SetHeartBeat(string, int) error               { panic("unused") }
func (w *scriptedWorld) LLMChat([]map[string]any, string) (string, error) { panic("unused") }
func (w *scriptedWorld) LLMImage(string, string, string) (string, error)  { panic("unused") }
func (w *scriptedWorld) GetCredits(string) (int64, error)                 { panic("unused") }
func (w *scriptedWorld) DeductCredits(string, int64, string) (bool, error) {
	panic("unused")
}
func (w *scriptedWorld) AdminGrantCredits(string, int64) (bool, error) { panic("unused") }
func (w *scriptedWorld) CheckPermission(string, string, string, bool, string) hostapi.PermissionResult {
	panic("unused")
}
func (w *scriptedWorld) GetAccessLevel(string) (string, error)  { panic("unused") }
func (w *scriptedWorld) SetAccessLevel(string, string) error    { panic("unused") }
func (w *scriptedWorld) AssignRegion(string, string) error      { panic("unused") }
func (w *scriptedWorld) UnassignRegion(string, string) error    { panic("unused") }
func (w *scriptedWorld) Time() time.Time                        { panic("unused") }
func (w *scriptedWorld) SetTime(time.Time) error                { panic("unused") }
func (w *scriptedWorld) AdvanceTime(time.Duration) error         { panic("unused") }
func (w *scriptedWorld) StoreCode(string) string                 { panic("unused") }
func (w *scriptedWorld) GetCode(string) (string, bool)           { panic("unused") }
func (w *scriptedWorld) Actor() string                           { panic("unused") }
func (w *scriptedWorld) ThisObject() string                      { panic("unused") }
func (w *scriptedWorld) Privileged() bool                        { panic("unused") }

var _ hostapi.World = (*scriptedWorld)(nil)

func TestParseDiceBasic(t *testing.T) {
	d, err := combat.ParseDice("2d6")
	require.NoError(t, err)
	assert.Equal(t, combat.Dice{Count: 2, Sides: 6, Modifier: 0}, d)
}

func TestParseDiceImplicitCount(t *testing.T) {
	d, err := combat.ParseDice("d6")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Count)
}

func TestParseDicePlusModifier(t *testing.T) {
	d, err := combat.ParseDice("1d20+5")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Modifier)
}

func TestParseDiceMinusModifier(t *testing.T) {
	d, err := combat.ParseDice("3d8-2")
	require.NoError(t, err)
	assert.Equal(t, -2, d.Modifier)
}

func TestParseDiceWhitespaceAndCase(t *testing.T) {
	d, err := combat.ParseDice("  2D10+3  ")
	require.NoError(t, err)
	assert.Equal(t, combat.Dice{Count: 2, Sides: 10, Modifier: 3}, d)
}

func TestParseDiceRejectsZeroCountOrSides(t *testing.T) {
	_, err := combat.ParseDice("0d6")
	assert.Error(t, err)
	_, err = combat.ParseDice("2d0")
	assert.Error(t, err)
	_, err = combat.ParseDice("abc")
	assert.Error(t, err)
}

func TestDiceMinMaxAverage(t *testing.T) {
	d := combat.Dice{Count: 2, Sides: 6, Modifier: 3}
	assert.EqualValues(t, 5, d.Min())
	assert.EqualValues(t, 15, d.Max())
	assert.EqualValues(t, 10, d.Average())
}

func TestApplyDamageModifier(t *testing.T) {
	assert.EqualValues(t, 0, combat.ApplyDamageModifier(10, combat.DamageImmune))
	assert.EqualValues(t, 5, combat.ApplyDamageModifier(10, combat.DamageResistant))
	assert.EqualValues(t, 20, combat.ApplyDamageModifier(10, combat.DamageVulnerable))
	assert.EqualValues(t, 10, combat.ApplyDamageModifier(10, combat.DamageNormal))
}

func TestCanAttackPolicies(t *testing.T) {
	attacker := combat.Combatant{ID: "players/bob", IsPlayer: true, RegionID: "arena"}
	defender := combat.Combatant{ID: "players/alice", IsPlayer: true, RegionID: "arena"}

	assert.False(t, combat.CanAttack(combat.PvPDisabled, attacker, defender))
	assert.True(t, combat.CanAttack(combat.PvPOpen, attacker, defender))

	flagged := attacker
	flagged.Attacking = defender.ID
	assert.True(t, combat.CanAttack(combat.PvPFlagged, flagged, defender))
	assert.False(t, combat.CanAttack(combat.PvPFlagged, attacker, defender))

	npcDefender := combat.Combatant{ID: "npcs/rat", IsPlayer: false}
	assert.True(t, combat.CanAttack(combat.PvPDisabled, attacker, npcDefender))
}

func TestAttackElementalDamageAgainstImmuneDefender(t *testing.T) {
	world := &scriptedWorld{draws: []int64{15, 5, 4}} // d20=15, weapon=5, elemental=4
	resolver := combat.NewResolver(world)

	attacker := combat.Combatant{
		ID: "items/flame-1", AttackBonus: 0,
		DamageDice: "1d8", DamageBonus: 1, DamageType: "physical",
		ElementalDamageDice: "1d6", ElementalDamageType: "fire",
	}
	defender := combat.Combatant{
		ID: "npcs/fire-1", ArmorClass: 10, HP: 40,
		Immunities: map[combat.DamageType]bool{"fire": true},
	}

	result := resolver.Attack(attacker, defender)
	require.True(t, result.Hit)
	assert.False(t, result.Critical)
	assert.EqualValues(t, 6, result.PhysicalApplied)
	require.True(t, result.HasElemental)
	assert.True(t, result.ElementalImmune)
	assert.EqualValues(t, 0, result.ElementalApplied)
	assert.EqualValues(t, 6, result.Applied)
	assert.EqualValues(t, 34, defender.HP-result.Applied)
}

func TestAttackElementalDamageVulnerableWhenNotImmune(t *testing.T) {
	world := &scriptedWorld{draws: []int64{15, 5, 4}}
	resolver := combat.NewResolver(world)

	attacker := combat.Combatant{
		DamageDice: "1d8", DamageBonus: 1, DamageType: "physical",
		ElementalDamageDice: "1d6", ElementalDamageType: "fire",
	}
	defender := combat.Combatant{
		ArmorClass: 10, HP: 40,
		Resistances: map[combat.DamageType]combat.DamageType{"fire": combat.DamageVulnerable},
	}

	result := resolver.Attack(attacker, defender)
	require.True(t, result.Hit)
	require.True(t, result.HasElemental)
	assert.False(t, result.ElementalImmune)
	assert.EqualValues(t, 8, result.ElementalApplied) // 4 * 2 (vulnerable)
	assert.EqualValues(t, 14, result.Applied)          // 6 physical + 8 elemental
}

func TestTickExpiresAtZeroRemaining(t *testing.T) {
	effects := []combat.StatusEffect{
		{Kind: "dot", DamagePerTick: 4, DamageType: combat.DamageNormal, Remaining: 1},
		{Kind: "stunned", Remaining: 2},
	}
	surviving, results := combat.Tick(effects, nil)
	require.Len(t, results, 2)
	assert.True(t, results[0].Expired)
	assert.EqualValues(t, 4, results[0].Damage)
	require.Len(t, surviving, 1)
	assert.Equal(t, "stunned", surviving[0].Kind)
	assert.True(t, combat.AnyBlocking(surviving))
}
