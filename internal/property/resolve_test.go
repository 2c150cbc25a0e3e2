// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package property_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/property"
)

func TestResolve_MergesRootToLeafThenOverlays(t *testing.T) {
	chain := []classreg.ClassDef{
		{Name: "thing", PropertyDefaults: map[string]classreg.PropertyDefault{
			"weight": {Default: 1.0},
		}},
		{Name: "item", PropertyDefaults: map[string]classreg.PropertyDefault{
			"weight":    {Default: 2.0},
			"takeable":  {Default: true},
		}},
		{Name: "weapon", PropertyDefaults: map[string]classreg.PropertyDefault{
			"damage_dice": {Default: "1d6"},
		}},
	}
	overrides := map[string]any{"damage_dice": "1d8", "name_extra": "flaming"}

	resolved := property.Resolve(chain, overrides)

	assert.Equal(t, 2.0, resolved["weight"]) // leaf-most default wins before overrides
	assert.Equal(t, true, resolved["takeable"])
	assert.Equal(t, "1d8", resolved["damage_dice"]) // overridden
	assert.Equal(t, "flaming", resolved["name_extra"])
}

func TestResolve_OrderIndependentAcrossIdenticalCreations(t *testing.T) {
	chainA := []classreg.ClassDef{
		{Name: "thing", PropertyDefaults: map[string]classreg.PropertyDefault{"a": {Default: 1}}},
		{Name: "item", PropertyDefaults: map[string]classreg.PropertyDefault{"b": {Default: 2}}},
	}
	chainB := []classreg.ClassDef{
		{Name: "thing", PropertyDefaults: map[string]classreg.PropertyDefault{"a": {Default: 1}}},
		{Name: "item", PropertyDefaults: map[string]classreg.PropertyDefault{"b": {Default: 2}}},
	}
	overrides := map[string]any{"c": 3}

	r1 := property.Resolve(chainA, overrides)
	r2 := property.Resolve(chainB, overrides)
	assert.Equal(t, r1, r2)
}
