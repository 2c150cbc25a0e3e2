// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package property implements the property cascade (spec §3 "Property
// resolution"): given a class's ancestor chain and a set of user
// overrides, produce the single resolved property map stored on an Object.
package property

import "github.com/holomush/mudcore/internal/classreg"

// Resolve walks chain root-to-leaf, left-merging each class's
// property_defaults into an accumulator, then overlays overrides.
// chain MUST already be ordered root->leaf (see Registry.AncestorDefs).
//
// This is the sole call site shared by object creation and cloning, which
// is what guarantees the spec's round-trip law: creating an object twice
// with identical (class, overrides) yields identical resolved properties
// regardless of the order sibling classes were defined.
func Resolve(chain []classreg.ClassDef, overrides map[string]any) map[string]any {
	resolved := make(map[string]any)
	for _, def := range chain {
		for key, pd := range def.PropertyDefaults {
			resolved[key] = pd.Default
		}
	}
	for key, val := range overrides {
		resolved[key] = val
	}
	return resolved
}
