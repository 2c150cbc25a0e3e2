// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

// swordSource advertises on_init but never fires it here: the cascade
// only calls a sibling's on_init for objects already present in the
// destination room (spec §4.6), and /rooms/b starts empty.
const swordSource = `
return {
	on_init = function(self, other)
		game.add_action(other, "get sword-1", {object_id = self, handler = "get"})
	end
}
`

var _ = Describe("Move and contextual verb install", func() {
	It("moves the actor and installs no action from an empty destination room", func() {
		now := time.UnixMilli(1_000_000_000_000)
		stack := newTestStack("u-move", now)
		const wizard = "/p/admin"
		const hero = "/p/hero"

		stack.eval(wizard, `game.define_class("sword_class", {
			parent = "weapon",
			handlers = {"on_init"},
			code = [[`+swordSource+`]],
		})`)
		stack.eval(wizard, `game.create_object("/rooms/a", "room", nil, {name = "A", exits = {north = "/rooms/b"}})`)
		stack.eval(wizard, `game.create_object("/rooms/b", "room", nil, {name = "B"})`)
		stack.eval(wizard, `game.create_object("/items/sword-1", "sword_class", "/rooms/a", {name = "a sword"})`)
		stack.eval(wizard, `game.create_object("`+hero+`", "npc", "/rooms/a", {name = "hero"})`)

		stack.command(hero, "north")
		batch := stack.Gateway.Delivered(hero)

		var heroParent *string
		for _, o := range stack.allObjects() {
			if o.ID == hero {
				heroParent = o.Parent
			}
		}
		Expect(heroParent).ToNot(BeNil())
		Expect(*heroParent).To(Equal("/rooms/b"))

		foundRoom := false
		for _, o := range batch {
			if o.Room != nil && o.Room.Name == "B" {
				foundRoom = true
			}
		}
		Expect(foundRoom).To(BeTrue())

		actions := stack.Universe.Actions.Get
		_, ok := actions(hero, "get sword-1")
		Expect(ok).To(BeFalse())
	})
})
