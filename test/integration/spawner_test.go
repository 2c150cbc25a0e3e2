// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/mudcore/internal/gateway"
)

// spawnerChestSource is a class's code module (spec §6.2 classes.code):
// called once with no arguments, it returns a table of handler
// functions keyed by name. open() uses game.time_gate (spec §8
// "Spawner cooldown") to gate a single spawn per 24h window, the
// object's own id reaching the handler as the self argument engine.go
// now passes ahead of actor and args (spec §4.5 verb dispatch).
const spawnerChestSource = `
return {
	open = function(self, actor, args)
		if game.time_gate(self, "last_spawn", 86400000) then
			local obj = game.get_object(self)
			local n = (obj.properties.spawn_count or 0) + 1
			game.create_object("/items/flamebrand-" .. n, "fire_sword", "/rooms/vault", {name = "a flamebrand"})
			game.update_object(self, {spawn_count = n})
			game.send(actor, "You find a flamebrand!")
		else
			game.send(actor, "The chest is empty for now.")
		end
	end
}
`

var _ = Describe("Spawner cooldown", func() {
	It("yields at most one item per 24h window across three opens", func() {
		now := time.UnixMilli(1_000_000_000_000)
		stack := newTestStack("u-spawner", now)
		const wizard = "/p/admin"
		const hero = "/p/hero"

		stack.eval(wizard, `game.define_class("fire_sword", {parent = "weapon"})`)
		stack.eval(wizard, `game.define_class("spawner_chest", {
			parent = "container",
			handlers = {"open"},
			code = [[`+spawnerChestSource+`]],
		})`)
		stack.eval(wizard, `game.create_object("/rooms/vault", "room", nil, {name = "Vault"})`)
		stack.eval(wizard, `game.create_object("/items/chest-1", "spawner_chest", "/rooms/vault", {name = "a chest"})`)
		stack.eval(wizard, `game.add_action("`+hero+`", "open", {object_id = "/items/chest-1", handler = "open"})`)

		seen := 0
		sinceLast := func() []gateway.Outbound {
			all := stack.Gateway.Delivered(hero)
			batch := all[seen:]
			seen = len(all)
			return batch
		}

		stack.command(hero, "open")
		Expect(joinText(sinceLast())).To(ContainSubstring("You find a flamebrand!"))

		stack.eval(wizard, `game.advance_time(10)`)
		stack.command(hero, "open")
		Expect(joinText(sinceLast())).To(ContainSubstring("empty"))

		stack.eval(wizard, `game.advance_time(86400001 - 10)`)
		stack.command(hero, "open")
		Expect(joinText(sinceLast())).To(ContainSubstring("You find a flamebrand!"))

		swords := 0
		for _, obj := range stack.allObjects() {
			if obj.Class == "fire_sword" {
				swords++
			}
		}
		Expect(swords).To(Equal(2))
	})
})
