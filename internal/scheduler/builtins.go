// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"sort"
	"strings"

	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/hostapi"
)

// directionAliases maps every recognized movement token to its
// canonical exit-table key (spec §6.1 "north|n, south|s, ...").
var directionAliases = map[string]string{
	"north": "north", "n": "north",
	"south": "south", "s": "south",
	"east": "east", "e": "east",
	"west": "west", "w": "west",
	"up": "up", "u": "up",
	"down": "down", "d": "down",
}

// isBuiltinVerb reports whether verb is one of spec §6.1's always-on or
// wizard-gated built-ins, so the engine knows to skip the Action Table
// lookup for it.
func isBuiltinVerb(verb string) bool {
	if _, ok := directionAliases[verb]; ok {
		return true
	}
	switch verb {
	case "look", "l", "say", "help", "inventory", "i", "ping", "eval", "goto", "setportal":
		return true
	}
	return false
}

func isWizardVerb(verb string) bool {
	switch verb {
	case "eval", "goto", "setportal":
		return true
	}
	return false
}

// runBuiltin executes one of the always-available or wizard-gated
// commands directly against w, sharing disp's open sandbox execution so
// movement can drive the on_enter/on_init cascade without a second VM.
func runBuiltin(disp *hostapi.Dispatcher, w *execution, verb, args string) error {
	if dir, ok := directionAliases[verb]; ok {
		return builtinMove(disp, w, dir)
	}
	switch verb {
	case "look", "l":
		return builtinLook(w)
	case "say":
		return builtinSay(w, args)
	case "help":
		return builtinHelp(w)
	case "inventory", "i":
		return builtinInventory(w)
	case "ping":
		w.Send(w.actorID, "pong")
		return nil
	case "goto":
		return builtinGoto(disp, w, strings.TrimSpace(args))
	case "setportal":
		return builtinSetPortal(w, args)
	}
	return nil
}

func roomExits(env *hostapi.ObjectView) map[string]string {
	out := make(map[string]string)
	raw, _ := env.Properties["exits"].(map[string]any)
	for dir, v := range raw {
		if target, ok := v.(string); ok {
			out[dir] = target
		}
	}
	return out
}

// sendRoom stages a gateway.Room describing env for the actor, per spec
// §6.1's `Room{name, description, exits[], contents[], image_hash?}`.
func sendRoom(w *execution, env *hostapi.ObjectView) {
	exits := roomExits(env)
	names := make([]string, 0, len(exits))
	for dir := range exits {
		names = append(names, dir)
	}
	sort.Strings(names)

	present, _ := w.Present(env.ID)
	contents := make([]string, 0, len(present))
	for _, o := range present {
		if o.ID != w.actorID {
			contents = append(contents, o.Name)
		}
	}
	imageHash, _ := env.Properties["image_hash"].(string)

	w.messages[w.actorID] = append(w.messages[w.actorID], gateway.Outbound{
		Kind: gateway.KindRoom,
		Room: &gateway.Room{Name: env.Name, Description: env.Description, Exits: names, Contents: contents, ImageHash: imageHash},
	})
}

func builtinLook(w *execution) error {
	env, err := w.Environment(w.actorID)
	if err != nil {
		w.Send(w.actorID, "You are nowhere.")
		return nil
	}
	sendRoom(w, env)
	return nil
}

func builtinMove(disp *hostapi.Dispatcher, w *execution, dir string) error {
	env, err := w.Environment(w.actorID)
	if err != nil {
		w.Send(w.actorID, "You have nowhere to go.")
		return nil
	}
	target, ok := roomExits(env)[dir]
	if !ok {
		w.Send(w.actorID, "You can't go that way.")
		return nil
	}
	if err := w.MoveObject(w.actorID, &target); err != nil {
		w.Send(w.actorID, "You can't go that way.")
		return nil
	}
	if err := runMoveCascade(disp, w, w.actorID, target); err != nil {
		return err
	}
	if newEnv, err := w.Environment(w.actorID); err == nil {
		sendRoom(w, newEnv)
	}
	return nil
}

func builtinSay(w *execution, args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		w.Send(w.actorID, "Say what?")
		return nil
	}
	actor, err := w.GetObject(w.actorID)
	if err != nil {
		return err
	}
	env, err := w.Environment(w.actorID)
	if err != nil {
		w.Send(w.actorID, "You say, \""+text+"\"")
		return nil
	}
	w.Send(w.actorID, "You say, \""+text+"\"")
	w.BroadcastExcept(env.ID, w.actorID, actor.Name+" says, \""+text+"\"")
	return nil
}

func builtinHelp(w *execution) error {
	w.Send(w.actorID, "Commands: look, north/south/east/west/up/down, say <text>, inventory, ping, help")
	return nil
}

func builtinInventory(w *execution) error {
	items, err := w.AllInventory(w.actorID)
	if err != nil || len(items) == 0 {
		w.Send(w.actorID, "You are carrying nothing.")
		return nil
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	w.Send(w.actorID, "You are carrying: "+strings.Join(names, ", "))
	return nil
}

func builtinGoto(disp *hostapi.Dispatcher, w *execution, target string) error {
	if target == "" {
		w.Send(w.actorID, "Goto where?")
		return nil
	}
	origin, _ := w.Environment(w.actorID)
	if err := w.MoveObject(w.actorID, &target); err != nil {
		w.Send(w.actorID, "No such place.")
		return nil
	}
	if err := runMoveCascade(disp, w, w.actorID, target); err != nil {
		return err
	}
	_ = origin
	if newEnv, err := w.Environment(w.actorID); err == nil {
		sendRoom(w, newEnv)
	}
	return nil
}

func builtinSetPortal(w *execution, args string) error {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		w.Send(w.actorID, "Usage: setportal <direction> <target_id>")
		return nil
	}
	dir, target := parts[0], parts[1]
	env, err := w.Environment(w.actorID)
	if err != nil {
		w.Send(w.actorID, "You have nowhere to set a portal from.")
		return nil
	}
	exits := roomExits(env)
	exits[dir] = target
	merged := make(map[string]any, len(exits))
	for k, v := range exits {
		merged[k] = v
	}
	if err := w.UpdateObject(env.ID, map[string]any{"exits": merged}); err != nil {
		return err
	}
	w.Send(w.actorID, "Portal set: "+dir+" -> "+target)
	return nil
}
