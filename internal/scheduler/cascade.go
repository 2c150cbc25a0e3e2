// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"sort"

	"github.com/holomush/mudcore/internal/hostapi"
)

// runMoveCascade drives the deterministic init() cascade that follows a
// successful move_object(mover, dest) (spec §4.6): dest.on_enter(mover)
// fires first, then for every sibling Y of mover in dest (ascending by
// id) Y.on_init(mover) fires followed by mover.on_init(Y), and finally
// mover.on_init(dest). It shares the triggering call's sandbox execution
// and Mutation Collector, so a handler invoked here may itself call
// game.add_action or any other game.* function.
func runMoveCascade(disp *hostapi.Dispatcher, w *execution, moverID, destID string) error {
	moverClass, err := classOf(w, moverID)
	if err != nil {
		return err
	}
	destClass, err := classOf(w, destID)
	if err != nil {
		return err
	}

	if err := dispatchIfAdvertised(disp, w, destClass, "on_enter", moverID); err != nil {
		return err
	}

	siblings := w.view.Children(destID)
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].ID < siblings[j].ID })
	for _, y := range siblings {
		if y.ID == moverID {
			continue
		}
		if err := dispatchIfAdvertised(disp, w, y.Class, "on_init", moverID); err != nil {
			return err
		}
		if err := dispatchIfAdvertised(disp, w, moverClass, "on_init", y.ID); err != nil {
			return err
		}
	}

	return dispatchIfAdvertised(disp, w, moverClass, "on_init", destID)
}

func classOf(w *execution, id string) (string, error) {
	obj, err := w.view.Get(id)
	if err != nil {
		return "", err
	}
	return obj.Class, nil
}

// dispatchIfAdvertised invokes handler on the nearest class in class's
// ancestor chain that advertises it, a no-op when none does (spec §4.6
// "only if its class advertises on_init").
func dispatchIfAdvertised(disp *hostapi.Dispatcher, w *execution, class, handler, arg string) error {
	owner, ok := w.universe.Classes.HandlerOwner(class, handler)
	if !ok {
		return nil
	}
	_, _, err := disp.Call(owner, handler, arg)
	return err
}
