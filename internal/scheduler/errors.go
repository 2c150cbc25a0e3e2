// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import "github.com/samber/oops"

const (
	ErrTimerLimit        = "TIMER_LIMIT_EXCEEDED"
	ErrHeartBeatInterval = "HEART_BEAT_INTERVAL_TOO_SHORT"
)

func errTimerLimit(objectID string) error {
	return oops.In("scheduler").Code(ErrTimerLimit).With("object", objectID).
		Errorf("object %q has reached its maximum pending call_outs", objectID)
}

func errHeartBeatInterval(intervalMS int) error {
	return oops.In("scheduler").Code(ErrHeartBeatInterval).With("interval_ms", intervalMS).
		Errorf("heart-beat interval %dms is below the 500ms minimum", intervalMS)
}
