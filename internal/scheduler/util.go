// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

// toInt64 coerces a decoded JSON numeric (float64) or native Go integer
// into an int64, for replayed intent payloads that lose their original
// numeric type across the wire (spec §4.10 follower replay).
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
