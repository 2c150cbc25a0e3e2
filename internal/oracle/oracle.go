// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package oracle defines the ContentOracle collaborator boundary (spec
// §6.4): a chat/image LLM backend called synchronously from inside a
// sandboxed script. Only the interface and an in-memory test double are
// specified here — a production LLM integration is explicitly out of
// scope (spec §1).
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// Message is one chat turn, matching spec §6.4's {role, content} shape.
type Message struct {
	Role    string
	Content string
}

// Tier selects the model class per spec §6.4.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
)

// ContentOracle is the collaborator the Sandbox calls into via
// game.llm_chat/game.llm_image. Implementations must return
// OracleTimeout/OracleUnavailable/OracleRejected (spec §7) rather than
// blocking past the caller's remaining wall-clock budget (spec §5:
// "oracle time counts against the 500 ms deadline").
type ContentOracle interface {
	Chat(ctx context.Context, messages []Message, tier Tier) (string, error)
	Image(ctx context.Context, prompt, style, size string) (string, error)
}

// RateLimiter enforces spec §6.4's caller-side limits: 60 calls/min per
// session, 5 per execution. The per-execution count is the sandbox
// Meter's OracleCalls counter; RateLimiter only tracks the per-session
// sliding window, since a single execution never outlives one call.
type RateLimiter struct {
	perMinute int
	window    time.Duration
	now       func() time.Time

	mu    sync.Mutex
	calls map[string][]time.Time
}

// NewRateLimiter builds a limiter allowing perMinute calls per session
// in any trailing 60s window.
func NewRateLimiter(perMinute int, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{perMinute: perMinute, window: time.Minute, now: now, calls: make(map[string][]time.Time)}
}

// Allow records a call attempt for sessionID and reports whether it is
// within the per-minute budget.
func (r *RateLimiter) Allow(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	cutoff := now.Add(-r.window)
	kept := r.calls[sessionID][:0]
	for _, t := range r.calls[sessionID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.perMinute {
		r.calls[sessionID] = kept
		return false
	}
	r.calls[sessionID] = append(kept, now)
	return true
}

// ErrOracleTimeout/Unavailable/Rejected are the spec §7 error kinds,
// wrapped through oops so hostapi can surface a stable Code() to the
// script's {error: string} result.
func ErrTimeout() error {
	return oops.In("oracle").Code("ORACLE_TIMEOUT").Errorf("oracle call exceeded remaining budget")
}

func ErrUnavailable(cause error) error {
	return oops.In("oracle").Code("ORACLE_UNAVAILABLE").Wrapf(cause, "oracle backend unavailable")
}

func ErrRejected(reason string) error {
	return oops.In("oracle").Code("ORACLE_REJECTED").Errorf("oracle rejected request: %s", reason)
}
