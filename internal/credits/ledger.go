// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package credits implements the CreditLedger collaborator boundary
// (spec §1 external collaborators, §7 InsufficientCredits): per-account
// balances scoped to a universe, debited/credited only through the
// Mutation Collector so a failed script never leaks a deduction. This
// package ships the in-process ledger the single deliverable binary
// runs against; a real payments backend is explicitly out of scope.
package credits

import (
	"sync"

	"github.com/samber/oops"
)

// Delta is one signed balance change, recorded into a replicated log
// entry's credit_deltas list (spec §4.10/§6.3) rather than applied
// directly, so followers can replay it without re-running the script.
type Delta struct {
	UniverseID string
	AccountID  string
	Amount     int64
	Reason     string
}

// Ledger is the in-process CreditLedger implementation, keyed by
// (universe_id, account_id) matching the §6.2 credits table's primary
// key. Safe for concurrent use; the engine serializes writes through
// its single-writer-per-universe loop, but reads (game.get_credits) may
// race with that loop's own application of a just-committed delta.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]map[string]int64
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[string]map[string]int64)}
}

// Balance returns the current balance, defaulting to zero for an
// unseen account.
func (l *Ledger) Balance(universeID, accountID string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[universeID][accountID]
}

// Deduct subtracts amount if the account holds enough, returning
// InsufficientCredits otherwise (spec §7). amount must be positive.
func (l *Ledger) Deduct(universeID, accountID string, amount int64, reason string) error {
	if amount <= 0 {
		return oops.In("credits").Code("INVALID_AMOUNT").Errorf("deduct amount must be positive, got %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := l.ensureLocked(universeID)
	if acct[accountID] < amount {
		return oops.In("credits").Code("INSUFFICIENT_CREDITS").Errorf("account %s has %d, needs %d (%s)", accountID, acct[accountID], amount, reason)
	}
	acct[accountID] -= amount
	return nil
}

// Grant adds amount to the account's balance; used for admin grants and
// for applying a positive credit_deltas entry on replay. amount must be
// positive — use Deduct for negative adjustments.
func (l *Ledger) Grant(universeID, accountID string, amount int64) error {
	if amount <= 0 {
		return oops.In("credits").Code("INVALID_AMOUNT").Errorf("grant amount must be positive, got %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := l.ensureLocked(universeID)
	acct[accountID] += amount
	return nil
}

// Apply replays a signed Delta verbatim (follower apply path, spec
// §4.10 "followers apply the same intents ... without running
// scripts"); unlike Deduct it never rejects for insufficiency, since
// the leader already admitted the debit when it produced the delta.
func (l *Ledger) Apply(d Delta) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := l.ensureLocked(d.UniverseID)
	acct[d.AccountID] += d.Amount
}

func (l *Ledger) ensureLocked(universeID string) map[string]int64 {
	acct, ok := l.balances[universeID]
	if !ok {
		acct = make(map[string]int64)
		l.balances[universeID] = acct
	}
	return acct
}

// Snapshot returns a copy of every recorded balance for universeID
// (zero balances included), for Raft
// snapshot installation alongside the Object Graph's own Snapshot.
func (l *Ledger) Snapshot(universeID string) map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int64, len(l.balances[universeID]))
	for acct, bal := range l.balances[universeID] {
		out[acct] = bal
	}
	return out
}

// RestoreSnapshot replaces universeID's balances wholesale.
func (l *Ledger) RestoreSnapshot(universeID string, balances map[string]int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := make(map[string]int64, len(balances))
	for k, v := range balances {
		acct[k] = v
	}
	l.balances[universeID] = acct
}
