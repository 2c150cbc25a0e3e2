// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package access implements the Permissions component (spec §4.8): a
// strict role ladder (player < builder < wizard < admin < owner), an
// ownership check, and per-account path-prefix grants, evaluated in the
// spec's documented first-match-wins order.
package access

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/mudcore/internal/replication"
)

// Level is one rung of the access ladder. Levels compare by rank, not
// by string value, since "admin" must outrank "builder" even though
// neither sorts that way lexically.
type Level string

const (
	LevelPlayer  Level = "player"
	LevelBuilder Level = "builder"
	LevelWizard  Level = "wizard"
	LevelAdmin   Level = "admin"
	LevelOwner   Level = "owner"
)

var rank = map[Level]int{
	LevelPlayer:  0,
	LevelBuilder: 1,
	LevelWizard:  2,
	LevelAdmin:   3,
	LevelOwner:   4,
}

// AtLeast reports whether l is the same rank as or outranks other. An
// unrecognized level ranks below LevelPlayer.
func (l Level) AtLeast(other Level) bool {
	r, ok := rank[l]
	if !ok {
		r = -1
	}
	return r >= rank[other]
}

// Valid reports whether l is one of the five defined rungs.
func (l Level) Valid() bool {
	_, ok := rank[l]
	return ok
}

// PathGrant is one path-prefix delegation (spec §6.2 path_grants):
// grantee may act on any object whose ID falls under PathPrefix,
// matched by path segment, never by raw string prefix ("/a/b" must not
// match "/a/bc").
type PathGrant struct {
	ID          string
	GranteeID   string
	PathPrefix  string
	CanDelegate bool
	GrantedBy   string
}

// Target is the minimal shape check_permission needs about the object
// being acted on.
type Target struct {
	ID      string
	OwnerID string
	Fixed   bool
}

// Result is check_permission's return shape (spec §4.5 {allowed, error?}).
type Result struct {
	Allowed bool
	Reason  string
}

func allowed() Result { return Result{Allowed: true} }

func denied(reason string) Result {
	return Result{Allowed: false, Reason: reason}
}

// playerAllowedActions are the actions a plain player may always take,
// absent any grant or ownership (spec §4.8 step 4).
var playerAllowedActions = map[string]bool{
	"read":           true,
	"execute":        true,
	"move_non_fixed": true,
}

// Checker evaluates check_permission against a live set of per-account
// path grants (spec §6.2 path_grants, unique per (universe, grantee,
// path_prefix)). Safe for concurrent use; grants are mutated only
// through the Mutation Collector in the real engine, but Checker itself
// does not require that — it is a pure in-memory index the engine keeps
// in sync with persisted grants.
type Checker struct {
	mu     sync.RWMutex
	byAcct map[string][]compiledGrant
}

type compiledGrant struct {
	grant PathGrant
	exact glob.Glob
	tree  glob.Glob
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{byAcct: make(map[string][]compiledGrant)}
}

// Grant installs a path grant, rejecting an invalid (empty) prefix.
// (universe_id, grantee_id, path_prefix) uniqueness is the caller's
// (engine/store) responsibility, matching the §6.2 schema constraint.
func (c *Checker) Grant(g PathGrant) error {
	if g.PathPrefix == "" || g.GranteeID == "" {
		return oops.In("access").Code("PATH_INVALID").Errorf("path grant requires a grantee and a non-empty path prefix")
	}
	prefix := strings.TrimSuffix(g.PathPrefix, "/")
	exact, err := glob.Compile(prefix)
	if err != nil {
		return oops.In("access").Code("PATH_INVALID").Wrapf(err, "compile grant prefix %q", g.PathPrefix)
	}
	tree, err := glob.Compile(prefix+"/**", '/')
	if err != nil {
		return oops.In("access").Code("PATH_INVALID").Wrapf(err, "compile grant prefix %q", g.PathPrefix)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byAcct[g.GranteeID] = append(c.byAcct[g.GranteeID], compiledGrant{grant: g, exact: exact, tree: tree})
	return nil
}

// Revoke removes every grant for (granteeID, pathPrefix).
func (c *Checker) Revoke(granteeID, pathPrefix string) {
	prefix := strings.TrimSuffix(pathPrefix, "/")
	c.mu.Lock()
	defer c.mu.Unlock()
	grants := c.byAcct[granteeID]
	out := grants[:0]
	for _, g := range grants {
		if g.grant.PathPrefix != prefix && g.grant.PathPrefix != pathPrefix {
			out = append(out, g)
		}
	}
	c.byAcct[granteeID] = out
}

// hasGrant reports whether granteeID holds a path grant covering targetID
// (spec §4.8 step 3: "/a/b matches /a/b and /a/b/anything, never /a/bc").
func (c *Checker) hasGrant(granteeID, targetID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.byAcct[granteeID] {
		if g.exact.Match(targetID) || g.tree.Match(targetID) {
			return true
		}
	}
	return false
}

// ApplyPathGrant implements replication.PathGrantSink, replaying a
// grant or revoke recorded by the Mutation Collector.
func (c *Checker) ApplyPathGrant(op replication.Operation, grantID string, payload any) error {
	m, _ := payload.(map[string]any)
	granteeID, _ := m["grantee_id"].(string)
	prefix, _ := m["path_prefix"].(string)
	switch op {
	case replication.OpGrant:
		canDelegate, _ := m["can_delegate"].(bool)
		grantedBy, _ := m["granted_by"].(string)
		return c.Grant(PathGrant{ID: grantID, GranteeID: granteeID, PathPrefix: prefix, CanDelegate: canDelegate, GrantedBy: grantedBy})
	case replication.OpRevoke:
		c.Revoke(granteeID, prefix)
	}
	return nil
}

// Actor is the minimal shape check_permission needs about the caller.
type Actor struct {
	AccountID   string
	AccessLevel Level
}

// Check implements the spec §4.8 algorithm, first match wins:
//  1. access_level >= wizard => Allowed.
//  2. target.owner == actor.account_id => Allowed.
//  3. any path_grant(actor) whose prefix covers target.id => Allowed.
//  4. action in {read, execute, move_non_fixed} => Allowed for player.
//  5. otherwise Denied, with a reason.
//
// move_object on a Fixed target additionally requires wizard bypass or
// an owning path grant regardless of containment (spec §4.8 last
// paragraph); callers use CheckMove so that a fixed object never falls
// through to the player-default rule under a different action name.
func (c *Checker) Check(actor Actor, action string, target Target) Result {
	if actor.AccessLevel.AtLeast(LevelWizard) {
		return allowed()
	}
	if target.OwnerID != "" && target.OwnerID == actor.AccountID {
		return allowed()
	}
	if c.hasGrant(actor.AccountID, target.ID) {
		return allowed()
	}
	if playerAllowedActions[action] {
		return allowed()
	}
	return denied("access level " + string(actor.AccessLevel) + " may not " + action + " " + target.ID)
}

// CheckMove is the move_object-specific entry point: a Fixed target can
// only be moved by a wizard+ actor or the owner/grant holder, never by
// the plain "move_non_fixed" player default (spec §4.8, "move_object on
// an object with metadata.fixed = true requires wizard bypass or an
// owning path grant, regardless of containment").
func (c *Checker) CheckMove(actor Actor, target Target) Result {
	if target.Fixed {
		return c.Check(actor, "move_fixed", target)
	}
	return c.Check(actor, "move_non_fixed", target)
}
