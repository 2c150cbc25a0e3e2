// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package codestore implements the Code Store (spec §4.3): a
// content-addressed, deduplicated repository of Lua source keyed by its
// SHA-256 hash, with reference counting and grace-windowed GC.
package codestore

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry is one stored source blob plus its dedup bookkeeping.
type entry struct {
	source    string
	refCount  int
	zeroSince *time.Time
}

// Store is an in-memory, mutex-guarded code store. A production
// deployment backs this with the code_store table (see internal/store)
// through the same Persist/Load seam the Object Graph uses for
// snapshots. Store only ever adds entries; entries are removed only by a
// GC sweep and replaced wholesale only by Load. Reads and writes share a
// read-write mutex, so a writer waits for in-flight readers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*entry), now: time.Now}
}

// Hash computes the content address of source without storing it.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Store is idempotent: storing identical source twice returns the same
// hash and does not itself change reference_count. Callers that want a
// new reference must call Incref explicitly (the scheduler does this when
// a class definition's code is stored, and replication.Applier does it
// when replaying an incref).
func (s *Store) Store(source string) string {
	hash := Hash(source)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[hash]; !ok {
		s.entries[hash] = &entry{source: source}
	}
	return hash
}

// Get returns the source for hash, or NotFound.
func (s *Store) Get(hash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[hash]
	if !ok {
		return "", errNotFound(hash)
	}
	return e.source, nil
}

// Incref bumps the reference count of hash, when a class definition
// starts referencing that code.
func (s *Store) Incref(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[hash]
	if !ok {
		return errNotFound(hash)
	}
	e.refCount++
	e.zeroSince = nil
	return nil
}

// Decref drops the reference count when an object's code_hash stops
// pointing at hash (on update away from it, or on delete). A count that
// reaches zero starts the GC grace window rather than being swept
// immediately.
func (s *Store) Decref(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[hash]
	if !ok {
		return errNotFound(hash)
	}
	if e.refCount > 0 {
		e.refCount--
	}
	if e.refCount == 0 && e.zeroSince == nil {
		now := s.now()
		e.zeroSince = &now
	}
	return nil
}

// GC sweeps entries whose reference_count has been zero for longer than
// grace, returning the hashes removed.
func (s *Store) GC(grace time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var swept []string
	for hash, e := range s.entries {
		if e.refCount == 0 && e.zeroSince != nil && now.Sub(*e.zeroSince) >= grace {
			delete(s.entries, hash)
			swept = append(swept, hash)
		}
	}
	return swept
}

// Record is one stored entry's persisted shape (spec §6.2 code_store),
// returned by All and accepted by Load.
type Record struct {
	Hash      string
	Source    string
	RefCount  int
	ZeroSince *time.Time
}

// All returns every stored entry for persistence, the Persist half of
// the Persist/Load seam internal/store's KeyedStore uses for snapshots.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.entries))
	for hash, e := range s.entries {
		out = append(out, Record{Hash: hash, Source: e.source, RefCount: e.refCount, ZeroSince: e.zeroSince})
	}
	return out
}

// Load seeds the Store from persisted rows, e.g. on startup or after
// InstallSnapshot. It bypasses Store's dedup/Incref bookkeeping.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry, len(records))
	for _, rec := range records {
		s.entries[rec.Hash] = &entry{source: rec.Source, refCount: rec.RefCount, zeroSince: rec.ZeroSince}
	}
}
