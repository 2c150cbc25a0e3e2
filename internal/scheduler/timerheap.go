// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"container/heap"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/mudcore/internal/replication"
)

// Timer is one pending call_out (spec §4.5 call_out / §4.7 timer heap).
type Timer struct {
	ID         string
	ObjectID   string
	Method     string
	Args       []any
	FireAt     time.Time
	ArrivalSeq uint64
}

// timerQueue implements container/heap.Interface ordered by FireAt.
type timerQueue []*Timer

func (q timerQueue) Len() int            { return len(q) }
func (q timerQueue) Less(i, j int) bool  { return q[i].FireAt.Before(q[j].FireAt) }
func (q timerQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x any)         { *q = append(*q, x.(*Timer)) }
func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// defaultMaxPendingPerObject is the default call_out cap (spec §4.5).
const defaultMaxPendingPerObject = 64

// TimerHeap is the min-heap of pending timers keyed by fire time, with a
// per-object pending-count cap and O(1) cancellation by id.
type TimerHeap struct {
	mu             sync.Mutex
	queue          timerQueue
	byID           map[string]*Timer
	perObjectCount map[string]int
	maxPerObject   int
	seq            uint64
	entropy        *ulid.MonotonicEntropy
}

// NewTimerHeap creates an empty heap with the default per-object cap.
func NewTimerHeap() *TimerHeap {
	return &TimerHeap{
		byID:           make(map[string]*Timer),
		perObjectCount: make(map[string]int),
		maxPerObject:   defaultMaxPendingPerObject,
		entropy:        ulid.Monotonic(rand.Reader, 0),
	}
}

// Schedule inserts a new timer, rejecting it if objectID is already at
// its pending cap.
func (h *TimerHeap) Schedule(objectID, method string, args []any, fireAt time.Time, now time.Time) (*Timer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.perObjectCount[objectID] >= h.maxPerObject {
		return nil, errTimerLimit(objectID)
	}
	h.seq++
	t := &Timer{
		ID:         ulid.MustNew(ulid.Timestamp(now), h.entropy).String(),
		ObjectID:   objectID,
		Method:     method,
		Args:       args,
		FireAt:     fireAt,
		ArrivalSeq: h.seq,
	}
	heap.Push(&h.queue, t)
	h.byID[t.ID] = t
	h.perObjectCount[objectID]++
	return t, nil
}

// Remove cancels a pending timer by id.
func (h *TimerHeap) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.byID[id]
	if !ok {
		return false
	}
	for i, cand := range h.queue {
		if cand.ID == id {
			heap.Remove(&h.queue, i)
			break
		}
	}
	delete(h.byID, id)
	h.perObjectCount[t.ObjectID]--
	return true
}

// Find reports the seconds remaining until objectID's next pending
// call_out to method, if any.
func (h *TimerHeap) Find(objectID, method string, now time.Time) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var best *Timer
	for _, t := range h.queue {
		if t.ObjectID == objectID && t.Method == method {
			if best == nil || t.FireAt.Before(best.FireAt) {
				best = t
			}
		}
	}
	if best == nil {
		return 0, false
	}
	return best.FireAt.Sub(now).Seconds(), true
}

// Peek reports the next timer's fire time without removing it.
func (h *TimerHeap) Peek() (*Timer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return nil, false
	}
	return h.queue[0], true
}

// ApplyTimer implements replication.TimerSink: it replays a call_out
// creation or cancellation exactly as the leader recorded it (spec
// §4.10 "followers apply the same intents ... without running
// scripts"), installing the leader-assigned timer id verbatim rather
// than minting a new one.
func (h *TimerHeap) ApplyTimer(op replication.Operation, timerID string, payload any) error {
	switch op {
	case replication.OpCallOut:
		m, _ := payload.(map[string]any)
		objectID, _ := m["object_id"].(string)
		method, _ := m["method"].(string)
		var args []any
		if a, ok := m["args"].([]any); ok {
			args = a
		}
		fireAtMS, _ := toInt64(m["fire_at_ms"])
		t := &Timer{ID: timerID, ObjectID: objectID, Method: method, Args: args, FireAt: time.UnixMilli(fireAtMS)}
		h.mu.Lock()
		h.seq++
		t.ArrivalSeq = h.seq
		heap.Push(&h.queue, t)
		h.byID[t.ID] = t
		h.perObjectCount[objectID]++
		h.mu.Unlock()
	case replication.OpRemoveTimer:
		h.Remove(timerID)
	}
	return nil
}

// PopReady removes and returns the earliest timer if it is due by now.
func (h *TimerHeap) PopReady(now time.Time) (*Timer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 || h.queue[0].FireAt.After(now) {
		return nil, false
	}
	t := heap.Pop(&h.queue).(*Timer)
	delete(h.byID, t.ID)
	h.perObjectCount[t.ObjectID]--
	return t, true
}
