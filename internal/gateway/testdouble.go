// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gateway

import (
	"sync"

	"github.com/samber/oops"
)

// InMemory is a SessionGateway test double: commands are fed in by the
// test via Push, Deliver calls are captured for assertions, and
// Receive drains an internal channel rather than any real transport.
type InMemory struct {
	inbox chan Command
	done  chan struct{}

	mu        sync.Mutex
	delivered map[string][]Outbound
}

// NewInMemory builds a double with the given inbound queue depth.
func NewInMemory(queueDepth int) *InMemory {
	return &InMemory{
		inbox:     make(chan Command, queueDepth),
		done:      make(chan struct{}),
		delivered: make(map[string][]Outbound),
	}
}

// Push enqueues an inbound command as if a transport had framed it.
func (g *InMemory) Push(cmd Command) {
	g.inbox <- cmd
}

// Close stops Receive from blocking further, simulating shutdown.
func (g *InMemory) Close() {
	close(g.done)
}

func (g *InMemory) Receive() (Command, error) {
	select {
	case cmd := <-g.inbox:
		return cmd, nil
	case <-g.done:
		return Command{}, oops.In("gateway").Code("CLOSED").Errorf("gateway closed")
	}
}

func (g *InMemory) Deliver(actorID string, batch []Outbound) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delivered[actorID] = append(g.delivered[actorID], batch...)
	return nil
}

// Delivered returns everything staged to actorID so far, for assertions.
func (g *InMemory) Delivered(actorID string) []Outbound {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Outbound, len(g.delivered[actorID]))
	copy(out, g.delivered[actorID])
	return out
}
