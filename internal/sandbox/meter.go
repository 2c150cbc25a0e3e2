// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sandbox

import (
	"sync/atomic"
	"time"

	"github.com/samber/oops"
)

// ErrResourceExceeded is the error code every metering violation returns;
// the exceeded dimension is attached via the "kind" field (spec §4.4
// "aborts execution with ResourceExceeded{kind}").
const ErrResourceExceeded = "RESOURCE_EXCEEDED"

func errResourceExceeded(kind string) error {
	return oops.In("sandbox").Code(ErrResourceExceeded).With("kind", kind).
		Errorf("execution exceeded its %s budget", kind)
}

// Meter tracks consumption against a Budget for one execution. It is
// safe for the instruction counter to be updated from the VM's
// per-callback hook while other fields are read from the surrounding
// goroutine that enforces the wall-clock deadline.
type Meter struct {
	budget       Budget
	instructions atomic.Int64
	oracleCalls  atomic.Int32
	storeQueries atomic.Int32
	deadline     time.Time
}

// NewMeter starts a Meter with its wall-clock deadline anchored at now.
func NewMeter(budget Budget, now time.Time) *Meter {
	return &Meter{budget: budget, deadline: now.Add(budget.WallClock)}
}

// Deadline returns the absolute wall-clock abort time.
func (m *Meter) Deadline() time.Time { return m.deadline }

// ChargeInstructions is invoked once per poll of the execution's
// instruction-metering context — gopher-lua polls that context at
// every backward jump and call boundary, so this fires on genuine
// interpreter progress rather than a fixed schedule (spec §4.4).
func (m *Meter) ChargeInstructions(n int64) error {
	if m.budget.Instructions == 0 {
		return nil
	}
	if m.instructions.Add(n) > m.budget.Instructions {
		return errResourceExceeded("instructions")
	}
	return nil
}

// CheckMemory compares an in-use byte estimate with the memory budget.
// RunSource calls it once, before the script is compiled; memory is not
// sampled again while the script runs.
func (m *Meter) CheckMemory(inUse int64) error {
	if m.budget.MemoryBytes == 0 {
		return nil
	}
	if inUse > m.budget.MemoryBytes {
		return errResourceExceeded("memory")
	}
	return nil
}

// ChargeOracle debits one oracle call.
func (m *Meter) ChargeOracle() error {
	if int(m.oracleCalls.Add(1)) > m.budget.OracleCalls {
		return errResourceExceeded("oracle_calls")
	}
	return nil
}

// ChargeStoreQuery debits one store read or write.
func (m *Meter) ChargeStoreQuery() error {
	if int(m.storeQueries.Add(1)) > m.budget.StoreQueries {
		return errResourceExceeded("store_queries")
	}
	return nil
}
