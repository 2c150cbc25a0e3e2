// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/run"

	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/hostapi"
	"github.com/holomush/mudcore/internal/replication"
	"github.com/holomush/mudcore/internal/sandbox"
)

// pollInterval is how often the Engine wakes to re-check its three
// ordered sources when all of them are momentarily empty (spec §4.7's
// 500ms heart-beat cadence doubles as the idle poll).
const pollInterval = minHeartBeatInterval

// Engine is the single-writer-per-universe execution loop (spec §4.7,
// §9): it drains the command queue ahead of due timers ahead of due
// heart-beats, running each dispatch inside its own sandbox execution
// and gating every mutation on a successful Replicator.Commit before
// releasing the staged message batch.
type Engine struct {
	universe *Universe
	vm       *sandbox.VM
}

// NewEngine builds an Engine over universe using the default sandbox VM.
func NewEngine(universe *Universe) *Engine {
	return &Engine{universe: universe, vm: sandbox.New()}
}

// DispatchCommand runs one command to completion synchronously,
// bypassing the Command Queue. It exists for tooling that drives a
// single actor outside a live Gateway loop (the wizard `eval` REPL),
// where the caller needs the staged message batch back before reading
// the next line of input rather than racing a concurrent dispatchLoop.
func (e *Engine) DispatchCommand(ctx context.Context, actorID, text string) {
	e.dispatchCommand(ctx, Command{ActorID: actorID, Text: text})
}

// Run drives both the gateway intake loop and the dispatch loop until
// ctx is canceled, using an oklog/run group so either goroutine exiting
// triggers an orderly shutdown of the other.
func (e *Engine) Run(ctx context.Context) error {
	var g run.Group

	ctx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		return e.receiveLoop(ctx)
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		return e.dispatchLoop(ctx)
	}, func(error) {
		cancel()
	})

	return g.Run()
}

// receiveLoop pulls inbound commands off the Gateway and stamps them
// into the Command Queue, decoupling socket reads from the single
// writer's dispatch cadence.
func (e *Engine) receiveLoop(ctx context.Context) error {
	if e.universe.Gateway == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		cmd, err := e.universe.Gateway.Receive()
		if err != nil {
			return err
		}
		if cmd.UniverseID != "" && cmd.UniverseID != e.universe.ID {
			continue
		}
		e.universe.Queue.Enqueue(cmd.ActorID, cmd.Text)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// dispatchLoop implements spec §4.7's priority order: commands, then
// due timers, then due heart-beats, falling back to a bounded sleep
// when all three are empty.
func (e *Engine) dispatchLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if cmd, ok := e.universe.Queue.Dequeue(); ok {
			e.dispatchCommand(ctx, cmd)
			continue
		}
		if t, ok := e.universe.Timers.PopReady(e.universe.Now()); ok {
			e.dispatchTimer(ctx, t)
			continue
		}
		due := e.universe.HeartBeats.Due(e.universe.Now())
		if len(due) > 0 {
			for _, id := range due {
				e.dispatchHeartBeat(ctx, id)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// splitCommand parses spec §6.1's framing: first whitespace token is
// the verb, remainder is the argument string.
func splitCommand(text string) (verb, args string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx+1:])
}

func (e *Engine) dispatchCommand(ctx context.Context, cmd Command) {
	seq := e.universe.nextSeq()
	now := e.universe.Now()
	collector := replication.NewCollector()
	w := newExecution(e.universe, collector, cmd.ActorID, cmd.ActorID, seq, now)

	verb, args := splitCommand(cmd.Text)
	budget := sandbox.Default()
	if verb == "eval" {
		budget = sandbox.WizardEval()
	}

	registrar := &hostapi.Registrar{World: w}
	execCtx := sandbox.ExecContext{ActorID: cmd.ActorID, UniverseID: e.universe.ID, ObjectID: cmd.ActorID, Verb: verb, Now: now}
	exec, err := e.vm.Open(ctx, budget, execCtx, registrar)
	if err != nil {
		e.deliverError(cmd.ActorID, "internal error")
		return
	}
	defer exec.Close()
	disp := hostapi.NewDispatcher(exec.L, registrar.Current)

	var runErr error
	switch {
	case isWizardVerb(verb) && !w.Privileged():
		w.Send(cmd.ActorID, "Permission denied.")
	case verb == "eval":
		runErr = e.runEval(exec, w, args)
	case isBuiltinVerb(verb):
		runErr = runBuiltin(disp, w, verb, args)
	default:
		ref, ok := e.universe.Actions.Get(cmd.ActorID, verb)
		if !ok {
			w.Send(cmd.ActorID, "I don't understand that command.")
		} else if target, err := w.GetObject(ref.ObjectID); err != nil {
			w.Send(cmd.ActorID, "That no longer works.")
		} else {
			_, _, runErr = disp.Call(target.Class, ref.Handler, ref.ObjectID, cmd.ActorID, args)
		}
	}

	if runErr != nil {
		w.view.Discard()
		e.deliverError(cmd.ActorID, runErr.Error())
		return
	}
	e.finishExecution(ctx, w, cmd.ActorID, cmd.Text, seq, now)
}

// runEval compiles and runs args as raw Lua source under the wizard
// eval budget, sharing w's World so any mutation the script performs is
// staged and replicated exactly like a built-in or class handler (spec
// §6.1 "eval" wizard+ command; §7 "Wizard+ eval receives the raw error
// plus line/column").
func (e *Engine) runEval(exec *sandbox.Execution, w *execution, source string) error {
	result, err := exec.RunSource(source, nil)
	if err != nil {
		w.Send(w.actorID, "eval error: "+err.Error())
		return nil
	}
	if len(result.Values) == 0 {
		w.Send(w.actorID, "eval: (no return value)")
		return nil
	}
	parts := make([]string, len(result.Values))
	for i, v := range result.Values {
		parts[i] = v.String()
	}
	w.Send(w.actorID, "eval: "+strings.Join(parts, ", "))
	return nil
}

func (e *Engine) dispatchTimer(ctx context.Context, t *Timer) {
	seq := e.universe.nextSeq()
	now := e.universe.Now()
	collector := replication.NewCollector()
	w := newExecution(e.universe, collector, t.ObjectID, t.ObjectID, seq, now)

	obj, err := w.GetObject(t.ObjectID)
	if err != nil {
		return
	}
	registrar := &hostapi.Registrar{World: w}
	execCtx := sandbox.ExecContext{ActorID: t.ObjectID, UniverseID: e.universe.ID, ObjectID: t.ObjectID, Verb: t.Method, Now: now}
	exec, err := e.vm.Open(ctx, sandbox.Default(), execCtx, registrar)
	if err != nil {
		return
	}
	defer exec.Close()
	disp := hostapi.NewDispatcher(exec.L, registrar.Current)

	if _, _, err := disp.Call(obj.Class, t.Method, t.Args...); err != nil {
		w.view.Discard()
		return
	}
	e.finishExecution(ctx, w, t.ObjectID, "", seq, now)
}

func (e *Engine) dispatchHeartBeat(ctx context.Context, objectID string) {
	seq := e.universe.nextSeq()
	now := e.universe.Now()
	collector := replication.NewCollector()
	w := newExecution(e.universe, collector, objectID, objectID, seq, now)

	obj, err := w.GetObject(objectID)
	if err != nil {
		return
	}
	runCombatHeartBeat(w, objectID)

	registrar := &hostapi.Registrar{World: w}
	execCtx := sandbox.ExecContext{ActorID: objectID, UniverseID: e.universe.ID, ObjectID: objectID, Verb: "heart_beat", Now: now}
	exec, err := e.vm.Open(ctx, sandbox.Default(), execCtx, registrar)
	if err != nil {
		return
	}
	defer exec.Close()
	disp := hostapi.NewDispatcher(exec.L, registrar.Current)

	if _, _, err := disp.Call(obj.Class, "heart_beat"); err != nil {
		w.view.Discard()
		return
	}
	e.finishExecution(ctx, w, objectID, "", seq, now)
}

// finishExecution commits w's staged mutations through the Replicator
// (when wired) and releases its message batch, or discards everything
// on a replication failure (spec §4.10 step 3 "Atomicity": either the
// whole batch lands or none of it does).
func (e *Engine) finishExecution(ctx context.Context, w *execution, actorID, text string, seq uint64, now time.Time) {
	if !w.collector.Empty() {
		intents, deltas := splitCreditIntents(w.collector.Intents())
		entry := replication.LogEntry{
			V:              1,
			UniverseID:     e.universe.ID,
			CommandSeq:     seq,
			ActorID:        actorID,
			Text:           text,
			NowMS:          now.UnixMilli(),
			RNGSeed:        seedFor(e.universe.ID, seq, actorID),
			Intents:        intents,
			CreditDeltas:   deltas,
			MessageSummary: replication.MessageSummary{ActorID: actorID, Count: len(w.messages[actorID])},
		}
		if e.universe.Replicator != nil {
			if _, err := e.universe.Replicator.Commit(ctx, entry); err != nil {
				w.view.Discard()
				e.deliverError(actorID, "your command could not be saved, try again")
				return
			}
		}
	}
	w.view.Commit()
	e.deliverMessages(w)
}

// splitCreditIntents pulls EntityCredit intents out of the generic list
// into the log entry's dedicated credit_deltas field (spec §6.3), since
// Applier applies balance changes through credits.Ledger.Apply directly
// rather than by inspecting EntityKind.
func splitCreditIntents(intents []replication.Intent) ([]replication.Intent, []replication.CreditDelta) {
	rest := make([]replication.Intent, 0, len(intents))
	var deltas []replication.CreditDelta
	for _, in := range intents {
		if in.EntityKind != replication.EntityCredit {
			rest = append(rest, in)
			continue
		}
		m, _ := in.Payload.(map[string]any)
		universeID, _ := m["universe_id"].(string)
		amount, _ := toInt64(m["amount"])
		reason, _ := m["reason"].(string)
		deltas = append(deltas, replication.CreditDelta{UniverseID: universeID, AccountID: in.Key, Amount: amount, Reason: reason})
	}
	return rest, deltas
}

func (e *Engine) deliverMessages(w *execution) {
	if e.universe.Gateway == nil {
		return
	}
	for actorID, batch := range w.messages {
		_ = e.universe.Gateway.Deliver(actorID, batch)
	}
}

func (e *Engine) deliverError(actorID, msg string) {
	if e.universe.Gateway == nil {
		return
	}
	_ = e.universe.Gateway.Deliver(actorID, []gateway.Outbound{{Kind: gateway.KindError, Text: msg}})
}
