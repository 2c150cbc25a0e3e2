// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/holomush/mudcore/internal/access"
	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/hostapi"
	"github.com/holomush/mudcore/internal/objectgraph"
	"github.com/holomush/mudcore/internal/oracle"
	"github.com/holomush/mudcore/internal/replication"
)

// execution binds one sandbox run to its copy-on-write View over the
// Object Graph, its Mutation Collector, and the implicit actor/this
// arguments, implementing hostapi.World (spec §4 "game.*" surface).
// Nothing it does is visible outside the execution until the engine
// calls commit after the triggering LogEntry has replicated.
type execution struct {
	universe   *Universe
	view       *objectgraph.View
	collector  *replication.Collector
	actorID    string
	thisID     string
	privileged bool
	seq        uint64
	now        time.Time
	rng        *rand.Rand
	messages   map[string][]gateway.Outbound
}

var _ hostapi.World = (*execution)(nil)

func newExecution(u *Universe, collector *replication.Collector, actorID, thisID string, seq uint64, now time.Time) *execution {
	return &execution{
		universe:   u,
		view:       u.Graph.NewExecution(collector),
		collector:  collector,
		actorID:    actorID,
		thisID:     thisID,
		privileged: u.AccessLevel(actorID).AtLeast(access.LevelWizard),
		seq:        seq,
		now:        now,
		rng:        newDeterministicRand(u.ID, seq, actorID),
		messages:   make(map[string][]gateway.Outbound),
	}
}

func toObjectView(o *objectgraph.Object) *hostapi.ObjectView {
	if o == nil {
		return nil
	}
	return &hostapi.ObjectView{
		ID:          o.ID,
		Class:       o.Class,
		Parent:      o.Parent,
		Owner:       o.Owner,
		Name:        o.Name,
		Description: o.Description,
		Properties:  o.Properties,
	}
}

func toObjectViews(objs []*objectgraph.Object) []*hostapi.ObjectView {
	out := make([]*hostapi.ObjectView, len(objs))
	for i, o := range objs {
		out[i] = toObjectView(o)
	}
	return out
}

// splitOverrides pulls the object-level name/description fields out of
// a property-overrides map, since objectgraph.Object stores them as
// dedicated columns rather than cascade-resolved properties.
func splitOverrides(overrides map[string]any, fallbackName string) (name, description string, props map[string]any) {
	props = make(map[string]any, len(overrides))
	for k, v := range overrides {
		props[k] = v
	}
	name = fallbackName
	if n, ok := props["name"].(string); ok {
		name = n
		delete(props, "name")
	}
	if d, ok := props["description"].(string); ok {
		description = d
		delete(props, "description")
	}
	return name, description, props
}

func (e *execution) CreateObject(path, class string, parentID, ownerID *string, overrides map[string]any) (*hostapi.ObjectView, error) {
	name, description, props := splitOverrides(overrides, lastSegment(path))
	obj, err := e.view.Create(path, class, parentID, ownerID, name, description, props)
	if err != nil {
		return nil, err
	}
	return toObjectView(obj), nil
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func (e *execution) GetObject(id string) (*hostapi.ObjectView, error) {
	obj, err := e.view.Get(id)
	if err != nil {
		return nil, err
	}
	return toObjectView(obj), nil
}

func (e *execution) UpdateObject(id string, changes map[string]any) error {
	_, err := e.view.Update(id, func(o *objectgraph.Object) {
		for k, v := range changes {
			switch k {
			case "name":
				if s, ok := v.(string); ok {
					o.Name = s
				}
			case "description":
				if s, ok := v.(string); ok {
					o.Description = s
				}
			case "owner":
				if s, ok := v.(string); ok {
					o.Owner = &s
				} else if v == nil {
					o.Owner = nil
				}
			case "code_hash":
				if s, ok := v.(string); ok {
					o.CodeHash = &s
				} else if v == nil {
					o.CodeHash = nil
				}
			default:
				if o.Properties == nil {
					o.Properties = make(map[string]any)
				}
				o.Properties[k] = v
			}
		}
	})
	return err
}

func (e *execution) DeleteObject(id string) error {
	if err := e.view.Delete(id); err != nil {
		return err
	}
	e.universe.HeartBeats.Remove(id)
	e.universe.Actions.ClearPlayer(id)
	return nil
}

func (e *execution) objectTarget(id string) (access.Target, error) {
	obj, err := e.view.Get(id)
	if err != nil {
		return access.Target{}, err
	}
	owner := ""
	if obj.Owner != nil {
		owner = *obj.Owner
	}
	fixed, _ := obj.Properties["fixed"].(bool)
	return access.Target{ID: obj.ID, OwnerID: owner, Fixed: fixed}, nil
}

func (e *execution) actor() access.Actor {
	return access.Actor{AccountID: e.actorID, AccessLevel: e.universe.AccessLevel(e.actorID)}
}

func (e *execution) MoveObject(id string, newParent *string) error {
	if e.universe.Access != nil {
		target, err := e.objectTarget(id)
		if err != nil {
			return err
		}
		if res := e.universe.Access.CheckMove(e.actor(), target); !res.Allowed {
			return oops.In("scheduler").Code("PERMISSION_DENIED").Errorf("%s", res.Reason)
		}
	}
	return e.view.Move(id, newParent)
}

func (e *execution) CloneObject(srcID, newPath string, newParent *string) (*hostapi.ObjectView, error) {
	src, err := e.view.Get(srcID)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]any, len(src.Properties))
	for k, v := range src.Properties {
		overrides[k] = v
	}
	obj, err := e.view.Create(newPath, src.Class, newParent, src.Owner, src.Name, src.Description, overrides)
	if err != nil {
		return nil, err
	}
	return toObjectView(obj), nil
}

func (e *execution) DefineClass(name string, def hostapi.ClassDef) error {
	cd := classreg.ClassDef{Name: name, ParentName: def.ParentName}
	if def.PropertyDefaults != nil {
		cd.PropertyDefaults = make(map[string]classreg.PropertyDefault, len(def.PropertyDefaults))
		for k, v := range def.PropertyDefaults {
			cd.PropertyDefaults[k] = classreg.PropertyDefault{Default: v}
		}
	}
	if def.Version != "" {
		v, err := semver.NewVersion(def.Version)
		if err != nil {
			return oops.In("scheduler").Code("CLASS_VERSION_INVALID").Wrapf(err, "parse version %q", def.Version)
		}
		cd.Version = v
	}
	if len(def.Handlers) > 0 {
		cd.HandlerNames = make(map[string]bool, len(def.Handlers))
		for _, h := range def.Handlers {
			cd.HandlerNames[h] = true
		}
	}
	if def.Code != "" {
		hash := e.universe.Code.Store(def.Code)
		if err := e.universe.Code.Incref(hash); err != nil {
			return err
		}
		e.collector.RecordCode(replication.OpIncref, hash, def.Code)
		cd.CodeHash = &hash
	}
	return e.universe.Classes.Define(cd)
}

func (e *execution) GetClass(name string) (hostapi.ClassDef, bool) {
	def, err := e.universe.Classes.Get(name)
	if err != nil {
		return hostapi.ClassDef{}, false
	}
	out := hostapi.ClassDef{ParentName: def.ParentName}
	if def.PropertyDefaults != nil {
		out.PropertyDefaults = make(map[string]any, len(def.PropertyDefaults))
		for k, pd := range def.PropertyDefaults {
			out.PropertyDefaults[k] = pd.Default
		}
	}
	if def.Version != nil {
		out.Version = def.Version.String()
	}
	for h := range def.HandlerNames {
		out.Handlers = append(out.Handlers, h)
	}
	return out, true
}

func (e *execution) GetClassChain(name string) ([]string, error) {
	return e.universe.Classes.Chain(name)
}

func (e *execution) IsA(id, class string) bool {
	obj, err := e.view.Get(id)
	if err != nil {
		return false
	}
	return e.universe.Classes.IsA(obj.Class, class)
}

func (e *execution) ResolveHandlerModule(class string) (string, bool) {
	def, err := e.universe.Classes.Get(class)
	if err != nil || def.CodeHash == nil {
		return "", false
	}
	source, err := e.universe.Code.Get(*def.CodeHash)
	if err != nil {
		return "", false
	}
	return source, true
}

func (e *execution) NextHandlerClass(id, fromClass, handler string) (string, bool) {
	obj, err := e.view.Get(id)
	if err != nil {
		return "", false
	}
	return e.universe.Classes.ParentOf(obj.Class, fromClass, handler)
}

func (e *execution) Environment(id string) (*hostapi.ObjectView, error) {
	obj, err := e.view.Get(id)
	if err != nil {
		return nil, err
	}
	if obj.Parent == nil {
		return nil, oops.In("scheduler").Code("NOT_FOUND").Errorf("%s has no environment", id)
	}
	env, err := e.view.Get(*obj.Parent)
	if err != nil {
		return nil, err
	}
	return toObjectView(env), nil
}

func (e *execution) AllInventory(id string) ([]*hostapi.ObjectView, error) {
	if _, err := e.view.Get(id); err != nil {
		return nil, err
	}
	return toObjectViews(e.view.Children(id)), nil
}

func (e *execution) DeepInventory(id string) ([]*hostapi.ObjectView, error) {
	if _, err := e.view.Get(id); err != nil {
		return nil, err
	}
	var out []*objectgraph.Object
	var walk func(string)
	walk = func(cur string) {
		for _, c := range e.view.Children(cur) {
			out = append(out, c)
			walk(c.ID)
		}
	}
	walk(id)
	return toObjectViews(out), nil
}

func (e *execution) Present(envID string) ([]*hostapi.ObjectView, error) {
	if _, err := e.view.Get(envID); err != nil {
		return nil, err
	}
	return toObjectViews(e.view.Present(envID)), nil
}

func (e *execution) PresentLiving(envID string) ([]*hostapi.ObjectView, error) {
	if _, err := e.view.Get(envID); err != nil {
		return nil, err
	}
	return toObjectViews(e.view.PresentLiving(envID)), nil
}

func (e *execution) AddAction(playerID, verb string, ref hostapi.ActionRef) {
	e.universe.Actions.Add(playerID, verb, ref)
	e.collector.RecordAction(replication.OpCreate, playerID, map[string]any{"verb": verb, "object_id": ref.ObjectID, "handler": ref.Handler})
}

func (e *execution) RemoveAction(playerID, verb string) {
	e.universe.Actions.Remove(playerID, verb)
	e.collector.RecordAction(replication.OpRemove, playerID, map[string]any{"verb": verb})
}

func (e *execution) GetActions(playerID string) map[string]hostapi.ActionRef {
	return e.universe.Actions.All(playerID)
}

func (e *execution) Send(targetID, text string) {
	e.messages[targetID] = append(e.messages[targetID], gateway.Outbound{Kind: gateway.KindOutput, Text: text})
}

func (e *execution) Broadcast(roomID, text string) {
	for _, o := range e.view.PresentLiving(roomID) {
		e.Send(o.ID, text)
	}
}

func (e *execution) BroadcastExcept(roomID, exceptID, text string) {
	for _, o := range e.view.PresentLiving(roomID) {
		if o.ID != exceptID {
			e.Send(o.ID, text)
		}
	}
}

func (e *execution) BroadcastRegion(regionID, text string) {
	for _, o := range e.universe.Graph.Snapshot() {
		if region, _ := o.Properties["region"].(string); region != regionID {
			continue
		}
		if e.universe.Classes.IsA(o.Class, "living") {
			e.Send(o.ID, text)
		}
	}
}

func (e *execution) CallOut(objectID string, delaySeconds float64, method string, args []any) (string, error) {
	fireAt := e.now.Add(time.Duration(delaySeconds * float64(time.Second)))
	t, err := e.universe.Timers.Schedule(objectID, method, args, fireAt, e.now)
	if err != nil {
		return "", err
	}
	e.collector.RecordTimer(replication.OpCallOut, t.ID, map[string]any{
		"object_id": objectID, "method": method, "args": args, "fire_at_ms": fireAt.UnixMilli(),
	})
	return t.ID, nil
}

func (e *execution) RemoveCallOut(timerID string) bool {
	ok := e.universe.Timers.Remove(timerID)
	if ok {
		e.collector.RecordTimer(replication.OpRemoveTimer, timerID, nil)
	}
	return ok
}

func (e *execution) FindCallOut(objectID, method string) (float64, bool) {
	return e.universe.Timers.Find(objectID, method, e.now)
}

func (e *execution) SetHeartBeat(objectID string, intervalMS int) error {
	if err := e.universe.HeartBeats.Set(objectID, intervalMS, e.now); err != nil {
		return err
	}
	e.collector.RecordHeartBeat(objectID, intervalMS)
	return nil
}

func (e *execution) LLMChat(messages []map[string]any, tier string) (string, error) {
	if e.universe.OracleRate != nil && !e.universe.OracleRate.Allow(e.actorID) {
		return "", oracle.ErrRejected("per-session rate limit exceeded")
	}
	if e.universe.Oracle == nil {
		return "", oracle.ErrUnavailable(oops.Errorf("no content oracle configured"))
	}
	msgs := make([]oracle.Message, len(messages))
	for i, m := range messages {
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		msgs[i] = oracle.Message{Role: role, Content: content}
	}
	return e.universe.Oracle.Chat(context.Background(), msgs, oracle.Tier(tier))
}

func (e *execution) LLMImage(prompt, style, size string) (string, error) {
	if e.universe.OracleRate != nil && !e.universe.OracleRate.Allow(e.actorID) {
		return "", oracle.ErrRejected("per-session rate limit exceeded")
	}
	if e.universe.Oracle == nil {
		return "", oracle.ErrUnavailable(oops.Errorf("no content oracle configured"))
	}
	return e.universe.Oracle.Image(context.Background(), prompt, style, size)
}

func (e *execution) GetCredits(accountID string) (int64, error) {
	return e.universe.Credits.Balance(e.universe.ID, accountID), nil
}

func (e *execution) DeductCredits(accountID string, amount int64, reason string) (bool, error) {
	if err := e.universe.Credits.Deduct(e.universe.ID, accountID, amount, reason); err != nil {
		return false, err
	}
	e.collector.RecordCredit(e.universe.ID, accountID, -amount, reason)
	return true, nil
}

func (e *execution) AdminGrantCredits(accountID string, amount int64) (bool, error) {
	if err := e.universe.Credits.Grant(e.universe.ID, accountID, amount); err != nil {
		return false, err
	}
	e.collector.RecordCredit(e.universe.ID, accountID, amount, "admin_grant")
	return true, nil
}

func (e *execution) CheckPermission(actorID, action, targetID string, isFixed bool, regionID string) hostapi.PermissionResult {
	if e.universe.Access == nil {
		return hostapi.PermissionResult{Allowed: true}
	}
	owner := ""
	if obj, err := e.view.Get(targetID); err == nil && obj.Owner != nil {
		owner = *obj.Owner
	}
	target := access.Target{ID: targetID, OwnerID: owner, Fixed: isFixed}
	actor := access.Actor{AccountID: actorID, AccessLevel: e.universe.AccessLevel(actorID)}
	res := e.universe.Access.Check(actor, action, target)
	return hostapi.PermissionResult{Allowed: res.Allowed, Reason: res.Reason}
}

func (e *execution) GetAccessLevel(accountID string) (string, error) {
	return string(e.universe.AccessLevel(accountID)), nil
}

func (e *execution) SetAccessLevel(accountID, level string) error {
	lvl := access.Level(level)
	if !lvl.Valid() {
		return oops.In("scheduler").Code("ACCESS_LEVEL_INVALID").Errorf("unknown access level %q", level)
	}
	e.universe.SetAccessLevel(accountID, lvl)
	e.collector.RecordAccessControl(replication.OpSet, accountID, map[string]any{"level": level})
	return nil
}

func (e *execution) AssignRegion(accountID, regionID string) error {
	e.universe.AssignRegion(accountID, regionID)
	e.collector.RecordAccessControl(replication.OpGrant, accountID, map[string]any{"region_id": regionID})
	return nil
}

func (e *execution) UnassignRegion(accountID, regionID string) error {
	e.universe.UnassignRegion(accountID, regionID)
	e.collector.RecordAccessControl(replication.OpRevoke, accountID, map[string]any{"region_id": regionID})
	return nil
}

func (e *execution) Random(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + e.rng.Int63n(max-min+1)
}

func (e *execution) RollDice(notation string) int64 {
	return rollDice(e.rng, notation)
}

func (e *execution) Time() time.Time { return e.now }

func (e *execution) SetTime(t time.Time) error {
	e.now = t
	e.universe.setClock(t)
	return nil
}

func (e *execution) AdvanceTime(delta time.Duration) error {
	e.now = e.now.Add(delta)
	e.universe.advanceClock(delta)
	return nil
}

func (e *execution) StoreCode(source string) string {
	hash := e.universe.Code.Store(source)
	e.collector.RecordCode(replication.OpCreate, hash, source)
	return hash
}

func (e *execution) GetCode(hash string) (string, bool) {
	source, err := e.universe.Code.Get(hash)
	if err != nil {
		return "", false
	}
	return source, true
}

func (e *execution) Actor() string      { return e.actorID }
func (e *execution) ThisObject() string { return e.thisID }
func (e *execution) Privileged() bool   { return e.privileged }
