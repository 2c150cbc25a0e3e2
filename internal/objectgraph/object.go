// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package objectgraph implements the Object Graph (spec §4.1): the
// containment tree of path-identified entities, their class reference,
// and their resolved property blob.
package objectgraph

import "time"

// Object is a persistent world entity (spec §3 "Object").
type Object struct {
	ID          string
	Universe    string
	Class       string
	Parent      *string // nullable container ID
	Owner       *string // account id or nil
	Name        string
	Description string
	Properties  map[string]any
	CodeHash    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep-enough copy of o suitable for handing to script
// code (spec §4.5 get_object: "deep copy of the resolved object").
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	if o.Parent != nil {
		p := *o.Parent
		c.Parent = &p
	}
	if o.Owner != nil {
		own := *o.Owner
		c.Owner = &own
	}
	if o.CodeHash != nil {
		h := *o.CodeHash
		c.CodeHash = &h
	}
	c.Properties = make(map[string]any, len(o.Properties))
	for k, v := range o.Properties {
		c.Properties[k] = v
	}
	return &c
}
