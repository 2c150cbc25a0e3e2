// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ids validates and manipulates the path-based object IDs used
// throughout the object graph: strings shaped like "/segment/segment/...".
package ids

import (
	"strings"

	"github.com/samber/oops"
)

const (
	// MinLength is the minimum allowed length of a path ID.
	MinLength = 3
	// MaxLength is the maximum allowed length of a path ID.
	MaxLength = 256
)

// Valid reports whether id is a well-formed path ID: "/segment/segment/...",
// each segment matching [a-z][a-z0-9-]*, overall length in [MinLength, MaxLength].
func Valid(id string) bool {
	return Validate(id) == nil
}

// Validate returns a PathInvalid-coded error describing why id is malformed,
// or nil if id is well-formed.
func Validate(id string) error {
	if len(id) < MinLength || len(id) > MaxLength {
		return oops.In("ids").Code("PATH_INVALID").With("id", id).With("length", len(id)).
			Errorf("path length must be between %d and %d", MinLength, MaxLength)
	}
	if id[0] != '/' {
		return oops.In("ids").Code("PATH_INVALID").With("id", id).Errorf("path must start with '/'")
	}
	segments := strings.Split(id[1:], "/")
	for _, seg := range segments {
		if !validSegment(seg) {
			return oops.In("ids").Code("PATH_INVALID").With("id", id).With("segment", seg).
				Errorf("invalid path segment %q", seg)
		}
	}
	return nil
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	first := seg[0]
	if first < 'a' || first > 'z' {
		return false
	}
	for i := 1; i < len(seg); i++ {
		c := seg[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		if !isLower && !isDigit && c != '-' {
			return false
		}
	}
	return true
}

// Segments splits a validated path ID into its component segments,
// e.g. "/rooms/a" -> ["rooms", "a"].
func Segments(id string) []string {
	if id == "" || id[0] != '/' {
		return nil
	}
	return strings.Split(id[1:], "/")
}

// IsPrefix reports whether prefix is a path-segment prefix of id: prefix
// matches id itself, or matches id followed by a '/' boundary. "/a/b"
// matches "/a/b" and "/a/b/c", never "/a/bc".
func IsPrefix(prefix, id string) bool {
	if prefix == id {
		return true
	}
	return strings.HasPrefix(id, prefix+"/")
}

// Parent returns the path ID's lexical parent segment path, i.e. the
// directory-style parent ("/a/b/c" -> "/a/b"). This is NOT the same as an
// Object's containment parent; it is only used for namespacing utilities.
func Parent(id string) string {
	segs := Segments(id)
	if len(segs) <= 1 {
		return ""
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/")
}
