// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package objectgraph

import "github.com/samber/oops"

// Error codes returned by this package (spec §4.1 edge cases / §7).
const (
	ErrPathInvalid   = "PATH_INVALID"
	ErrDuplicateID   = "DUPLICATE_ID"
	ErrUnknownClass  = "UNKNOWN_CLASS"
	ErrMissingParent = "MISSING_PARENT"
	ErrCycle         = "CYCLE"
	ErrNotFound      = "NOT_FOUND"
	ErrTypeMismatch  = "TYPE_MISMATCH"
)

func errPathInvalid(id string) error {
	return oops.In("objectgraph").Code(ErrPathInvalid).With("id", id).Errorf("invalid object id %q", id)
}

func errDuplicateID(id string) error {
	return oops.In("objectgraph").Code(ErrDuplicateID).With("id", id).Errorf("object %q already exists", id)
}

func errUnknownClass(class string) error {
	return oops.In("objectgraph").Code(ErrUnknownClass).With("class", class).Errorf("unknown class %q", class)
}

func errMissingParent(parent string) error {
	return oops.In("objectgraph").Code(ErrMissingParent).With("parent", parent).
		Errorf("parent %q does not exist", parent)
}

func errCycle(id string) error {
	return oops.In("objectgraph").Code(ErrCycle).With("id", id).
		Errorf("move of %q would create a containment cycle", id)
}

func errNotFound(id string) error {
	return oops.In("objectgraph").Code(ErrNotFound).With("id", id).Errorf("object %q not found", id)
}

func errTypeMismatch(id, wantClass string) error {
	return oops.In("objectgraph").Code(ErrTypeMismatch).With("id", id).With("want_class", wantClass).
		Errorf("object %q is not a %s", id, wantClass)
}
