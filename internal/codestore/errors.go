// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package codestore

import "github.com/samber/oops"

// ErrNotFound is the code returned when a hash has no stored source.
const ErrNotFound = "NOT_FOUND"

func errNotFound(hash string) error {
	return oops.In("codestore").Code(ErrNotFound).With("hash", hash).
		Errorf("no source stored for hash %q", hash)
}
