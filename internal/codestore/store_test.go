// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package codestore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mudcore/internal/codestore"
)

func TestStore_IdempotentByContent(t *testing.T) {
	s := codestore.New()
	h1 := s.Store("return 1")
	h2 := s.Store("return 1")
	assert.Equal(t, h1, h2)

	src, err := s.Get(h1)
	require.NoError(t, err)
	assert.Equal(t, "return 1", src)
}

func TestStore_GetNotFound(t *testing.T) {
	s := codestore.New()
	_, err := s.Get("deadbeef")
	require.Error(t, err)
}

func TestStore_RefCountGCGraceWindow(t *testing.T) {
	s := codestore.New()
	h := s.Store("return 2")
	require.NoError(t, s.Incref(h))
	require.NoError(t, s.Decref(h))

	swept := s.GC(time.Hour)
	assert.Empty(t, swept, "entry at zero refs should survive within the grace window")

	// simulate the grace window elapsing by sweeping with a zero grace.
	swept = s.GC(0)
	assert.Equal(t, []string{h}, swept)

	_, err := s.Get(h)
	require.Error(t, err)
}
