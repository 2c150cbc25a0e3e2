// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/mudcore/internal/ids"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"/rooms/a", true},
		{"/a/b-2", true},
		{"/items/sword-1", true},
		{"", false},
		{"no-leading-slash", false},
		{"/Rooms/A", false},
		{"/rooms//a", false},
		{"/a", false}, // below MinLength
		{"/" + string(make([]byte, ids.MaxLength)), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ids.Valid(c.id), "id=%q", c.id)
	}
}

func TestIsPrefix(t *testing.T) {
	assert.True(t, ids.IsPrefix("/a/b", "/a/b"))
	assert.True(t, ids.IsPrefix("/a/b", "/a/b/c"))
	assert.False(t, ids.IsPrefix("/a/b", "/a/bc"))
	assert.False(t, ids.IsPrefix("/a/b", "/a"))
}

func TestParent(t *testing.T) {
	assert.Equal(t, "/a/b", ids.Parent("/a/b/c"))
	assert.Equal(t, "", ids.Parent("/a"))
}
