// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

// Package integration drives spec §8's end-to-end scenarios against a
// fully wired, single-node, in-memory universe — the same collaborator
// graph cmd/holomush's buildStack assembles, minus the transport and
// persistence layers a live server needs.
package integration_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}
