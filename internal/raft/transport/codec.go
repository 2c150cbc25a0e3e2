// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package transport carries Raft AppendEntries/InstallSnapshot RPCs
// over google.golang.org/grpc between nodes of a static peer set (spec
// §4.11). The core has no .proto-generated stubs in its dependency
// pack (see DESIGN.md), so this package registers a JSON content-
// subtype codec and a hand-written grpc.ServiceDesc instead of relying
// on protoc-gen-go-grpc output — the same extension points generated
// code itself compiles down to.
package transport

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "raftjson"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
