// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads the core's configuration starting from the
// spec's documented defaults, then a YAML file, then CLI flags, each
// layer overriding the last, via koanf (knadh/koanf/v2 +
// providers/file + providers/posflag + parsers/yaml) — composing those
// exact sub-packages the way their own documentation does, since the
// teacher repo carries the dependency but has no standalone service
// config of its own to mirror (see DESIGN.md).
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Sandbox mirrors the spec §4.4 per-tier metering table.
type Sandbox struct {
	MaxInstructions int64         `koanf:"max_instructions"`
	MaxMemoryBytes  int64         `koanf:"max_memory_bytes"`
	WallClock       time.Duration `koanf:"wall_clock"`
	EvalWallClock   time.Duration `koanf:"eval_wall_clock"`
	MaxOracleCalls  int           `koanf:"max_oracle_calls"`
	MaxStoreQueries int           `koanf:"max_store_queries"`
}

// Scheduler mirrors spec §4.7's fixed intervals.
type Scheduler struct {
	HeartBeatInterval time.Duration `koanf:"heart_beat_interval"`
}

// CodeStore mirrors spec §4.3's GC grace window.
type CodeStore struct {
	GCGrace time.Duration `koanf:"gc_grace"`
}

// Oracle mirrors spec §6.4's rate limits.
type Oracle struct {
	PerMinutePerSession int `koanf:"per_minute_per_session"`
}

// Store holds the Postgres connection string for internal/store.
type Store struct {
	DSN string `koanf:"dsn"`
}

// Raft holds this node's identity and peer set for internal/raft.
type Raft struct {
	NodeID     string   `koanf:"node_id"`
	ListenAddr string   `koanf:"listen_addr"`
	Leader     bool     `koanf:"leader"`
	LeaderID   string   `koanf:"leader_id"`
	Peers      []string `koanf:"peers"` // "id=addr" pairs
}

// Config is the core's full configuration tree.
type Config struct {
	Sandbox   Sandbox   `koanf:"sandbox"`
	Scheduler Scheduler `koanf:"scheduler"`
	CodeStore CodeStore `koanf:"codestore"`
	Oracle    Oracle    `koanf:"oracle"`
	Store     Store     `koanf:"store"`
	Raft      Raft      `koanf:"raft"`
}

// Default returns the spec's documented defaults (§4.4 table, §4.3
// 24h GC grace, §4.7 500ms heart-beat, §6.4 60/min oracle limit).
func Default() Config {
	return Config{
		Sandbox: Sandbox{
			MaxInstructions: 1_000_000,
			MaxMemoryBytes:  64 << 20,
			WallClock:       500 * time.Millisecond,
			EvalWallClock:   5 * time.Second,
			MaxOracleCalls:  5,
			MaxStoreQueries: 100,
		},
		Scheduler: Scheduler{HeartBeatInterval: 500 * time.Millisecond},
		CodeStore: CodeStore{GCGrace: 24 * time.Hour},
		Oracle:    Oracle{PerMinutePerSession: 60},
		// A single-node leader with an empty peer set is the spec's
		// degenerate-but-valid case of a "fixed, static node set"
		// (§4.11): a lone leader is trivially a majority of one. Multi-
		// node deployments override node_id/leader/leader_id/peers.
		Raft: Raft{NodeID: "node-1", Leader: true},
	}
}

// Load builds a Config starting from Default(), then overlays path (if
// non-empty) and flags on top, each layer only replacing the keys it
// actually sets — mapstructure (koanf's decode backend) leaves any
// field absent from a layer untouched in the struct passed to it.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_FILE").Wrapf(err, "load config file %s", path)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.In("config").Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Wrapf(err, "unmarshal config")
	}
	return cfg, nil
}
