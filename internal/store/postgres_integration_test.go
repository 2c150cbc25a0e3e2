// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/objectgraph"
	"github.com/holomush/mudcore/internal/store"
)

// setupKeyedStore starts a PostgreSQL container, runs every migration,
// and returns a connected KeyedStore plus its teardown.
func setupKeyedStore() (*store.KeyedStore, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("holomush_test"),
		postgres.WithUsername("holomush"),
		postgres.WithPassword("holomush"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	ks, err := store.NewKeyedStore(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ks.Close()
		_ = container.Terminate(ctx)
	}
	return ks, cleanup, nil
}

var _ = Describe("KeyedStore", func() {
	var ks *store.KeyedStore
	var cleanup func()

	BeforeEach(func() {
		var err error
		ks, cleanup, err = setupKeyedStore()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("accounts", func() {
		It("round-trips a created account", func() {
			ctx := context.Background()
			acct := store.Account{ID: "acct-1", Username: "wizard1", PasswordHash: "h", Salt: "s", AccessLevel: "wizard", CreatedAt: time.Now()}
			Expect(ks.CreateAccount(ctx, acct)).To(Succeed())

			got, err := ks.GetAccount(ctx, "acct-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Username).To(Equal("wizard1"))
			Expect(got.AccessLevel).To(Equal("wizard"))

			byName, err := ks.GetAccountByUsername(ctx, "wizard1")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal("acct-1"))
		})

		It("persists a set access level change", func() {
			ctx := context.Background()
			acct := store.Account{ID: "acct-2", Username: "player1", PasswordHash: "h", Salt: "s", AccessLevel: "player", CreatedAt: time.Now()}
			Expect(ks.CreateAccount(ctx, acct)).To(Succeed())

			Expect(ks.SetAccessLevel(ctx, "acct-2", "builder")).To(Succeed())

			got, err := ks.GetAccount(ctx, "acct-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AccessLevel).To(Equal("builder"))
		})
	})

	Describe("universes", func() {
		It("round-trips a created universe with config", func() {
			ctx := context.Background()
			u := store.Universe{ID: "uni-1", Name: "Prime Material", Config: map[string]any{"theme": "scifi"}, CreatedAt: time.Now()}
			Expect(ks.CreateUniverse(ctx, u)).To(Succeed())

			got, err := ks.GetUniverse(ctx, "uni-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Prime Material"))
			Expect(got.Config["theme"]).To(Equal("scifi"))

			all, err := ks.ListUniverses(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})
	})

	Describe("raft log and vote", func() {
		It("appends and reads back entries in order", func() {
			ctx := context.Background()
			for i := uint64(1); i <= 3; i++ {
				row := store.RaftLogRow{Index: i, Term: 1, EntryType: "command", Payload: []byte("payload"), CreatedAt: time.Now()}
				Expect(ks.AppendRaftLog(ctx, row)).To(Succeed())
			}

			last, err := ks.LastRaftIndex(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(Equal(uint64(3)))

			entries, err := ks.RaftLogFrom(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Index).To(Equal(uint64(2)))
		})

		It("persists and reloads the singleton vote", func() {
			ctx := context.Background()
			Expect(ks.SaveRaftVote(ctx, store.RaftVote{Term: 5, NodeID: "node-a", Committed: true})).To(Succeed())

			got, err := ks.LoadRaftVote(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Term).To(Equal(uint64(5)))
			Expect(got.NodeID).To(Equal("node-a"))
		})
	})

	Describe("UniverseStore snapshot and restore", func() {
		It("persists and reloads a universe's full in-memory image", func() {
			ctx := context.Background()
			u := store.Universe{ID: "uni-snap", Name: "Snapshot Test", CreatedAt: time.Now()}
			Expect(ks.CreateUniverse(ctx, u)).To(Succeed())

			classes := classreg.New(nil)
			graph := objectgraph.New("uni-snap", classes)
			ownerID := "acct-owner"
			graph.Load([]*objectgraph.Object{
				{ID: "/room/start", Universe: "uni-snap", Class: "room", Name: "Start Room", Owner: &ownerID, Properties: map[string]any{"exits": map[string]any{}}},
			})
			code := codestore.New()
			hash := code.Store("return 1")
			Expect(code.Incref(hash)).To(Succeed())
			ledger := credits.New()
			Expect(ledger.Grant("uni-snap", "acct-owner", 1000)).To(Succeed())

			us := store.NewUniverseStore(ks, "uni-snap", graph, classes, code, ledger)
			data, err := us.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).NotTo(BeEmpty())

			freshClasses := classreg.New(nil)
			freshGraph := objectgraph.New("uni-snap", freshClasses)
			freshCode := codestore.New()
			freshLedger := credits.New()
			freshStore := store.NewUniverseStore(ks, "uni-snap", freshGraph, freshClasses, freshCode, freshLedger)
			Expect(freshStore.Restore(ctx, data)).To(Succeed())

			restored, err := freshGraph.Get("/room/start")
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Name).To(Equal("Start Room"))
			Expect(freshLedger.Balance("uni-snap", "acct-owner")).To(Equal(int64(1000)))

			source, err := freshCode.Get(hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(source).To(Equal("return 1"))
		})
	})
})
