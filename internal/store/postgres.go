// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store provides the PostgreSQL-backed persistence layer (spec
// §6.2): account/universe bookkeeping, the per-universe Raft snapshot
// image, and the replicated log's durable tail.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/holomush/mudcore/internal/classreg"
	"github.com/holomush/mudcore/internal/codestore"
	"github.com/holomush/mudcore/internal/credits"
	"github.com/holomush/mudcore/internal/objectgraph"
)

// Account is the accounts table row shape (spec §6.2).
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Salt         string
	Token        string
	AccessLevel  string
	CreatedAt    time.Time
}

// Universe is the universes table row shape (spec §6.2).
type Universe struct {
	ID        string
	Name      string
	OwnerID   *string
	Config    map[string]any
	CreatedAt time.Time
}

// RaftLogRow is one raft_log entry, the durable tail a restarted leader
// or catching-up follower replays ahead of any snapshot.
type RaftLogRow struct {
	Index     uint64
	Term      uint64
	EntryType string
	Payload   []byte
	CreatedAt time.Time
}

// RaftVote is the raft_vote singleton row (spec §6.2, id=1).
type RaftVote struct {
	Term      uint64
	NodeID    string
	Committed bool
}

// KeyedStore is the PostgreSQL-backed persistence layer. It holds no
// in-memory state of its own; every subsystem (Object Graph, Class
// Registry, Code Store, Credit Ledger) stays canonical in memory and
// KeyedStore is only ever the Persist/Load seam on the other side of a
// snapshot or an account/universe lookup.
type KeyedStore struct {
	pool *pgxpool.Pool
}

// NewKeyedStore opens a pgx pool against dsn.
func NewKeyedStore(ctx context.Context, dsn string) (*KeyedStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.In("store").Code("CONNECT_FAILED").Wrapf(err, "connect to database")
	}
	return &KeyedStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *KeyedStore) Close() {
	s.pool.Close()
}

// CreateAccount inserts a new account row.
func (s *KeyedStore) CreateAccount(ctx context.Context, acct Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, password_hash, salt, token, access_level, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		acct.ID, acct.Username, acct.PasswordHash, acct.Salt, acct.Token, acct.AccessLevel, acct.CreatedAt)
	if err != nil {
		return oops.In("store").Code("CREATE_ACCOUNT_FAILED").With("account_id", acct.ID).Wrapf(err, "create account")
	}
	return nil
}

// GetAccount reads one account by id.
func (s *KeyedStore) GetAccount(ctx context.Context, id string) (Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, salt, coalesce(token, ''), access_level, created_at
		 FROM accounts WHERE id = $1`, id))
}

// GetAccountByUsername reads one account by its unique username.
func (s *KeyedStore) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, salt, coalesce(token, ''), access_level, created_at
		 FROM accounts WHERE username = $1`, username))
}

func (s *KeyedStore) scanAccount(row pgx.Row) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Salt, &a.Token, &a.AccessLevel, &a.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return Account{}, oops.In("store").Code("NOT_FOUND").Errorf("account not found")
		}
		return Account{}, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "scan account")
	}
	return a, nil
}

// SetAccessLevel persists a ladder change made through game.set_access_level.
func (s *KeyedStore) SetAccessLevel(ctx context.Context, id, level string) error {
	_, err := s.pool.Exec(ctx, `UPDATE accounts SET access_level = $2 WHERE id = $1`, id, level)
	if err != nil {
		return oops.In("store").Code("UPDATE_ACCOUNT_FAILED").With("account_id", id).Wrapf(err, "set access level")
	}
	return nil
}

// CreateUniverse inserts a new universe row.
func (s *KeyedStore) CreateUniverse(ctx context.Context, u Universe) error {
	cfg, err := json.Marshal(u.Config)
	if err != nil {
		return oops.In("store").Code("ENCODE_FAILED").Wrapf(err, "marshal universe config")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO universes (id, name, owner_id, config, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.OwnerID, cfg, u.CreatedAt)
	if err != nil {
		return oops.In("store").Code("CREATE_UNIVERSE_FAILED").With("universe_id", u.ID).Wrapf(err, "create universe")
	}
	return nil
}

// GetUniverse reads one universe by id.
func (s *KeyedStore) GetUniverse(ctx context.Context, id string) (Universe, error) {
	var u Universe
	var cfg []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, config, created_at FROM universes WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.OwnerID, &cfg, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Universe{}, oops.In("store").Code("NOT_FOUND").With("universe_id", id).Errorf("universe not found")
		}
		return Universe{}, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "scan universe")
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &u.Config); err != nil {
			return Universe{}, oops.In("store").Code("DECODE_FAILED").Wrapf(err, "unmarshal universe config")
		}
	}
	return u, nil
}

// ListUniverses returns every universe, ordered by creation time.
func (s *KeyedStore) ListUniverses(ctx context.Context) ([]Universe, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, owner_id, config, created_at FROM universes ORDER BY created_at`)
	if err != nil {
		return nil, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "list universes")
	}
	defer rows.Close()

	var out []Universe
	for rows.Next() {
		var u Universe
		var cfg []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.OwnerID, &cfg, &u.CreatedAt); err != nil {
			return nil, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "scan universe row")
		}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &u.Config); err != nil {
				return nil, oops.In("store").Code("DECODE_FAILED").Wrapf(err, "unmarshal universe config")
			}
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AppendRaftLog persists one committed entry to the durable log tail
// (spec §6.2 raft_log), used on the leader so a restart can replay from
// disk rather than re-deriving state purely from peer InstallSnapshot.
func (s *KeyedStore) AppendRaftLog(ctx context.Context, row RaftLogRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO raft_log (index, term, entry_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (index) DO UPDATE SET term = $2, entry_type = $3, payload = $4`,
		row.Index, row.Term, row.EntryType, row.Payload, row.CreatedAt)
	if err != nil {
		return oops.In("store").Code("RAFT_LOG_APPEND_FAILED").With("index", row.Index).Wrapf(err, "append raft log entry")
	}
	return nil
}

// RaftLogFrom returns every persisted entry with index >= fromIndex,
// ascending, for catch-up replay after a restart.
func (s *KeyedStore) RaftLogFrom(ctx context.Context, fromIndex uint64) ([]RaftLogRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT index, term, entry_type, payload, created_at FROM raft_log WHERE index >= $1 ORDER BY index`, fromIndex)
	if err != nil {
		return nil, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "query raft log")
	}
	defer rows.Close()

	var out []RaftLogRow
	for rows.Next() {
		var r RaftLogRow
		if err := rows.Scan(&r.Index, &r.Term, &r.EntryType, &r.Payload, &r.CreatedAt); err != nil {
			return nil, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "scan raft log row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastRaftIndex returns the highest persisted raft_log index, or 0 if
// the log is empty.
func (s *KeyedStore) LastRaftIndex(ctx context.Context) (uint64, error) {
	var idx uint64
	err := s.pool.QueryRow(ctx, `SELECT coalesce(max(index), 0) FROM raft_log`).Scan(&idx)
	if err != nil {
		return 0, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "query last raft index")
	}
	return idx, nil
}

// SaveRaftVote upserts the singleton raft_vote row.
func (s *KeyedStore) SaveRaftVote(ctx context.Context, v RaftVote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO raft_vote (id, term, node_id, committed) VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET term = $1, node_id = $2, committed = $3`,
		v.Term, v.NodeID, v.Committed)
	if err != nil {
		return oops.In("store").Code("RAFT_VOTE_SAVE_FAILED").Wrapf(err, "save raft vote")
	}
	return nil
}

// LoadRaftVote reads the singleton raft_vote row, or the zero value if
// no node has ever voted.
func (s *KeyedStore) LoadRaftVote(ctx context.Context) (RaftVote, error) {
	var v RaftVote
	err := s.pool.QueryRow(ctx, `SELECT term, node_id, committed FROM raft_vote WHERE id = 1`).Scan(&v.Term, &v.NodeID, &v.Committed)
	if err == pgx.ErrNoRows {
		return RaftVote{}, nil
	}
	if err != nil {
		return RaftVote{}, oops.In("store").Code("QUERY_FAILED").Wrapf(err, "load raft vote")
	}
	return v, nil
}

// snapshotImage is the full in-memory state of one universe's Object
// Graph, Class Registry, Code Store, and Credit Ledger, serialized as
// one JSON blob for InstallSnapshot transport (spec §4.11) and for the
// objects/classes/code_store/credits rows a restart reloads from.
type snapshotImage struct {
	Objects []*objectgraph.Object
	Classes []classreg.ClassDef
	Code    []codestore.Record
	Credits map[string]int64
}

// UniverseStore is the per-universe raft.SnapshotSource: Snapshot
// captures and persists the universe's entire in-memory image, Restore
// reloads it wholesale into a freshly started node's subsystems.
// Grounded on the teacher's PostgresEventStore.Migrate-and-Append shape
// (one pgx pool, plain SQL, oops-wrapped errors), generalized from a
// single events table to the Object Graph/Class Registry/Code Store/
// Credit Ledger's combined Persist/Load seam.
type UniverseStore struct {
	store      *KeyedStore
	universeID string
	graph      *objectgraph.Graph
	classes    *classreg.Registry
	code       *codestore.Store
	ledger     *credits.Ledger
}

// NewUniverseStore builds a UniverseStore over the given universe's live
// subsystems.
func NewUniverseStore(ks *KeyedStore, universeID string, graph *objectgraph.Graph, classes *classreg.Registry, code *codestore.Store, ledger *credits.Ledger) *UniverseStore {
	return &UniverseStore{store: ks, universeID: universeID, graph: graph, classes: classes, code: code, ledger: ledger}
}

// Snapshot persists the universe's current in-memory image to Postgres
// and returns the same image as a JSON blob, for InstallSnapshot to
// ship to a lagging follower (spec §4.11).
func (u *UniverseStore) Snapshot(ctx context.Context) ([]byte, error) {
	image := snapshotImage{
		Objects: u.graph.Snapshot(),
		Classes: u.classes.Custom(),
		Code:    u.code.All(),
		Credits: u.ledger.Snapshot(u.universeID),
	}
	data, err := json.Marshal(image)
	if err != nil {
		return nil, oops.In("store").Code("ENCODE_FAILED").Wrapf(err, "marshal universe %s snapshot", u.universeID)
	}
	if err := u.persist(ctx, image); err != nil {
		return nil, err
	}
	return data, nil
}

// Restore replaces the universe's in-memory subsystems wholesale from a
// snapshot image, e.g. on startup or after receiving InstallSnapshot
// from the leader.
func (u *UniverseStore) Restore(ctx context.Context, data []byte) error {
	var image snapshotImage
	if err := json.Unmarshal(data, &image); err != nil {
		return oops.In("store").Code("DECODE_FAILED").Wrapf(err, "unmarshal universe %s snapshot", u.universeID)
	}
	u.graph.Load(image.Objects)
	u.classes.Load(image.Classes)
	u.code.Load(image.Code)
	u.ledger.RestoreSnapshot(u.universeID, image.Credits)
	return nil
}

// persist writes image's rows into Postgres as a single logical unit,
// so a restart that skips InstallSnapshot can instead reload straight
// from the objects/classes/code_store/credits tables.
func (u *UniverseStore) persist(ctx context.Context, image snapshotImage) error {
	tx, err := u.store.pool.Begin(ctx)
	if err != nil {
		return oops.In("store").Code("TX_FAILED").Wrapf(err, "begin snapshot persist tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rolled back unless Commit succeeds below

	if _, err := tx.Exec(ctx, `DELETE FROM objects WHERE universe_id = $1`, u.universeID); err != nil {
		return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "clear objects for universe %s", u.universeID)
	}
	for _, obj := range image.Objects {
		props, err := json.Marshal(obj.Properties)
		if err != nil {
			return oops.In("store").Code("ENCODE_FAILED").Wrapf(err, "marshal object %s properties", obj.ID)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO objects (id, universe_id, class, parent_id, owner_id, name, description, properties, code_hash, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			obj.ID, u.universeID, obj.Class, obj.Parent, obj.Owner, obj.Name, obj.Description, props, obj.CodeHash, obj.CreatedAt, obj.UpdatedAt,
		); err != nil {
			return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist object %s", obj.ID)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM classes WHERE universe_id = $1`, u.universeID); err != nil {
		return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "clear classes for universe %s", u.universeID)
	}
	for _, def := range image.Classes {
		var parent *string
		if def.ParentName != "" {
			parent = &def.ParentName
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO classes (name, universe_id, parent, code_hash, created_at) VALUES ($1, $2, $3, $4, now())`,
			def.Name, u.universeID, parent, def.CodeHash,
		); err != nil {
			return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist class %s", def.Name)
		}
		for key, pd := range def.PropertyDefaults {
			value, err := json.Marshal(pd)
			if err != nil {
				return oops.In("store").Code("ENCODE_FAILED").Wrapf(err, "marshal class %s property %s", def.Name, key)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO class_properties (class_name, universe_id, key, value) VALUES ($1, $2, $3, $4)`,
				def.Name, u.universeID, key, value,
			); err != nil {
				return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist class %s property %s", def.Name, key)
			}
		}
		for handler := range def.HandlerNames {
			if _, err := tx.Exec(ctx,
				`INSERT INTO class_handlers (class_name, universe_id, handler) VALUES ($1, $2, $3)`,
				def.Name, u.universeID, handler,
			); err != nil {
				return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist class %s handler %s", def.Name, handler)
			}
		}
	}

	for _, rec := range image.Code {
		if _, err := tx.Exec(ctx,
			`INSERT INTO code_store (hash, source, reference_count, zero_since) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (hash) DO UPDATE SET reference_count = $3, zero_since = $4`,
			rec.Hash, rec.Source, rec.RefCount, rec.ZeroSince,
		); err != nil {
			return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist code %s", rec.Hash)
		}
	}

	for accountID, balance := range image.Credits {
		if _, err := tx.Exec(ctx,
			`INSERT INTO credits (universe_id, player_id, balance) VALUES ($1, $2, $3)
			 ON CONFLICT (universe_id, player_id) DO UPDATE SET balance = $3`,
			u.universeID, accountID, balance,
		); err != nil {
			return oops.In("store").Code("PERSIST_FAILED").Wrapf(err, "persist credit balance for %s", accountID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.In("store").Code("TX_FAILED").Wrapf(err, "commit snapshot persist tx")
	}
	return nil
}
