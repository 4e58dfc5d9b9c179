// Package sqlstore implements store.Store on database/sql for SQLite and
// Postgres.
//
// SQLite is served by modernc.org/sqlite and Postgres by pgx's stdlib adapter.
// Both share one schema; the [Dialect] only swaps id column types, booleans and
// placeholder syntax. Timestamps are stored as Unix microseconds and dates of
// birth as YYYY-MM-DD text so both backends round-trip them identically.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure Go SQLite driver

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/store"
)

// Store is a SQL-backed store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to dsn with the given dialect and ensures the schema exists.
func Open(ctx context.Context, d Dialect, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "%s dsn is required", d.Name)
	}
	db, err := sql.Open(d.Name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d == SQLite {
		// One connection keeps PRAGMAs in effect and serializes writers.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	s := &Store{db: db, dialect: d, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Stats counts members, edges and spousal edges.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	var st store.Stats
	q := `SELECT
	(SELECT COUNT(*) FROM members),
	(SELECT COUNT(*) FROM edges),
	(SELECT COUNT(*) FROM edges e JOIN relation_masters r ON r.id = e.relation_id WHERE r.is_spousal = ?)`
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(q), true).Scan(&st.Members, &st.Edges, &st.SpousalEdges)
	if err != nil {
		return store.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, q execer, table string, id int64) (bool, error) {
	var n int
	err := s.queryRow(ctx, q, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup %s %d: %w", table, id, err)
	}
	return n > 0, nil
}

func likeEscape(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

var _ store.Store = (*Store)(nil)
