package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	// Name is the driver name registered with database/sql.
	Name string

	idColumn   string
	boolType   string
	positional bool
}

var (
	// SQLite uses modernc.org/sqlite, a cgo-free driver.
	SQLite = Dialect{Name: "sqlite", idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT", boolType: "INTEGER"}
	// Postgres uses pgx through its database/sql adapter.
	Postgres = Dialect{Name: "pgx", idColumn: "BIGSERIAL PRIMARY KEY", boolType: "BOOLEAN", positional: true}
)

// DialectFor maps a config driver name to a dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown sql driver %q", driver)
}

// rebind rewrites ? placeholders into $n for positional dialects.
func (d Dialect) rebind(q string) string {
	if !d.positional {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS members (
	id %s,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	dob TEXT,
	gender TEXT NOT NULL DEFAULT '',
	contact_number TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	native_place TEXT NOT NULL DEFAULT '',
	national_id TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
)`, d.idColumn),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS relation_masters (
	id %s,
	code TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	is_spousal %[2]s NOT NULL DEFAULT %[3]s,
	is_parental %[2]s NOT NULL DEFAULT %[3]s,
	is_bidirectional %[2]s NOT NULL DEFAULT %[3]s,
	inverse_code TEXT NOT NULL DEFAULT ''
)`, d.idColumn, d.boolType, d.falseLiteral()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS edges (
	id %s,
	from_member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
	to_member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
	relation_id BIGINT NOT NULL REFERENCES relation_masters(id),
	CHECK (from_member_id <> to_member_id),
	UNIQUE (from_member_id, to_member_id, relation_id)
)`, d.idColumn),
		`CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_members_created ON members(created_at)`,
	}
}

func (d Dialect) falseLiteral() string {
	if d.boolType == "BOOLEAN" {
		return "FALSE"
	}
	return "0"
}

// syncSequence advances the id sequence after rows were inserted with
// explicit ids. SQLite's AUTOINCREMENT already tracks the maximum.
func (d Dialect) syncSequence(table string) string {
	if !d.positional {
		return ""
	}
	return fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`, table, table)
}
