package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

const memberColumns = `id, first_name, last_name, dob, gender, contact_number, address,
	native_place, national_id, notes, image_url, created_at, updated_at`

const dateLayout = "2006-01-02"

// ListMembers returns members matching f.
func (s *Store) ListMembers(ctx context.Context, f store.MemberFilter) ([]family.Member, error) {
	where, args := memberWhere(f)
	q := "SELECT " + memberColumns + " FROM members" + where + " ORDER BY " + orderClause(f.Order)
	if f.Limit > 0 || f.Offset > 0 {
		limit := int64(math.MaxInt64)
		if f.Limit > 0 {
			limit = int64(f.Limit)
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}
	return s.queryMembers(ctx, s.db, q, args...)
}

// CountMembers counts members matching f, ignoring paging.
func (s *Store) CountMembers(ctx context.Context, f store.MemberFilter) (int, error) {
	where, args := memberWhere(f)
	var n int
	if err := s.queryRow(ctx, s.db, "SELECT COUNT(*) FROM members"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func memberWhere(f store.MemberFilter) (string, []any) {
	terms := f.Terms()
	if len(terms) == 0 {
		return "", nil
	}
	clauses := make([]string, len(terms))
	args := make([]any, 0, 2*len(terms))
	for i, t := range terms {
		clauses[i] = `(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\')`
		p := likeEscape(t)
		args = append(args, p, p)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(o store.MemberOrder) string {
	switch o {
	case store.OrderByCreatedDesc:
		return "created_at DESC, id DESC"
	case store.OrderByUpdatedDesc:
		return "updated_at DESC, id DESC"
	default:
		return "id ASC"
	}
}

// GetMember returns one member.
func (s *Store) GetMember(ctx context.Context, id int64) (family.Member, error) {
	return s.getMember(ctx, s.db, id)
}

func (s *Store) getMember(ctx context.Context, q execer, id int64) (family.Member, error) {
	ms, err := s.queryMembers(ctx, q, "SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	if err != nil {
		return family.Member{}, err
	}
	if len(ms) == 0 {
		return family.Member{}, errors.NotFound("member", id)
	}
	return ms[0], nil
}

// GetMembers returns the existing members among ids in ascending id order.
func (s *Store) GetMembers(ctx context.Context, ids []int64) ([]family.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + memberColumns + " FROM members WHERE id IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ") ORDER BY id ASC"
	return s.queryMembers(ctx, s.db, q, args...)
}

// CreateMember inserts m. A non-zero m.ID is kept so imports preserve ids.
func (s *Store) CreateMember(ctx context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	explicitID := m.ID != 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cols := `first_name, last_name, dob, gender, contact_number, address,
	native_place, national_id, notes, image_url, created_at, updated_at`
		args := memberArgs(m)
		if explicitID {
			ok, err := s.exists(ctx, tx, "members", m.ID)
			if err != nil {
				return err
			}
			if ok {
				return errors.New(errors.ErrCodeConflict, "member %d already exists", m.ID)
			}
			cols = "id, " + cols
			args = append([]any{m.ID}, args...)
		}
		q := "INSERT INTO members (" + cols + ") VALUES (" +
			strings.TrimSuffix(strings.Repeat("?,", len(args)), ",") + ") RETURNING id"
		if err := s.queryRow(ctx, tx, q, args...).Scan(&m.ID); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		if explicitID {
			return s.syncSequence(ctx, tx, "members")
		}
		return nil
	})
	if err != nil {
		return family.Member{}, err
	}
	return m, nil
}

// UpdateMember replaces the editable fields of an existing member.
func (s *Store) UpdateMember(ctx context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	var out family.Member
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := s.getMember(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		m.CreatedAt = old.CreatedAt
		m.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
		args := append(memberArgs(m)[:10], m.UpdatedAt.UnixMicro(), m.ID)
		_, err = s.exec(ctx, tx, `UPDATE members SET first_name = ?, last_name = ?, dob = ?, gender = ?,
	contact_number = ?, address = ?, native_place = ?, national_id = ?, notes = ?, image_url = ?,
	updated_at = ? WHERE id = ?`, args...)
		if err != nil {
			return fmt.Errorf("update member %d: %w", m.ID, err)
		}
		out = m
		return nil
	})
	return out, err
}

// DeleteMember removes the member and its edges in one transaction.
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, "DELETE FROM edges WHERE from_member_id = ? OR to_member_id = ?", id, id); err != nil {
			return fmt.Errorf("delete edges of member %d: %w", id, err)
		}
		res, err := s.exec(ctx, tx, "DELETE FROM members WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete member %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("member", id)
		}
		return nil
	})
}

func (s *Store) queryMembers(ctx context.Context, q execer, query string, args ...any) ([]family.Member, error) {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []family.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMember(rows *sql.Rows) (family.Member, error) {
	var (
		m                family.Member
		dob              sql.NullString
		gender           string
		created, updated int64
	)
	err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &dob, &gender, &m.ContactNumber, &m.Address,
		&m.NativePlace, &m.NationalID, &m.Notes, &m.ImageURL, &created, &updated)
	if err != nil {
		return family.Member{}, fmt.Errorf("scan member: %w", err)
	}
	m.Gender = family.Gender(gender)
	m.CreatedAt = time.UnixMicro(created).UTC()
	m.UpdatedAt = time.UnixMicro(updated).UTC()
	if dob.Valid && dob.String != "" {
		t, err := time.Parse(dateLayout, dob.String)
		if err != nil {
			return family.Member{}, fmt.Errorf("member %d dob %q: %w", m.ID, dob.String, err)
		}
		m.DOB = &t
	}
	return m, nil
}

// memberArgs returns the insert arguments in column order, without id.
func memberArgs(m family.Member) []any {
	var dob any
	if m.DOB != nil {
		dob = m.DOB.Format(dateLayout)
	}
	return []any{
		m.FirstName, m.LastName, dob, string(m.Gender), m.ContactNumber, m.Address,
		m.NativePlace, m.NationalID, m.Notes, m.ImageURL,
		m.CreatedAt.UnixMicro(), m.UpdatedAt.UnixMicro(),
	}
}

func (s *Store) syncSequence(ctx context.Context, tx *sql.Tx, table string) error {
	q := s.dialect.syncSequence(table)
	if q == "" {
		return nil
	}
	if _, err := tx.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("sync %s sequence: %w", table, err)
	}
	return nil
}
