package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

const masterColumns = "id, code, label, is_spousal, is_parental, is_bidirectional, inverse_code"

// ListRelationMasters returns all masters in ascending id order.
func (s *Store) ListRelationMasters(ctx context.Context) ([]family.RelationMaster, error) {
	return s.queryMasters(ctx, s.db, "SELECT "+masterColumns+" FROM relation_masters ORDER BY id ASC")
}

// GetRelationMaster looks a master up by code.
func (s *Store) GetRelationMaster(ctx context.Context, code string) (family.RelationMaster, error) {
	rs, err := s.queryMasters(ctx, s.db, "SELECT "+masterColumns+" FROM relation_masters WHERE code = ?", code)
	if err != nil {
		return family.RelationMaster{}, err
	}
	if len(rs) == 0 {
		return family.RelationMaster{}, errors.NotFound("relation", code)
	}
	return rs[0], nil
}

// GetRelationMasterByID looks a master up by id.
func (s *Store) GetRelationMasterByID(ctx context.Context, id int64) (family.RelationMaster, error) {
	rs, err := s.queryMasters(ctx, s.db, "SELECT "+masterColumns+" FROM relation_masters WHERE id = ?", id)
	if err != nil {
		return family.RelationMaster{}, err
	}
	if len(rs) == 0 {
		return family.RelationMaster{}, errors.NotFound("relation", id)
	}
	return rs[0], nil
}

// CreateRelationMaster adds a master. Codes are unique.
func (s *Store) CreateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	explicitID := r.ID != 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.codeFree(ctx, tx, r.Code, 0); err != nil {
			return err
		}
		cols := "code, label, is_spousal, is_parental, is_bidirectional, inverse_code"
		vals := "?, ?, ?, ?, ?, ?"
		args := []any{r.Code, r.Label, r.IsSpousal, r.IsParental, r.IsBidirectional, r.InverseCode}
		if explicitID {
			ok, err := s.exists(ctx, tx, "relation_masters", r.ID)
			if err != nil {
				return err
			}
			if ok {
				return errors.New(errors.ErrCodeConflict, "relation %d already exists", r.ID)
			}
			cols, vals = "id, "+cols, "?, "+vals
			args = append([]any{r.ID}, args...)
		}
		q := "INSERT INTO relation_masters (" + cols + ") VALUES (" + vals + ") RETURNING id"
		if err := s.queryRow(ctx, tx, q, args...).Scan(&r.ID); err != nil {
			return fmt.Errorf("insert relation %s: %w", r.Code, err)
		}
		if explicitID {
			return s.syncSequence(ctx, tx, "relation_masters")
		}
		return nil
	})
	if err != nil {
		return family.RelationMaster{}, err
	}
	return r, nil
}

// UpdateRelationMaster replaces an existing master.
func (s *Store) UpdateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.codeFree(ctx, tx, r.Code, r.ID); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, `UPDATE relation_masters SET code = ?, label = ?, is_spousal = ?,
	is_parental = ?, is_bidirectional = ?, inverse_code = ? WHERE id = ?`,
			r.Code, r.Label, r.IsSpousal, r.IsParental, r.IsBidirectional, r.InverseCode, r.ID)
		if err != nil {
			return fmt.Errorf("update relation %d: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("relation", r.ID)
		}
		return nil
	})
	if err != nil {
		return family.RelationMaster{}, err
	}
	return r, nil
}

// DeleteRelationMaster removes an unused master.
func (s *Store) DeleteRelationMaster(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var used int
		if err := s.queryRow(ctx, tx, "SELECT COUNT(*) FROM edges WHERE relation_id = ?", id).Scan(&used); err != nil {
			return fmt.Errorf("count edges of relation %d: %w", id, err)
		}
		if used > 0 {
			return errors.New(errors.ErrCodeConflict, "relation %d is used by %d edges", id, used)
		}
		res, err := s.exec(ctx, tx, "DELETE FROM relation_masters WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete relation %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("relation", id)
		}
		return nil
	})
}

// codeFree fails with CONFLICT when code belongs to a master other than self.
func (s *Store) codeFree(ctx context.Context, q execer, code string, self int64) error {
	var n int
	err := s.queryRow(ctx, q, "SELECT COUNT(*) FROM relation_masters WHERE code = ? AND id <> ?", code, self).Scan(&n)
	if err != nil {
		return fmt.Errorf("lookup relation %s: %w", code, err)
	}
	if n > 0 {
		return errors.New(errors.ErrCodeConflict, "relation %s already exists", code)
	}
	return nil
}

func (s *Store) queryMasters(ctx context.Context, q execer, query string, args ...any) ([]family.RelationMaster, error) {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	var out []family.RelationMaster
	for rows.Next() {
		var r family.RelationMaster
		if err := rows.Scan(&r.ID, &r.Code, &r.Label, &r.IsSpousal, &r.IsParental, &r.IsBidirectional, &r.InverseCode); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
