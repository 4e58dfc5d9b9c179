package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

const edgeSelect = `SELECT e.id, e.from_member_id, e.to_member_id, e.relation_id,
	r.id, r.code, r.label, r.is_spousal, r.is_parental, r.is_bidirectional, r.inverse_code
FROM edges e JOIN relation_masters r ON r.id = e.relation_id`

// ListEdges returns matching edges in ascending id order.
func (s *Store) ListEdges(ctx context.Context, f store.EdgeFilter) ([]family.ResolvedEdge, error) {
	var (
		clauses []string
		args    []any
	)
	if f.FromID != 0 {
		clauses = append(clauses, "e.from_member_id = ?")
		args = append(args, f.FromID)
	}
	if f.ToID != 0 {
		clauses = append(clauses, "e.to_member_id = ?")
		args = append(args, f.ToID)
	}
	if f.RelationID != 0 {
		clauses = append(clauses, "e.relation_id = ?")
		args = append(args, f.RelationID)
	}
	if f.RelationCode != "" {
		clauses = append(clauses, "r.code = ?")
		args = append(args, f.RelationCode)
	}
	q := edgeSelect
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY e.id ASC"
	return s.queryEdges(ctx, s.db, q, args...)
}

// GetEdge returns one edge with its relation master.
func (s *Store) GetEdge(ctx context.Context, id int64) (family.ResolvedEdge, error) {
	edges, err := s.queryEdges(ctx, s.db, edgeSelect+" WHERE e.id = ?", id)
	if err != nil {
		return family.ResolvedEdge{}, err
	}
	if len(edges) == 0 {
		return family.ResolvedEdge{}, errors.NotFound("edge", id)
	}
	return edges[0], nil
}

// CreateEdge inserts e or returns the edge that already holds the triple.
// The unique index makes concurrent inserts of the same triple collapse.
func (s *Store) CreateEdge(ctx context.Context, e family.Edge) (family.Edge, error) {
	if e.FromMemberID == e.ToMemberID {
		return family.Edge{}, errors.New(errors.ErrCodeInvalidRequest, "cannot relate member %d to itself", e.FromMemberID)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ref := range []struct {
			table, what string
			id          int64
		}{
			{"members", "member", e.FromMemberID},
			{"members", "member", e.ToMemberID},
			{"relation_masters", "relation", e.RelationID},
		} {
			ok, err := s.exists(ctx, tx, ref.table, ref.id)
			if err != nil {
				return err
			}
			if !ok {
				return errors.NotFound(ref.what, ref.id)
			}
		}

		cols, vals := "from_member_id, to_member_id, relation_id", "?, ?, ?"
		args := []any{e.FromMemberID, e.ToMemberID, e.RelationID}
		explicitID := e.ID != 0
		if explicitID {
			cols, vals = "id, "+cols, "?, "+vals
			args = append([]any{e.ID}, args...)
		}
		q := "INSERT INTO edges (" + cols + ") VALUES (" + vals + ") " +
			"ON CONFLICT (from_member_id, to_member_id, relation_id) DO NOTHING"
		if _, err := s.exec(ctx, tx, q, args...); err != nil {
			return fmt.Errorf("insert edge: %w", err)
		}
		err := s.queryRow(ctx, tx, "SELECT id FROM edges WHERE from_member_id = ? AND to_member_id = ? AND relation_id = ?",
			e.FromMemberID, e.ToMemberID, e.RelationID).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("read edge id: %w", err)
		}
		if explicitID {
			return s.syncSequence(ctx, tx, "edges")
		}
		return nil
	})
	if err != nil {
		return family.Edge{}, err
	}
	return e, nil
}

// DeleteEdge removes one edge.
func (s *Store) DeleteEdge(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM edges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete edge %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("edge", id)
	}
	return nil
}

// DeleteEdgesMatching removes every edge with the exact triple.
func (s *Store) DeleteEdgesMatching(ctx context.Context, from, to, relationID int64) (int, error) {
	res, err := s.exec(ctx, s.db, "DELETE FROM edges WHERE from_member_id = ? AND to_member_id = ? AND relation_id = ?",
		from, to, relationID)
	if err != nil {
		return 0, fmt.Errorf("delete edges %d->%d: %w", from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete edges %d->%d: %w", from, to, err)
	}
	return int(n), nil
}

func (s *Store) queryEdges(ctx context.Context, q execer, query string, args ...any) ([]family.ResolvedEdge, error) {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var out []family.ResolvedEdge
	for rows.Next() {
		var re family.ResolvedEdge
		r := &re.Relation
		if err := rows.Scan(&re.ID, &re.FromMemberID, &re.ToMemberID, &re.RelationID,
			&r.ID, &r.Code, &r.Label, &r.IsSpousal, &r.IsParental, &r.IsBidirectional, &r.InverseCode); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}
