// Package relation keeps directed relationship edges mirrored.
//
// Relation masters describe how an edge mirrors: a bidirectional master
// (SPOUSE) mirrors A->B as B->A with the same master, a master with an inverse
// code (FATHER -> CHILD) mirrors A->B as B->A with the inverse master. The
// [Normalizer] creates and deletes mirrors synchronously with the primary edge
// so readers never observe half of a pair written by it.
//
// An inverse code that names no stored master is skipped with a debug log.
// This lets partially configured masters such as the seeded CHILD, whose
// inverse PARENT is not seeded, be used without errors.
package relation

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Normalizer writes edges together with their mirrors.
type Normalizer struct {
	store  store.Store
	logger *log.Logger
}

// NewNormalizer returns a normalizer over s. A nil logger uses log.Default().
func NewNormalizer(s store.Store, logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Normalizer{store: s, logger: logger}
}

// Create records from -[code]-> to and its mirror, returning the primary edge.
// Creating an existing triple is a no-op that returns the stored edge.
//
// The mirror is written under a context detached from ctx's cancellation. If
// it still fails, a primary edge created by this call is removed again.
func (n *Normalizer) Create(ctx context.Context, fromID, toID int64, code string) (family.Edge, error) {
	if fromID == toID {
		return family.Edge{}, errors.New(errors.ErrCodeInvalidRequest, "member %d cannot be related to itself", fromID)
	}
	rel, err := n.store.GetRelationMaster(ctx, code)
	if err != nil {
		return family.Edge{}, err
	}
	mirror, ok, err := n.mirrorOf(ctx, rel)
	if err != nil {
		return family.Edge{}, err
	}
	existing, err := n.store.ListEdges(ctx, store.Exact(fromID, toID, rel.ID))
	if err != nil {
		return family.Edge{}, err
	}
	primary, err := n.store.CreateEdge(ctx, family.Edge{FromMemberID: fromID, ToMemberID: toID, RelationID: rel.ID})
	if err != nil {
		return family.Edge{}, err
	}

	if ok {
		detached := context.WithoutCancel(ctx)
		if err := n.ensure(detached, toID, fromID, mirror); err != nil {
			if len(existing) == 0 {
				n.rollback(detached, "create", func(ctx context.Context) error {
					return n.store.DeleteEdge(ctx, primary.ID)
				})
			}
			return family.Edge{}, err
		}
	}
	n.logger.Debug("edge created", "id", primary.ID, "from", fromID, "to", toID, "code", rel.Code, "mirrored", ok)
	return primary, nil
}

// Delete removes the edge and every edge mirroring it. Other edges between
// the same two members are left untouched. If the mirrors cannot be removed
// the edge is restored with its id.
func (n *Normalizer) Delete(ctx context.Context, edgeID int64) error {
	e, err := n.store.GetEdge(ctx, edgeID)
	if err != nil {
		return err
	}
	mirror, ok, err := n.mirrorOf(ctx, e.Relation)
	if err != nil {
		return err
	}
	if err := n.store.DeleteEdge(ctx, edgeID); err != nil {
		return err
	}
	if !ok {
		n.logger.Debug("edge deleted", "id", edgeID, "code", e.Relation.Code, "mirrors", 0)
		return nil
	}
	detached := context.WithoutCancel(ctx)
	removed, err := n.store.DeleteEdgesMatching(detached, e.ToMemberID, e.FromMemberID, mirror.ID)
	if err != nil {
		n.rollback(detached, "delete", func(ctx context.Context) error {
			_, err := n.store.CreateEdge(ctx, e.Edge)
			return err
		})
		return err
	}
	n.logger.Debug("edge deleted", "id", edgeID, "code", e.Relation.Code, "mirrors", removed)
	return nil
}

// rollback undoes a primary write after its mirror failed.
func (n *Normalizer) rollback(ctx context.Context, op string, undo func(context.Context) error) {
	if err := undo(ctx); err != nil {
		n.logger.Error("rollback failed, edge left without mirror", "op", op, "err", err)
	}
}

// mirrorOf returns the master used for the reverse edge of rel.
func (n *Normalizer) mirrorOf(ctx context.Context, rel family.RelationMaster) (family.RelationMaster, bool, error) {
	switch {
	case rel.IsBidirectional:
		return rel, true, nil
	case rel.InverseCode == "":
		return family.RelationMaster{}, false, nil
	}
	inv, err := n.store.GetRelationMaster(ctx, rel.InverseCode)
	if errors.Is(err, errors.ErrCodeNotFound) {
		skip := errors.New(errors.ErrCodeInconsistent, "relation %s has unknown inverse %s", rel.Code, rel.InverseCode)
		n.logger.Debug("mirror skipped", "err", skip)
		return family.RelationMaster{}, false, nil
	}
	if err != nil {
		return family.RelationMaster{}, false, err
	}
	return inv, true, nil
}

// ensure creates the triple unless it already exists.
func (n *Normalizer) ensure(ctx context.Context, from, to int64, rel family.RelationMaster) error {
	existing, err := n.store.ListEdges(ctx, store.Exact(from, to, rel.ID))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = n.store.CreateEdge(ctx, family.Edge{FromMemberID: from, ToMemberID: to, RelationID: rel.ID})
	return err
}
