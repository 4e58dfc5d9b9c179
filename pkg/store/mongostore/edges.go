package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// ListEdges returns matching edges in ascending id order.
func (s *Store) ListEdges(ctx context.Context, f store.EdgeFilter) ([]family.ResolvedEdge, error) {
	masters, err := s.masterIndex(ctx)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if f.FromID != 0 {
		filter["from_member_id"] = f.FromID
	}
	if f.ToID != 0 {
		filter["to_member_id"] = f.ToID
	}
	if f.RelationCode != "" {
		id, ok := masterIDByCode(masters, f.RelationCode)
		if !ok || (f.RelationID != 0 && f.RelationID != id) {
			return nil, nil
		}
		filter["relation_id"] = id
	}
	if f.RelationID != 0 {
		filter["relation_id"] = f.RelationID
	}
	edges, err := s.findEdges(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]family.ResolvedEdge, len(edges))
	for i, e := range edges {
		out[i] = family.ResolvedEdge{Edge: e, Relation: masters[e.RelationID]}
	}
	return out, nil
}

// GetEdge returns one edge with its relation master.
func (s *Store) GetEdge(ctx context.Context, id int64) (family.ResolvedEdge, error) {
	var e family.Edge
	err := s.db.Collection(collEdges).FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return family.ResolvedEdge{}, errors.NotFound("edge", id)
	}
	if err != nil {
		return family.ResolvedEdge{}, fmt.Errorf("get edge %d: %w", id, err)
	}
	r, err := s.GetRelationMasterByID(ctx, e.RelationID)
	if err != nil {
		return family.ResolvedEdge{}, err
	}
	return family.ResolvedEdge{Edge: e, Relation: r}, nil
}

// CreateEdge inserts e or returns the edge that already holds the triple.
func (s *Store) CreateEdge(ctx context.Context, e family.Edge) (family.Edge, error) {
	if e.FromMemberID == e.ToMemberID {
		return family.Edge{}, errors.New(errors.ErrCodeInvalidRequest, "cannot relate member %d to itself", e.FromMemberID)
	}
	for _, ref := range []struct {
		coll, what string
		id         int64
	}{
		{collMembers, "member", e.FromMemberID},
		{collMembers, "member", e.ToMemberID},
		{collMasters, "relation", e.RelationID},
	} {
		ok, err := s.exists(ctx, ref.coll, ref.id)
		if err != nil {
			return family.Edge{}, err
		}
		if !ok {
			return family.Edge{}, errors.NotFound(ref.what, ref.id)
		}
	}

	if existing, ok, err := s.findTriple(ctx, e); err != nil || ok {
		return existing, err
	}
	if e.ID == 0 {
		id, err := s.nextID(ctx, collEdges)
		if err != nil {
			return family.Edge{}, err
		}
		e.ID = id
	} else if err := s.reserveID(ctx, collEdges, e.ID); err != nil {
		return family.Edge{}, err
	}
	if _, err := s.db.Collection(collEdges).InsertOne(ctx, e); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return family.Edge{}, fmt.Errorf("insert edge: %w", err)
		}
		// Lost a race on the triple index.
		existing, ok, ferr := s.findTriple(ctx, e)
		if ferr != nil {
			return family.Edge{}, ferr
		}
		if !ok {
			return family.Edge{}, errors.New(errors.ErrCodeConflict, "edge %d already exists", e.ID)
		}
		return existing, nil
	}
	return e, nil
}

func (s *Store) findTriple(ctx context.Context, e family.Edge) (family.Edge, bool, error) {
	var found family.Edge
	err := s.db.Collection(collEdges).FindOne(ctx, tripleFilter(e.FromMemberID, e.ToMemberID, e.RelationID)).Decode(&found)
	if err == mongo.ErrNoDocuments {
		return family.Edge{}, false, nil
	}
	if err != nil {
		return family.Edge{}, false, fmt.Errorf("find edge: %w", err)
	}
	return found, true, nil
}

// DeleteEdge removes one edge.
func (s *Store) DeleteEdge(ctx context.Context, id int64) error {
	res, err := s.db.Collection(collEdges).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete edge %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("edge", id)
	}
	return nil
}

// DeleteEdgesMatching removes every edge with the exact triple.
func (s *Store) DeleteEdgesMatching(ctx context.Context, from, to, relationID int64) (int, error) {
	res, err := s.db.Collection(collEdges).DeleteMany(ctx, tripleFilter(from, to, relationID))
	if err != nil {
		return 0, fmt.Errorf("delete edges %d->%d: %w", from, to, err)
	}
	return int(res.DeletedCount), nil
}

func tripleFilter(from, to, relationID int64) bson.M {
	return bson.M{"from_member_id": from, "to_member_id": to, "relation_id": relationID}
}

func (s *Store) findEdges(ctx context.Context, filter bson.M) ([]family.Edge, error) {
	cur, err := s.db.Collection(collEdges).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find edges: %w", err)
	}
	var out []family.Edge
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode edges: %w", err)
	}
	return out, nil
}
