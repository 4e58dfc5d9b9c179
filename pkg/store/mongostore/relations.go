package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// ListRelationMasters returns all masters in ascending id order.
func (s *Store) ListRelationMasters(ctx context.Context) ([]family.RelationMaster, error) {
	cur, err := s.db.Collection(collMasters).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find relations: %w", err)
	}
	var out []family.RelationMaster
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode relations: %w", err)
	}
	return out, nil
}

func (s *Store) masterIndex(ctx context.Context) (map[int64]family.RelationMaster, error) {
	all, err := s.ListRelationMasters(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[int64]family.RelationMaster, len(all))
	for _, r := range all {
		idx[r.ID] = r
	}
	return idx, nil
}

func masterIDByCode(idx map[int64]family.RelationMaster, code string) (int64, bool) {
	for id, r := range idx {
		if r.Code == code {
			return id, true
		}
	}
	return 0, false
}

// GetRelationMaster looks a master up by code.
func (s *Store) GetRelationMaster(ctx context.Context, code string) (family.RelationMaster, error) {
	return s.findMaster(ctx, bson.M{"code": code}, code)
}

// GetRelationMasterByID looks a master up by id.
func (s *Store) GetRelationMasterByID(ctx context.Context, id int64) (family.RelationMaster, error) {
	return s.findMaster(ctx, bson.M{"_id": id}, id)
}

func (s *Store) findMaster(ctx context.Context, filter bson.M, key any) (family.RelationMaster, error) {
	var r family.RelationMaster
	err := s.db.Collection(collMasters).FindOne(ctx, filter).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return family.RelationMaster{}, errors.NotFound("relation", key)
	}
	if err != nil {
		return family.RelationMaster{}, fmt.Errorf("get relation %v: %w", key, err)
	}
	return r, nil
}

// CreateRelationMaster adds a master. Codes are unique.
func (s *Store) CreateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	if r.ID == 0 {
		id, err := s.nextID(ctx, collMasters)
		if err != nil {
			return family.RelationMaster{}, err
		}
		r.ID = id
	} else if err := s.reserveID(ctx, collMasters, r.ID); err != nil {
		return family.RelationMaster{}, err
	}
	if _, err := s.db.Collection(collMasters).InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return family.RelationMaster{}, errors.New(errors.ErrCodeConflict, "relation %s already exists", r.Code)
		}
		return family.RelationMaster{}, fmt.Errorf("insert relation %s: %w", r.Code, err)
	}
	return r, nil
}

// UpdateRelationMaster replaces an existing master.
func (s *Store) UpdateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	res, err := s.db.Collection(collMasters).ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return family.RelationMaster{}, errors.New(errors.ErrCodeConflict, "relation %s already exists", r.Code)
		}
		return family.RelationMaster{}, fmt.Errorf("update relation %d: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return family.RelationMaster{}, errors.NotFound("relation", r.ID)
	}
	return r, nil
}

// DeleteRelationMaster removes an unused master.
func (s *Store) DeleteRelationMaster(ctx context.Context, id int64) error {
	used, err := s.db.Collection(collEdges).CountDocuments(ctx, bson.M{"relation_id": id})
	if err != nil {
		return fmt.Errorf("count edges of relation %d: %w", id, err)
	}
	if used > 0 {
		return errors.New(errors.ErrCodeConflict, "relation %d is used by %d edges", id, used)
	}
	res, err := s.db.Collection(collMasters).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete relation %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("relation", id)
	}
	return nil
}
