package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// ListMembers returns members matching f.
func (s *Store) ListMembers(ctx context.Context, f store.MemberFilter) ([]family.Member, error) {
	opts := options.Find().SetSort(memberSort(f.Order))
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return s.findMembers(ctx, termFilter(f.Terms()), opts)
}

// CountMembers counts members matching f, ignoring paging.
func (s *Store) CountMembers(ctx context.Context, f store.MemberFilter) (int, error) {
	n, err := s.db.Collection(collMembers).CountDocuments(ctx, termFilter(f.Terms()))
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return int(n), nil
}

func memberSort(o store.MemberOrder) bson.D {
	switch o {
	case store.OrderByCreatedDesc:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case store.OrderByUpdatedDesc:
		return bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "_id", Value: 1}}
	}
}

// GetMember returns one member.
func (s *Store) GetMember(ctx context.Context, id int64) (family.Member, error) {
	var m family.Member
	err := s.db.Collection(collMembers).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return family.Member{}, errors.NotFound("member", id)
	}
	if err != nil {
		return family.Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return m, nil
}

// GetMembers returns the existing members among ids in ascending id order.
func (s *Store) GetMembers(ctx context.Context, ids []int64) ([]family.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.findMembers(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// CreateMember inserts m. A non-zero m.ID is kept so imports preserve ids.
func (s *Store) CreateMember(ctx context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.ID == 0 {
		id, err := s.nextID(ctx, collMembers)
		if err != nil {
			return family.Member{}, err
		}
		m.ID = id
	} else if err := s.reserveID(ctx, collMembers, m.ID); err != nil {
		return family.Member{}, err
	}
	if _, err := s.db.Collection(collMembers).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return family.Member{}, errors.New(errors.ErrCodeConflict, "member %d already exists", m.ID)
		}
		return family.Member{}, fmt.Errorf("insert member: %w", err)
	}
	return m, nil
}

// UpdateMember replaces the editable fields of an existing member.
func (s *Store) UpdateMember(ctx context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	old, err := s.GetMember(ctx, m.ID)
	if err != nil {
		return family.Member{}, err
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	res, err := s.db.Collection(collMembers).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return family.Member{}, fmt.Errorf("update member %d: %w", m.ID, err)
	}
	if res.MatchedCount == 0 {
		return family.Member{}, errors.NotFound("member", m.ID)
	}
	return m, nil
}

// DeleteMember removes the member and every edge that references it.
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	res, err := s.db.Collection(collMembers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("member", id)
	}
	_, err = s.db.Collection(collEdges).DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"from_member_id": id},
		bson.M{"to_member_id": id},
	}})
	if err != nil {
		return fmt.Errorf("delete edges of member %d: %w", id, err)
	}
	return nil
}

func (s *Store) findMembers(ctx context.Context, filter any, opts *options.FindOptions) ([]family.Member, error) {
	cur, err := s.db.Collection(collMembers).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	var out []family.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return out, nil
}
