// Package mongostore implements store.Store on MongoDB.
//
// Documents use int64 ids drawn from a counters collection so members and
// edges keep the same identifiers across backends and exports. A unique index
// on (from_member_id, to_member_id, relation_id) enforces edge uniqueness.
package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/store"
)

const (
	collMembers  = "members"
	collMasters  = "relation_masters"
	collEdges    = "edges"
	collCounters = "counters"
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Open connects to uri, selects database and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "mongodb uri is required")
	}
	if database == "" {
		database = "kintree"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), now: time.Now}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collEdges).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "from_member_id", Value: 1}, {Key: "to_member_id", Value: 1}, {Key: "relation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "to_member_id", Value: 1}}},
		{Keys: bson.D{{Key: "relation_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("edge indexes: %w", err)
	}
	_, err = s.db.Collection(collMasters).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("relation indexes: %w", err)
	}
	_, err = s.db.Collection(collMembers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("member indexes: %w", err)
	}
	return nil
}

// Drop removes every collection. Tests use it to start from empty.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// nextID allocates the next id for a collection.
func (s *Store) nextID(ctx context.Context, coll string) (int64, error) {
	var c struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": coll},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", coll, err)
	}
	return c.Seq, nil
}

// reserveID advances the counter past an explicitly chosen id.
func (s *Store) reserveID(ctx context.Context, coll string, id int64) error {
	_, err := s.db.Collection(collCounters).UpdateOne(ctx,
		bson.M{"_id": coll},
		bson.M{"$max": bson.M{"seq": id}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("reserve %s id %d: %w", coll, id, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, coll string, id int64) (bool, error) {
	n, err := s.db.Collection(coll).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("lookup %s %d: %w", coll, id, err)
	}
	return n > 0, nil
}

// Stats counts members, edges and spousal edges.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	var st store.Stats
	members, err := s.db.Collection(collMembers).CountDocuments(ctx, bson.M{})
	if err != nil {
		return st, fmt.Errorf("count members: %w", err)
	}
	edges, err := s.db.Collection(collEdges).CountDocuments(ctx, bson.M{})
	if err != nil {
		return st, fmt.Errorf("count edges: %w", err)
	}
	var spousal []int64
	masters, err := s.ListRelationMasters(ctx)
	if err != nil {
		return st, err
	}
	for _, r := range masters {
		if r.IsSpousal {
			spousal = append(spousal, r.ID)
		}
	}
	var sp int64
	if len(spousal) > 0 {
		sp, err = s.db.Collection(collEdges).CountDocuments(ctx, bson.M{"relation_id": bson.M{"$in": spousal}})
		if err != nil {
			return st, fmt.Errorf("count spousal edges: %w", err)
		}
	}
	st.Members, st.Edges, st.SpousalEdges = int(members), int(edges), int(sp)
	return st, nil
}

// termFilter matches every term as a case-insensitive substring of either name.
func termFilter(terms []string) bson.M {
	if len(terms) == 0 {
		return bson.M{}
	}
	and := make(bson.A, 0, len(terms))
	for _, t := range terms {
		re := bson.M{"$regex": regexp.QuoteMeta(t), "$options": "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
		}})
	}
	return bson.M{"$and": and}
}

var _ store.Store = (*Store)(nil)
