package mongostore

import (
	"context"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

func TestContract(t *testing.T) {
	uri := os.Getenv("KINTREE_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("KINTREE_TEST_MONGODB_URI not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, uri, "kintree_test")
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := s.Drop(ctx); err != nil {
			t.Fatalf("Drop error: %v", err)
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes error: %v", err)
		}
		return s
	})
}

func TestOpenRequiresURI(t *testing.T) {
	if _, err := Open(context.Background(), "", "x"); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Open(\"\") error = %v, want INVALID_REQUEST", err)
	}
}

func TestTermFilter(t *testing.T) {
	if f := termFilter(nil); len(f) != 0 {
		t.Errorf("termFilter(nil) = %v, want empty", f)
	}
	f := termFilter([]string{"a.b", "c"})
	and, ok := f["$and"].(bson.A)
	if !ok {
		t.Fatalf("termFilter $and = %T", f["$and"])
	}
	if len(and) != 2 {
		t.Errorf("termFilter clauses = %d, want 2", len(and))
	}
}
