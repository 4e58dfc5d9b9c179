package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "kintree.db"))
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	return s
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openSQLite(t) })
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("KINTREE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KINTREE_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, Postgres, dsn)
		if err != nil {
			t.Fatalf("Open(postgres) error: %v", err)
		}
		if _, err := s.DB().ExecContext(ctx, "TRUNCATE edges, relation_masters, members RESTART IDENTITY CASCADE"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), SQLite, ""); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Open(\"\") error = %v, want INVALID_REQUEST", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kintree.db")
	s, err := Open(ctx, SQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.CreateMember(ctx, family.Member{ID: 7, FirstName: "Ada", LastName: "Byron"})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, SQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMember after reopen error: %v", err)
	}
	if got.ID != 7 || got.FirstName != "Ada" {
		t.Errorf("GetMember = %+v", got)
	}
	next, err := s.CreateMember(ctx, family.Member{FirstName: "Next", LastName: "One"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID <= 7 {
		t.Errorf("next id = %d, want > 7", next.ID)
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	defer s.Close()
	storetest.AddMember(t, s, "Al%ce", "X", "")
	storetest.AddMember(t, s, "Alice", "X", "")

	got, err := s.ListMembers(ctx, store.MemberFilter{Search: "%"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FirstName != "Al%ce" {
		t.Errorf("ListMembers(%%) = %+v, want only Al%%ce", got)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", SQLite, false},
		{"SQLite3", SQLite, false},
		{"postgres", Postgres, false},
		{"pgx", Postgres, false},
		{"mysql", Dialect{}, true},
	}
	for _, tt := range tests {
		got, err := DialectFor(tt.driver)
		if (err != nil) != tt.wantErr {
			t.Errorf("DialectFor(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DialectFor(%q) = %v, want %v", tt.driver, got.Name, tt.want.Name)
		}
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM edges WHERE from_member_id = ? AND to_member_id = ?"
	if got := SQLite.rebind(q); got != q {
		t.Errorf("SQLite.rebind = %q", got)
	}
	want := "SELECT * FROM edges WHERE from_member_id = $1 AND to_member_id = $2"
	if got := Postgres.rebind(q); got != want {
		t.Errorf("Postgres.rebind = %q, want %q", got, want)
	}
}
