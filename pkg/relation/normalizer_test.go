package relation

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

type fixture struct {
	store *memory.Store
	norm  *Normalizer
	rel   map[string]family.RelationMaster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := memory.New()
	return fixture{
		store: s,
		norm:  NewNormalizer(s, log.New(io.Discard)),
		rel:   storetest.Seed(t, s),
	}
}

func (f fixture) edges(t *testing.T) []family.ResolvedEdge {
	t.Helper()
	es, err := f.store.ListEdges(context.Background(), store.EdgeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	return es
}

func countCode(es []family.ResolvedEdge, code string) int {
	n := 0
	for _, e := range es {
		if e.Relation.Code == code {
			n++
		}
	}
	return n
}

func TestCreateBidirectionalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", family.GenderFemale)
	b := storetest.AddMember(t, f.store, "B", "X", family.GenderMale)

	first, err := f.norm.Create(ctx, a.ID, b.ID, family.CodeSpouse)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.norm.Create(ctx, a.ID, b.ID, family.CodeSpouse)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("second Create id = %d, want %d", second.ID, first.ID)
	}
	// Creating from the other side hits the existing mirror.
	if _, err := f.norm.Create(ctx, b.ID, a.ID, family.CodeSpouse); err != nil {
		t.Fatal(err)
	}

	es := f.edges(t)
	if len(es) != 2 {
		t.Fatalf("edges = %d, want 2", len(es))
	}
	if es[0].FromMemberID != a.ID || es[1].FromMemberID != b.ID {
		t.Errorf("edges = %+v, want a->b then b->a", es)
	}
}

func TestCreateInverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dad := storetest.AddMember(t, f.store, "Dad", "X", family.GenderMale)
	kid := storetest.AddMember(t, f.store, "Kid", "X", family.GenderFemale)

	e, err := f.norm.Create(ctx, dad.ID, kid.ID, family.CodeFather)
	if err != nil {
		t.Fatal(err)
	}
	if e.FromMemberID != dad.ID || e.RelationID != f.rel[family.CodeFather].ID {
		t.Errorf("Create returned %+v, want the FATHER edge", e)
	}
	mirror, _ := f.store.ListEdges(ctx, store.Exact(kid.ID, dad.ID, f.rel[family.CodeChild].ID))
	if len(mirror) != 1 {
		t.Errorf("CHILD mirror count = %d, want 1", len(mirror))
	}
}

func TestCreateSkipsUnknownInverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kid := storetest.AddMember(t, f.store, "Kid", "X", "")
	mum := storetest.AddMember(t, f.store, "Mum", "X", family.GenderFemale)

	// CHILD's inverse PARENT is not seeded.
	if _, err := f.norm.Create(ctx, kid.ID, mum.ID, family.CodeChild); err != nil {
		t.Fatalf("Create(CHILD) error: %v", err)
	}
	if got := len(f.edges(t)); got != 1 {
		t.Errorf("edges = %d, want 1", got)
	}
}

func TestCreateErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", "")
	b := storetest.AddMember(t, f.store, "B", "X", "")

	tests := []struct {
		name     string
		from, to int64
		code     string
		want     errors.Code
	}{
		{"self loop spouse", a.ID, a.ID, family.CodeSpouse, errors.ErrCodeInvalidRequest},
		{"self loop unknown code", a.ID, a.ID, "NOPE", errors.ErrCodeInvalidRequest},
		{"unknown code", a.ID, b.ID, "COUSIN", errors.ErrCodeNotFound},
		{"unknown member", a.ID, 999, family.CodeSpouse, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.norm.Create(ctx, tt.from, tt.to, tt.code); !errors.Is(err, tt.want) {
				t.Errorf("Create error = %v, want %s", err, tt.want)
			}
		})
	}
	if got := len(f.edges(t)); got != 0 {
		t.Errorf("edges after failures = %d, want 0", got)
	}
}

func TestDeleteScopesToMirror(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", "")
	b := storetest.AddMember(t, f.store, "B", "X", "")

	spouse, err := f.norm.Create(ctx, a.ID, b.ID, family.CodeSpouse)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.norm.Create(ctx, a.ID, b.ID, family.CodeFather); err != nil {
		t.Fatal(err)
	}
	if got := len(f.edges(t)); got != 4 {
		t.Fatalf("edges before delete = %d, want 4", got)
	}

	if err := f.norm.Delete(ctx, spouse.ID); err != nil {
		t.Fatal(err)
	}
	es := f.edges(t)
	if countCode(es, family.CodeSpouse) != 0 {
		t.Errorf("SPOUSE edges after delete = %d, want 0", countCode(es, family.CodeSpouse))
	}
	if countCode(es, family.CodeFather) != 1 || countCode(es, family.CodeChild) != 1 {
		t.Errorf("edges after delete = %+v, want FATHER and CHILD kept", es)
	}

	if err := f.norm.Delete(ctx, spouse.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete twice error = %v, want NOT_FOUND", err)
	}
}

func TestDeleteInverseMirror(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dad := storetest.AddMember(t, f.store, "Dad", "X", "")
	kid := storetest.AddMember(t, f.store, "Kid", "X", "")

	e, err := f.norm.Create(ctx, dad.ID, kid.ID, family.CodeFather)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.norm.Delete(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if got := len(f.edges(t)); got != 0 {
		t.Errorf("edges after delete = %d, want 0", got)
	}
}

func TestScenarioEdgeCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := storetest.AddMember(t, f.store, "Alice", "X", family.GenderFemale)
	bob := storetest.AddMember(t, f.store, "Bob", "X", family.GenderMale)
	carol := storetest.AddMember(t, f.store, "Carol", "X", family.GenderFemale)

	if _, err := f.norm.Create(ctx, alice.ID, bob.ID, family.CodeSpouse); err != nil {
		t.Fatal(err)
	}
	if _, err := f.norm.Create(ctx, bob.ID, carol.ID, family.CodeFather); err != nil {
		t.Fatal(err)
	}
	es := f.edges(t)
	if len(es) != 4 {
		t.Errorf("edges = %d, want 4", len(es))
	}
	if countCode(es, family.CodeSpouse) != 2 || countCode(es, family.CodeFather) != 1 || countCode(es, family.CodeChild) != 1 {
		t.Errorf("edge codes = %+v", es)
	}
}

// failingStore fails the nth CreateEdge call and every DeleteEdgesMatching
// call when failMatching is set.
type failingStore struct {
	store.Store
	failCreate   int
	creates      int
	failMatching bool
}

func (s *failingStore) CreateEdge(ctx context.Context, e family.Edge) (family.Edge, error) {
	s.creates++
	if s.creates == s.failCreate {
		return family.Edge{}, context.Canceled
	}
	return s.Store.CreateEdge(ctx, e)
}

func (s *failingStore) DeleteEdgesMatching(ctx context.Context, from, to, relationID int64) (int, error) {
	if s.failMatching {
		return 0, context.Canceled
	}
	return s.Store.DeleteEdgesMatching(ctx, from, to, relationID)
}

func TestCreateRollsBackWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", family.GenderFemale)
	b := storetest.AddMember(t, f.store, "B", "X", family.GenderMale)

	fs := &failingStore{Store: f.store, failCreate: 2}
	norm := NewNormalizer(fs, log.New(io.Discard))
	if _, err := norm.Create(ctx, a.ID, b.ID, family.CodeSpouse); err == nil {
		t.Fatal("Create() succeeded, want mirror error")
	}
	if es := f.edges(t); len(es) != 0 {
		t.Errorf("edges after failed Create = %+v, want none", es)
	}
}

func TestCreateKeepsExistingPrimaryWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dad := storetest.AddMember(t, f.store, "Dad", "X", family.GenderMale)
	kid := storetest.AddMember(t, f.store, "Kid", "X", "")

	// A lone FATHER edge written before the mirror existed.
	rel := f.rel[family.CodeFather]
	lone, err := f.store.CreateEdge(ctx, family.Edge{FromMemberID: dad.ID, ToMemberID: kid.ID, RelationID: rel.ID})
	if err != nil {
		t.Fatal(err)
	}

	fs := &failingStore{Store: f.store, failCreate: 2}
	norm := NewNormalizer(fs, log.New(io.Discard))
	if _, err := norm.Create(ctx, dad.ID, kid.ID, family.CodeFather); err == nil {
		t.Fatal("Create() succeeded, want mirror error")
	}
	es := f.edges(t)
	if len(es) != 1 || es[0].ID != lone.ID {
		t.Errorf("edges = %+v, want only the pre-existing edge %d", es, lone.ID)
	}
}

func TestCreateMirrorIgnoresCancellation(t *testing.T) {
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", family.GenderFemale)
	b := storetest.AddMember(t, f.store, "B", "X", family.GenderMale)

	// Cancel after the primary edge is written.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cs := &cancelAfterCreate{Store: f.store, cancel: cancel}
	norm := NewNormalizer(cs, log.New(io.Discard))
	if _, err := norm.Create(ctx, a.ID, b.ID, family.CodeSpouse); err != nil {
		t.Fatal(err)
	}
	if got := countCode(f.edges(t), family.CodeSpouse); got != 2 {
		t.Errorf("SPOUSE edges = %d, want 2", got)
	}
}

// cancelAfterCreate cancels the caller's context after the first CreateEdge
// and rejects later calls made with a cancelled context.
type cancelAfterCreate struct {
	store.Store
	cancel context.CancelFunc
}

func (s *cancelAfterCreate) CreateEdge(ctx context.Context, e family.Edge) (family.Edge, error) {
	if err := ctx.Err(); err != nil {
		return family.Edge{}, err
	}
	created, err := s.Store.CreateEdge(ctx, e)
	s.cancel()
	return created, err
}

func (s *cancelAfterCreate) ListEdges(ctx context.Context, f store.EdgeFilter) ([]family.ResolvedEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.ListEdges(ctx, f)
}

func TestDeleteRestoresEdgeWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.AddMember(t, f.store, "A", "X", family.GenderFemale)
	b := storetest.AddMember(t, f.store, "B", "X", family.GenderMale)

	spouse, err := f.norm.Create(ctx, a.ID, b.ID, family.CodeSpouse)
	if err != nil {
		t.Fatal(err)
	}

	fs := &failingStore{Store: f.store, failMatching: true}
	norm := NewNormalizer(fs, log.New(io.Discard))
	if err := norm.Delete(ctx, spouse.ID); err == nil {
		t.Fatal("Delete() succeeded, want mirror error")
	}
	es := f.edges(t)
	if len(es) != 2 {
		t.Fatalf("edges after failed Delete = %+v, want both halves", es)
	}
	if es[0].ID != spouse.ID {
		t.Errorf("restored edge id = %d, want %d", es[0].ID, spouse.ID)
	}
}
