// Package storetest holds the behavioural tests every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"MemberCRUD", testMemberCRUD},
		{"MemberSearch", testMemberSearch},
		{"MemberOrdering", testMemberOrdering},
		{"GetMembersSkipsMissing", testGetMembers},
		{"EdgeUniqueness", testEdgeUniqueness},
		{"EdgeValidation", testEdgeValidation},
		{"EdgeFilter", testEdgeFilter},
		{"DeleteEdgesMatching", testDeleteEdgesMatching},
		{"DeleteMemberCascades", testDeleteMemberCascades},
		{"RelationMasters", testRelationMasters},
		{"RelationMasterInUse", testRelationMasterInUse},
		{"Stats", testStats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// Seed installs the default relation masters and returns them by code.
func Seed(t *testing.T, s store.Store) map[string]family.RelationMaster {
	t.Helper()
	ctx := context.Background()
	out := make(map[string]family.RelationMaster)
	for _, r := range family.DefaultMasters() {
		created, err := s.CreateRelationMaster(ctx, r)
		if err != nil {
			t.Fatalf("CreateRelationMaster(%s) error: %v", r.Code, err)
		}
		out[created.Code] = created
	}
	return out
}

// AddMember creates a member and fails the test on error.
func AddMember(t *testing.T, s store.Store, first, last string, g family.Gender) family.Member {
	t.Helper()
	m, err := s.CreateMember(context.Background(), family.Member{FirstName: first, LastName: last, Gender: g})
	if err != nil {
		t.Fatalf("CreateMember(%s) error: %v", first, err)
	}
	return m
}

func addEdge(t *testing.T, s store.Store, from, to int64, r family.RelationMaster) family.Edge {
	t.Helper()
	e, err := s.CreateEdge(context.Background(), family.Edge{FromMemberID: from, ToMemberID: to, RelationID: r.ID})
	if err != nil {
		t.Fatalf("CreateEdge(%d, %d, %s) error: %v", from, to, r.Code, err)
	}
	return e
}

func testMemberCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	dob := time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC)
	m, err := s.CreateMember(ctx, family.Member{FirstName: "Alice", LastName: "Smith", Gender: family.GenderFemale, DOB: &dob, NativePlace: "Pune"})
	if err != nil {
		t.Fatalf("CreateMember error: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("CreateMember returned zero id")
	}

	got, err := s.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMember error: %v", err)
	}
	if got.FirstName != "Alice" || got.NativePlace != "Pune" || got.Gender != family.GenderFemale {
		t.Errorf("GetMember = %+v", got)
	}
	if got.DOB == nil || !got.DOB.Equal(dob) {
		t.Errorf("GetMember DOB = %v, want %v", got.DOB, dob)
	}

	got.LastName = "Jones"
	got.NativePlace = ""
	updated, err := s.UpdateMember(ctx, got)
	if err != nil {
		t.Fatalf("UpdateMember error: %v", err)
	}
	if updated.LastName != "Jones" || updated.NativePlace != "" {
		t.Errorf("UpdateMember = %+v", updated)
	}

	if _, err := s.CreateMember(ctx, family.Member{FirstName: "", LastName: "X"}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("CreateMember(empty name) error = %v, want INVALID_REQUEST", err)
	}

	if err := s.DeleteMember(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMember error: %v", err)
	}
	if _, err := s.GetMember(ctx, m.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetMember after delete error = %v, want NOT_FOUND", err)
	}
	if err := s.DeleteMember(ctx, m.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("DeleteMember twice error = %v, want NOT_FOUND", err)
	}
	if _, err := s.UpdateMember(ctx, family.Member{ID: 999, FirstName: "A", LastName: "B"}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("UpdateMember(missing) error = %v, want NOT_FOUND", err)
	}
}

func testMemberSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	AddMember(t, s, "Alice", "Smith", family.GenderFemale)
	AddMember(t, s, "Bob", "Smith", family.GenderMale)
	AddMember(t, s, "Carol", "Alison", family.GenderFemale)

	tests := []struct {
		search string
		want   int
	}{
		{"", 3},
		{"smith", 2},
		{"ali", 2},
		{"ALI smi", 1},
		{"  bob  ", 1},
		{"zed", 0},
	}
	for _, tt := range tests {
		got, err := s.ListMembers(ctx, store.MemberFilter{Search: tt.search})
		if err != nil {
			t.Fatalf("ListMembers(%q) error: %v", tt.search, err)
		}
		if len(got) != tt.want {
			t.Errorf("ListMembers(%q) = %d members, want %d", tt.search, len(got), tt.want)
		}
		n, err := s.CountMembers(ctx, store.MemberFilter{Search: tt.search, Limit: 1})
		if err != nil {
			t.Fatalf("CountMembers(%q) error: %v", tt.search, err)
		}
		if n != tt.want {
			t.Errorf("CountMembers(%q) = %d, want %d", tt.search, n, tt.want)
		}
	}
}

func testMemberOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	c := AddMember(t, s, "C", "X", "")

	byID, err := s.ListMembers(ctx, store.MemberFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if ids(byID) != [3]int64{a.ID, b.ID, c.ID} {
		t.Errorf("OrderByID = %v", ids(byID))
	}

	newest, err := s.ListMembers(ctx, store.MemberFilter{Order: store.OrderByCreatedDesc})
	if err != nil {
		t.Fatal(err)
	}
	if ids(newest) != [3]int64{c.ID, b.ID, a.ID} {
		t.Errorf("OrderByCreatedDesc = %v", ids(newest))
	}

	page, err := s.ListMembers(ctx, store.MemberFilter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != b.ID {
		t.Errorf("ListMembers(offset 1, limit 1) = %v, want [%d]", page, b.ID)
	}
}

func ids(ms []family.Member) [3]int64 {
	var out [3]int64
	for i := range min(len(ms), 3) {
		out[i] = ms[i].ID
	}
	return out
}

func testGetMembers(t *testing.T, s store.Store) {
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	got, err := s.GetMembers(context.Background(), []int64{b.ID, 999, a.ID, b.ID})
	if err != nil {
		t.Fatalf("GetMembers error: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("GetMembers = %+v, want [%d %d]", got, a.ID, b.ID)
	}
}

func testEdgeUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")

	e1 := addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	e2 := addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	if e1.ID != e2.ID {
		t.Errorf("duplicate CreateEdge id = %d, want %d", e2.ID, e1.ID)
	}
	addEdge(t, s, a.ID, b.ID, rel[family.CodeFather])

	edges, err := s.ListEdges(ctx, store.EdgeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Errorf("ListEdges = %d edges, want 2", len(edges))
	}
	if edges[0].ID > edges[1].ID {
		t.Errorf("ListEdges not ordered by id: %d, %d", edges[0].ID, edges[1].ID)
	}
	if edges[0].Relation.Code != family.CodeSpouse {
		t.Errorf("ListEdges[0].Relation.Code = %q, want SPOUSE", edges[0].Relation.Code)
	}
}

func testEdgeValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")

	tests := []struct {
		name string
		edge family.Edge
		code errors.Code
	}{
		{"self loop", family.Edge{FromMemberID: a.ID, ToMemberID: a.ID, RelationID: rel[family.CodeSpouse].ID}, errors.ErrCodeInvalidRequest},
		{"missing target", family.Edge{FromMemberID: a.ID, ToMemberID: 999, RelationID: rel[family.CodeSpouse].ID}, errors.ErrCodeNotFound},
		{"missing relation", family.Edge{FromMemberID: a.ID, ToMemberID: 999, RelationID: 999}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		if _, err := s.CreateEdge(ctx, tt.edge); !errors.Is(err, tt.code) {
			t.Errorf("%s: CreateEdge error = %v, want %s", tt.name, err, tt.code)
		}
	}
	if _, err := s.GetEdge(ctx, 999); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetEdge(missing) error = %v, want NOT_FOUND", err)
	}
	if err := s.DeleteEdge(ctx, 999); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("DeleteEdge(missing) error = %v, want NOT_FOUND", err)
	}
}

func testEdgeFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	c := AddMember(t, s, "C", "X", "")
	addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	addEdge(t, s, b.ID, a.ID, rel[family.CodeSpouse])
	addEdge(t, s, a.ID, c.ID, rel[family.CodeFather])

	tests := []struct {
		name   string
		filter store.EdgeFilter
		want   int
	}{
		{"all", store.EdgeFilter{}, 3},
		{"from a", store.EdgeFilter{FromID: a.ID}, 2},
		{"to a", store.EdgeFilter{ToID: a.ID}, 1},
		{"spouse code", store.EdgeFilter{RelationCode: family.CodeSpouse}, 2},
		{"exact", store.Exact(a.ID, c.ID, rel[family.CodeFather].ID), 1},
		{"exact miss", store.Exact(c.ID, a.ID, rel[family.CodeFather].ID), 0},
	}
	for _, tt := range tests {
		got, err := s.ListEdges(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListEdges error: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: ListEdges = %d edges, want %d", tt.name, len(got), tt.want)
		}
	}
}

func testDeleteEdgesMatching(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	addEdge(t, s, a.ID, b.ID, rel[family.CodeFather])

	n, err := s.DeleteEdgesMatching(ctx, a.ID, b.ID, rel[family.CodeSpouse].ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("DeleteEdgesMatching = %d, want 1", n)
	}
	n, err = s.DeleteEdgesMatching(ctx, a.ID, b.ID, rel[family.CodeSpouse].ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second DeleteEdgesMatching = %d, want 0", n)
	}
	rest, _ := s.ListEdges(ctx, store.EdgeFilter{})
	if len(rest) != 1 || rest[0].Relation.Code != family.CodeFather {
		t.Errorf("remaining edges = %+v, want the FATHER edge", rest)
	}
}

func testDeleteMemberCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	c := AddMember(t, s, "C", "X", "")
	addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	addEdge(t, s, b.ID, a.ID, rel[family.CodeSpouse])
	addEdge(t, s, b.ID, c.ID, rel[family.CodeFather])

	if err := s.DeleteMember(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	edges, err := s.ListEdges(ctx, store.EdgeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Errorf("edges after DeleteMember = %d, want 0", len(edges))
	}
}

func testRelationMasters(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)

	all, err := s.ListRelationMasters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("ListRelationMasters = %d, want 4", len(all))
	}

	got, err := s.GetRelationMaster(ctx, family.CodeFather)
	if err != nil {
		t.Fatal(err)
	}
	if got.InverseCode != family.CodeChild || !got.IsParental {
		t.Errorf("GetRelationMaster(FATHER) = %+v", got)
	}
	if _, err := s.GetRelationMaster(ctx, family.CodeParent); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetRelationMaster(PARENT) error = %v, want NOT_FOUND", err)
	}
	byID, err := s.GetRelationMasterByID(ctx, rel[family.CodeSpouse].ID)
	if err != nil || byID.Code != family.CodeSpouse {
		t.Errorf("GetRelationMasterByID = %+v, %v", byID, err)
	}

	if _, err := s.CreateRelationMaster(ctx, family.RelationMaster{Code: family.CodeSpouse, Label: "Dup"}); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("duplicate CreateRelationMaster error = %v, want CONFLICT", err)
	}

	sib := family.RelationMaster{Code: "SIBLING", Label: "Sibling", IsBidirectional: true}
	sib, err = s.CreateRelationMaster(ctx, sib)
	if err != nil {
		t.Fatal(err)
	}
	sib.Label = "Brother or sister"
	if _, err := s.UpdateRelationMaster(ctx, sib); err != nil {
		t.Fatalf("UpdateRelationMaster error: %v", err)
	}
	got, _ = s.GetRelationMaster(ctx, "SIBLING")
	if got.Label != "Brother or sister" {
		t.Errorf("Label after update = %q", got.Label)
	}
	if err := s.DeleteRelationMaster(ctx, sib.ID); err != nil {
		t.Fatalf("DeleteRelationMaster error: %v", err)
	}
	if _, err := s.GetRelationMaster(ctx, "SIBLING"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetRelationMaster after delete error = %v, want NOT_FOUND", err)
	}
}

func testRelationMasterInUse(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])

	if err := s.DeleteRelationMaster(ctx, rel[family.CodeSpouse].ID); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("DeleteRelationMaster(in use) error = %v, want CONFLICT", err)
	}
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	rel := Seed(t, s)
	a := AddMember(t, s, "A", "X", "")
	b := AddMember(t, s, "B", "X", "")
	c := AddMember(t, s, "C", "X", "")
	addEdge(t, s, a.ID, b.ID, rel[family.CodeSpouse])
	addEdge(t, s, b.ID, a.ID, rel[family.CodeSpouse])
	addEdge(t, s, a.ID, c.ID, rel[family.CodeFather])

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := store.Stats{Members: 3, Edges: 3, SpousalEdges: 2}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}
