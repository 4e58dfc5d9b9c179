package service

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := memory.New().WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	svc := New(s, nil, log.New(io.Discard))
	if _, err := svc.InstallMasters(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc, s
}

type fixture struct {
	alice, bob, carol family.Member
}

// smiths creates Alice and Bob as spouses with their daughter Carol.
func smiths(t *testing.T, svc *Service) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	for _, m := range []struct {
		dst    *family.Member
		first  string
		gender family.Gender
	}{
		{&f.alice, "Alice", family.GenderFemale},
		{&f.bob, "Bob", family.GenderMale},
		{&f.carol, "Carol", family.GenderFemale},
	} {
		created, err := svc.CreateMember(ctx, family.Member{FirstName: m.first, LastName: "Smith", Gender: m.gender})
		if err != nil {
			t.Fatal(err)
		}
		*m.dst = created
	}
	for _, l := range []struct {
		from, to int64
		code     string
	}{
		{f.bob.ID, f.alice.ID, family.CodeSpouse},
		{f.bob.ID, f.carol.ID, family.CodeFather},
		{f.alice.ID, f.carol.ID, family.CodeMother},
	} {
		if _, err := svc.Link(ctx, l.from, l.to, l.code); err != nil {
			t.Fatalf("Link(%d, %d, %s) error: %v", l.from, l.to, l.code, err)
		}
	}
	return f
}

func summaryIDs(ss []family.Summary) []int64 {
	out := make([]int64, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestFamily(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)

	got, err := svc.Family(context.Background(), f.carol.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FirstName != "Carol" {
		t.Errorf("FirstName = %q, want Carol", got.FirstName)
	}
	if ids := summaryIDs(got.Parents); !slices.Equal(ids, []int64{f.bob.ID, f.alice.ID}) &&
		!slices.Equal(ids, []int64{f.alice.ID, f.bob.ID}) {
		t.Errorf("Parents = %v, want Alice and Bob", ids)
	}

	got, err = svc.Family(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ids := summaryIDs(got.Spouses); !slices.Equal(ids, []int64{f.bob.ID}) {
		t.Errorf("Spouses = %v, want [%d]", ids, f.bob.ID)
	}
	if ids := summaryIDs(got.Children); !slices.Equal(ids, []int64{f.carol.ID}) {
		t.Errorf("Children = %v, want [%d]", ids, f.carol.ID)
	}

	if _, err := svc.Family(context.Background(), 99); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Family(99) error = %v, want NOT_FOUND", err)
	}
}

func TestListMembersTreeOrder(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()
	dave, err := svc.CreateMember(ctx, family.Member{FirstName: "Dave", LastName: "Jones"})
	if err != nil {
		t.Fatal(err)
	}

	page, err := svc.ListMembers(ctx, ListParams{})
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	// Roots in id order, each followed by its descendants.
	want := []int64{f.alice.ID, f.carol.ID, f.bob.ID, dave.ID}
	if !slices.Equal(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if page.Meta.Total != 4 || page.Meta.Page != 1 || page.Meta.Limit != DefaultLimit || page.Meta.TotalPages != 1 {
		t.Errorf("Meta = %+v", page.Meta)
	}
	if got := summaryIDs(page.Data[1].Parents); len(got) != 2 {
		t.Errorf("Carol parents = %v, want two", got)
	}

	page, err = svc.ListMembers(ctx, ListParams{Page: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != dave.ID || page.Meta.TotalPages != 2 {
		t.Errorf("page 2 = %d items, meta %+v", len(page.Data), page.Meta)
	}
}

func TestListMembersSearch(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()

	page, err := svc.ListMembers(ctx, ListParams{Search: "smith", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Meta.Total != 3 || page.Meta.TotalPages != 2 {
		t.Errorf("Meta = %+v, want total 3 over 2 pages", page.Meta)
	}
	// Newest first.
	if len(page.Data) != 2 || page.Data[0].ID != f.carol.ID || page.Data[1].ID != f.bob.ID {
		t.Fatalf("Data = %+v", page.Data)
	}
	if got := summaryIDs(page.Data[1].Spouses); !slices.Equal(got, []int64{f.alice.ID}) {
		t.Errorf("Bob spouses = %v, want [%d]", got, f.alice.ID)
	}

	page, err = svc.ListMembers(ctx, ListParams{Search: "ali SMI"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != f.alice.ID {
		t.Errorf("multi-term search = %+v, want Alice", page.Data)
	}
}

func TestListMembersRejectsBadPage(t *testing.T) {
	svc, _ := newService(t)
	for _, p := range []ListParams{{Page: -1}, {Limit: 501}} {
		if _, err := svc.ListMembers(context.Background(), p); !errors.Is(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("ListMembers(%+v) error = %v, want INVALID_REQUEST", p, err)
		}
	}
}

func TestMemberCRUD(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateMember(ctx, family.Member{FirstName: " ", LastName: "X"}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("CreateMember(blank) error = %v, want INVALID_REQUEST", err)
	}
	m, err := svc.CreateMember(ctx, family.Member{ID: 77, FirstName: "Eve", LastName: "Stone", NationalID: "X1"})
	if err != nil {
		t.Fatal(err)
	}
	if m.ID == 77 {
		t.Error("CreateMember kept the caller's id")
	}
	m, err = svc.UpdateMember(ctx, m.ID, family.Member{FirstName: "Eva", LastName: "Stone"})
	if err != nil {
		t.Fatal(err)
	}
	if m.FirstName != "Eva" || m.NationalID != "" {
		t.Errorf("UpdateMember = %+v, want every field replaced", m)
	}
	if err := svc.DeleteMember(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetMember(ctx, m.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetMember after delete error = %v, want NOT_FOUND", err)
	}
}

func TestMemberEdges(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()

	edges, err := svc.MemberEdges(ctx, f.bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}
	if edges[0].Relation.Code != family.CodeSpouse || edges[0].ToMember.FirstName != "Alice" {
		t.Errorf("edges[0] = %+v", edges[0])
	}
	if edges[1].Relation.Code != family.CodeFather || edges[1].ToMember.FirstName != "Carol" {
		t.Errorf("edges[1] = %+v", edges[1])
	}

	if _, err := svc.MemberEdges(ctx, 99); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("MemberEdges(99) error = %v, want NOT_FOUND", err)
	}
}

func TestLinkUnlink(t *testing.T) {
	svc, s := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()

	if _, err := svc.Link(ctx, f.bob.ID, f.alice.ID, "spouse"); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Link(lower-case code) error = %v, want INVALID_REQUEST", err)
	}
	if _, err := svc.Link(ctx, f.bob.ID, f.bob.ID, family.CodeSpouse); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Link(self) error = %v, want INVALID_REQUEST", err)
	}

	spousal, err := s.ListEdges(ctx, store.EdgeFilter{RelationCode: family.CodeSpouse})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Unlink(ctx, spousal[0].ID); err != nil {
		t.Fatal(err)
	}
	left, _ := s.ListEdges(ctx, store.EdgeFilter{RelationCode: family.CodeSpouse})
	if len(left) != 0 {
		t.Errorf("spousal edges after unlink = %d, want 0", len(left))
	}
	all, _ := s.ListEdges(ctx, store.EdgeFilter{})
	if len(all) != 4 {
		t.Errorf("remaining edges = %d, want 4", len(all))
	}
}

func TestMasters(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()

	if n, err := svc.InstallMasters(ctx); err != nil || n != len(family.DefaultMasters()) {
		t.Fatalf("InstallMasters again = %d, %v", n, err)
	}
	masters, err := svc.Masters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(masters) != len(family.DefaultMasters()) {
		t.Errorf("len(masters) = %d, want %d", len(masters), len(family.DefaultMasters()))
	}

	sib, err := svc.CreateMaster(ctx, family.RelationMaster{Code: "SIBLING", Label: "Sibling", IsBidirectional: true})
	if err != nil {
		t.Fatal(err)
	}
	sib.Label = "Sibling of"
	if sib, err = svc.UpdateMaster(ctx, sib.ID, sib); err != nil || sib.Label != "Sibling of" {
		t.Errorf("UpdateMaster = %+v, %v", sib, err)
	}
	if _, err := svc.Link(ctx, f.carol.ID, f.alice.ID, "SIBLING"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMaster(ctx, sib.ID); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("DeleteMaster(in use) error = %v, want CONFLICT", err)
	}
}

func TestTreeData(t *testing.T) {
	svc, _ := newService(t)
	smiths(t, svc)

	td, err := svc.TreeData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(td.Nodes) != 3 || td.Nodes[0].Data.Label != "Alice Smith" {
		t.Errorf("Nodes = %+v", td.Nodes)
	}
	labels := make(map[string]string)
	for _, e := range td.Edges {
		labels[e.ID] = e.Label
		if e.Type != "smoothstep" {
			t.Errorf("edge %s type = %q, want smoothstep", e.ID, e.Type)
		}
	}
	want := map[string]string{
		"e2-1": "Wife",
		"e1-2": "Husband",
		"e2-3": "Father",
		"e3-2": "Son",
		"e1-3": "Mother",
		"e3-1": "Daughter",
	}
	if len(labels) != len(want) {
		t.Errorf("edges = %v, want %v", labels, want)
	}
	for id, l := range want {
		if labels[id] != l {
			t.Errorf("label(%s) = %q, want %q", id, labels[id], l)
		}
	}
}

func TestBuildTreeDataSkipsDanglingEdges(t *testing.T) {
	members := []family.Member{{ID: 1, FirstName: "A", LastName: "B"}}
	edges := []family.ResolvedEdge{{
		Edge:     family.Edge{ID: 1, FromMemberID: 1, ToMemberID: 2},
		Relation: family.RelationMaster{Code: family.CodeSpouse, Label: "Spouse"},
	}}
	td := BuildTreeData(members, edges)
	if len(td.Nodes) != 1 || len(td.Edges) != 0 {
		t.Errorf("BuildTreeData = %+v", td)
	}
}

func TestEdgeLabel(t *testing.T) {
	child := family.RelationMaster{Code: family.CodeChild, Label: "Child"}
	spouse := family.RelationMaster{Code: family.CodeSpouse, Label: "Spouse"}
	father := family.RelationMaster{Code: family.CodeFather, Label: "Father"}
	tests := []struct {
		rel    family.RelationMaster
		gender family.Gender
		want   string
	}{
		{child, family.GenderMale, "Son"},
		{child, family.GenderFemale, "Daughter"},
		{child, family.GenderOther, "Child"},
		{spouse, family.GenderMale, "Husband"},
		{spouse, family.GenderFemale, "Wife"},
		{spouse, family.GenderUnset, "Spouse"},
		{father, family.GenderFemale, "Father"},
	}
	for _, tt := range tests {
		if got := EdgeLabel(tt.rel, tt.gender); got != tt.want {
			t.Errorf("EdgeLabel(%s, %q) = %q, want %q", tt.rel.Code, tt.gender, got, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	svc, _ := newService(t)
	smiths(t, svc)

	res, err := svc.Layout(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	couple, ok := res.Layout.NodeByID("couple-1-2")
	if !ok || couple.Type != "couple" {
		t.Fatalf("couple node = %+v, %v", couple, ok)
	}
	if len(res.Layout.Edges) != 1 || res.Layout.Edges[0].ID != "e-couple-1-2-3" {
		t.Errorf("Edges = %+v, want one couple-to-Carol edge", res.Layout.Edges)
	}
	if len(res.Artifacts[pipeline.FormatJSON]) == 0 {
		t.Error("json artifact is empty")
	}
}

func TestDashboard(t *testing.T) {
	svc, _ := newService(t)
	f := smiths(t, svc)
	ctx := context.Background()
	if _, err := svc.UpdateMember(ctx, f.alice.ID, f.alice); err != nil {
		t.Fatal(err)
	}

	d, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalMembers != 3 || d.TotalRelationships != 6 || d.TotalFamilies != 1 {
		t.Errorf("Dashboard = %+v", d)
	}
	if len(d.RecentMembers) != 3 || d.RecentMembers[0].ID != f.alice.ID {
		t.Errorf("RecentMembers = %+v, want Alice first", d.RecentMembers)
	}
}

func TestSeed(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	res, err := svc.Seed(ctx, SeedOptions{Members: 2, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Masters != len(family.DefaultMasters()) || res.Members != 2 || res.Edges != 2 {
		t.Errorf("Seed = %+v, want root couple", res)
	}
	st, _ := s.Stats(ctx)
	if st.SpousalEdges != 2 {
		t.Errorf("SpousalEdges = %d, want 2", st.SpousalEdges)
	}

	if _, err := svc.Seed(ctx, SeedOptions{Members: -1}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Seed(-1) error = %v, want INVALID_REQUEST", err)
	}
}

func TestSeedFamilyShape(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	res, err := svc.Seed(ctx, SeedOptions{Members: 40, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if res.Members < 3 || res.Members > 40 {
		t.Fatalf("Members = %d, want 3..40", res.Members)
	}
	members, _ := s.ListMembers(ctx, store.MemberFilter{})
	if len(members) != res.Members {
		t.Errorf("stored %d members, reported %d", len(members), res.Members)
	}
	// Every member is either a spouse or a child of both parents.
	for _, m := range members {
		fam, err := svc.Family(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(fam.Spouses) == 0 && len(fam.Parents) != 2 {
			t.Errorf("member %d has no spouse and %d parents", m.ID, len(fam.Parents))
		}
	}
}

func TestSeedDeterministic(t *testing.T) {
	names := func() []string {
		svc, s := newService(t)
		if _, err := svc.Seed(context.Background(), SeedOptions{Members: 25, Seed: 42}); err != nil {
			t.Fatal(err)
		}
		ms, _ := s.ListMembers(context.Background(), store.MemberFilter{})
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.FullName() + " " + m.DOB.Format("2006-01-02")
		}
		return out
	}
	a, b := names(), names()
	if !slices.Equal(a, b) {
		t.Errorf("seed runs differ:\n%v\n%v", a, b)
	}
}

func TestSeedFillsMemberDetails(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	if _, err := svc.Seed(ctx, SeedOptions{Members: 8, Seed: 3}); err != nil {
		t.Fatal(err)
	}
	ms, err := s.ListMembers(ctx, store.MemberFilter{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range ms {
		if m.FirstName == "" || m.LastName == "" || m.DOB == nil {
			t.Errorf("member %d missing name or dob: %+v", m.ID, m)
		}
		if m.Address == "" || m.NativePlace == "" || m.ContactNumber == "" || m.Notes == "" {
			t.Errorf("member %d missing contact details: %+v", m.ID, m)
		}
	}
}
