package treesort

import (
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/kintree/pkg/family"
)

var (
	father = family.RelationMaster{ID: 2, Code: family.CodeFather}
	mother = family.RelationMaster{ID: 3, Code: family.CodeMother}
	child  = family.RelationMaster{ID: 4, Code: family.CodeChild}
	spouse = family.RelationMaster{ID: 1, Code: family.CodeSpouse}
)

func edge(id, from, to int64, r family.RelationMaster) family.ResolvedEdge {
	return family.ResolvedEdge{Edge: family.Edge{ID: id, FromMemberID: from, ToMemberID: to, RelationID: r.ID}, Relation: r}
}

func date(y int) *time.Time {
	d := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func nodes(ids ...int64) []Node {
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{ID: id}
	}
	return out
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name    string
		members []Node
		edges   []family.ResolvedEdge
		want    []int64
	}{
		{
			name: "empty",
			want: []int64{},
		},
		{
			name:    "no edges sorts by id",
			members: nodes(3, 1, 2),
			want:    []int64{1, 2, 3},
		},
		{
			name:    "descendants follow their root",
			members: nodes(1, 2, 3, 4, 5),
			edges: []family.ResolvedEdge{
				edge(1, 1, 4, father),
				edge(2, 2, 3, mother),
				edge(3, 4, 5, father),
			},
			want: []int64{1, 4, 5, 2, 3},
		},
		{
			name:    "children in id order",
			members: nodes(1, 7, 3, 5),
			edges: []family.ResolvedEdge{
				edge(1, 1, 7, father),
				edge(2, 1, 3, father),
				edge(3, 1, 5, mother),
			},
			want: []int64{1, 3, 5, 7},
		},
		{
			name:    "child and spouse edges are ignored",
			members: nodes(1, 2, 3),
			edges: []family.ResolvedEdge{
				edge(1, 3, 1, child),
				edge(2, 3, 2, spouse),
			},
			want: []int64{1, 2, 3},
		},
		{
			name:    "shared child listed once",
			members: nodes(1, 2, 3),
			edges: []family.ResolvedEdge{
				edge(1, 1, 3, father),
				edge(2, 2, 3, mother),
			},
			want: []int64{1, 3, 2},
		},
		{
			name:    "cycle is still covered",
			members: nodes(1, 2, 3),
			edges: []family.ResolvedEdge{
				edge(1, 2, 3, father),
				edge(2, 3, 2, father),
			},
			want: []int64{1, 2, 3},
		},
		{
			name:    "dangling edges ignored",
			members: nodes(1, 2),
			edges: []family.ResolvedEdge{
				edge(1, 9, 2, father),
			},
			want: []int64{1, 2},
		},
		{
			name:    "dated roots oldest first",
			members: []Node{{ID: 1, DOB: date(1990)}, {ID: 2, DOB: date(1950)}, {ID: 3, DOB: date(1970)}},
			want:    []int64{2, 3, 1},
		},
		{
			name:    "undated roots fall back to id",
			members: []Node{{ID: 1}, {ID: 2, DOB: date(1950)}},
			want:    []int64{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Order(tt.members, tt.edges)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderCoverage(t *testing.T) {
	var members []Node
	var edges []family.ResolvedEdge
	for i := int64(1); i <= 40; i++ {
		members = append(members, Node{ID: i})
		if i > 3 {
			edges = append(edges, edge(i, i/3, i, father))
		}
	}
	got := Order(members, edges)
	if len(got) != len(members) {
		t.Fatalf("Order returned %d ids, want %d", len(got), len(members))
	}
	pos := make(map[int64]int)
	for i, id := range got {
		if _, dup := pos[id]; dup {
			t.Fatalf("id %d listed twice", id)
		}
		pos[id] = i
	}
	for _, e := range edges {
		if pos[e.FromMemberID] > pos[e.ToMemberID] {
			t.Errorf("parent %d after child %d", e.FromMemberID, e.ToMemberID)
		}
	}
}

func TestPage(t *testing.T) {
	ids := []int64{5, 3, 9, 1, 7}
	tests := []struct {
		page, limit int
		want        []int64
		meta        Meta
	}{
		{1, 2, []int64{5, 3}, Meta{Total: 5, Page: 1, Limit: 2, TotalPages: 3}},
		{3, 2, []int64{7}, Meta{Total: 5, Page: 3, Limit: 2, TotalPages: 3}},
		{4, 2, []int64{}, Meta{Total: 5, Page: 4, Limit: 2, TotalPages: 3}},
		{0, 5, []int64{5, 3, 9, 1, 7}, Meta{Total: 5, Page: 1, Limit: 5, TotalPages: 1}},
	}
	for _, tt := range tests {
		got, meta := Page(ids, tt.page, tt.limit)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Page(%d, %d) = %v, want %v", tt.page, tt.limit, got, tt.want)
		}
		if meta != tt.meta {
			t.Errorf("Page(%d, %d) meta = %+v, want %+v", tt.page, tt.limit, meta, tt.meta)
		}
	}
}

func TestReorder(t *testing.T) {
	members := []family.Member{{ID: 1}, {ID: 3}, {ID: 5}}
	got := Reorder([]int64{5, 2, 1, 3}, members, func(m family.Member) int64 { return m.ID })
	var ids []int64
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	if !slices.Equal(ids, []int64{5, 1, 3}) {
		t.Errorf("Reorder = %v, want [5 1 3]", ids)
	}
}
