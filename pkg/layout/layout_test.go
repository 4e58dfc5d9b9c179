package layout

import (
	"context"
	"io"
	"reflect"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
)

func node(id, label string) graph.TreeNode {
	return graph.TreeNode{ID: id, Data: graph.NodeData{Label: label}}
}

func spouse(a, b string) graph.TreeEdge {
	return graph.TreeEdge{ID: "e" + a + "-" + b, Source: a, Target: b, Label: "Spouse", IsSpousal: true}
}

func parent(p, c, label string) graph.TreeEdge {
	return graph.TreeEdge{ID: "e" + p + "-" + c, Source: p, Target: c, Label: label, IsParental: true}
}

// family is Alice (1) and Bob (2) with their daughter Carol (3), written the
// way the tree data endpoint emits it.
func family() graph.TreeData {
	return graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "Alice"), node("2", "Bob"), node("3", "Carol")},
		Edges: []graph.TreeEdge{
			spouse("1", "2"), spouse("2", "1"),
			parent("2", "3", "Father"), parent("1", "3", "Mother"),
			{ID: "e3-2", Source: "3", Target: "2", Label: "Daughter"},
			{ID: "e3-1", Source: "3", Target: "1", Label: "Daughter"},
		},
	}
}

func newEngine() *Engine {
	return NewEngine(nil, log.New(io.Discard))
}

func TestCoupleID(t *testing.T) {
	if got := CoupleID("5", "3"); got != "couple-3-5" {
		t.Errorf("CoupleID(5, 3) = %q, want couple-3-5", got)
	}
	if CoupleID("3", "5") != CoupleID("5", "3") {
		t.Error("CoupleID depends on argument order")
	}
	if got := CoupleID("10", "9"); got != "couple-9-10" {
		t.Errorf("CoupleID(10, 9) = %q, want numeric order", got)
	}
}

func TestLayoutCoupleIDDeterminism(t *testing.T) {
	for _, edges := range [][]graph.TreeEdge{
		{spouse("5", "3")},
		{spouse("3", "5")},
		{spouse("5", "3"), spouse("3", "5")},
	} {
		in := graph.TreeData{Nodes: []graph.TreeNode{node("5", "E"), node("3", "C")}, Edges: edges}
		out, err := newEngine().Layout(context.Background(), in, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Nodes) != 1 || out.Nodes[0].ID != "couple-3-5" {
			t.Errorf("nodes = %+v, want single couple-3-5", out.Nodes)
		}
	}
}

func TestLayoutSingleCouple(t *testing.T) {
	in := graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "Alice"), node("2", "Bob")},
		Edges: []graph.TreeEdge{spouse("1", "2"), spouse("2", "1")},
	}
	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 1 || len(out.Edges) != 0 {
		t.Fatalf("got %d nodes and %d edges, want 1 and 0", len(out.Nodes), len(out.Edges))
	}
	n := out.Nodes[0]
	if n.Type != graph.NodeTypeCouple || n.Width != DefaultCoupleWidth || n.Height != DefaultNodeHeight {
		t.Errorf("node = %+v, want %gx%g couple", n, DefaultCoupleWidth, DefaultNodeHeight)
	}
	ps := n.Data.Partners
	if len(ps) != 2 || ps[0].ID != "1" || ps[1].ID != "2" {
		t.Fatalf("partners = %+v, want 1 then 2", ps)
	}
	if ps[0].Position != n.Position {
		t.Errorf("first partner at %+v, want %+v", ps[0].Position, n.Position)
	}
	if want := n.Position.X + n.Width/2; ps[1].Position.X != want {
		t.Errorf("second partner x = %g, want %g", ps[1].Position.X, want)
	}
	if ps[0].Label != "Alice" || n.Data.Label != "Alice & Bob" {
		t.Errorf("labels = %q / %q", ps[0].Label, n.Data.Label)
	}
}

func TestLayoutFamilyTB(t *testing.T) {
	out, err := newEngine().Layout(context.Background(), family(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 2 {
		t.Fatalf("nodes = %+v, want couple and child", out.Nodes)
	}
	if len(out.Edges) != 1 || out.Edges[0].ID != "e-couple-1-2-3" || out.Edges[0].Type != graph.EdgeTypeStep {
		t.Fatalf("edges = %+v, want one step edge e-couple-1-2-3", out.Edges)
	}
	carol, ok := out.NodeByID("3")
	if !ok {
		t.Fatal("Carol missing")
	}
	couple, _ := out.NodeByID("couple-1-2")
	if couple.Position != (graph.Point{}) {
		t.Errorf("couple at %+v, want origin", couple.Position)
	}
	if want := (graph.Point{X: 90, Y: 180}); carol.Position != want {
		t.Errorf("Carol at %+v, want %+v", carol.Position, want)
	}
	if out.Width != 400 || out.Height != 280 {
		t.Errorf("size = %gx%g, want 400x280", out.Width, out.Height)
	}
	if !reflect.DeepEqual(out.Rows, map[int][]string{0: {"couple-1-2"}, 1: {"3"}}) {
		t.Errorf("rows = %v", out.Rows)
	}
}

func TestLayoutFamilyLR(t *testing.T) {
	out, err := newEngine().Layout(context.Background(), family(), Options{Direction: "lr"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Direction != graph.DirectionLR {
		t.Errorf("Direction = %q, want LR", out.Direction)
	}
	carol, _ := out.NodeByID("3")
	if want := (graph.Point{X: 480, Y: 0}); carol.Position != want {
		t.Errorf("Carol at %+v, want %+v", carol.Position, want)
	}
}

func TestLayoutClassifiesByLabel(t *testing.T) {
	in := graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "A"), node("2", "B"), node("3", "C"), node("4", "D")},
		Edges: []graph.TreeEdge{
			{Source: "1", Target: "2", Label: "wife"},
			{Source: "3", Target: "1", Label: "Son"},
			{Source: "4", Target: "3", Label: "Friend"},
		},
	}
	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, e := range out.Edges {
		ids = append(ids, e.ID)
	}
	if !slices.Equal(ids, []string{"e-couple-1-2-3"}) {
		t.Errorf("edges = %v, want [e-couple-1-2-3]", ids)
	}
	if _, ok := out.NodeByID("4"); !ok {
		t.Error("unrelated member missing from layout")
	}
}

func TestLayoutSecondSpouseStaysIndividual(t *testing.T) {
	in := graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "A"), node("2", "B"), node("3", "C")},
		Edges: []graph.TreeEdge{spouse("1", "3"), spouse("1", "2")},
	}
	h, err := BuildHierarchy(in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := dag.NodeIDs(h.Nodes()); !slices.Equal(got, []string{"3", "couple-1-2"}) {
		t.Errorf("units = %v, want [3 couple-1-2]", got)
	}
	if h.EdgeCount() != 0 {
		t.Errorf("hierarchy edges = %d, want 0", h.EdgeCount())
	}

	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Edges) != 1 {
		t.Fatalf("edges = %+v, want the second marriage", out.Edges)
	}
	if e := out.Edges[0]; e.ID != "s-couple-1-2-3" || e.Source != "couple-1-2" || e.Target != "3" || e.Label != "spouse" {
		t.Errorf("marriage edge = %+v", e)
	}
	if _, ok := out.NodeByID("3"); !ok {
		t.Errorf("second spouse missing from layout")
	}
}

func TestLayoutDropsDanglingAndSelfEdges(t *testing.T) {
	in := graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "A"), node("2", "B")},
		Edges: []graph.TreeEdge{
			parent("1", "1", "Father"),
			parent("1", "99", "Father"),
			spouse("2", "42"),
			parent("1", "2", "Father"),
		},
	}
	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 2 || len(out.Edges) != 1 || out.Edges[0].ID != "e-1-2" {
		t.Errorf("layout = %+v", out)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	a := family()
	b := family()
	slices.Reverse(b.Nodes)
	slices.Reverse(b.Edges)
	la, err := newEngine().Layout(context.Background(), a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	lb, err := newEngine().Layout(context.Background(), b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(la, lb) {
		t.Errorf("layouts differ:\n%+v\n%+v", la, lb)
	}
}

func TestLayoutHandlesCycles(t *testing.T) {
	in := graph.TreeData{
		Nodes: []graph.TreeNode{node("1", "A"), node("2", "B"), node("3", "C")},
		Edges: []graph.TreeEdge{parent("1", "2", "Father"), parent("2", "3", "Father"), parent("3", "1", "Father")},
	}
	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 3 || len(out.Edges) != 3 {
		t.Errorf("got %d nodes, %d edges; want 3 and 3", len(out.Nodes), len(out.Edges))
	}
}

func TestLayoutOptionErrors(t *testing.T) {
	tests := []Options{
		{Direction: "BT"},
		{NodeWidth: -1},
		{Sweeps: -2},
	}
	for _, opts := range tests {
		_, err := newEngine().Layout(context.Background(), family(), opts)
		if !errors.Is(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("Layout(%+v) error = %v, want INVALID_REQUEST", opts, err)
		}
	}
}

func TestLayoutMissingPlacement(t *testing.T) {
	placer := PlacerFunc(func(context.Context, *dag.DAG, Options) (map[string]graph.Point, error) {
		return map[string]graph.Point{}, nil
	})
	_, err := NewEngine(placer, log.New(io.Discard)).Layout(context.Background(), family(), Options{})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Layout() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestLayeredPlacerKeepsHierarchy(t *testing.T) {
	h, err := BuildHierarchy(family(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	before := h.NodeCount()
	opts := Options{}
	_ = opts.ValidateAndSetDefaults()
	if _, err := (LayeredPlacer{}).Place(context.Background(), h, opts); err != nil {
		t.Fatal(err)
	}
	if h.NodeCount() != before {
		t.Errorf("NodeCount = %d after Place, want %d", h.NodeCount(), before)
	}
}

func TestLayeredPlacerSpacing(t *testing.T) {
	in := graph.TreeData{Nodes: []graph.TreeNode{node("1", "P"), node("2", "A"), node("3", "B"), node("4", "C")}}
	for _, c := range []string{"2", "3", "4"} {
		in.Edges = append(in.Edges, parent("1", c, "Father"))
	}
	out, err := newEngine().Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	row := out.Rows[1]
	if !slices.Equal(row, []string{"2", "3", "4"}) {
		t.Fatalf("children row = %v", row)
	}
	for i := 1; i < len(row); i++ {
		a, _ := out.NodeByID(row[i-1])
		b, _ := out.NodeByID(row[i])
		if gap := b.Position.X - (a.Position.X + a.Width); gap < DefaultNodeSep-1e-9 {
			t.Errorf("gap between %s and %s = %g, want >= %g", a.ID, b.ID, gap, DefaultNodeSep)
		}
	}
	p, _ := out.NodeByID("1")
	mid, _ := out.NodeByID("3")
	if p.Position.X != mid.Position.X {
		t.Errorf("parent x = %g, want centered over middle child at %g", p.Position.X, mid.Position.X)
	}
}
