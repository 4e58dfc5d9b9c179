package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] for an empty id.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when the id is taken.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when From is missing.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when To is missing.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] when From equals To.
	ErrSelfLoop = errors.New("edge must connect two different nodes")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge names
	// a node that is not in the graph.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveRows is returned by [DAG.ValidateLayers] when an edge
	// skips a row or points upward.
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle exists.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata holds render hints attached to nodes and edges.
type Metadata map[string]any

// NodeKind distinguishes layout units from synthetic nodes.
type NodeKind int

const (
	// NodeKindIndividual is a unit holding one member.
	NodeKindIndividual NodeKind = iota
	// NodeKindCouple is a unit holding two spouses side by side.
	NodeKindCouple
	// NodeKindDummy is a zero-size node inserted on an edge that spans
	// several rows. MasterID names the unit the edge starts at.
	NodeKindDummy
)

// String returns the kind name used in serialized layouts.
func (k NodeKind) String() string {
	switch k {
	case NodeKindCouple:
		return "couple"
	case NodeKindDummy:
		return "dummy"
	default:
		return "individual"
	}
}

// Node is one layout unit of the family hierarchy.
type Node struct {
	ID  string
	Row int // generation, 0 at the top

	// Width and Height are the unit's size before direction is applied.
	Width  float64
	Height float64

	Kind NodeKind
	// Members lists the member ids the unit stands for, ascending.
	Members  []int64
	MasterID string
	Meta     Metadata
}

// IsDummy reports whether the node was inserted by edge subdivision.
func (n Node) IsDummy() bool { return n.Kind == NodeKindDummy }

// IsCouple reports whether the node merges two spouses.
func (n Node) IsCouple() bool { return n.Kind == NodeKindCouple }

// Edge connects a parent unit to a child unit.
type Edge struct {
	From string
	To   string
	Meta Metadata
}

// DAG is the unit hierarchy handed to a placer. Nodes are indexed by row so
// layered algorithms can walk generation by generation.
//
// Iteration helpers return nodes sorted by id so results never depend on map
// order. A DAG is not safe for concurrent mutation.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	rows     map[int][]*Node
	meta     Metadata
}

// New creates an empty graph. meta may be nil.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
		meta:     meta,
	}
}

// Clone returns a deep copy that can be transformed without touching d.
func (d *DAG) Clone() *DAG {
	c := New(maps.Clone(d.meta))
	for _, n := range d.Nodes() {
		cp := *n
		cp.Members = slices.Clone(n.Members)
		cp.Meta = maps.Clone(n.Meta)
		_ = c.AddNode(cp)
	}
	for _, e := range d.edges {
		_ = c.AddEdge(Edge{From: e.From, To: e.To, Meta: maps.Clone(e.Meta)})
	}
	for row, nodes := range d.rows {
		c.SetRowOrder(row, NodeIDs(nodes))
	}
	return c
}

// Meta returns the graph-level metadata.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode inserts n and indexes it by row.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// AddEdge connects two existing nodes. Adding an edge that already exists is
// a no-op, so the hierarchy holds at most one edge per (parent, child) pair.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	if d.HasEdge(e.From, e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// HasEdge reports whether from->to exists.
func (d *DAG) HasEdge(from, to string) bool {
	return slices.Contains(d.outgoing[from], to)
}

// RemoveEdge deletes from->to if present.
func (d *DAG) RemoveEdge(from, to string) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
}

// SetRows moves nodes to new rows and rebuilds the row index. Nodes missing
// from rows keep their row.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, n := range d.Nodes() {
		if r, ok := rows[n.ID]; ok {
			n.Row = r
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// SetRowOrder replaces the left-to-right order of one row. ids must be a
// permutation of the row's node ids.
func (d *DAG) SetRowOrder(row int, ids []string) {
	ordered := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.nodes[id]; ok && n.Row == row {
			ordered = append(ordered, n)
		}
	}
	d.rows[row] = ordered
}

// Nodes returns every node sorted by id.
func (d *DAG) Nodes() []*Node {
	out := slices.Collect(maps.Values(d.nodes))
	slices.SortFunc(out, func(a, b *Node) int { return compareIDs(a.ID, b.ID) })
	return out
}

// Edges returns a copy of the edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of id's outgoing edges. Do not modify.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the sources of id's incoming edges. Do not modify.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges of id.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges of id.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node looks a node up by id.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the row in its current left-to-right order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowCount returns the number of non-empty rows.
func (d *DAG) RowCount() int { return len(d.rows) }

// RowIDs returns the row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// MaxRow returns the deepest row, or 0 for an empty graph.
func (d *DAG) MaxRow() int {
	ids := d.RowIDs()
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1]
}

// Sources returns the nodes without parents, sorted by id.
func (d *DAG) Sources() []*Node {
	var out []*Node
	for _, n := range d.Nodes() {
		if len(d.incoming[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every edge has both endpoints and that the graph is
// acyclic.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if _, ok := d.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := d.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return d.detectCycles()
}

// ValidateLayers additionally requires every edge to go exactly one row down.
// It holds after layering and subdivision.
func (d *DAG) ValidateLayers() error {
	if err := d.Validate(); err != nil {
		return err
	}
	for _, e := range d.edges {
		if d.nodes[e.To].Row != d.nodes[e.From].Row+1 {
			return ErrNonConsecutiveRows
		}
	}
	return nil
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(d.nodes))
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, c := range d.outgoing[id] {
			switch color[c] {
			case gray:
				return true
			case white:
				if visit(c) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for _, n := range d.Nodes() {
		if color[n.ID] == white && visit(n.ID) {
			return ErrGraphHasCycle
		}
	}
	return nil
}

// PosMap maps each id to its index in ids.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ids of nodes, keeping order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// compareIDs orders ids by length first so "m2" sorts before "m10".
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
