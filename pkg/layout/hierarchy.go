package layout

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/graph"
)

var (
	spousalLabels  = []string{"spouse", "husband", "wife"}
	parentalLabels = []string{"father", "mother", "parent", "child", "son", "daughter"}
	childLabels    = []string{"child", "son", "daughter"}
)

type edgeClass int

const (
	edgeInert edgeClass = iota
	edgeSpousal
	edgeParental
)

func classify(e graph.TreeEdge) edgeClass {
	label := strings.ToLower(strings.TrimSpace(e.Label))
	switch {
	case e.IsSpousal || slices.Contains(spousalLabels, label):
		return edgeSpousal
	case e.IsParental || slices.Contains(parentalLabels, label):
		return edgeParental
	}
	return edgeInert
}

// parentChild returns the edge oriented from parent to child.
func parentChild(e graph.TreeEdge) (parent, child string) {
	label := strings.ToLower(e.Label)
	for _, l := range childLabels {
		if strings.Contains(label, l) {
			return e.Target, e.Source
		}
	}
	return e.Source, e.Target
}

// compareMemberIDs orders numeric ids numerically and falls back to string
// order when either side is not a number.
func compareMemberIDs(a, b string) int {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(a, b)
}

// CoupleID names the unit formed by two spouses. The result does not depend
// on argument order.
func CoupleID(a, b string) string {
	if compareMemberIDs(a, b) > 0 {
		a, b = b, a
	}
	return "couple-" + a + "-" + b
}

// hierarchy is the unit graph plus the lookups needed to expand it again.
type hierarchy struct {
	dag     *dag.DAG
	unitOf  map[string]string
	members map[string]graph.TreeNode
	// marriages joins units of spouses that were not paired into one couple.
	// They are drawn but take no part in placement.
	marriages []unitPair
}

type unitPair struct{ from, to string }

// BuildHierarchy collapses couples and returns the unit graph a [Placer]
// consumes. Edges naming unknown nodes and self loops are dropped.
func BuildHierarchy(in graph.TreeData, opts Options) (*dag.DAG, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	h, err := buildHierarchy(in, opts)
	if err != nil {
		return nil, err
	}
	return h.dag, nil
}

func buildHierarchy(in graph.TreeData, opts Options) (*hierarchy, error) {
	members := make(map[string]graph.TreeNode, len(in.Nodes))
	for _, n := range in.Nodes {
		if _, dup := members[n.ID]; !dup {
			members[n.ID] = n
		}
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareMemberIDs)

	spouses := make(map[string][]string)
	type link struct{ parent, child string }
	var links []link
	for _, e := range in.Edges {
		if e.Source == e.Target {
			continue
		}
		if _, ok := members[e.Source]; !ok {
			continue
		}
		if _, ok := members[e.Target]; !ok {
			continue
		}
		switch classify(e) {
		case edgeSpousal:
			spouses[e.Source] = append(spouses[e.Source], e.Target)
			spouses[e.Target] = append(spouses[e.Target], e.Source)
		case edgeParental:
			p, c := parentChild(e)
			links = append(links, link{p, c})
		}
	}

	h := &hierarchy{
		dag:     dag.New(dag.Metadata{"direction": opts.Direction}),
		unitOf:  make(map[string]string, len(ids)),
		members: members,
	}
	for _, id := range ids {
		if _, paired := h.unitOf[id]; paired {
			continue
		}
		var partner string
		cands := spouses[id]
		slices.SortFunc(cands, compareMemberIDs)
		for _, s := range cands {
			if _, taken := h.unitOf[s]; !taken {
				partner = s
				break
			}
		}
		if partner == "" {
			h.unitOf[id] = id
			if err := h.dag.AddNode(dag.Node{
				ID:      id,
				Width:   opts.NodeWidth,
				Height:  opts.NodeHeight,
				Kind:    dag.NodeKindIndividual,
				Members: []int64{parseID(id)},
				Meta:    dag.Metadata{"members": []string{id}, "label": members[id].Data.Label},
			}); err != nil {
				return nil, err
			}
			continue
		}
		cid := CoupleID(id, partner)
		h.unitOf[id] = cid
		h.unitOf[partner] = cid
		if err := h.dag.AddNode(dag.Node{
			ID:      cid,
			Width:   opts.CoupleWidth,
			Height:  opts.NodeHeight,
			Kind:    dag.NodeKindCouple,
			Members: []int64{parseID(id), parseID(partner)},
			Meta: dag.Metadata{
				"members": []string{id, partner},
				"label":   members[id].Data.Label + " & " + members[partner].Data.Label,
			},
		}); err != nil {
			return nil, err
		}
	}

	seen := make(map[unitPair]bool)
	for _, id := range ids {
		cands := spouses[id]
		slices.SortFunc(cands, compareMemberIDs)
		for _, s := range cands {
			if compareMemberIDs(id, s) > 0 {
				continue
			}
			m := unitPair{h.unitOf[id], h.unitOf[s]}
			if m.from == m.to || seen[m] {
				continue
			}
			seen[m] = true
			h.marriages = append(h.marriages, m)
		}
	}

	slices.SortFunc(links, func(a, b link) int {
		if c := compareMemberIDs(a.parent, b.parent); c != 0 {
			return c
		}
		return compareMemberIDs(a.child, b.child)
	})
	for _, l := range links {
		pu, cu := h.unitOf[l.parent], h.unitOf[l.child]
		if pu == cu {
			continue
		}
		if err := h.dag.AddEdge(dag.Edge{From: pu, To: cu}); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// parseID returns the numeric member id, or 0 for non-numeric node ids.
func parseID(id string) int64 {
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}

// memberIDs returns the member node ids of a unit in partner order.
func memberIDs(n *dag.Node) []string {
	ids, _ := n.Meta["members"].([]string)
	return ids
}
