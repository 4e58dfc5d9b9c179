package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

// TreeData returns every member and every edge whose endpoints exist. Edge
// labels are specialised by the target's gender where the relation allows.
func (s *Service) TreeData(ctx context.Context) (graph.TreeData, error) {
	members, err := s.store.ListMembers(ctx, store.MemberFilter{})
	if err != nil {
		return graph.TreeData{}, err
	}
	edges, err := s.store.ListEdges(ctx, store.EdgeFilter{})
	if err != nil {
		return graph.TreeData{}, err
	}
	return BuildTreeData(members, edges), nil
}

// BuildTreeData converts members and edges into tree data. Edges naming an
// unknown member are dropped.
func BuildTreeData(members []family.Member, edges []family.ResolvedEdge) graph.TreeData {
	td := graph.TreeData{
		Nodes: make([]graph.TreeNode, 0, len(members)),
		Edges: make([]graph.TreeEdge, 0, len(edges)),
	}
	byID := make(map[int64]family.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
		td.Nodes = append(td.Nodes, graph.TreeNode{
			ID:   nodeID(m.ID),
			Data: graph.NodeData{Label: m.FullName(), Image: m.ImageURL, Member: m},
		})
	}

	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if _, ok := byID[e.FromMemberID]; !ok {
			continue
		}
		target, ok := byID[e.ToMemberID]
		if !ok {
			continue
		}
		id := fmt.Sprintf("e%d-%d", e.FromMemberID, e.ToMemberID)
		if seen[id] {
			id += "-" + e.Relation.Code
		}
		seen[id] = true
		td.Edges = append(td.Edges, graph.TreeEdge{
			ID:         id,
			Source:     nodeID(e.FromMemberID),
			Target:     nodeID(e.ToMemberID),
			Label:      EdgeLabel(e.Relation, target.Gender),
			Type:       graph.EdgeTypeSmoothStep,
			IsSpousal:  e.Relation.IsSpousal,
			IsParental: e.Relation.IsParental,
		})
	}
	return td
}

// EdgeLabel names an edge from the target's point of view: a CHILD edge to a
// male member reads "Son", a SPOUSE edge to a female member reads "Wife".
// Other relations keep the master label.
func EdgeLabel(r family.RelationMaster, target family.Gender) string {
	switch {
	case r.Code == family.CodeChild && target == family.GenderMale:
		return "Son"
	case r.Code == family.CodeChild && target == family.GenderFemale:
		return "Daughter"
	case r.Code == family.CodeSpouse && target == family.GenderMale:
		return "Husband"
	case r.Code == family.CodeSpouse && target == family.GenderFemale:
		return "Wife"
	}
	return r.Label
}

// Layout positions the current tree and renders the requested formats.
func (s *Service) Layout(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	td, err := s.TreeData(ctx)
	if err != nil {
		return nil, err
	}
	return s.runner.Execute(ctx, td, opts)
}

func nodeID(id int64) string { return strconv.FormatInt(id, 10) }
