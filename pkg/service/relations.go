package service

import (
	"context"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// MemberEdge is an outgoing edge with its target member resolved.
type MemberEdge struct {
	family.ResolvedEdge
	ToMember family.Summary `json:"toMember"`
}

// MemberEdges lists the outgoing edges of memberID in edge id order. Edges
// whose target no longer exists are skipped.
func (s *Service) MemberEdges(ctx context.Context, memberID int64) ([]MemberEdge, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	edges, err := s.store.ListEdges(ctx, store.EdgeFilter{FromID: memberID})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(edges))
	for i, e := range edges {
		ids[i] = e.ToMemberID
	}
	targets, err := s.store.GetMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]family.Member, len(targets))
	for _, m := range targets {
		byID[m.ID] = m
	}

	out := make([]MemberEdge, 0, len(edges))
	for _, e := range edges {
		to, ok := byID[e.ToMemberID]
		if !ok {
			s.logger.Debug("skipping dangling edge", "id", e.ID, "to", e.ToMemberID)
			continue
		}
		out = append(out, MemberEdge{ResolvedEdge: e, ToMember: to.Summary()})
	}
	return out, nil
}

// Link records from -[code]-> to together with its mirror.
func (s *Service) Link(ctx context.Context, fromID, toID int64, code string) (family.Edge, error) {
	if err := errors.ValidateRelationCode(code); err != nil {
		return family.Edge{}, err
	}
	return s.normalizer.Create(ctx, fromID, toID, code)
}

// Unlink removes an edge and its mirror.
func (s *Service) Unlink(ctx context.Context, edgeID int64) error {
	return s.normalizer.Delete(ctx, edgeID)
}

// Masters lists every relation master.
func (s *Service) Masters(ctx context.Context) ([]family.RelationMaster, error) {
	return s.store.ListRelationMasters(ctx)
}

// CreateMaster stores a new relation master.
func (s *Service) CreateMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	r.ID = 0
	return s.store.CreateRelationMaster(ctx, r)
}

// UpdateMaster replaces relation master id.
func (s *Service) UpdateMaster(ctx context.Context, id int64, r family.RelationMaster) (family.RelationMaster, error) {
	r.ID = id
	return s.store.UpdateRelationMaster(ctx, r)
}

// DeleteMaster removes an unused relation master.
func (s *Service) DeleteMaster(ctx context.Context, id int64) error {
	return s.store.DeleteRelationMaster(ctx, id)
}

// InstallMasters creates the default relation masters, updating any that
// already exist by code. It returns how many masters were written.
func (s *Service) InstallMasters(ctx context.Context) (int, error) {
	defaults := family.DefaultMasters()
	for _, r := range defaults {
		existing, err := s.store.GetRelationMaster(ctx, r.Code)
		switch {
		case errors.Is(err, errors.ErrCodeNotFound):
			_, err = s.store.CreateRelationMaster(ctx, r)
		case err == nil:
			r.ID = existing.ID
			_, err = s.store.UpdateRelationMaster(ctx, r)
		}
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInternal, err, "install relation %s", r.Code)
		}
	}
	return len(defaults), nil
}
