package service

import (
	"context"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// RecentMembers is the number of members listed on the dashboard.
const RecentMembers = 5

// Dashboard summarises the tree. TotalFamilies counts couples, each stored
// as a mirrored pair of spousal edges.
type Dashboard struct {
	TotalMembers       int             `json:"totalMembers"`
	TotalRelationships int             `json:"totalRelationships"`
	TotalFamilies      int             `json:"totalFamilies"`
	RecentMembers      []family.Member `json:"recentMembers"`
}

// Dashboard returns store totals and the most recently updated members.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.store.ListMembers(ctx, store.MemberFilter{Order: store.OrderByUpdatedDesc, Limit: RecentMembers})
	if err != nil {
		return Dashboard{}, err
	}
	if recent == nil {
		recent = []family.Member{}
	}
	return Dashboard{
		TotalMembers:       st.Members,
		TotalRelationships: st.Edges,
		TotalFamilies:      (st.SpousalEdges + 1) / 2,
		RecentMembers:      recent,
	}, nil
}
