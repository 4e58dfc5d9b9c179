package service

import (
	"context"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/inference"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/treesort"
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListParams selects one page of members. Zero Page and Limit take the
// defaults.
type ListParams struct {
	Search string
	Page   int
	Limit  int
}

func (p *ListParams) setDefaults() error {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return errors.ValidatePage(p.Page, p.Limit)
}

// Page is one page of a listing.
type Page[T any] struct {
	Data []T           `json:"data"`
	Meta treesort.Meta `json:"meta"`
}

// ListMembers returns one page of members, each with its family.
//
// With a search query, matches are ordered newest first. Without one, the
// whole tree is ordered by [treesort.Order] so a page walks family by family.
func (s *Service) ListMembers(ctx context.Context, p ListParams) (Page[family.WithFamily], error) {
	if err := p.setDefaults(); err != nil {
		return Page[family.WithFamily]{}, err
	}
	if len(store.SearchTerms(p.Search)) > 0 {
		return s.searchMembers(ctx, p)
	}
	return s.treeMembers(ctx, p)
}

func (s *Service) searchMembers(ctx context.Context, p ListParams) (Page[family.WithFamily], error) {
	f := store.MemberFilter{
		Search: p.Search,
		Order:  store.OrderByCreatedDesc,
		Offset: (p.Page - 1) * p.Limit,
		Limit:  p.Limit,
	}
	total, err := s.store.CountMembers(ctx, f)
	if err != nil {
		return Page[family.WithFamily]{}, err
	}
	members, err := s.store.ListMembers(ctx, f)
	if err != nil {
		return Page[family.WithFamily]{}, err
	}
	out := make([]family.WithFamily, 0, len(members))
	for _, m := range members {
		n, err := inference.Build(ctx, s.store, m.ID)
		if err != nil {
			return Page[family.WithFamily]{}, err
		}
		out = append(out, family.WithFamily{Member: m, View: inference.Resolve(m.ID, n)})
	}
	return Page[family.WithFamily]{Data: out, Meta: treesort.NewMeta(total, p.Page, p.Limit)}, nil
}

func (s *Service) treeMembers(ctx context.Context, p ListParams) (Page[family.WithFamily], error) {
	members, err := s.store.ListMembers(ctx, store.MemberFilter{})
	if err != nil {
		return Page[family.WithFamily]{}, err
	}
	edges, err := s.store.ListEdges(ctx, store.EdgeFilter{})
	if err != nil {
		return Page[family.WithFamily]{}, err
	}
	nodes := make([]treesort.Node, len(members))
	for i, m := range members {
		nodes[i] = treesort.NodeOf(m)
	}
	ids, meta := treesort.Page(treesort.Order(nodes, edges), p.Page, p.Limit)

	// Every page entry resolves against the loaded snapshot.
	n := inference.NewNeighborhood(members, edges)
	page := treesort.Reorder(ids, members, func(m family.Member) int64 { return m.ID })
	out := make([]family.WithFamily, len(page))
	for i, m := range page {
		out[i] = family.WithFamily{Member: m, View: inference.Resolve(m.ID, n)}
	}
	return Page[family.WithFamily]{Data: out, Meta: meta}, nil
}

// GetMember returns one member.
func (s *Service) GetMember(ctx context.Context, id int64) (family.Member, error) {
	return s.store.GetMember(ctx, id)
}

// Family returns a member with its inferred spouses, children and parents.
func (s *Service) Family(ctx context.Context, id int64) (family.WithFamily, error) {
	n, err := inference.Build(ctx, s.store, id)
	if err != nil {
		return family.WithFamily{}, err
	}
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return family.WithFamily{}, err
	}
	return family.WithFamily{Member: m, View: inference.Resolve(id, n)}, nil
}

// CreateMember validates and stores a new member. Any id on m is ignored.
func (s *Service) CreateMember(ctx context.Context, m family.Member) (family.Member, error) {
	m.ID = 0
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	created, err := s.store.CreateMember(ctx, m)
	if err != nil {
		return family.Member{}, err
	}
	s.logger.Debug("member created", "id", created.ID, "name", created.FullName())
	return created, nil
}

// UpdateMember replaces every editable field of member id.
func (s *Service) UpdateMember(ctx context.Context, id int64, m family.Member) (family.Member, error) {
	m.ID = id
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	return s.store.UpdateMember(ctx, m)
}

// DeleteMember removes a member and every edge touching it.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("member deleted", "id", id)
	return nil
}
