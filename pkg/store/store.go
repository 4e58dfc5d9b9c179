// Package store defines the persistence boundary for members, relation masters
// and edges.
//
// The engines in kintree never talk to a database directly. They read and
// write through [Store], which has one implementation per backend:
//
//   - memory: process-local maps, used by tests and the default CLI
//   - sqlstore: SQLite (modernc.org/sqlite) and Postgres (pgx)
//   - mongostore: MongoDB
//
// Every implementation enforces the same contract:
//
//   - (from, to, relation) is unique; [Store.CreateEdge] returns the existing
//     edge instead of inserting a duplicate
//   - deleting a member deletes every edge that references it
//   - edges are returned in ascending id order
//   - unknown ids yield an error with code NOT_FOUND
package store

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/kintree/pkg/family"
)

// Store is the persistence collaborator used by the normalizer, the engines
// and the HTTP API.
type Store interface {
	ListMembers(ctx context.Context, f MemberFilter) ([]family.Member, error)
	CountMembers(ctx context.Context, f MemberFilter) (int, error)
	GetMember(ctx context.Context, id int64) (family.Member, error)
	// GetMembers returns the members that exist among ids, in ascending id
	// order. Missing ids are skipped.
	GetMembers(ctx context.Context, ids []int64) ([]family.Member, error)
	CreateMember(ctx context.Context, m family.Member) (family.Member, error)
	UpdateMember(ctx context.Context, m family.Member) (family.Member, error)
	DeleteMember(ctx context.Context, id int64) error

	ListEdges(ctx context.Context, f EdgeFilter) ([]family.ResolvedEdge, error)
	GetEdge(ctx context.Context, id int64) (family.ResolvedEdge, error)
	CreateEdge(ctx context.Context, e family.Edge) (family.Edge, error)
	DeleteEdge(ctx context.Context, id int64) error
	// DeleteEdgesMatching removes every edge with the exact triple and
	// reports how many were removed.
	DeleteEdgesMatching(ctx context.Context, from, to, relationID int64) (int, error)

	ListRelationMasters(ctx context.Context) ([]family.RelationMaster, error)
	GetRelationMaster(ctx context.Context, code string) (family.RelationMaster, error)
	GetRelationMasterByID(ctx context.Context, id int64) (family.RelationMaster, error)
	CreateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error)
	UpdateRelationMaster(ctx context.Context, r family.RelationMaster) (family.RelationMaster, error)
	// DeleteRelationMaster fails with CONFLICT while edges still use it.
	DeleteRelationMaster(ctx context.Context, id int64) error

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// MemberOrder selects the sort order of [Store.ListMembers].
type MemberOrder int

const (
	// OrderByID sorts by ascending id.
	OrderByID MemberOrder = iota
	// OrderByCreatedDesc sorts newest first, ties broken by descending id.
	OrderByCreatedDesc
	// OrderByUpdatedDesc sorts most recently updated first, ties broken by descending id.
	OrderByUpdatedDesc
)

// MemberFilter narrows and pages a member listing.
type MemberFilter struct {
	// Search is split on whitespace. Every term must be a case-insensitive
	// substring of the first or the last name.
	Search string
	Order  MemberOrder
	Offset int
	// Limit of zero means no limit.
	Limit int
}

// Terms returns the lower-cased search terms.
func (f MemberFilter) Terms() []string {
	return SearchTerms(f.Search)
}

// SearchTerms splits a query into lower-cased terms.
func SearchTerms(q string) []string {
	fields := strings.Fields(q)
	for i, s := range fields {
		fields[i] = strings.ToLower(s)
	}
	return fields
}

// MatchesTerms reports whether every term matches the first or last name.
func MatchesTerms(m family.Member, terms []string) bool {
	first := strings.ToLower(m.FirstName)
	last := strings.ToLower(m.LastName)
	for _, t := range terms {
		if !strings.Contains(first, t) && !strings.Contains(last, t) {
			return false
		}
	}
	return true
}

// EdgeFilter selects edges. Zero-valued fields do not constrain the result.
type EdgeFilter struct {
	FromID       int64
	ToID         int64
	RelationID   int64
	RelationCode string
}

// Exact returns a filter matching one (from, to, relation) triple.
func Exact(from, to, relationID int64) EdgeFilter {
	return EdgeFilter{FromID: from, ToID: to, RelationID: relationID}
}

// Match reports whether e satisfies the filter.
func (f EdgeFilter) Match(e family.ResolvedEdge) bool {
	if f.FromID != 0 && e.FromMemberID != f.FromID {
		return false
	}
	if f.ToID != 0 && e.ToMemberID != f.ToID {
		return false
	}
	if f.RelationID != 0 && e.RelationID != f.RelationID {
		return false
	}
	if f.RelationCode != "" && e.Relation.Code != f.RelationCode {
		return false
	}
	return true
}

// Stats summarises store contents for the dashboard.
type Stats struct {
	Members      int `json:"members"`
	Edges        int `json:"edges"`
	SpousalEdges int `json:"spousalEdges"`
}

// SortMembers orders members in place according to order.
func SortMembers(members []family.Member, order MemberOrder) {
	slices.SortStableFunc(members, func(a, b family.Member) int {
		switch order {
		case OrderByCreatedDesc:
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		case OrderByUpdatedDesc:
			if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		default:
			return cmp.Compare(a.ID, b.ID)
		}
	})
}

// Window applies offset and limit to a slice.
func Window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
