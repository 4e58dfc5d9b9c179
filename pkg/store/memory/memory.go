// Package memory implements store.Store with process-local maps.
//
// It is the reference implementation of the store contract and the test double
// for every engine, service and API test in the repository.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Store is an in-memory store.Store. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	members   map[int64]family.Member
	masters   map[int64]family.RelationMaster
	edges     map[int64]family.Edge
	edgeIndex map[edgeKey]int64

	nextMember int64
	nextMaster int64
	nextEdge   int64

	now func() time.Time
}

type edgeKey struct{ from, to, rel int64 }

// New creates an empty store.
func New() *Store {
	return &Store{
		members:   make(map[int64]family.Member),
		masters:   make(map[int64]family.RelationMaster),
		edges:     make(map[int64]family.Edge),
		edgeIndex: make(map[edgeKey]int64),
		now:       time.Now,
	}
}

// WithClock replaces the timestamp source. Used by tests that need stable
// CreatedAt and UpdatedAt values.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// ListMembers returns members matching f.
func (s *Store) ListMembers(_ context.Context, f store.MemberFilter) ([]family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filterMembers(f)
	store.SortMembers(out, f.Order)
	return store.Window(out, f.Offset, f.Limit), nil
}

// CountMembers counts members matching f, ignoring paging.
func (s *Store) CountMembers(_ context.Context, f store.MemberFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterMembers(f)), nil
}

func (s *Store) filterMembers(f store.MemberFilter) []family.Member {
	terms := f.Terms()
	out := make([]family.Member, 0, len(s.members))
	for _, m := range s.members {
		if store.MatchesTerms(m, terms) {
			out = append(out, m)
		}
	}
	return out
}

// GetMember returns one member.
func (s *Store) GetMember(_ context.Context, id int64) (family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return family.Member{}, errors.NotFound("member", id)
	}
	return m, nil
}

// GetMembers returns the existing members among ids in ascending id order.
func (s *Store) GetMembers(_ context.Context, ids []int64) ([]family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]bool, len(ids))
	out := make([]family.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, m)
		}
	}
	store.SortMembers(out, store.OrderByID)
	return out, nil
}

// CreateMember stores m under a fresh id. A non-zero m.ID is honoured so
// imports keep their ids.
func (s *Store) CreateMember(_ context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.nextMember++
		m.ID = s.nextMember
	} else {
		if _, exists := s.members[m.ID]; exists {
			return family.Member{}, errors.New(errors.ErrCodeConflict, "member %d already exists", m.ID)
		}
		s.nextMember = max(s.nextMember, m.ID)
	}
	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	s.members[m.ID] = m
	return m, nil
}

// UpdateMember replaces the editable fields of an existing member.
func (s *Store) UpdateMember(_ context.Context, m family.Member) (family.Member, error) {
	if err := m.Validate(); err != nil {
		return family.Member{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.members[m.ID]
	if !ok {
		return family.Member{}, errors.NotFound("member", m.ID)
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = s.now()
	s.members[m.ID] = m
	return m, nil
}

// DeleteMember removes the member and every edge that references it.
func (s *Store) DeleteMember(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return errors.NotFound("member", id)
	}
	delete(s.members, id)
	for eid, e := range s.edges {
		if e.FromMemberID == id || e.ToMemberID == id {
			s.removeEdge(eid)
		}
	}
	return nil
}

// ListEdges returns matching edges in ascending id order.
func (s *Store) ListEdges(_ context.Context, f store.EdgeFilter) ([]family.ResolvedEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []family.ResolvedEdge
	for _, id := range slices.Sorted(maps.Keys(s.edges)) {
		re := s.resolve(s.edges[id])
		if f.Match(re) {
			out = append(out, re)
		}
	}
	return out, nil
}

// GetEdge returns one edge with its relation master.
func (s *Store) GetEdge(_ context.Context, id int64) (family.ResolvedEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	if !ok {
		return family.ResolvedEdge{}, errors.NotFound("edge", id)
	}
	return s.resolve(e), nil
}

// CreateEdge inserts e unless the same triple exists, in which case the
// existing edge is returned.
func (s *Store) CreateEdge(_ context.Context, e family.Edge) (family.Edge, error) {
	if e.FromMemberID == e.ToMemberID {
		return family.Edge{}, errors.New(errors.ErrCodeInvalidRequest, "cannot relate member %d to itself", e.FromMemberID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[e.FromMemberID]; !ok {
		return family.Edge{}, errors.NotFound("member", e.FromMemberID)
	}
	if _, ok := s.members[e.ToMemberID]; !ok {
		return family.Edge{}, errors.NotFound("member", e.ToMemberID)
	}
	if _, ok := s.masters[e.RelationID]; !ok {
		return family.Edge{}, errors.NotFound("relation", e.RelationID)
	}
	key := edgeKey{e.FromMemberID, e.ToMemberID, e.RelationID}
	if id, ok := s.edgeIndex[key]; ok {
		return s.edges[id], nil
	}
	if e.ID == 0 {
		s.nextEdge++
		e.ID = s.nextEdge
	} else {
		if _, exists := s.edges[e.ID]; exists {
			return family.Edge{}, errors.New(errors.ErrCodeConflict, "edge %d already exists", e.ID)
		}
		s.nextEdge = max(s.nextEdge, e.ID)
	}
	s.edges[e.ID] = e
	s.edgeIndex[key] = e.ID
	return e, nil
}

// DeleteEdge removes one edge.
func (s *Store) DeleteEdge(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[id]; !ok {
		return errors.NotFound("edge", id)
	}
	s.removeEdge(id)
	return nil
}

// DeleteEdgesMatching removes the edge with the given triple, if any.
func (s *Store) DeleteEdgesMatching(_ context.Context, from, to, relationID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.edgeIndex[edgeKey{from, to, relationID}]
	if !ok {
		return 0, nil
	}
	s.removeEdge(id)
	return 1, nil
}

func (s *Store) removeEdge(id int64) {
	e := s.edges[id]
	delete(s.edges, id)
	delete(s.edgeIndex, edgeKey{e.FromMemberID, e.ToMemberID, e.RelationID})
}

func (s *Store) resolve(e family.Edge) family.ResolvedEdge {
	return family.ResolvedEdge{Edge: e, Relation: s.masters[e.RelationID]}
}

// ListRelationMasters returns all masters in ascending id order.
func (s *Store) ListRelationMasters(_ context.Context) ([]family.RelationMaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]family.RelationMaster, 0, len(s.masters))
	for _, id := range slices.Sorted(maps.Keys(s.masters)) {
		out = append(out, s.masters[id])
	}
	return out, nil
}

// GetRelationMaster looks a master up by code.
func (s *Store) GetRelationMaster(_ context.Context, code string) (family.RelationMaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.masterByCode(code); ok {
		return r, nil
	}
	return family.RelationMaster{}, errors.NotFound("relation", code)
}

// GetRelationMasterByID looks a master up by id.
func (s *Store) GetRelationMasterByID(_ context.Context, id int64) (family.RelationMaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.masters[id]
	if !ok {
		return family.RelationMaster{}, errors.NotFound("relation", id)
	}
	return r, nil
}

func (s *Store) masterByCode(code string) (family.RelationMaster, bool) {
	for _, r := range s.masters {
		if r.Code == code {
			return r, true
		}
	}
	return family.RelationMaster{}, false
}

// CreateRelationMaster adds a master. Codes are unique.
func (s *Store) CreateRelationMaster(_ context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.masterByCode(r.Code); exists {
		return family.RelationMaster{}, errors.New(errors.ErrCodeConflict, "relation %s already exists", r.Code)
	}
	if r.ID == 0 {
		s.nextMaster++
		r.ID = s.nextMaster
	} else {
		if _, exists := s.masters[r.ID]; exists {
			return family.RelationMaster{}, errors.New(errors.ErrCodeConflict, "relation %d already exists", r.ID)
		}
		s.nextMaster = max(s.nextMaster, r.ID)
	}
	s.masters[r.ID] = r
	return r, nil
}

// UpdateRelationMaster replaces an existing master.
func (s *Store) UpdateRelationMaster(_ context.Context, r family.RelationMaster) (family.RelationMaster, error) {
	if err := r.Validate(); err != nil {
		return family.RelationMaster{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.masters[r.ID]; !ok {
		return family.RelationMaster{}, errors.NotFound("relation", r.ID)
	}
	if other, exists := s.masterByCode(r.Code); exists && other.ID != r.ID {
		return family.RelationMaster{}, errors.New(errors.ErrCodeConflict, "relation %s already exists", r.Code)
	}
	s.masters[r.ID] = r
	return r, nil
}

// DeleteRelationMaster removes an unused master.
func (s *Store) DeleteRelationMaster(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.masters[id]
	if !ok {
		return errors.NotFound("relation", id)
	}
	for _, e := range s.edges {
		if e.RelationID == id {
			return errors.New(errors.ErrCodeConflict, "relation %s is used by edge %d", r.Code, e.ID)
		}
	}
	delete(s.masters, id)
	return nil
}

// Stats counts members, edges and spousal edges.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := store.Stats{Members: len(s.members), Edges: len(s.edges)}
	for _, e := range s.edges {
		if s.masters[e.RelationID].IsSpousal {
			st.SpousalEdges++
		}
	}
	return st, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
