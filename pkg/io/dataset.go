package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Version is the dataset format version written by this package.
const Version = 1

// Dataset is a full snapshot of a store.
type Dataset struct {
	Version int                     `json:"version"`
	Masters []family.RelationMaster `json:"masters"`
	Members []family.Member         `json:"members"`
	Edges   []family.Edge           `json:"edges"`
}

// Counts reports how many records a [Load] wrote.
type Counts struct {
	Masters int `json:"masters"`
	Members int `json:"members"`
	Edges   int `json:"edges"`
}

// Export snapshots s.
func Export(ctx context.Context, s store.Store) (Dataset, error) {
	masters, err := s.ListRelationMasters(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("export masters: %w", err)
	}
	members, err := s.ListMembers(ctx, store.MemberFilter{})
	if err != nil {
		return Dataset{}, fmt.Errorf("export members: %w", err)
	}
	resolved, err := s.ListEdges(ctx, store.EdgeFilter{})
	if err != nil {
		return Dataset{}, fmt.Errorf("export edges: %w", err)
	}
	d := Dataset{
		Version: Version,
		Masters: masters,
		Members: members,
		Edges:   make([]family.Edge, len(resolved)),
	}
	for i, e := range resolved {
		d.Edges[i] = e.Edge
	}
	if d.Masters == nil {
		d.Masters = []family.RelationMaster{}
	}
	if d.Members == nil {
		d.Members = []family.Member{}
	}
	return d, nil
}

// Validate checks that d is self-consistent.
func (d Dataset) Validate() error {
	if d.Version != Version {
		return errors.New(errors.ErrCodeUnsupported, "dataset version %d (want %d)", d.Version, Version)
	}
	masters := make(map[int64]bool, len(d.Masters))
	codes := make(map[string]bool, len(d.Masters))
	for _, r := range d.Masters {
		if err := r.Validate(); err != nil {
			return err
		}
		if masters[r.ID] || codes[r.Code] {
			return errors.New(errors.ErrCodeInvalidRequest, "duplicate relation %d (%s)", r.ID, r.Code)
		}
		masters[r.ID], codes[r.Code] = true, true
	}
	members := make(map[int64]bool, len(d.Members))
	for _, m := range d.Members {
		if m.ID <= 0 {
			return errors.New(errors.ErrCodeInvalidRequest, "member %q has no id", m.FullName())
		}
		if members[m.ID] {
			return errors.New(errors.ErrCodeInvalidRequest, "duplicate member %d", m.ID)
		}
		if err := m.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, err, "member %d", m.ID)
		}
		members[m.ID] = true
	}
	edges := make(map[int64]bool, len(d.Edges))
	for _, e := range d.Edges {
		switch {
		case edges[e.ID]:
			return errors.New(errors.ErrCodeInvalidRequest, "duplicate edge %d", e.ID)
		case e.FromMemberID == e.ToMemberID:
			return errors.New(errors.ErrCodeInvalidRequest, "edge %d relates member %d to itself", e.ID, e.FromMemberID)
		case !members[e.FromMemberID] || !members[e.ToMemberID]:
			return errors.New(errors.ErrCodeInvalidRequest, "edge %d names unknown member", e.ID)
		case !masters[e.RelationID]:
			return errors.New(errors.ErrCodeInvalidRequest, "edge %d names unknown relation %d", e.ID, e.RelationID)
		}
		if e.ID != 0 {
			edges[e.ID] = true
		}
	}
	return nil
}

// Load validates d and writes it into s. Masters whose code already exists
// are reused; members and edges keep their ids.
func Load(ctx context.Context, s store.Store, d Dataset) (Counts, error) {
	if err := d.Validate(); err != nil {
		return Counts{}, err
	}
	var c Counts
	relation := make(map[int64]int64, len(d.Masters))
	for _, r := range d.Masters {
		existing, err := s.GetRelationMaster(ctx, r.Code)
		if err == nil {
			relation[r.ID] = existing.ID
			continue
		}
		if !errors.Is(err, errors.ErrCodeNotFound) {
			return c, err
		}
		want := r.ID
		r.ID = 0
		created, err := s.CreateRelationMaster(ctx, r)
		if err != nil {
			return c, fmt.Errorf("load relation %s: %w", r.Code, err)
		}
		relation[want] = created.ID
		c.Masters++
	}
	for _, m := range d.Members {
		if _, err := s.CreateMember(ctx, m); err != nil {
			return c, fmt.Errorf("load member %d: %w", m.ID, err)
		}
		c.Members++
	}
	for _, e := range d.Edges {
		e.RelationID = relation[e.RelationID]
		if _, err := s.CreateEdge(ctx, e); err != nil {
			return c, fmt.Errorf("load edge %d: %w", e.ID, err)
		}
		c.Edges++
	}
	return c, nil
}

// WriteJSON encodes d as indented JSON.
func WriteJSON(d Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes and validates a dataset. It does not close r.
func ReadJSON(r io.Reader) (Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Dataset{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode dataset")
	}
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// ExportJSON snapshots s into a JSON file at path.
func ExportJSON(ctx context.Context, s store.Store, path string) (Dataset, error) {
	d, err := Export(ctx, s)
	if err != nil {
		return Dataset{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(d, f); err != nil {
		f.Close()
		return Dataset{}, err
	}
	if err := f.Close(); err != nil {
		return Dataset{}, fmt.Errorf("close %s: %w", path, err)
	}
	return d, nil
}

// ImportJSON reads a dataset file and loads it into s.
func ImportJSON(ctx context.Context, s store.Store, path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := ReadJSON(f)
	if err != nil {
		return Counts{}, fmt.Errorf("%s: %w", path, err)
	}
	return Load(ctx, s, d)
}
