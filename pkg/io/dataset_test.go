package io

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

func populated(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	rel := storetest.Seed(t, s)
	alice := storetest.AddMember(t, s, "Alice", "Smith", family.GenderFemale)
	bob := storetest.AddMember(t, s, "Bob", "Smith", family.GenderMale)
	for _, e := range []family.Edge{
		{FromMemberID: bob.ID, ToMemberID: alice.ID, RelationID: rel[family.CodeSpouse].ID},
		{FromMemberID: alice.ID, ToMemberID: bob.ID, RelationID: rel[family.CodeSpouse].ID},
	} {
		if _, err := s.CreateEdge(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestExportLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := populated(t)
	d, err := Export(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if d.Version != Version || len(d.Members) != 2 || len(d.Edges) != 2 || len(d.Masters) != 4 {
		t.Fatalf("Export = %d masters, %d members, %d edges", len(d.Masters), len(d.Members), len(d.Edges))
	}

	var buf bytes.Buffer
	if err := WriteJSON(d, &buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}

	dst := memory.New()
	c, err := Load(ctx, dst, back)
	if err != nil {
		t.Fatal(err)
	}
	if c != (Counts{Masters: 4, Members: 2, Edges: 2}) {
		t.Errorf("Counts = %+v", c)
	}
	m, err := dst.GetMember(ctx, d.Members[1].ID)
	if err != nil || m.FirstName != "Bob" {
		t.Errorf("GetMember(%d) = %+v, %v", d.Members[1].ID, m, err)
	}
	if !m.CreatedAt.Equal(d.Members[1].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, d.Members[1].CreatedAt)
	}
	edges, _ := dst.ListEdges(ctx, store.EdgeFilter{RelationCode: family.CodeSpouse})
	if len(edges) != 2 || edges[0].ID != d.Edges[0].ID {
		t.Errorf("edges = %+v", edges)
	}
}

func TestLoadReusesMastersByCode(t *testing.T) {
	ctx := context.Background()
	d, err := Export(ctx, populated(t))
	if err != nil {
		t.Fatal(err)
	}
	// Shift master ids so they differ from the target store.
	for i := range d.Masters {
		d.Masters[i].ID += 100
	}
	for i := range d.Edges {
		d.Edges[i].RelationID += 100
	}

	dst := memory.New()
	rel := storetest.Seed(t, dst)
	c, err := Load(ctx, dst, d)
	if err != nil {
		t.Fatal(err)
	}
	if c.Masters != 0 {
		t.Errorf("Masters = %d, want 0", c.Masters)
	}
	edges, _ := dst.ListEdges(ctx, store.EdgeFilter{})
	for _, e := range edges {
		if e.RelationID != rel[family.CodeSpouse].ID {
			t.Errorf("edge %d relation = %d, want %d", e.ID, e.RelationID, rel[family.CodeSpouse].ID)
		}
	}
}

func TestLoadConflict(t *testing.T) {
	ctx := context.Background()
	s := populated(t)
	d, err := Export(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(ctx, s, d); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("Load(into source) error = %v, want CONFLICT", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Dataset {
		return Dataset{
			Version: Version,
			Masters: []family.RelationMaster{{ID: 1, Code: "SPOUSE", Label: "Spouse", IsBidirectional: true}},
			Members: []family.Member{{ID: 1, FirstName: "A", LastName: "B"}, {ID: 2, FirstName: "C", LastName: "D"}},
			Edges:   []family.Edge{{ID: 1, FromMemberID: 1, ToMemberID: 2, RelationID: 1}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Dataset)
		code   errors.Code
	}{
		{"version", func(d *Dataset) { d.Version = 9 }, errors.ErrCodeUnsupported},
		{"duplicate member", func(d *Dataset) { d.Members[1].ID = 1 }, errors.ErrCodeInvalidRequest},
		{"missing member id", func(d *Dataset) { d.Members[0].ID = 0 }, errors.ErrCodeInvalidRequest},
		{"blank name", func(d *Dataset) { d.Members[0].FirstName = "" }, errors.ErrCodeInvalidRequest},
		{"self loop", func(d *Dataset) { d.Edges[0].ToMemberID = 1 }, errors.ErrCodeInvalidRequest},
		{"unknown member", func(d *Dataset) { d.Edges[0].ToMemberID = 3 }, errors.ErrCodeInvalidRequest},
		{"unknown relation", func(d *Dataset) { d.Edges[0].RelationID = 2 }, errors.ErrCodeInvalidRequest},
		{"duplicate edge", func(d *Dataset) { d.Edges = append(d.Edges, d.Edges[0]) }, errors.ErrCodeInvalidRequest},
		{"duplicate code", func(d *Dataset) { d.Masters = append(d.Masters, family.RelationMaster{ID: 2, Code: "SPOUSE", Label: "x"}) }, errors.ErrCodeInvalidRequest},
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base dataset: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(&d)
			if err := d.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReadJSONMalformed(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{")); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("ReadJSON error = %v, want INVALID_REQUEST", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tree.json")
	d, err := ExportJSON(ctx, populated(t), path)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ImportJSON(ctx, memory.New(), path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Members != len(d.Members) || c.Edges != len(d.Edges) {
		t.Errorf("ImportJSON = %+v, want %d members and %d edges", c, len(d.Members), len(d.Edges))
	}
}
