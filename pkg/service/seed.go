package service

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Demo family generation parameters.
const (
	maxChildren    = 4
	maxSpouseDepth = 4
	marryChance    = 0.7
)

// SeedOptions controls [Service.Seed].
type SeedOptions struct {
	// Members is the number of demo members to generate. Zero installs only
	// the relation masters.
	Members int
	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64
}

// SeedResult reports what a seed run wrote.
type SeedResult struct {
	Masters int `json:"masters"`
	Members int `json:"members"`
	Edges   int `json:"edges"`
}

// couple is a pending family whose children have not been generated yet.
type couple struct {
	father, mother family.Member
	depth          int
}

// Seed installs the default relation masters and, when opts.Members is
// positive, generates a demo family breadth first: a root couple, then for
// each couple one to four children, some of whom marry and start a couple of
// their own. Every edge goes through the normalizer, so mirrors exist.
func (s *Service) Seed(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	if opts.Members < 0 {
		return SeedResult{}, errors.New(errors.ErrCodeInvalidRequest, "members must be >= 0, got %d", opts.Members)
	}
	var res SeedResult
	n, err := s.InstallMasters(ctx)
	if err != nil {
		return res, err
	}
	res.Masters = n
	if opts.Members == 0 {
		return res, nil
	}

	before, err := s.store.Stats(ctx)
	if err != nil {
		return res, err
	}
	g := &generator{svc: s, fake: gofakeit.New(opts.Seed)}
	if err := g.run(ctx, opts.Members); err != nil {
		return res, err
	}
	after, err := s.store.Stats(ctx)
	if err != nil {
		return res, err
	}
	res.Members = g.created
	res.Edges = after.Edges - before.Edges
	s.logger.Info("seeded demo family", "members", res.Members, "edges", res.Edges, "seed", opts.Seed)
	return res, nil
}

type generator struct {
	svc     *Service
	fake    *gofakeit.Faker
	created int
}

func (g *generator) run(ctx context.Context, target int) error {
	lastName := g.fake.LastName()
	rootYear := g.fake.Number(1930, 1939)
	husband, err := g.member(ctx, family.GenderMale, lastName, rootYear)
	if err != nil || g.created >= target {
		return err
	}
	wife, err := g.member(ctx, family.GenderFemale, lastName, rootYear+g.fake.Number(0, 3))
	if err != nil {
		return err
	}
	if err := g.link(ctx, husband, wife, family.CodeSpouse); err != nil {
		return err
	}

	queue := []couple{{father: husband, mother: wife}}
	for len(queue) > 0 && g.created < target {
		c := queue[0]
		queue = queue[1:]
		parentYear := c.father.DOB.Year()
		kids := g.fake.Number(1, maxChildren)
		for range kids {
			if g.created >= target {
				break
			}
			gender := family.GenderMale
			if g.fake.Bool() {
				gender = family.GenderFemale
			}
			child, err := g.member(ctx, gender, c.father.LastName, parentYear+g.fake.Number(22, 36))
			if err != nil {
				return err
			}
			if err := g.link(ctx, c.father, child, family.CodeFather); err != nil {
				return err
			}
			if err := g.link(ctx, c.mother, child, family.CodeMother); err != nil {
				return err
			}

			if c.depth+1 >= maxSpouseDepth || g.created >= target || g.fake.Float64() >= marryChance {
				continue
			}
			spouse, err := g.spouseFor(ctx, child)
			if err != nil {
				return err
			}
			if err := g.link(ctx, child, spouse, family.CodeSpouse); err != nil {
				return err
			}
			next := couple{father: child, mother: spouse, depth: c.depth + 1}
			if child.Gender == family.GenderFemale {
				next.father, next.mother = spouse, child
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func (g *generator) spouseFor(ctx context.Context, m family.Member) (family.Member, error) {
	gender, lastName := family.GenderFemale, m.LastName
	if m.Gender == family.GenderFemale {
		gender, lastName = family.GenderMale, g.fake.LastName()
	}
	return g.member(ctx, gender, lastName, m.DOB.Year()+g.fake.Number(-3, 3))
}

func (g *generator) member(ctx context.Context, gender family.Gender, lastName string, year int) (family.Member, error) {
	dob := time.Date(year, time.Month(g.fake.Number(1, 12)), g.fake.Number(1, 28), 0, 0, 0, 0, time.UTC)
	m, err := g.svc.store.CreateMember(ctx, family.Member{
		FirstName:     g.fake.FirstName(),
		LastName:      lastName,
		Gender:        gender,
		DOB:           &dob,
		Address:       g.fake.Address().Address,
		NativePlace:   g.fake.City(),
		ContactNumber: g.fake.Phone(),
		Notes:         g.fake.Sentence(6),
	})
	if err != nil {
		return family.Member{}, err
	}
	g.created++
	return m, nil
}

func (g *generator) link(ctx context.Context, from, to family.Member, code string) error {
	_, err := g.svc.normalizer.Create(ctx, from.ID, to.ID, code)
	return err
}
