package relation_test

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/relation"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
)

func Example() {
	ctx := context.Background()
	s := memory.New()
	for _, m := range family.DefaultMasters() {
		s.CreateRelationMaster(ctx, m)
	}
	bob, _ := s.CreateMember(ctx, family.Member{FirstName: "Bob", LastName: "Smith"})
	carol, _ := s.CreateMember(ctx, family.Member{FirstName: "Carol", LastName: "Smith"})

	n := relation.NewNormalizer(s, log.New(io.Discard))
	n.Create(ctx, bob.ID, carol.ID, family.CodeFather)

	edges, _ := s.ListEdges(ctx, store.EdgeFilter{})
	for _, e := range edges {
		fmt.Println(e.FromMemberID, e.Relation.Code, e.ToMemberID)
	}
	// Output:
	// 1 FATHER 2
	// 2 CHILD 1
}
