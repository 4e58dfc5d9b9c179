package inference_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/inference"
)

func ExampleResolve() {
	spouse := family.RelationMaster{ID: 1, Code: family.CodeSpouse}
	father := family.RelationMaster{ID: 2, Code: family.CodeFather}
	members := []family.Member{
		{ID: 1, FirstName: "Alice"},
		{ID: 2, FirstName: "Bob"},
		{ID: 3, FirstName: "Carol"},
	}
	edges := []family.ResolvedEdge{
		{Edge: family.Edge{ID: 1, FromMemberID: 1, ToMemberID: 2}, Relation: spouse},
		{Edge: family.Edge{ID: 2, FromMemberID: 2, ToMemberID: 1}, Relation: spouse},
		{Edge: family.Edge{ID: 3, FromMemberID: 2, ToMemberID: 3}, Relation: father},
	}
	n := inference.NewNeighborhood(members, edges)

	alice := inference.Resolve(1, n)
	fmt.Println("Alice's children:", alice.Children[0].FirstName)

	carol := inference.Resolve(3, n)
	for _, p := range carol.Parents {
		fmt.Println("Carol's parent:", p.FirstName)
	}
	// Output:
	// Alice's children: Carol
	// Carol's parent: Bob
	// Carol's parent: Alice
}
