package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
)

func ExampleToDOT() {
	h, _ := layout.BuildHierarchy(graph.TreeData{
		Nodes: []graph.TreeNode{
			{ID: "1", Data: graph.NodeData{Label: "Ann"}},
			{ID: "2", Data: graph.NodeData{Label: "Ben"}},
		},
		Edges: []graph.TreeEdge{{Source: "1", Target: "2", Label: "Son"}},
	}, layout.Options{})
	for _, line := range strings.Split(nodelink.ToDOT(h, nodelink.Options{}), "\n") {
		if strings.Contains(line, "label=") || strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "1" [label="Ann"];
	// "2" [label="Ben"];
	// "2" -> "1";
}
