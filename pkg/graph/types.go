package graph

import "github.com/matzehuels/kintree/pkg/family"

// Layout directions.
const (
	DirectionTB = "TB"
	DirectionLR = "LR"
)

// Node and edge types understood by the presentation layer.
const (
	NodeTypeMember = "member"
	NodeTypeCouple = "couple"

	EdgeTypeStep       = "step"
	EdgeTypeSmoothStep = "smoothstep"
)

// TreeData is the unpositioned family graph.
type TreeData struct {
	Nodes []TreeNode `json:"nodes" bson:"nodes"`
	Edges []TreeEdge `json:"edges" bson:"edges"`
}

// TreeNode is one member. ID is the member id in decimal.
type TreeNode struct {
	ID   string   `json:"id" bson:"id"`
	Data NodeData `json:"data" bson:"data"`
}

// NodeData is the display payload of a member node.
type NodeData struct {
	Label  string        `json:"label" bson:"label"`
	Image  string        `json:"image,omitempty" bson:"image,omitempty"`
	Member family.Member `json:"member" bson:"member"`
}

// TreeEdge is one stored relationship.
type TreeEdge struct {
	ID         string `json:"id" bson:"id"`
	Source     string `json:"source" bson:"source"`
	Target     string `json:"target" bson:"target"`
	Label      string `json:"label" bson:"label"`
	Type       string `json:"type,omitempty" bson:"type,omitempty"`
	IsSpousal  bool   `json:"isSpousal,omitempty" bson:"is_spousal,omitempty"`
	IsParental bool   `json:"isParental,omitempty" bson:"is_parental,omitempty"`
}

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Layout is a positioned family graph.
type Layout struct {
	Direction string           `json:"direction" bson:"direction"`
	Width     float64          `json:"width" bson:"width"`
	Height    float64          `json:"height" bson:"height"`
	Nodes     []LayoutNode     `json:"nodes" bson:"nodes"`
	Edges     []LayoutEdge     `json:"edges" bson:"edges"`
	Rows      map[int][]string `json:"rows,omitempty" bson:"rows,omitempty"`
}

// LayoutNode is a member or couple placed at its top-left Position.
type LayoutNode struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Position Point          `json:"position" bson:"position"`
	Width    float64        `json:"width" bson:"width"`
	Height   float64        `json:"height" bson:"height"`
	Data     LayoutNodeData `json:"data" bson:"data"`
}

// LayoutNodeData carries the member payloads of a node. Individual nodes use
// the embedded NodeData; couple nodes list both spouses in Partners.
type LayoutNodeData struct {
	NodeData `bson:",inline"`
	Partners []Partner `json:"partners,omitempty" bson:"partners,omitempty"`
}

// Partner is one spouse inside a couple node with its own top-left position.
type Partner struct {
	NodeData `bson:",inline"`
	ID       string `json:"id" bson:"id"`
	Position Point  `json:"position" bson:"position"`
}

// LayoutEdge connects two layout nodes.
type LayoutEdge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Type   string `json:"type" bson:"type"`
}

// NodeByID returns the layout node with id.
func (l Layout) NodeByID(id string) (LayoutNode, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return LayoutNode{}, false
}
