package layout

import (
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
)

// Default sizes in layout units.
const (
	DefaultNodeWidth   = 220.0
	DefaultNodeHeight  = 100.0
	DefaultCoupleWidth = 400.0
	DefaultRankSep     = 80.0
	DefaultNodeSep     = 40.0
	DefaultSweeps      = 24
)

// Options configures a layout run. Zero values are replaced by defaults in
// [Options.ValidateAndSetDefaults].
type Options struct {
	// Direction is graph.DirectionTB (generations top to bottom) or
	// graph.DirectionLR (left to right).
	Direction   string
	NodeWidth   float64
	NodeHeight  float64
	CoupleWidth float64
	// RankSep separates generations, NodeSep neighbours in one generation.
	RankSep float64
	NodeSep float64
	// Sweeps bounds the crossing reduction passes of [LayeredPlacer].
	Sweeps int
}

// ValidateAndSetDefaults normalizes the direction and fills zero values.
func (o *Options) ValidateAndSetDefaults() error {
	o.Direction = strings.ToUpper(strings.TrimSpace(o.Direction))
	switch o.Direction {
	case "":
		o.Direction = graph.DirectionTB
	case graph.DirectionTB, graph.DirectionLR:
	default:
		return errors.New(errors.ErrCodeInvalidRequest, "invalid direction %q (want TB or LR)", o.Direction)
	}
	for _, f := range []struct {
		name string
		v    *float64
		def  float64
	}{
		{"nodeWidth", &o.NodeWidth, DefaultNodeWidth},
		{"nodeHeight", &o.NodeHeight, DefaultNodeHeight},
		{"coupleWidth", &o.CoupleWidth, DefaultCoupleWidth},
		{"rankSep", &o.RankSep, DefaultRankSep},
		{"nodeSep", &o.NodeSep, DefaultNodeSep},
	} {
		if *f.v < 0 {
			return errors.New(errors.ErrCodeInvalidRequest, "%s must not be negative", f.name)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	if o.Sweeps < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "sweeps must not be negative")
	}
	if o.Sweeps == 0 {
		o.Sweeps = DefaultSweeps
	}
	return nil
}

// Horizontal reports whether generations advance along the x axis.
func (o Options) Horizontal() bool { return o.Direction == graph.DirectionLR }
