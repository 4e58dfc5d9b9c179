// Package pipeline runs the layout → render pipeline for kintree.
//
// The CLI and the HTTP API both call a [Runner]. It hashes the tree data,
// looks the layout up in the cache, runs the layout engine on a miss and
// renders the requested formats, caching each stage.
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, tree, pipeline.Options{Formats: []string{"svg"}})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

// Placer names.
const (
	PlacerLayered  = "layered"
	PlacerGraphviz = "graphviz"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
)

// DefaultPlacer is used when Options.Placer is empty.
const DefaultPlacer = PlacerLayered

var (
	validPlacers = []string{PlacerLayered, PlacerGraphviz}
	validFormats = []string{FormatJSON, FormatSVG, FormatDOT}
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	Layout  layout.Options `json:"layout"`
	Placer  string         `json:"placer,omitempty"`
	Formats []string       `json:"formats,omitempty"`
	// Detailed adds generation rows and metadata to DOT and SVG labels.
	Detailed bool `json:"detailed,omitempty"`
	// Refresh skips cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`
}

// ValidateAndSetDefaults normalizes names and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.Layout.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.Placer = strings.ToLower(strings.TrimSpace(o.Placer))
	if o.Placer == "" {
		o.Placer = DefaultPlacer
	}
	if err := ValidatePlacer(o.Placer); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(f)
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns the cache key inputs of the layout stage.
func (o Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Placer:      o.Placer,
		Direction:   o.Layout.Direction,
		NodeWidth:   o.Layout.NodeWidth,
		NodeHeight:  o.Layout.NodeHeight,
		CoupleWidth: o.Layout.CoupleWidth,
		RankSep:     o.Layout.RankSep,
		NodeSep:     o.Layout.NodeSep,
	}
}

// ArtifactKeyOpts returns the cache key inputs of one rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
}

// ValidatePlacer checks a placer name.
func ValidatePlacer(name string) error {
	if !slices.Contains(validPlacers, name) {
		return errors.New(errors.ErrCodeInvalidRequest, "invalid placer %q (must be one of: %s)",
			name, strings.Join(validPlacers, ", "))
	}
	return nil
}

// ValidateFormats checks every format name.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(validFormats, f) {
			return errors.New(errors.ErrCodeInvalidRequest, "invalid format %q (must be one of: %s)",
				f, strings.Join(validFormats, ", "))
		}
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result holds the outputs of a pipeline run.
type Result struct {
	TreeHash  string
	Layout    graph.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds timing and size information.
type Stats struct {
	Members    int
	Units      int
	Edges      int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache. RenderHit is
// true when no artifact had to be rendered.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "application/json"
	}
}

func treeHash(t graph.TreeData) (string, error) {
	data, err := graph.MarshalTreeData(t)
	if err != nil {
		return "", fmt.Errorf("hash tree data: %w", err)
	}
	return cache.Hash(data), nil
}
