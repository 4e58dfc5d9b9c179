// Package cache stores computed layouts and rendered artifacts.
//
// A [Cache] is a byte store with per-entry TTLs. Keys come from a [Keyer] so
// that the CLI (file cache) and the server (Redis) agree on naming:
//
//	layout:<sha256 of tree data + options>
//	artifact:<sha256 of layout + format>
//
// [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the entry and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero keeps the entry until it is deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default entry lifetimes. Keys are content hashes, so entries never go stale;
// TTLs only bound disk and memory use.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// LayoutKeyOpts are the layout inputs besides the tree itself.
type LayoutKeyOpts struct {
	Placer      string  `json:"placer"`
	Direction   string  `json:"direction"`
	NodeWidth   float64 `json:"node_width"`
	NodeHeight  float64 `json:"node_height"`
	CoupleWidth float64 `json:"couple_width"`
	RankSep     float64 `json:"rank_sep"`
	NodeSep     float64 `json:"node_sep"`
}

// ArtifactKeyOpts are the render inputs besides the layout.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
