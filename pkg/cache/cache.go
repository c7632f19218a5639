// Package cache stores rendered export artifacts keyed by snapshot content.
//
// A [Cache] is a byte store with per-entry TTLs. Three implementations are
// provided:
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: snappy-compressed entries in Redis, for servers
//   - [NullCache]: stores nothing, disables caching
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes the snapshot and every
// option that changes the output, so two exports share an entry only when
// they would produce the same bytes. [ScopedKeyer] prefixes keys for
// per-tenant isolation.
//
//	c, _ := cache.NewFileCache(dir)
//	c = cache.Instrument(c)
//	key := cache.NewDefaultKeyer().ArtifactKey(cache.SnapshotHash(s), cache.ArtifactKeyOpts{Format: "svg"})
package cache

import (
	"context"
	"time"
)

// Entry lifetimes.
const (
	TTLArtifact = 7 * 24 * time.Hour // exported documents
	TTLEdges    = 24 * time.Hour     // resolved edge sets served by the API
)

// Cache is a byte store with expiring entries. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey is the key of one exported document.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
	// EdgesKey is the key of a resolved edge set styled with a theme.
	EdgesKey(snapshotHash, themeHash string) string
}

// ArtifactKeyOpts lists every export option that changes artifact bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Title      string  `json:"title,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	Background string  `json:"background,omitempty"`
	Theme      string  `json:"theme,omitempty"` // hash of the theme file, empty for the default
	Scale      float64 `json:"scale,omitempty"` // PNG only
	Pinned     bool    `json:"pinned,omitempty"`
}

// DefaultKeyer builds namespaced sha256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", snapshotHash, opts)
}

// EdgesKey implements Keyer.
func (DefaultKeyer) EdgesKey(snapshotHash, themeHash string) string {
	return hashKey("edges", snapshotHash, themeHash)
}
