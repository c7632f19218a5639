package cache

// ScopedKeyer wraps a Keyer with a prefix for tenant isolation, for
// example one namespace per workspace on a shared Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ws:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}

// EdgesKey generates a prefixed edge set key.
func (k *ScopedKeyer) EdgesKey(snapshotHash, themeHash string) string {
	return k.prefix + k.inner.EdgesKey(snapshotHash, themeHash)
}
