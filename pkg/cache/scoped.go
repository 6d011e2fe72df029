package cache

// ScopedKeyer wraps a Keyer with a prefix so several organizations or
// deployments can share one cache backend without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "suratkita:org-7:")
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

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(contentHash, opts)
}
