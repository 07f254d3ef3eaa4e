package cache

// ScopedKeyer wraps a Keyer with a prefix so several producers can share one
// backend without colliding. The HTTP service uses it to keep its entries
// apart from CLI runs pointed at the same Redis.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
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

// OrderKey generates a prefixed key for clustering results.
func (k *ScopedKeyer) OrderKey(profileHash, objectsHash string, opts OrderKeyOpts) string {
	return k.prefix + k.inner.OrderKey(profileHash, objectsHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(orderHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(orderHash, opts)
}
