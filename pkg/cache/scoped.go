package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each corpus or tenant its
// own cache namespace so identical documents in different corpora never
// share entries.
//
// Example usage:
//
//	// Corpus-specific keys
//	agldt := NewScopedKeyer(NewDefaultKeyer(), "agldt:")
//
//	// Shared keys
//	global := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every generated
// key. A nil inner keyer falls back to the default scheme.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DocumentKey generates a prefixed key for a corpus document.
func (k *ScopedKeyer) DocumentKey(corpus, docID string) string {
	return k.prefix + k.inner.DocumentKey(corpus, docID)
}

// ConvertKey generates a prefixed key for converted output.
func (k *ScopedKeyer) ConvertKey(inputHash string, opts ConvertKeyOpts) string {
	return k.prefix + k.inner.ConvertKey(inputHash, opts)
}

// RenderKey generates a prefixed key for a rendered image.
func (k *ScopedKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(treeHash, opts)
}
