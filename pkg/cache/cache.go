// Package cache provides content-addressed caching for conversion artifacts.
//
// Converting or rendering a treebank document is deterministic in its input
// and options, so results can be cached under keys derived from a SHA-256
// of both. Three backends cover the deployment modes:
//   - file: directory-backed entries for CLI runs
//   - redis: shared cache for multi-instance serving
//   - null: caching disabled
//
// # Keys
//
// A Keyer derives keys for the artifact kinds the converter produces:
// source documents fetched from a corpus, converted CoNLL-U output, and
// rendered tree images. ScopedKeyer prefixes every key for namespace
// isolation, e.g. per corpus:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "agldt:")
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	key := keyer.ConvertKey(cache.Hash(input), cache.ConvertKeyOpts{Enhanced: true})
//	if data, hit, err := c.Get(ctx, key); hit && err == nil {
//	    return data, nil
//	}
package cache

import (
	"context"
	"time"
)

// Cache TTLs per artifact kind. Keys are content-addressed, so entries
// never go stale; the TTLs only bound disk and memory use.
const (
	// TTLDocument applies to fetched corpus documents.
	TTLDocument = 7 * 24 * time.Hour
	// TTLConvert applies to converted CoNLL-U output.
	TTLConvert = 30 * 24 * time.Hour
	// TTLRender applies to rendered tree images.
	TTLRender = 30 * 24 * time.Hour
)

// Cache is the interface all cache backends implement. Values are opaque
// byte payloads; a zero TTL stores without expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; an expired or corrupt entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL (zero means no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ConvertKeyOpts are the conversion options that change converted output.
// Two runs over the same input with equal opts hit the same cache entry.
type ConvertKeyOpts struct {
	// Enhanced includes the empty-node/secondary-edge pass.
	Enhanced bool
	// Tables fingerprints non-default rewrite tables ("" for defaults).
	Tables string
}

// RenderKeyOpts are the rendering options that change image output.
type RenderKeyOpts struct {
	// Format is the output format ("svg", "png", "dot").
	Format string
	// Secondary draws the enhanced dependency edges alongside the tree.
	Secondary bool
}

// Keyer derives cache keys for conversion artifacts.
type Keyer interface {
	// DocumentKey identifies a source document within a corpus.
	DocumentKey(corpus, docID string) string

	// ConvertKey identifies converted output by input hash and options.
	ConvertKey(inputHash string, opts ConvertKeyOpts) string

	// RenderKey identifies a rendered image by tree hash and options.
	RenderKey(treeHash string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a readable kind prefix joined
// with a hash of the identifying fields.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for a corpus document. Document IDs are
// human-meaningful, so the key stays readable instead of hashed.
func (k *DefaultKeyer) DocumentKey(corpus, docID string) string {
	return "doc:" + corpus + ":" + docID
}

// ConvertKey generates a key for converted CoNLL-U output.
func (k *DefaultKeyer) ConvertKey(inputHash string, opts ConvertKeyOpts) string {
	return hashKey("convert", inputHash, opts)
}

// RenderKey generates a key for a rendered tree image.
func (k *DefaultKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return hashKey("render", treeHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
