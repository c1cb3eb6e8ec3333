// Package pipeline drives whole-document treebank conversion.
//
// This package implements the complete read → convert → write pass that is
// shared by the CLI, the API server, and the corpus importer. Centralizing
// it here keeps conversion behavior identical across entry points.
//
// # Architecture
//
// The pass has three stages:
//
//  1. Read: parse the CoNLL-U input into sentence trees
//  2. Convert: rewrite every sentence into Universal Dependencies shape
//  3. Write: serialize the rewritten trees, renumbered, back to CoNLL-U
//
// Converting a document is deterministic in its input bytes and options, so
// a Runner caches the serialized output under a content-addressed key and
// answers repeat conversions without recomputing.
//
// # Usage
//
// Create a Runner and execute the pass:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Enhanced: true,
//	    Workers:  8,
//	}
//	result, err := runner.Execute(ctx, input, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Output)
//
// Convert already-parsed trees directly:
//
//	stats, err := runner.ConvertTrees(ctx, trees, opts)
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/rewrite"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWorkers is the number of sentences converted concurrently.
	// Sentences are independent, so the pass shards cleanly; four workers
	// cover typical documents without drowning small ones in goroutines.
	DefaultWorkers = 4

	// MaxWorkers caps the worker count. A single sentence converts in
	// microseconds; past this bound extra workers only add scheduling noise.
	MaxWorkers = 64
)

// =============================================================================
// Options - Conversion Configuration
// =============================================================================

// Options contains all configuration for one document conversion.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Convert options
	Enhanced bool `json:"enhanced,omitempty"` // resolve artificial nodes into empty nodes and secondary edges
	Workers  int  `json:"workers,omitempty"`  // concurrent sentence conversions
	Refresh  bool `json:"refresh,omitempty"`  // bypass the cache entirely for this run

	// Runtime options (not serialized)
	Tables     rewrite.Tables     `json:"-"` // rewrite lookup sets; empty fields fall back to the treebank defaults
	Classifier rewrite.Classifier `json:"-"` // construction classifier; nil selects the standard one
	Logger     *log.Logger        `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a conversion run.
type Result struct {
	// Trees are the converted sentences in document order.
	Trees []*tree.Tree

	// Output is the serialized CoNLL-U document.
	Output []byte

	// Stats contains counts and timing information. After a cache hit only
	// Sentences is filled: the counters describe work done, and none was.
	Stats Stats

	// CacheInfo tracks whether the run was answered from cache.
	CacheInfo CacheInfo
}

// Stats contains conversion statistics for one document.
type Stats struct {
	// Sentences is the number of trees read from the input.
	Sentences int

	// Rewrite folds the per-sentence conversion counts.
	Rewrite rewrite.Stats

	// Stage timings.
	ReadTime    time.Duration
	ConvertTime time.Duration
	WriteTime   time.Duration
}

// CacheInfo tracks the cache interaction of a run.
type CacheInfo struct {
	Hit bool   // whether the output came from cache
	Key string // the conversion cache key
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return converr.New(converr.ErrCodeInvalidConfig,
			"workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// rewriteOptions maps the document options onto per-sentence converter
// options.
func (o Options) rewriteOptions() rewrite.Options {
	return rewrite.Options{
		Enhanced:   o.Enhanced,
		Classifier: o.Classifier,
		Tables:     o.Tables,
		Logger:     o.Logger,
	}
}

// ConvertKeyOpts maps the options onto their cache-key fields. Workers and
// Refresh stay out of the key: they change how fast the output arrives, not
// what it is.
func (o Options) ConvertKeyOpts() cache.ConvertKeyOpts {
	return cache.ConvertKeyOpts{
		Enhanced: o.Enhanced,
		Tables:   o.tablesFingerprint(),
	}
}

// tablesFingerprint identifies a table override in the cache key. The zero
// Tables value converts exactly like the defaults and maps to the empty
// fingerprint; overridden tables share an entry only when byte-identical.
func (o Options) tablesFingerprint() string {
	tb := o.Tables
	if len(tb.OpenClassTags) == 0 && len(tb.RelatorSatellites) == 0 && len(tb.PromotionOrder) == 0 {
		return ""
	}
	// Tables hold nothing but string slices; Marshal cannot fail on them.
	data, _ := json.Marshal(tb)
	return cache.Hash(data)
}
