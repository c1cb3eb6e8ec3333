package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/rewrite"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// Runner encapsulates document conversion with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete read → convert → write pass with caching.
// Output is cached under a key derived from the input bytes and the
// option fields that influence it, so converting an unchanged document
// again costs one cache read.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	cacheKey := r.Keyer.ConvertKey(cache.Hash(input), opts.ConvertKeyOpts())

	// Try cache first
	if !opts.Refresh {
		if res, ok := r.fromCache(ctx, cacheKey); ok {
			r.Logger.Info("conversion cache hit",
				"key", cacheKey,
				"sentences", res.Stats.Sentences)
			return res, nil
		}
	}

	result := &Result{CacheInfo: CacheInfo{Key: cacheKey}}

	// Stage 1: Read
	readStart := time.Now()
	trees, err := conllu.Read(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	result.Trees = trees
	result.Stats.Sentences = len(trees)
	result.Stats.ReadTime = time.Since(readStart)

	r.Logger.Info("read document",
		"sentences", len(trees),
		"duration", result.Stats.ReadTime)

	// Stage 2: Convert
	convertStart := time.Now()
	folded, err := r.ConvertTrees(ctx, trees, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.Rewrite = folded
	result.Stats.ConvertTime = time.Since(convertStart)

	r.Logger.Info("converted sentences",
		"rewritten", folded.Rewritten(),
		"failures", folded.FailureCount(),
		"duration", result.Stats.ConvertTime)

	// Stage 3: Write
	writeStart := time.Now()
	var buf bytes.Buffer
	if err := conllu.Write(trees, &buf); err != nil {
		return nil, err
	}
	result.Output = buf.Bytes()
	result.Stats.WriteTime = time.Since(writeStart)

	r.Logger.Info("serialized output",
		"bytes", len(result.Output),
		"duration", result.Stats.WriteTime)

	// Cache the result
	if !opts.Refresh {
		_ = r.Cache.Set(ctx, cacheKey, result.Output, cache.TTLConvert)
	}

	return result, nil
}

// fromCache rebuilds a Result from a cached output document. Entries that
// no longer parse are treated as misses and recomputed.
func (r *Runner) fromCache(ctx context.Context, cacheKey string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, cacheKey)
	if err != nil || !hit {
		return nil, false
	}
	trees, err := conllu.Read(bytes.NewReader(data))
	if err != nil {
		r.Logger.Warn("discarding unreadable cache entry",
			"key", cacheKey, "error", err)
		return nil, false
	}
	return &Result{
		Trees:     trees,
		Output:    data,
		Stats:     Stats{Sentences: len(trees)},
		CacheInfo: CacheInfo{Hit: true, Key: cacheKey},
	}, true
}

// ConvertTrees rewrites every tree in place and returns the folded
// per-sentence statistics. Trees are independent, so with Workers > 1 they
// are converted concurrently; per-sentence counts are folded in document
// order either way, so the result never depends on the worker count.
func (r *Runner) ConvertTrees(ctx context.Context, trees []*tree.Tree, opts Options) (rewrite.Stats, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return rewrite.Stats{}, err
	}
	conv, err := rewrite.New(opts.rewriteOptions())
	if err != nil {
		return rewrite.Stats{}, err
	}

	per := make([]rewrite.Stats, len(trees))
	if opts.Workers == 1 || len(trees) < 2 {
		for i, t := range trees {
			if err := ctx.Err(); err != nil {
				return rewrite.Stats{}, err
			}
			per[i] = conv.ConvertTree(t)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, t := range trees {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				per[i] = conv.ConvertTree(t)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return rewrite.Stats{}, err
		}
	}

	var folded rewrite.Stats
	for _, st := range per {
		folded = folded.Add(st)
	}
	return folded, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
