package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gregorycrane/tb2ud/internal/api"
	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/store"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr   string // listen address
	redis  string // Redis host:port for the shared conversion cache
	store  string // corpus store backend (same shapes as the corpus command)
	config string // config file path (auto-detected if empty)
}

// newServeCmd creates the serve command running the conversion HTTP service.
//
// Conversion results are cached in Redis when --redis (or the [serve] config
// section) names a server, so replicas share entries; otherwise the local
// file cache is used. Corpus routes are enabled only when a store is
// configured through --store or the [store] config section.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP service",
		Long: `Run the HTTP service exposing document conversion, and optionally the
corpus document store.

Examples:
  tb2ud serve
  tb2ud serve --addr :9000 --redis localhost:6379
  tb2ud serve --store corpus.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis host:port for the shared conversion cache")
	cmd.Flags().StringVar(&opts.store, "store", "", "corpus store: directory, sqlite file, or mongodb:// URI")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: tb2ud.toml)")

	return cmd
}

// runServe assembles the server and blocks until the context is canceled or
// the listener fails.
func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	addr := opts.addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	if addr == "" {
		addr = defaultAddr
	}

	c, err := serveCache(opts.redis, cfg.Serve, logger)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(c, nil, logger)
	defer runner.Close()

	st, err := serveStore(ctx, cfg.Store, opts.store)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, st, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", addr, "corpus_routes", st != nil)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks Redis when configured, the file cache otherwise.
func serveCache(override string, cfg ServeConfig, logger interface{ Info(any, ...any) }) (cache.Cache, error) {
	addr := override
	if addr == "" {
		addr = cfg.Redis
	}
	if addr != "" {
		logger.Info("using redis cache", "addr", addr)
		return cache.NewRedisCache(cache.RedisConfig{Addr: addr})
	}
	return newCache(false)
}

// serveStore opens the corpus store only when one is configured; a nil
// store keeps the corpus routes off.
func serveStore(ctx context.Context, cfg StoreConfig, override string) (store.Store, error) {
	if override == "" && cfg.Backend == "" {
		return nil, nil
	}
	return openStoreFrom(ctx, cfg, override)
}
