// Package api implements the tb2ud HTTP service.
//
// The service exposes document conversion over HTTP for deployments where
// the converter runs as a shared instance rather than a local CLI:
//
//	POST /v1/convert                      CoNLL-U in, converted CoNLL-U out
//	GET  /v1/health                       liveness probe with build info
//	GET  /v1/corpora/{corpus}             list stored documents
//	GET  /v1/corpora/{corpus}/{doc}       fetch a stored document
//	PUT  /v1/corpora/{corpus}/{doc}       store a document
//	DELETE /v1/corpora/{corpus}/{doc}     remove a document
//
// The corpus routes are registered only when a document store is
// configured. Conversion results are cached through the runner's cache,
// which in serve mode is typically Redis so replicas share entries.
//
// Every request carries an X-Request-ID (client-supplied or generated) that
// is echoed in the response and attached to all log lines for the request.
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/store"
)

// maxBody caps the request body for convert and corpus uploads. Treebank
// documents are text; 32 MiB covers the largest published corpora files.
const maxBody = 32 << 20

// Server holds the handler dependencies.
type Server struct {
	runner *pipeline.Runner
	store  store.Store // nil disables the corpus routes
	logger *log.Logger
}

// NewServer creates a Server. runner must not be nil; st may be nil to run
// without corpus storage; a nil logger falls back to the default.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the chi handler tree with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/v1/health", s.handleHealth)
	r.Post("/v1/convert", s.handleConvert)

	if s.store != nil {
		r.Route("/v1/corpora/{corpus}", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/{doc}", s.handleGet)
			r.Put("/{doc}", s.handlePut)
			r.Delete("/{doc}", s.handleDelete)
		})
	}
	return r
}
