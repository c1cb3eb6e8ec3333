package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gregorycrane/tb2ud/pkg/buildinfo"
	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/store"
)

// contentType is the media type used for CoNLL-U payloads.
const contentType = "text/x-conllu; charset=utf-8"

// healthResponse is the GET /v1/health body.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// errorResponse is the JSON envelope for all error replies.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
}

// handleConvert converts the CoNLL-U request body and returns the converted
// document. Query parameters:
//
//	enhanced=true   resolve artificial nodes into empty nodes and DEPS edges
//	refresh=true    bypass the conversion cache
//	workers=N       concurrent sentence conversions
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeError(w, r, converr.Wrap(converr.ErrCodeInvalidInput, err, "reading request body"))
		return
	}
	if len(bytes.TrimSpace(input)) == 0 {
		s.writeError(w, r, converr.New(converr.ErrCodeInvalidInput, "empty request body"))
		return
	}

	opts, err := convertOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), input, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if result.CacheInfo.Hit {
		w.Header().Set("X-Conversion-Cache", "hit")
	} else {
		w.Header().Set("X-Conversion-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Output)
}

// convertOptions parses the conversion query parameters.
func convertOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Enhanced: q.Get("enhanced") == "true",
		Refresh:  q.Get("refresh") == "true",
	}
	if raw := q.Get("workers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, converr.New(converr.ErrCodeInvalidInput, "workers must be an integer, got %q", raw)
		}
		opts.Workers = n
	}
	return opts, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	corpus := chi.URLParam(r, "corpus")
	metas, err := s.store.List(r.Context(), corpus)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type item struct {
		ID         string `json:"id"`
		Sentences  int    `json:"sentences"`
		ImportedAt string `json:"imported_at"`
	}
	out := make([]item, len(metas))
	for i, m := range metas {
		out[i] = item{
			ID:         m.ID,
			Sentences:  m.Sentences,
			ImportedAt: m.ImportedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"corpus": corpus, "documents": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "corpus"), chi.URLParam(r, "doc"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := conllu.Write(doc.Trees, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeError(w, r, converr.Wrap(converr.ErrCodeInvalidInput, err, "reading request body"))
		return
	}
	trees, err := conllu.Read(bytes.NewReader(input))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc := store.Document{
		Meta:  store.Meta{Corpus: chi.URLParam(r, "corpus"), ID: chi.URLParam(r, "doc")},
		Trees: trees,
	}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"corpus":    doc.Corpus,
		"id":        doc.ID,
		"sentences": len(trees),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "corpus"), chi.URLParam(r, "doc")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps an error onto an HTTP status and the JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := converr.GetCode(err)
	if code == "" {
		code = converr.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", reqID(r.Context()))
	} else {
		s.logger.Warn("request rejected",
			"path", r.URL.Path,
			"code", code,
			"request_id", reqID(r.Context()))
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: converr.UserMessage(err),
	}})
}

// statusFor picks the response status for an error by its code.
func statusFor(err error) int {
	var e *converr.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case converr.ErrCodeInvalidFormat, converr.ErrCodeInvalidInput, converr.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case converr.ErrCodeNotFound:
		return http.StatusNotFound
	case converr.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
