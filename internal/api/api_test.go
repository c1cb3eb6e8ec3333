package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/store"
)

func discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func row(cols ...string) string {
	return strings.Join(cols, "\t")
}

// bridgeDoc has a preposition relator whose dependent takes over the edge.
func bridgeDoc() string {
	return strings.Join([]string{
		"# sent_id = b1",
		row("1", "went", "go", "VERB", "v--------", "_", "0", "root", "_", "_"),
		row("2", "into", "into", "ADP", "r--------", "_", "1", "obl", "_", "original_dep=AuxP"),
		row("3", "city", "city", "NOUN", "n-s---fa-", "_", "2", "nmod", "_", "_"),
	}, "\n") + "\n"
}

// ellipsisDoc has an artificial root that enhanced output reifies.
func ellipsisDoc() string {
	return strings.Join([]string{
		"# sent_id = e1",
		row("1", "wine", "wine", "NOUN", "n-s---mn-", "_", "2", "nsubj", "_", "_"),
		row("2", "[0]", "_", "VERB", "v--------", "_", "0", "root", "_", "NodeType=Artificial"),
		row("3", "water", "water", "NOUN", "n-s---ma-", "_", "2", "obj", "_", "_"),
	}, "\n") + "\n"
}

// newTestServer starts the API on httptest with a file cache. A nil store
// leaves the corpus routes unregistered.
func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := pipeline.NewRunner(c, nil, discard())
	srv := httptest.NewServer(NewServer(runner, st, discard()).Router())
	t.Cleanup(func() {
		srv.Close()
		if err := runner.Close(); err != nil {
			t.Errorf("runner Close: %v", err)
		}
	})
	return srv
}

func fsStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("store Close: %v", err)
		}
	})
	return st
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(data)
}

// errorCode decodes the error envelope and returns its code.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	resp.Body.Close()
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	resp.Body.Close()
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Version == "" {
		t.Error("version missing from health response")
	}
}

func TestConvert(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/v1/convert", bridgeDoc())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/x-conllu") {
		t.Errorf("Content-Type = %q, want text/x-conllu", ct)
	}
	if got := resp.Header.Get("X-Conversion-Cache"); got != "miss" {
		t.Errorf("X-Conversion-Cache = %q, want miss", got)
	}
	out := readBody(t, resp)
	if !strings.Contains(out, row("2", "into", "into", "ADP", "r--------", "_", "3", "obl", "_", "original_dep=AuxP")) {
		t.Errorf("relator not reattached under its dependent:\n%s", out)
	}
	if !strings.Contains(out, row("3", "city", "city", "NOUN", "n-s---fa-", "_", "1", "obl", "_", "_")) {
		t.Errorf("dependent did not take over the obl edge:\n%s", out)
	}

	// Same document again: served from cache.
	resp = do(t, http.MethodPost, srv.URL+"/v1/convert", bridgeDoc())
	if got := resp.Header.Get("X-Conversion-Cache"); got != "hit" {
		t.Errorf("X-Conversion-Cache = %q, want hit", got)
	}
	if again := readBody(t, resp); again != out {
		t.Error("cached response differs from computed response")
	}
}

func TestConvertEnhanced(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/v1/convert?enhanced=true", ellipsisDoc())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := readBody(t, resp)
	if !strings.Contains(out, "\n1.1\tE1.1") {
		t.Errorf("enhanced output lacks the empty node row:\n%s", out)
	}
	if !strings.Contains(out, "1.1:nsubj") {
		t.Errorf("enhanced output lacks secondary edges:\n%s", out)
	}
}

func TestConvertRefreshBypassesCache(t *testing.T) {
	srv := newTestServer(t, nil)

	readBody(t, do(t, http.MethodPost, srv.URL+"/v1/convert", bridgeDoc()))

	resp := do(t, http.MethodPost, srv.URL+"/v1/convert?refresh=true", bridgeDoc())
	if got := resp.Header.Get("X-Conversion-Cache"); got != "miss" {
		t.Errorf("X-Conversion-Cache = %q, want miss with refresh", got)
	}
	readBody(t, resp)
}

func TestConvertRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name     string
		url      string
		body     string
		wantCode string
	}{
		{name: "empty body", url: "/v1/convert", body: "", wantCode: "INVALID_INPUT"},
		{name: "malformed rows", url: "/v1/convert", body: "not\ta\tdocument\n", wantCode: "INVALID_FORMAT"},
		{name: "workers not a number", url: "/v1/convert?workers=many", body: bridgeDoc(), wantCode: "INVALID_INPUT"},
		{name: "workers out of range", url: "/v1/convert?workers=-1", body: bridgeDoc(), wantCode: "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+tt.url, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if code := errorCode(t, resp); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, nil)

	// A client-supplied ID is echoed back.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/health", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	readBody(t, resp)
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}

	// Without one, the server mints an ID.
	resp = do(t, http.MethodGet, srv.URL+"/v1/health", "")
	readBody(t, resp)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID generated")
	}
}

func TestCorpusLifecycle(t *testing.T) {
	srv := newTestServer(t, fsStore(t))
	base := srv.URL + "/v1/corpora/agldt"

	resp := do(t, http.MethodPut, base+"/thuc-1", bridgeDoc())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		Corpus    string `json:"corpus"`
		ID        string `json:"id"`
		Sentences int    `json:"sentences"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decoding put response: %v", err)
	}
	resp.Body.Close()
	if created.Corpus != "agldt" || created.ID != "thuc-1" || created.Sentences != 1 {
		t.Errorf("put response = %+v", created)
	}

	resp = do(t, http.MethodGet, base+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	if listing := readBody(t, resp); !strings.Contains(listing, "thuc-1") {
		t.Errorf("listing lacks stored document: %s", listing)
	}

	resp = do(t, http.MethodGet, base+"/thuc-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if doc := readBody(t, resp); !strings.Contains(doc, "# sent_id = b1") {
		t.Errorf("fetched document lacks sentence metadata:\n%s", doc)
	}

	resp = do(t, http.MethodDelete, base+"/thuc-1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	readBody(t, resp)

	resp = do(t, http.MethodGet, base+"/thuc-1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", code)
	}
}

func TestCorpusPutRejectsMalformed(t *testing.T) {
	srv := newTestServer(t, fsStore(t))

	resp := do(t, http.MethodPut, srv.URL+"/v1/corpora/agldt/bad", "one\tcolumn\n")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "INVALID_FORMAT" {
		t.Errorf("error code = %q, want INVALID_FORMAT", code)
	}
}

func TestCorpusRoutesRequireStore(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/v1/corpora/agldt/", "")
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a store", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(io.ErrUnexpectedEOF); got != http.StatusInternalServerError {
		t.Errorf("uncoded error status = %d, want 500", got)
	}
}

// Converted output served twice must be byte-identical, cached or not.
func TestConvertDeterministic(t *testing.T) {
	srv := newTestServer(t, nil)
	input := bridgeDoc() + "\n" + ellipsisDoc()

	first := readBody(t, do(t, http.MethodPost, srv.URL+"/v1/convert?refresh=true", input))
	second := readBody(t, do(t, http.MethodPost, srv.URL+"/v1/convert?refresh=true", input))
	if !bytes.Equal([]byte(first), []byte(second)) {
		t.Error("repeated conversions differ")
	}
}
