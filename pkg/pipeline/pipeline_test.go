package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/rewrite"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

func discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func row(cols ...string) string {
	return strings.Join(cols, "\t")
}

// bridgeSentence has a preposition relator with one promotable dependent.
func bridgeSentence(id string) string {
	return strings.Join([]string{
		"# sent_id = " + id,
		row("1", "went", "go", "VERB", "v--------", "_", "0", "root", "_", "_"),
		row("2", "into", "into", "ADP", "r--------", "_", "1", "obl", "_", "original_dep=AuxP"),
		row("3", "city", "city", "NOUN", "n-s---fa-", "_", "2", "nmod", "_", "_"),
	}, "\n") + "\n"
}

// copulaSentence has an overt copula governing a predicate nominal.
func copulaSentence(id string) string {
	return strings.Join([]string{
		"# sent_id = " + id,
		row("1", "Socrates", "Σωκράτης", "NOUN", "n-s---mn-", "_", "2", "nsubj", "_", "_"),
		row("2", "is", "sum", "AUX", "v--------", "_", "0", "root", "_", "_"),
		row("3", "wise", "wise", "ADJ", "a-s---mn-", "_", "2", "obj", "_", "original_dep=PNOM"),
	}, "\n") + "\n"
}

// ellipsisSentence has an artificial root standing in for an elided verb.
func ellipsisSentence(id string) string {
	return strings.Join([]string{
		"# sent_id = " + id,
		row("1", "wine", "wine", "NOUN", "n-s---mn-", "_", "2", "nsubj", "_", "_"),
		row("2", "[0]", "_", "VERB", "v--------", "_", "0", "root", "_", "NodeType=Artificial"),
		row("3", "water", "water", "NOUN", "n-s---ma-", "_", "2", "obj", "_", "_"),
	}, "\n") + "\n"
}

func sampleInput(ids ...string) []byte {
	builders := []func(string) string{bridgeSentence, copulaSentence, ellipsisSentence}
	var sentences []string
	for i, id := range ids {
		sentences = append(sentences, builders[i%len(builders)](id))
	}
	return []byte(strings.Join(sentences, "\n"))
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	r := NewRunner(c, nil, discard())
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return r
}

func fileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return c
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantWorkers int
		wantErr     bool
	}{
		{name: "zero value", opts: Options{}, wantWorkers: DefaultWorkers},
		{name: "explicit workers", opts: Options{Workers: 2}, wantWorkers: 2},
		{name: "max workers", opts: Options{Workers: MaxWorkers}, wantWorkers: MaxWorkers},
		{name: "negative workers", opts: Options{Workers: -1}, wantErr: true},
		{name: "too many workers", opts: Options{Workers: MaxWorkers + 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantErr {
				if err == nil {
					t.Fatal("ValidateAndSetDefaults: expected error, got nil")
				}
				if !converr.Is(err, converr.ErrCodeInvalidConfig) {
					t.Errorf("error code = %v, want INVALID_CONFIG", converr.GetCode(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndSetDefaults: %v", err)
			}
			if tt.opts.Workers != tt.wantWorkers {
				t.Errorf("Workers = %d, want %d", tt.opts.Workers, tt.wantWorkers)
			}
			if tt.opts.Logger == nil {
				t.Error("Logger not defaulted")
			}
		})
	}
}

func TestOptionsValidateIsIdempotent(t *testing.T) {
	opts := Options{Workers: 2}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	// A validated struct is never re-checked, even after mutation.
	opts.Workers = -5
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validate: %v", err)
	}
}

func TestOptionsConvertKeyOpts(t *testing.T) {
	base := Options{}
	if got := base.ConvertKeyOpts(); got.Enhanced || got.Tables != "" {
		t.Errorf("zero options key opts = %+v, want basic with empty fingerprint", got)
	}

	enhanced := Options{Enhanced: true}
	if !enhanced.ConvertKeyOpts().Enhanced {
		t.Error("Enhanced not carried into key opts")
	}

	custom := Options{Tables: rewrite.Tables{PromotionOrder: []string{"obj", "nsubj"}}}
	fp := custom.ConvertKeyOpts().Tables
	if fp == "" {
		t.Fatal("custom tables map to the default fingerprint")
	}
	other := Options{Tables: rewrite.Tables{PromotionOrder: []string{"nsubj"}}}
	if other.ConvertKeyOpts().Tables == fp {
		t.Error("distinct table overrides share a fingerprint")
	}
}

func TestRunnerExecute(t *testing.T) {
	r := newTestRunner(t, fileCache(t))
	input := sampleInput("b1", "c1", "e1")

	res, err := r.Execute(context.Background(), input, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("first run reported a cache hit")
	}
	if res.CacheInfo.Key == "" {
		t.Error("cache key not reported")
	}
	if res.Stats.Sentences != 3 {
		t.Errorf("Sentences = %d, want 3", res.Stats.Sentences)
	}
	st := res.Stats.Rewrite
	if st.Bridges != 1 || st.Copulas != 1 || st.Ellipses != 1 {
		t.Errorf("rewrites = %+v, want one bridge, one copula, one ellipsis", st)
	}
	if st.FailureCount() != 0 {
		t.Errorf("failures = %v, want none", st.Failures)
	}
	if st.EmptyNodes != 0 {
		t.Errorf("EmptyNodes = %d, want 0 without enhanced output", st.EmptyNodes)
	}

	// The output must be a readable document.
	trees, err := conllu.Read(bytes.NewReader(res.Output))
	if err != nil {
		t.Fatalf("reading own output: %v", err)
	}
	if len(trees) != 3 {
		t.Errorf("output sentences = %d, want 3", len(trees))
	}

	// Same input, same options: answered from cache.
	again, err := r.Execute(context.Background(), input, Options{})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.Hit {
		t.Error("second run missed the cache")
	}
	if !bytes.Equal(again.Output, res.Output) {
		t.Error("cached output differs from computed output")
	}
	if len(again.Trees) != 3 {
		t.Errorf("cached run trees = %d, want 3", len(again.Trees))
	}
}

func TestRunnerExecuteRefresh(t *testing.T) {
	r := newTestRunner(t, fileCache(t))
	input := sampleInput("b1")
	ctx := context.Background()

	// Refresh neither reads nor writes the cache.
	res, err := r.Execute(ctx, input, Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute with refresh: %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("refresh run reported a cache hit")
	}

	res, err = r.Execute(ctx, input, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("refresh run populated the cache")
	}

	res, err = r.Execute(ctx, input, Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute with refresh: %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("refresh run read the cache")
	}
	if res.Stats.Rewrite.Bridges != 1 {
		t.Errorf("Bridges = %d, want 1 from a recomputed run", res.Stats.Rewrite.Bridges)
	}
}

func TestRunnerExecuteEnhanced(t *testing.T) {
	r := newTestRunner(t, fileCache(t))
	input := sampleInput("b1", "c1", "e1")
	ctx := context.Background()

	if _, err := r.Execute(ctx, input, Options{}); err != nil {
		t.Fatalf("basic Execute: %v", err)
	}

	// Enhanced output is keyed separately from basic output.
	res, err := r.Execute(ctx, input, Options{Enhanced: true})
	if err != nil {
		t.Fatalf("enhanced Execute: %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("enhanced run answered from the basic run's cache entry")
	}

	st := res.Stats.Rewrite
	if st.EmptyNodes != 1 {
		t.Errorf("EmptyNodes = %d, want 1", st.EmptyNodes)
	}
	if st.SecondaryEdges != 3 {
		t.Errorf("SecondaryEdges = %d, want 3", st.SecondaryEdges)
	}

	out := string(res.Output)
	if !strings.Contains(out, "\n1.1\tE1.1") {
		t.Errorf("output lacks the reified empty node row:\n%s", out)
	}
	if !strings.Contains(out, "1.1:nsubj") || !strings.Contains(out, "1.1:obj") {
		t.Errorf("output lacks secondary edges into the empty node:\n%s", out)
	}

	again, err := r.Execute(ctx, input, Options{Enhanced: true})
	if err != nil {
		t.Fatalf("second enhanced Execute: %v", err)
	}
	if !again.CacheInfo.Hit {
		t.Error("repeated enhanced run missed the cache")
	}
}

func TestRunnerParallelMatchesSerial(t *testing.T) {
	input := sampleInput("s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9")
	ctx := context.Background()

	serial, err := newTestRunner(t, nil).Execute(ctx, input, Options{Workers: 1, Enhanced: true})
	if err != nil {
		t.Fatalf("serial Execute: %v", err)
	}
	parallel, err := newTestRunner(t, nil).Execute(ctx, input, Options{Workers: 8, Enhanced: true})
	if err != nil {
		t.Fatalf("parallel Execute: %v", err)
	}

	if !bytes.Equal(serial.Output, parallel.Output) {
		t.Error("parallel output differs from serial output")
	}
	if !reflect.DeepEqual(serial.Stats.Rewrite, parallel.Stats.Rewrite) {
		t.Errorf("parallel stats = %+v, serial stats = %+v",
			parallel.Stats.Rewrite, serial.Stats.Rewrite)
	}
}

func TestRunnerConvertTreesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	simple := func(id string) *tree.Tree {
		tr := tree.New(id)
		tr.AddToken("x").Deprel = "root"
		return tr
	}

	for _, workers := range []int{1, 4} {
		trees := []*tree.Tree{simple("s1"), simple("s2")}
		_, err := newTestRunner(t, nil).ConvertTrees(ctx, trees, Options{Workers: workers})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: error = %v, want context.Canceled", workers, err)
		}
	}
}

func TestRunnerExecuteBadInput(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), []byte("not\ta\tdocument\n"), Options{})
	if !converr.Is(err, converr.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestRunnerExecuteBadOptions(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), sampleInput("b1"), Options{Workers: -1})
	if !converr.Is(err, converr.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner left nil fields: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
