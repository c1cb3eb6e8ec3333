package render

import (
	"strings"
	"testing"

	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// sentence builds "men and women" already in UD shape, with one empty node
// carrying a secondary edge back to the first conjunct.
func sentence(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New("x1")
	men := tr.AddToken("men")
	men.Deprel = "root"
	and := tr.AddToken("and")
	and.Deprel = "cc"
	women := tr.AddToken("women")
	women.Deprel = "conj"
	if err := women.SetParent(men); err != nil {
		t.Fatal(err)
	}
	if err := and.SetParent(women); err != nil {
		t.Fatal(err)
	}
	e := tr.AddEmptyAfter(tree.Ord{Major: 3})
	e.Form = "E3.1"
	e.AddDep(men, "conj")
	return tr
}

func TestToDOTBasic(t *testing.T) {
	tr := sentence(t)
	dot := ToDOT(tr, Options{})

	if !strings.Contains(dot, `digraph "x1"`) {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, want := range []string{`"0" [label="ROOT"`, `"1"`, `"2"`, `"3"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s", want)
		}
	}
	if !strings.Contains(dot, `"0" -> "1" [label="root"]`) {
		t.Error("ToDOT() output missing root edge")
	}
	if !strings.Contains(dot, `"1" -> "3" [label="conj"]`) {
		t.Error("ToDOT() output missing conj edge")
	}
	if strings.Contains(dot, "dotted") {
		t.Error("ToDOT() drew secondary edges without Options.Secondary")
	}
}

func TestToDOTEmptyNodeStyle(t *testing.T) {
	tr := sentence(t)
	dot := ToDOT(tr, Options{})

	if !strings.Contains(dot, `"3.1"`) {
		t.Error("ToDOT() output missing empty node")
	}
	if !strings.Contains(dot, "dashed") {
		t.Error("ToDOT() empty node missing dashed style")
	}
	if !strings.Contains(dot, "lightgrey") {
		t.Error("ToDOT() empty node missing lightgrey fill")
	}
}

func TestToDOTSecondaryEdges(t *testing.T) {
	tr := sentence(t)
	dot := ToDOT(tr, Options{Secondary: true})

	if !strings.Contains(dot, `"1" -> "3.1" [label="conj", style=dotted, constraint=false]`) {
		t.Errorf("ToDOT() missing dotted secondary edge:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	a := ToDOT(sentence(t), Options{Secondary: true, Detailed: true})
	b := ToDOT(sentence(t), Options{Secondary: true, Detailed: true})
	if a != b {
		t.Error("ToDOT() output differs between identical trees")
	}
}

func TestFmtLabelDetailed(t *testing.T) {
	tr := tree.New("x2")
	n := tr.AddToken("λόγος")
	n.Deprel = "nsubj"
	n.Lemma = "λόγος"
	n.UPOS = "NOUN"
	n.Misc.OriginalDep = "Sb"

	label := fmtLabel(n, true)
	for _, want := range []string{"λόγος\n(nsubj)", "lemma: λόγος", "upos: NOUN", "was: Sb"} {
		if !strings.Contains(label, want) {
			t.Errorf("fmtLabel() detailed missing %q: %q", want, label)
		}
	}

	if got := fmtLabel(n, false); got != "λόγος\n(nsubj)" {
		t.Errorf("fmtLabel() simple = %q", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestSVG(t *testing.T) {
	svg, err := SVG(ToDOT(sentence(t), Options{}))
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("SVG() output missing <svg> tag")
	}
}

func TestSVGInvalidDOT(t *testing.T) {
	if _, err := SVG(`not valid DOT {{{`); err == nil {
		t.Error("SVG() should return error for invalid DOT")
	}
}
