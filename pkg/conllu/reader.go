package conllu

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// maxLine caps a single CoNLL-U line. Treebank rows are short; anything
// beyond this is not a treebank.
const maxLine = 1 << 20

// Read parses a complete CoNLL-U document from r. It returns the sentences
// in document order, or an INVALID_FORMAT error naming the first offending
// line. Read does not close r.
func Read(r io.Reader) ([]*tree.Tree, error) {
	var trees []*tree.Tree
	p := parser{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		switch {
		case strings.TrimSpace(text) == "":
			t, err := p.finish()
			if err != nil {
				return nil, converr.Wrap(converr.ErrCodeInvalidFormat, err,
					"sentence ending at line %d", line)
			}
			if t != nil {
				trees = append(trees, t)
			}
		case strings.HasPrefix(text, "#"):
			p.comment(text)
		default:
			if err := p.row(text); err != nil {
				return nil, converr.Wrap(converr.ErrCodeInvalidFormat, err,
					"line %d", line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, converr.Wrap(converr.ErrCodeInvalidFormat, err, "read input")
	}
	t, err := p.finish()
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInvalidFormat, err,
			"sentence ending at line %d", line)
	}
	if t != nil {
		trees = append(trees, t)
	}
	return trees, nil
}

// ReadFile opens path, parses it with [Read], and closes it.
func ReadFile(path string) ([]*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// row is one parsed token or empty-node line, pending tree assembly.
type row struct {
	ord    tree.Ord
	form   string
	lemma  string
	upos   string
	xpos   string
	feats  string
	head   tree.Ord
	deprel string
	deps   string
	misc   tree.Misc
}

// parser accumulates one sentence worth of comments and rows.
type parser struct {
	id       string
	comments []string
	rows     []row
}

func (p *parser) comment(line string) {
	if id, ok := strings.CutPrefix(line, "# sent_id = "); ok {
		p.id = strings.TrimSpace(id)
		return
	}
	p.comments = append(p.comments, line)
}

func (p *parser) row(line string) error {
	cols := strings.Split(line, "\t")
	if len(cols) != 10 {
		return converr.New(converr.ErrCodeInvalidFormat,
			"got %d columns, want 10", len(cols))
	}
	if strings.Contains(cols[0], "-") {
		return converr.New(converr.ErrCodeInvalidFormat,
			"multiword token ranges are not supported (id %q)", cols[0])
	}
	// "0.1" is a legal empty-node id (anchored before the first token);
	// a bare "0" is the root and never appears as a row.
	ord, err := tree.ParseOrd(cols[0])
	if err != nil || ord == (tree.Ord{}) {
		return converr.New(converr.ErrCodeInvalidFormat, "bad id %q", cols[0])
	}

	r := row{
		ord:    ord,
		form:   unescape(cols[1]),
		lemma:  unescape(cols[2]),
		upos:   unescape(cols[3]),
		xpos:   unescape(cols[4]),
		feats:  unescape(cols[5]),
		deprel: unescape(cols[7]),
		deps:   unescape(cols[8]),
	}
	if r.misc, err = decodeMisc(cols[9]); err != nil {
		return err
	}

	if ord.Fractional() {
		// Empty nodes live outside the primary tree.
		if cols[6] != "_" || cols[7] != "_" {
			return converr.New(converr.ErrCodeInvalidFormat,
				"empty node %s must have HEAD and DEPREL %q", ord, "_")
		}
	} else {
		if r.head, err = tree.ParseOrd(cols[6]); err != nil || r.head.Fractional() {
			return converr.New(converr.ErrCodeInvalidFormat,
				"bad head %q for token %s", cols[6], ord)
		}
	}
	p.rows = append(p.rows, r)
	return nil
}

// finish assembles the accumulated rows into a tree and resets the parser.
// A sentence with no rows and no comments yields (nil, nil), so stray blank
// lines are harmless.
func (p *parser) finish() (*tree.Tree, error) {
	if len(p.rows) == 0 && len(p.comments) == 0 && p.id == "" {
		return nil, nil
	}
	defer func() { *p = parser{} }()

	t := tree.New(p.id)
	t.Comments = p.comments

	want := 1
	for _, r := range p.rows {
		if r.ord.Fractional() {
			if r.ord.Major != want-1 {
				return nil, converr.New(converr.ErrCodeInvalidFormat,
					"empty node %s must follow token %d", r.ord, r.ord.Major)
			}
			e := t.AddEmptyAfter(tree.Ord{Major: r.ord.Major})
			if e.Ord() != r.ord {
				return nil, converr.New(converr.ErrCodeInvalidFormat,
					"empty node ids must be consecutive per anchor: got %s, want %s",
					r.ord, e.Ord())
			}
			fill(e, r)
			continue
		}
		if r.ord.Major != want {
			return nil, converr.New(converr.ErrCodeInvalidFormat,
				"token ids must be consecutive from 1: got %s, want %d", r.ord, want)
		}
		fill(t.AddToken(r.form), r)
		want++
	}

	// Heads, once every token exists.
	for _, r := range p.rows {
		if r.ord.Fractional() || r.head.Major == 0 {
			continue
		}
		n := t.ByOrd(r.ord)
		parent := t.ByOrd(r.head)
		if parent == nil {
			return nil, converr.New(converr.ErrCodeInvalidFormat,
				"token %s: head %s does not exist", r.ord, r.head)
		}
		if err := n.SetParent(parent); err != nil {
			return nil, converr.Wrap(converr.ErrCodeInvalidFormat, err,
				"token %s: head %s", r.ord, r.head)
		}
	}

	// Secondary edges, once tokens and empty nodes exist.
	for _, r := range p.rows {
		if err := decodeDeps(t, t.ByOrd(r.ord), r.deps); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func fill(n *tree.Node, r row) {
	n.Form = r.form
	n.Lemma = r.lemma
	n.UPOS = r.upos
	n.XPOS = r.xpos
	n.Feats = r.feats
	n.Deprel = r.deprel
	n.Misc = r.misc
}

func unescape(col string) string {
	if col == "_" {
		return ""
	}
	return col
}

// decodeMisc splits a MISC cell into the conversion sidecar. Items outside
// the recognized key set are kept verbatim, in order.
func decodeMisc(cell string) (tree.Misc, error) {
	var m tree.Misc
	if cell == "_" || cell == "" {
		return m, nil
	}
	for _, item := range strings.Split(cell, "|") {
		key, val, hasVal := strings.Cut(item, "=")
		if !hasVal {
			m.Other = append(m.Other, item)
			continue
		}
		switch key {
		case "original_dep":
			m.OriginalDep = val
		case "NodeType":
			if val != "Artificial" {
				m.Other = append(m.Other, item)
				continue
			}
			m.Kind = tree.Artificial
		case "CoordMember":
			m.CoordMember = val == "True" || val == "1"
		case "AposMember":
			m.AposMember = val == "True" || val == "1"
		case "original_ord":
			o, err := tree.ParseOrd(val)
			if err != nil {
				return m, converr.New(converr.ErrCodeInvalidFormat,
					"bad original_ord %q", val)
			}
			m.OriginalOrd = o
		case "art_deps":
			head, rel, found := strings.Cut(val, recordSep)
			if !found {
				return m, converr.New(converr.ErrCodeInvalidFormat,
					"bad art_deps %q", val)
			}
			o, err := tree.ParseOrd(head)
			if err != nil {
				return m, converr.New(converr.ErrCodeInvalidFormat,
					"bad art_deps head %q", head)
			}
			m.Recorded = &tree.EdgeRecord{Head: o, Rel: rel}
		default:
			m.Other = append(m.Other, item)
		}
	}
	return m, nil
}

// decodeDeps parses a DEPS cell ("2:obl|4.1:conj") into secondary edges.
func decodeDeps(t *tree.Tree, n *tree.Node, cell string) error {
	if cell == "" {
		return nil
	}
	for _, item := range strings.Split(cell, "|") {
		headCol, rel, found := strings.Cut(item, ":")
		if !found || rel == "" {
			return converr.New(converr.ErrCodeInvalidFormat,
				"node %s: bad deps item %q", n.Ord(), item)
		}
		o, err := tree.ParseOrd(headCol)
		if err != nil {
			return converr.New(converr.ErrCodeInvalidFormat,
				"node %s: bad deps head %q", n.Ord(), headCol)
		}
		head := t.Root()
		if o != (tree.Ord{}) {
			if head = t.ByOrd(o); head == nil {
				return converr.New(converr.ErrCodeInvalidFormat,
					"node %s: deps head %s does not exist", n.Ord(), o)
			}
		}
		n.AddDep(head, rel)
	}
	return nil
}
