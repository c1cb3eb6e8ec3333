package conllu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// recordSep separates head and relation in the art_deps MISC item. A plain
// ":" would be ambiguous: relation subtypes contain colons themselves.
const recordSep = "%:%"

// Write serializes trees to w in document order. Conversion retires the
// ordinals of deleted nodes, so tokens are renumbered 1..N here, with
// heads, DEPS targets, and empty-node anchors remapped to match.
func Write(trees []*tree.Tree, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, t := range trees {
		writeTree(bw, t)
	}
	if err := bw.Flush(); err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "write output")
	}
	return nil
}

// WriteFile writes trees to a file at path, creating or truncating it.
func WriteFile(trees []*tree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "create %s", path)
	}
	if err := Write(trees, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTree(w *bufio.Writer, t *tree.Tree) {
	if t.ID != "" {
		fmt.Fprintf(w, "# sent_id = %s\n", t.ID)
	}
	for _, c := range t.Comments {
		fmt.Fprintln(w, c)
	}

	num := renumber(t)
	tokens := t.Descendants()
	anchored := anchorEmpties(t, num)

	for _, e := range anchored[0] {
		writeRow(w, e, num)
	}
	for _, n := range tokens {
		writeRow(w, n, num)
		for _, e := range anchored[num[n].Major] {
			writeRow(w, e, num)
		}
	}
	fmt.Fprintln(w)
}

// renumber assigns output ordinals: live tokens become 1..N in document
// order, and each empty node gets a fresh minor under the output number of
// the nearest live token before it (0 when none precedes).
func renumber(t *tree.Tree) map[*tree.Node]tree.Ord {
	num := make(map[*tree.Node]tree.Ord, t.Len())
	for i, n := range t.Descendants() {
		num[n] = tree.Ord{Major: i + 1}
	}
	minors := make(map[int]int)
	for _, e := range t.Empties() {
		anchor := 0
		if prev := t.TokenBefore(e.Ord()); prev != nil {
			anchor = num[prev].Major
		}
		minors[anchor]++
		num[e] = tree.Ord{Major: anchor, Minor: minors[anchor]}
	}
	return num
}

// anchorEmpties groups empty nodes by their output anchor, in order.
func anchorEmpties(t *tree.Tree, num map[*tree.Node]tree.Ord) map[int][]*tree.Node {
	anchored := make(map[int][]*tree.Node)
	for _, e := range t.Empties() {
		a := num[e].Major
		anchored[a] = append(anchored[a], e)
	}
	return anchored
}

func writeRow(w *bufio.Writer, n *tree.Node, num map[*tree.Node]tree.Ord) {
	head := "_"
	deprel := "_"
	if !n.IsEmpty() {
		head = "0"
		if p := n.Parent(); p != nil && !p.IsRoot() {
			head = num[p].String()
		}
		deprel = escape(n.Deprel)
	}
	cols := []string{
		num[n].String(),
		escape(n.Form),
		escape(n.Lemma),
		escape(n.UPOS),
		escape(n.XPOS),
		escape(n.Feats),
		head,
		deprel,
		depsColumn(n, num),
		encodeMisc(n.Misc),
	}
	w.WriteString(strings.Join(cols, "\t"))
	w.WriteByte('\n')
}

func escape(col string) string {
	if col == "" {
		return "_"
	}
	return col
}

// depsColumn renders secondary edges sorted by output head ordinal, as the
// format requires.
func depsColumn(n *tree.Node, num map[*tree.Node]tree.Ord) string {
	if len(n.Deps) == 0 {
		return "_"
	}
	type pair struct {
		ord tree.Ord
		rel string
	}
	pairs := make([]pair, 0, len(n.Deps))
	for _, d := range n.Deps {
		o := tree.Ord{} // sentence root
		if !d.Head.IsRoot() {
			o = num[d.Head]
		}
		pairs = append(pairs, pair{ord: o, rel: d.Rel})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return a.ord.Compare(b.ord) })
	items := make([]string, len(pairs))
	for i, p := range pairs {
		items[i] = p.ord.String() + ":" + p.rel
	}
	return strings.Join(items, "|")
}

// encodeMisc renders the conversion sidecar back into MISC items, known
// keys first, unrecognized items verbatim.
func encodeMisc(m tree.Misc) string {
	var items []string
	if m.OriginalDep != "" {
		items = append(items, "original_dep="+m.OriginalDep)
	}
	if m.Kind == tree.Artificial {
		items = append(items, "NodeType=Artificial")
	}
	if m.CoordMember {
		items = append(items, "CoordMember=True")
	}
	if m.AposMember {
		items = append(items, "AposMember=True")
	}
	if m.OriginalOrd != (tree.Ord{}) {
		items = append(items, "original_ord="+m.OriginalOrd.String())
	}
	if m.Recorded != nil {
		items = append(items, "art_deps="+m.Recorded.Head.String()+recordSep+m.Recorded.Rel)
	}
	items = append(items, m.Other...)
	if len(items) == 0 {
		return "_"
	}
	return strings.Join(items, "|")
}
