package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// Options configures sentence-tree diagram generation.
type Options struct {
	// Detailed adds lemma and part-of-speech lines to node labels.
	// When false, labels show only the form and relation.
	Detailed bool

	// Secondary draws the enhanced dependency edges (dotted) alongside
	// the primary tree. Without the resolver pass these lists are empty
	// and the flag has no effect.
	Secondary bool
}

// ToDOT converts a sentence tree to Graphviz DOT format. The resulting DOT
// string can be rendered with [SVG] or [PNG].
//
// The sentence root is drawn as a small circle, tokens as rounded boxes in
// document order, and empty nodes (created by artificial-node resolution)
// with dashed outlines and grey fill.
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	name := t.ID
	if name == "" {
		name = "sentence"
	}
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	buf.WriteString("  \"0\" [label=\"ROOT\", shape=circle, fontsize=10, margin=\"0.05,0.05\"];\n")
	for _, n := range allNodes(t) {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Ord().String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range t.Descendants() {
		parent := "0"
		if p := n.Parent(); p != nil && !p.IsRoot() {
			parent = p.Ord().String()
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", parent, n.Ord().String(), n.Deprel)
	}

	if opts.Secondary {
		writeSecondary(&buf, t)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeSecondary appends the enhanced edges, dotted, sorted by dependent
// then governor position so output stays deterministic.
func writeSecondary(buf *bytes.Buffer, t *tree.Tree) {
	type edge struct {
		from, to tree.Ord
		rel      string
	}
	var edges []edge
	for _, n := range allNodes(t) {
		for _, d := range n.Deps {
			var from tree.Ord // root
			if !d.Head.IsRoot() {
				from = d.Head.Ord()
			}
			edges = append(edges, edge{from: from, to: n.Ord(), rel: d.Rel})
		}
	}
	if len(edges) == 0 {
		return
	}
	slices.SortStableFunc(edges, func(a, b edge) int {
		if c := a.to.Compare(b.to); c != 0 {
			return c
		}
		return a.from.Compare(b.from)
	})

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(buf, "  %q -> %q [label=%q, style=dotted, constraint=false];\n",
			e.from.String(), e.to.String(), e.rel)
	}
}

// allNodes returns tokens and empty nodes merged in document order.
func allNodes(t *tree.Tree) []*tree.Node {
	nodes := append(t.Descendants(), t.Empties()...)
	slices.SortFunc(nodes, func(a, b *tree.Node) int { return a.Ord().Compare(b.Ord()) })
	return nodes
}

func fmtLabel(n *tree.Node, detailed bool) string {
	label := n.Form
	if n.IsEmpty() {
		label = n.Form + "\n(elided)"
	} else if n.Deprel != "" {
		label = n.Form + "\n(" + n.Deprel + ")"
	}
	if !detailed {
		return label
	}

	parts := []string{label}
	if n.Lemma != "" {
		parts = append(parts, "lemma: "+n.Lemma)
	}
	if n.UPOS != "" {
		parts = append(parts, "upos: "+n.UPOS)
	}
	if n.Misc.OriginalDep != "" {
		parts = append(parts, "was: "+n.Misc.OriginalDep)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsEmpty() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}
