// Package render draws converted sentence trees as node-link diagrams.
//
// # Overview
//
// This package turns a [tree.Tree] into Graphviz DOT source and renders it
// to SVG or PNG in process. Trees read top-down from the sentence root;
// tokens are boxes labeled with their form and relation, empty nodes appear
// dashed, and secondary (enhanced) edges are drawn dotted next to the
// primary tree.
//
// # Usage
//
// Convert a tree to DOT format, then render it:
//
//	dot := render.ToDOT(t, render.Options{Secondary: true})
//	svg, err := render.SVG(dot)
//	png, err := render.PNG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [SVG] or [PNG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// Output is deterministic: nodes appear in document order and secondary
// edges sort by governor position, so equal trees render byte-equal DOT.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no external Graphviz installation is required.
package render
