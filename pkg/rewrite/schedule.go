package rewrite

import (
	"slices"

	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// A Subtree pairs a visiting candidate with its measured depth, the number
// of edges on the longest path from the node down to a leaf. Leaves measure
// zero and are never candidates: a leaf heads nothing worth rewriting.
type Subtree struct {
	Root  *tree.Node
	Depth int
}

// A Scheduler derives the subtree visiting order for one sentence. The
// order is computed once from the tree as given and stays fixed while the
// conversion mutates the tree underneath it.
type Scheduler func(*tree.Tree) []Subtree

// BottomUp schedules every non-leaf node below the technical root in
// ascending depth order, ties broken by document order. Rewriting in this
// order guarantees that when a subtree root is visited, all constructions
// strictly below it have already been rewritten.
func BottomUp(t *tree.Tree) []Subtree {
	depths := make(map[*tree.Node]int)
	var measure func(n *tree.Node) int
	measure = func(n *tree.Node) int {
		if d, ok := depths[n]; ok {
			return d
		}
		d := 0
		for _, ch := range n.Children() {
			if cd := measure(ch) + 1; cd > d {
				d = cd
			}
		}
		depths[n] = d
		return d
	}

	var subs []Subtree
	for _, n := range t.Descendants() {
		if d := measure(n); d > 0 {
			subs = append(subs, Subtree{Root: n, Depth: d})
		}
	}
	slices.SortStableFunc(subs, func(a, b Subtree) int {
		return a.Depth - b.Depth
	})
	return subs
}
