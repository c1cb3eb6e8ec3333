// Package tree holds the in-memory dependency-tree model shared by the
// schema converter: one [Tree] per sentence, built from [Node] values that
// carry both the surface token attributes and the conversion metadata
// sidecar ([Misc]).
//
// The primary structure is a strict tree: every node except the synthetic
// sentence root has exactly one parent, and no node is its own ancestor.
// All mutation goes through [Node.SetParent] and [Node.Remove], which keep
// that invariant at every intermediate step. Multi-governance semantics
// (shared conjuncts, elided heads) live in a separate append-only secondary
// edge list per node ([Dep]), populated only when enhanced output is
// requested.
//
// Ordinals are stable: removing a node retires its ordinal instead of
// renumbering the rest of the sentence, so ordinal references recorded
// before a rewrite still identify the same nodes afterwards. Serialization
// is expected to renumber on output.
package tree

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrOrphan is returned by [Tree.Validate] when a node's parent chain
	// does not reach the sentence root. This indicates tree corruption.
	ErrOrphan = errors.New("parent chain does not reach the root")

	// ErrDuplicateOrdinal is returned by [Tree.Validate] when two live
	// nodes carry the same ordinal.
	ErrDuplicateOrdinal = errors.New("duplicate ordinal")

	// ErrChildIndex is returned by [Tree.Validate] when a parent's child
	// list and its children's parent pointers disagree.
	ErrChildIndex = errors.New("child list out of sync with parent pointers")
)

// Tree is one sentence: a synthetic root with ordinal 0, the live token
// nodes under it, and the empty nodes created during artificial-node
// resolution. Empty nodes sit outside the primary tree and participate only
// in the secondary dependency graph.
type Tree struct {
	// ID is the sentence identifier ("# sent_id" in CoNLL-U).
	ID string
	// Comments holds the sentence's comment lines verbatim, except the
	// sent_id line, which is extracted into ID.
	Comments []string

	root    *Node
	tokens  []*Node // live tokens in document order
	empties []*Node // empty nodes in document order
}

// New creates an empty sentence with only a root node.
func New(id string) *Tree {
	t := &Tree{ID: id}
	t.root = &Node{tree: t}
	return t
}

// Root returns the synthetic sentence root (ordinal 0).
func (t *Tree) Root() *Node { return t.root }

// Descendants returns the live token nodes in document order. Empty nodes
// are not included; see [Tree.Empties].
func (t *Tree) Descendants() []*Node { return slices.Clone(t.tokens) }

// Empties returns the empty nodes in document order.
func (t *Tree) Empties() []*Node { return slices.Clone(t.empties) }

// Len returns the number of live tokens.
func (t *Tree) Len() int { return len(t.tokens) }

// Text returns the sentence text recorded in a "# text = " comment, or ""
// if the sentence has none.
func (t *Tree) Text() string {
	for _, c := range t.Comments {
		if text, ok := strings.CutPrefix(c, "# text = "); ok {
			return text
		}
	}
	return ""
}

// AddToken appends a token with the next integer ordinal, attached to the
// root until its real head is known.
func (t *Tree) AddToken(form string) *Node {
	ord := Ord{Major: 1}
	if len(t.tokens) > 0 {
		ord.Major = t.tokens[len(t.tokens)-1].ord.Major + 1
	}
	n := &Node{tree: t, parent: t.root, ord: ord, Form: form}
	t.root.insertChild(n)
	t.tokens = append(t.tokens, n)
	return n
}

// AddEmptyAfter creates an empty node anchored after the given integer
// ordinal (0 anchors before the first token). The node receives the first
// unused fractional ordinal in the series anchor.1, anchor.2, ...; the
// search always advances to a fresh value, so two empty nodes anchored
// after the same token never collide.
func (t *Tree) AddEmptyAfter(anchor Ord) *Node {
	ord := Ord{Major: anchor.Major, Minor: 1}
	for t.byEmptyOrd(ord) != nil {
		ord.Minor++
	}
	n := &Node{tree: t, ord: ord}
	i, _ := slices.BinarySearchFunc(t.empties, n, func(a, b *Node) int {
		return a.ord.Compare(b.ord)
	})
	t.empties = slices.Insert(t.empties, i, n)
	return n
}

// ByOrd returns the live token or empty node with the given ordinal, or nil
// if no node carries it.
func (t *Tree) ByOrd(o Ord) *Node {
	if o.Fractional() {
		return t.byEmptyOrd(o)
	}
	i, ok := slices.BinarySearchFunc(t.tokens, o, func(n *Node, target Ord) int {
		return n.ord.Compare(target)
	})
	if !ok {
		return nil
	}
	return t.tokens[i]
}

// TokenBefore returns the last live token whose ordinal is strictly smaller
// than o, or nil if none precedes it.
func (t *Tree) TokenBefore(o Ord) *Node {
	i, _ := slices.BinarySearchFunc(t.tokens, o, func(n *Node, target Ord) int {
		return n.ord.Compare(target)
	})
	if i == 0 {
		return nil
	}
	return t.tokens[i-1]
}

func (t *Tree) byEmptyOrd(o Ord) *Node {
	i, ok := slices.BinarySearchFunc(t.empties, o, func(n *Node, target Ord) int {
		return n.ord.Compare(target)
	})
	if !ok {
		return nil
	}
	return t.empties[i]
}

// unregister drops a node from the token index after removal.
func (t *Tree) unregister(n *Node) {
	if i := slices.Index(t.tokens, n); i >= 0 {
		t.tokens = slices.Delete(t.tokens, i, i+1)
	}
}

// Validate checks tree integrity and returns nil if the sentence is sound.
// It verifies that every live token's parent chain reaches the root without
// repeats, that parent pointers and child lists agree, and that no ordinal
// is carried by two live nodes. Use it in tests and after transformation
// passes that reparent nodes in place.
func (t *Tree) Validate() error {
	for _, n := range t.tokens {
		seen := map[*Node]bool{n: true}
		a := n.parent
		for a != nil && !seen[a] {
			seen[a] = true
			a = a.parent
		}
		if a != nil || !seen[t.root] {
			return ErrOrphan
		}
	}
	nodes := append([]*Node{t.root}, t.tokens...)
	for _, n := range nodes {
		for _, c := range n.children {
			if c.parent != n {
				return ErrChildIndex
			}
		}
	}
	for _, n := range t.tokens {
		if n.parent != nil && slices.Index(n.parent.children, n) < 0 {
			return ErrChildIndex
		}
	}
	ords := map[Ord]bool{}
	for _, n := range t.tokens {
		if ords[n.ord] {
			return ErrDuplicateOrdinal
		}
		ords[n.ord] = true
	}
	for _, n := range t.empties {
		if ords[n.ord] {
			return ErrDuplicateOrdinal
		}
		ords[n.ord] = true
	}
	return nil
}
