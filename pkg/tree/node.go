package tree

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrNilParent is returned by [Node.SetParent] when the new parent is
	// nil. Only the sentence root has no parent.
	ErrNilParent = errors.New("parent must not be nil")

	// ErrCrossTree is returned by [Node.SetParent] when the new parent
	// belongs to a different sentence. Nodes are never shared across trees.
	ErrCrossTree = errors.New("parent belongs to a different tree")

	// ErrDetached is returned by [Node.SetParent] when either node has
	// already been removed from its tree.
	ErrDetached = errors.New("node is detached from its tree")

	// ErrCycle is returned by [Node.SetParent] when the new parent is the
	// node itself or one of its descendants. Accepting the edge would break
	// the single-parent, no-cycle invariant.
	ErrCycle = errors.New("reparenting would create a cycle")
)

// Kind distinguishes genuine surface tokens from synthetic placeholders
// inserted by the source treebank for elided material.
type Kind int

const (
	// Ordinary marks a genuine surface token.
	Ordinary Kind = iota
	// Artificial marks a synthetic placeholder. Artificial nodes that
	// survive rewriting are reified as empty nodes in enhanced mode.
	Artificial
)

// String returns the MISC spelling of the kind.
func (k Kind) String() string {
	if k == Artificial {
		return "Artificial"
	}
	return "Ordinary"
}

// EdgeRecord is a (head ordinal, relation) pair captured before rewriting
// begins, preserving an edge that the rewrite pass is about to destroy.
// Head 0 refers to the sentence root.
type EdgeRecord struct {
	Head Ord
	Rel  string
}

// Misc is the per-node metadata sidecar carried through conversion. The key
// set is closed, so it is a fixed record rather than an open map; MISC items
// outside it round-trip through Other untouched.
type Misc struct {
	// OriginalDep is the relation label the node bore in the source schema
	// (e.g. "AuxP", "COORD", "PNOM") before shallow relabeling.
	OriginalDep string
	// Kind flags synthetic placeholder nodes.
	Kind Kind
	// CoordMember and AposMember mark conjuncts and apposition members.
	CoordMember bool
	AposMember  bool

	// Resolver working fields, populated only in enhanced mode.
	OriginalOrd Ord         // pre-rewrite ordinal of an artificial node
	Recorded    *EdgeRecord // pre-rewrite edge to or from an artificial node

	// Other holds unrecognized MISC items verbatim, in input order.
	Other []string
}

// Dep is a secondary dependency edge: an extra (governor, relation) pair a
// node carries in addition to its single primary-tree parent. Secondary
// edges recover the multi-governance semantics of coordination and ellipsis
// that the primary tree flattens away.
type Dep struct {
	Head *Node
	Rel  string
}

// Node is one element of a sentence: the synthetic root, a token, an
// artificial placeholder, or an empty node. Tree shape is mutated through
// [Node.SetParent] and [Node.Remove], which maintain the single-parent,
// no-cycle invariant; attribute fields are plain and mutable.
type Node struct {
	tree     *Tree
	parent   *Node
	children []*Node // ord-sorted
	ord      Ord

	Form   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  string
	Deprel string
	Misc   Misc
	Deps   []Dep
}

// Ord returns the node's ordinal. Ordinals are stable for the node's
// lifetime; removing a node retires its ordinal rather than renumbering.
func (n *Node) Ord() Ord { return n.ord }

// Parent returns the primary-tree parent, or nil for the sentence root,
// empty nodes, and removed nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's direct dependents in document order.
// The slice is a copy; reparenting while iterating it is safe.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// IsLeaf reports whether the node has no dependents.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsRoot reports whether the node is the synthetic sentence root.
func (n *Node) IsRoot() bool { return n.tree != nil && n.tree.root == n }

// IsEmpty reports whether the node is an empty node (fractional ordinal).
// Empty nodes live outside the primary tree and have no parent.
func (n *Node) IsEmpty() bool { return n.ord.Fractional() }

// IsArtificial reports whether the node is a synthetic placeholder.
func (n *Node) IsArtificial() bool { return n.Misc.Kind == Artificial }

// Tree returns the sentence the node belongs to, or nil once removed.
func (n *Node) Tree() *Tree { return n.tree }

// UDeprel returns the universal part of the relation label: everything
// before the first ":" subtype separator.
func (n *Node) UDeprel() string {
	rel, _, _ := strings.Cut(n.Deprel, ":")
	return rel
}

// Precedes reports whether the node comes before other in document order.
func (n *Node) Precedes(other *Node) bool { return n.ord.Less(other.ord) }

// Address identifies the node in log output as "sentence#ordinal".
func (n *Node) Address() string {
	if n.tree == nil {
		return "detached#" + n.ord.String()
	}
	return n.tree.ID + "#" + n.ord.String()
}

// Descendants returns every node in the subtree below n, in document order.
// The receiver itself is not included.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(m *Node) {
		for _, c := range m.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	slices.SortFunc(out, func(a, b *Node) int { return a.ord.Compare(b.ord) })
	return out
}

// SetParent makes p the node's primary-tree parent, detaching it from its
// current parent first. It refuses edges that would corrupt the tree:
// a nil or removed parent, a parent from another sentence, or a parent in
// the node's own subtree (which would create a cycle). On error the tree is
// left exactly as it was.
func (n *Node) SetParent(p *Node) error {
	if p == nil {
		return ErrNilParent
	}
	if n.tree == nil || p.tree == nil {
		return ErrDetached
	}
	if p.tree != n.tree {
		return ErrCrossTree
	}
	for a := p; a != nil; a = a.parent {
		if a == n {
			return ErrCycle
		}
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = p
	p.insertChild(n)
	return nil
}

// Remove detaches the node from the primary tree, rehanging its children
// onto its parent. Children attached with relation "goeswith" are
// orthographic fragments of the removed form and are discarded with it
// rather than rehung. Removing the root or an already-removed node is a
// no-op.
func (n *Node) Remove() {
	if n.tree == nil || n.parent == nil {
		return
	}
	parent := n.parent
	for _, c := range n.Children() {
		if c.UDeprel() == "goeswith" {
			c.discard()
			continue
		}
		c.parent = parent
		parent.insertChild(c)
	}
	n.children = nil
	parent.removeChild(n)
	n.tree.unregister(n)
	n.parent = nil
	n.tree = nil
}

// discard drops the node and its whole subtree from the tree.
func (n *Node) discard() {
	for _, c := range n.Children() {
		c.discard()
	}
	n.children = nil
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	if n.tree != nil {
		n.tree.unregister(n)
		n.tree = nil
	}
}

// AddDep appends a secondary dependency edge to the given governor.
func (n *Node) AddDep(head *Node, rel string) {
	n.Deps = append(n.Deps, Dep{Head: head, Rel: rel})
}

func (n *Node) insertChild(c *Node) {
	i, _ := slices.BinarySearchFunc(n.children, c, func(a, b *Node) int {
		return a.ord.Compare(b.ord)
	})
	n.children = slices.Insert(n.children, i, c)
}

func (n *Node) removeChild(c *Node) {
	if i := slices.Index(n.children, c); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
}
