package rewrite

import (
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// recordArtificialEdges runs before any rewriting. Every node that is
// artificial, or depends on an artificial head, gets its current
// (head ordinal, relation) pair stored in the metadata sidecar, and every
// artificial node is stamped with its pre-rewrite ordinal. The rewrite pass
// is about to tear this structure apart; the records are what the post-pass
// rebuilds as secondary edges. Ordinals are stable through the pass, which
// is what keeps the recorded positions resolvable at the end.
func recordArtificialEdges(t *tree.Tree) {
	for _, n := range t.Descendants() {
		if n.IsArtificial() || n.Parent().IsArtificial() {
			n.Misc.Recorded = &tree.EdgeRecord{Head: n.Parent().Ord(), Rel: n.Deprel}
		}
		if n.IsArtificial() {
			n.Misc.OriginalOrd = n.Ord()
		}
	}
}

// resolveArtificials runs after the last subtree rewrite. Artificial nodes
// that survived (elided heads kept as dependents of their promoted
// replacement) are reified as empty nodes and the recorded pre-rewrite
// edges become secondary edges. Sentences whose artificial nodes were all
// consumed by constructions are left untouched: their recorded edges are
// already expressed by the rewritten primary tree.
func (c *Converter) resolveArtificials(t *tree.Tree, st *Stats) {
	var arts []*tree.Node
	for _, n := range t.Descendants() {
		if n.IsArtificial() {
			arts = append(arts, n)
		}
	}
	if len(arts) == 0 {
		return
	}

	// Reify in document order, so an artificial anchored behind another
	// artificial lands behind the same live token once both are gone.
	empties := make(map[tree.Ord]*tree.Node, len(arts))
	for _, art := range arts {
		e := c.reify(t, art)
		empties[e.Misc.OriginalOrd] = e
		st.EmptyNodes++
	}

	// A recorded head is found among the reified empty nodes first (by
	// pre-rewrite ordinal), then as the sentence root, then among the live
	// tokens. Stale records pointing at consumed artificial nodes resolve
	// to nothing.
	find := func(rec tree.EdgeRecord) *tree.Node {
		if e, ok := empties[rec.Head]; ok {
			return e
		}
		if rec.Head == (tree.Ord{}) {
			return t.Root()
		}
		return t.ByOrd(rec.Head)
	}

	for _, e := range t.Empties() {
		rec := e.Misc.Recorded
		if rec == nil {
			c.opts.Logger.Errorf("empty node %s in %s carries no recorded edge", e.Form, t.ID)
			continue
		}
		head := find(*rec)
		if head == nil {
			st.fail(converr.ErrCodeUnresolvedEdge, 1)
			c.opts.Logger.Warnf("dropping secondary edge %s <- %s in %s: no node at recorded head",
				rec.Head, e.Form, t.ID)
			continue
		}
		e.AddDep(head, rec.Rel)
		st.SecondaryEdges++
	}

	for _, n := range t.Descendants() {
		rec := n.Misc.Recorded
		if rec == nil {
			continue
		}
		head := find(*rec)
		if head == nil {
			// Expected when the recorded head was consumed by a
			// construction: the rewritten primary tree already carries the
			// relation.
			c.opts.Logger.Debugf("skipping stale recorded edge %s <- %s in %s",
				rec.Head, n.Address(), t.ID)
			continue
		}
		n.AddDep(head, rec.Rel)
		st.SecondaryEdges++
	}
}

// reify copies an artificial node into an empty node anchored after its
// nearest live predecessor (or before the first token), then removes the
// original from the primary tree. Children the artificial node still holds
// rehang onto its parent, which may itself be an artificial node awaiting
// its own reification.
func (c *Converter) reify(t *tree.Tree, art *tree.Node) *tree.Node {
	var anchor tree.Ord
	if prev := t.TokenBefore(art.Ord()); prev != nil {
		anchor = prev.Ord()
	}
	e := t.AddEmptyAfter(anchor)
	e.Form = "E" + e.Ord().String()
	e.Lemma = art.Lemma
	e.UPOS = art.UPOS
	e.XPOS = art.XPOS
	e.Feats = art.Feats
	e.Misc = tree.Misc{
		OriginalDep: art.Misc.OriginalDep,
		CoordMember: art.Misc.CoordMember,
		AposMember:  art.Misc.AposMember,
		OriginalOrd: art.Misc.OriginalOrd,
		Recorded:    art.Misc.Recorded,
	}
	c.opts.Logger.Debugf("reifying %s as empty node %s", art.Address(), e.Form)
	art.Remove()
	return e
}
