package rewrite

import (
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// must asserts a reparenting step that branch ordering makes infallible:
// every move in this package reattaches a node next to its former position,
// after the new parent has been detached from below it.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// promote makes newHead the local governor in place of oldHead: newHead
// takes over oldHead's parent and relation label, oldHead becomes a
// dependent of newHead, and oldHead's remaining children move to newHead.
// Children attached as "goeswith" stay behind, since an orthographic
// continuation is anchored to a fixed form rather than to the phrase head.
// Coordination and apposition membership transfers to newHead, so a
// promoted node keeps the membership its old head established one level up.
//
// The two edge changes are ordered so the tree stays acyclic after each
// one: newHead leaves oldHead's subtree first, then oldHead moves under it.
func promote(newHead, oldHead *tree.Node) {
	rel := oldHead.Deprel
	must(newHead.SetParent(oldHead.Parent()))
	newHead.Deprel = rel
	must(oldHead.SetParent(newHead))

	if oldHead.Misc.CoordMember {
		newHead.Misc.CoordMember = true
	}
	if oldHead.Misc.AposMember {
		newHead.Misc.AposMember = true
	}

	for _, ch := range oldHead.Children() {
		if ch.UDeprel() == "goeswith" {
			continue
		}
		must(ch.SetParent(newHead))
	}
}

// attachRight moves n to the first of its later siblings whose universal
// relation matches rel. With no such sibling n stays where it is.
func attachRight(n *tree.Node, rel string) {
	for _, sib := range n.Parent().Children() {
		if sib == n || sib.Precedes(n) {
			continue
		}
		if sib.UDeprel() == rel {
			must(n.SetParent(sib))
			return
		}
	}
}
