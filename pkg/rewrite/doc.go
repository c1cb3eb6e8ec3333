// Package rewrite restructures Prague-style (AGLDT) dependency trees into
// Universal Dependencies shape by rewriting one subtree at a time.
//
// # Overview
//
// Input trees have already passed a shallow relabeling pass that stored
// each node's original relation label and node kind in its metadata
// sidecar. What remains is structural: Prague trees hang phrases under
// functional heads (prepositions, conjunctions, copulas, placeholder nodes
// for elided material) where UD wants the lexical head on top. The
// [Converter] walks every subtree bottom-up, classifies the construction
// its root heads, and re-points parent and relation edges so the preferred
// head governs locally:
//
//   - Bridge: a relator (AuxP/AuxC) hands government to its single
//     content-bearing dependent.
//   - Coordination: the first conjunct becomes the head; the remaining
//     conjuncts attach to it as "conj", trailing coordinators and
//     punctuation move to the conjunct they precede.
//   - Apposition: like coordination with relation "apos" and no
//     coordinator relabeling.
//   - Copula: the predicate nominal is promoted and the copula demoted to
//     "cop".
//   - Ellipsis: a placeholder head is replaced by its highest-priority
//     dependent (subjects before objects before obliques, ...).
//
// # Bottom-Up Order
//
// [BottomUp] precomputes the visiting order from the pristine tree: deepest
// subtrees first, the root's immediate children last. By the time a subtree
// root is visited, every construction below it is already resolved, so a
// relator governing a coordination sees the finished coordination head.
// The order is never re-derived during the pass.
//
// # Failure Policy
//
// Rewrites are fail-soft per subtree. A branch that cannot find its
// promotion candidate or its members logs the failure, counts it in
// [Stats], and leaves the subtree exactly as found; no partial mutation is
// ever visible because each branch validates before its first edge change.
// No error crosses a sentence boundary.
//
// # Enhanced Dependencies
//
// With [Options.Enhanced] set, a pre-pass records the (head ordinal,
// relation) pairs around artificial nodes before rewriting destroys them,
// and a post-pass reifies surviving artificial nodes as empty nodes with
// fractional ordinals, reconstructing the recorded structure as secondary
// edges on the empty nodes and their former dependents.
//
// # Usage
//
//	conv, err := rewrite.New(rewrite.Options{Enhanced: true})
//	if err != nil {
//		return err
//	}
//	stats := conv.ConvertTree(t) // mutates t in place
package rewrite
