// Package constructions classifies Prague-style (AGLDT) subtrees by the
// construction they head: functional relator, coordination, apposition,
// copula, or ellipsis. The predicates read only the subtree root's node
// kind, tags, and metadata plus its direct children's, never the rest of
// the sentence, so they stay cheap and side-effect free.
//
// Classification relies on the source relation labels stashed in each
// node's metadata by the upstream shallow conversion ("AuxP", "COORD", ...)
// and on the Artificial node-kind flag marking synthetic placeholders.
package constructions

import (
	"slices"

	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// Source-schema relation labels that drive classification and candidate
// selection.
const (
	AuxP  = "AuxP"  // preposition heading a prepositional phrase
	AuxC  = "AuxC"  // subordinating conjunction heading a clause
	AuxY  = "AuxY"  // sentence adverbial or non-final coordinator
	AuxZ  = "AuxZ"  // emphasizing particle
	COORD = "COORD" // coordination head
	APOS  = "APOS"  // apposition head
	PNOM  = "PNOM"  // predicate nominal governed by a copula
)

// DefaultCopularLemmas lists the copulative verbs of the treebanks this
// converter grew up on: being and becoming in Ancient Greek and Latin.
var DefaultCopularLemmas = []string{"εἰμί", "γίγνομαι", "ὑπάρχω", "sum", "fio"}

// Standard classifies subtrees by Prague relation labels and node kinds.
// The five predicates are mutually exclusive: relator, coordination, and
// apposition labels take precedence over the copula shape, which takes
// precedence over bare-artificial ellipsis, mirroring how the labels are
// assigned in the source treebank.
type Standard struct {
	// CopularLemmas lists the lemmas accepted as overt copulas. Nil means
	// [DefaultCopularLemmas]. A predicate nominal alone does not make its
	// governor a copula: mid-conversion, promotion hands predicate
	// nominals to governors one level up, and those must not be demoted
	// in turn.
	CopularLemmas []string
}

// IsBridge reports whether the subtree root is a functional relator
// (preposition or subordinating conjunction) whose lexical dependent should
// govern the phrase.
func (Standard) IsBridge(n *tree.Node) bool {
	dep := n.Misc.OriginalDep
	return dep == AuxP || dep == AuxC
}

// IsCoordination reports whether the subtree root heads a coordination.
func (Standard) IsCoordination(n *tree.Node) bool {
	return n.Misc.OriginalDep == COORD
}

// IsApposition reports whether the subtree root heads an apposition.
func (Standard) IsApposition(n *tree.Node) bool {
	return n.Misc.OriginalDep == APOS
}

// IsCopula reports whether the subtree root is a copula: a copular verb
// (or an artificial placeholder standing in for an elided one) governing a
// predicate nominal, outside the relator, coordination, and apposition
// constructions.
func (s Standard) IsCopula(n *tree.Node) bool {
	if s.IsBridge(n) || s.IsCoordination(n) || s.IsApposition(n) {
		return false
	}
	if !n.IsArtificial() && !s.copular(n) {
		return false
	}
	for _, c := range n.Children() {
		if c.Misc.OriginalDep == PNOM {
			return true
		}
	}
	return false
}

func (s Standard) copular(n *tree.Node) bool {
	if n.UPOS == "AUX" {
		return true
	}
	lemmas := s.CopularLemmas
	if lemmas == nil {
		lemmas = DefaultCopularLemmas
	}
	return slices.Contains(lemmas, n.Lemma)
}

// IsEllipsis reports whether the subtree root is a synthetic placeholder
// for elided material that matches no more specific construction. Such
// heads are resolved by promoting one of their dependents.
func (s Standard) IsEllipsis(n *tree.Node) bool {
	return n.IsArtificial() &&
		!s.IsBridge(n) && !s.IsCoordination(n) && !s.IsApposition(n) && !s.IsCopula(n)
}
