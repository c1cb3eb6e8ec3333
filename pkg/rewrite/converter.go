package rewrite

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/gregorycrane/tb2ud/pkg/constructions"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// A Classifier decides which construction a subtree root heads. Predicates
// read only the root and its direct children, never mutate, and are
// mutually exclusive on well-formed input; the switch in the converter
// still probes them in a fixed order so unexpected overlap resolves
// deterministically. [constructions.Standard] is the stock implementation.
type Classifier interface {
	IsBridge(*tree.Node) bool
	IsCoordination(*tree.Node) bool
	IsApposition(*tree.Node) bool
	IsCopula(*tree.Node) bool
	IsEllipsis(*tree.Node) bool
}

var _ Classifier = constructions.Standard{}

// Options configure a [Converter].
type Options struct {
	// Enhanced turns on artificial-node resolution: surviving artificial
	// nodes become empty nodes and their recorded structure becomes
	// secondary edges.
	Enhanced bool

	// Classifier assigns constructions to subtree roots.
	// Defaults to [constructions.Standard].
	Classifier Classifier

	// Schedule derives the subtree visiting order. Defaults to [BottomUp].
	Schedule Scheduler

	// Tables are the branch lookup sets. Empty fields fall back to
	// [DefaultTables].
	Tables Tables

	// Logger receives per-subtree diagnostics. Defaults to a no-op logger.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults for
// omitted fields. It is idempotent and called by [New].
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Classifier == nil {
		o.Classifier = constructions.Standard{}
	}
	if o.Schedule == nil {
		o.Schedule = BottomUp
	}
	o.Tables.setDefaults()
	if err := o.Tables.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// A Converter rewrites sentence trees in place. It keeps no per-sentence
// state, so a single Converter may convert distinct trees from concurrent
// goroutines; the shared logger serializes its own writes.
type Converter struct {
	opts Options
}

// New creates a Converter from opts.
func New(opts Options) (*Converter, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Converter{opts: opts}, nil
}

// ConvertTree rewrites one sentence in place and reports what it did.
// Failures stay local to their subtree: the subtree is logged, counted and
// left as found, and the pass moves on. Ordinals are never renumbered, so
// positions recorded before the pass stay meaningful throughout.
func (c *Converter) ConvertTree(t *tree.Tree) Stats {
	var st Stats
	schedule := c.opts.Schedule(t)
	if c.opts.Enhanced {
		recordArtificialEdges(t)
	}
	for _, sub := range schedule {
		c.rewriteSubtree(sub.Root, &st)
	}
	if c.opts.Enhanced {
		c.resolveArtificials(t, &st)
	}
	return st
}

func (c *Converter) rewriteSubtree(s *tree.Node, st *Stats) {
	st.Subtrees++
	switch cl := c.opts.Classifier; {
	case cl.IsBridge(s):
		c.bridge(s, st)
	case cl.IsCoordination(s):
		c.coordination(s, st)
	case cl.IsApposition(s):
		c.apposition(s, st)
	case cl.IsCopula(s):
		c.copula(s, st)
	case cl.IsEllipsis(s):
		c.ellipsis(s, st)
	}
}

// bridge promotes the single content-bearing dependent of a relator. A
// dependent qualifies if it is artificial or carries an open-class tag
// without being a relator satellite. Anything but exactly one candidate
// leaves the relator in charge.
func (c *Converter) bridge(s *tree.Node, st *Stats) {
	var candidates []*tree.Node
	for _, ch := range s.Children() {
		if ch.IsArtificial() ||
			(c.opts.Tables.openClass(ch.XPOS) && !c.opts.Tables.satellite(ch.Misc.OriginalDep)) {
			candidates = append(candidates, ch)
		}
	}
	if len(candidates) != 1 {
		st.fail(converr.ErrCodeAmbiguousPromotion, 1)
		c.opts.Logger.Warnf("relator %s (%s): %d promotion candidates, want 1",
			s.Address(), s.Deprel, len(candidates))
		return
	}
	promote(candidates[0], s)
	st.Bridges++
}

// coordination flattens a Prague coordination: the first conjunct takes
// over the subtree, the remaining conjuncts attach to it as "conj", and the
// old head with its satellites moves under the first conjunct. Coordinating
// conjunctions among the satellites are relabeled "cc". A final sweep moves
// trailing coordinators and punctuation to the conjunct they precede.
func (c *Converter) coordination(s *tree.Node, st *Stats) {
	var members []*tree.Node
	for _, ch := range s.Children() {
		if ch.Misc.CoordMember {
			members = append(members, ch)
		}
	}
	if len(members) == 0 {
		st.fail(converr.ErrCodeMissingMembers, 1)
		c.opts.Logger.Errorf("coordination %s has no members", s.Address())
		return
	}

	first := members[0]
	rel := s.Deprel
	must(first.SetParent(s.Parent()))
	first.Deprel = rel
	for _, m := range members[1:] {
		must(m.SetParent(first))
		m.Deprel = "conj"
	}

	// Hang the old head under the first conjunct before its children move,
	// so the tree is acyclic after every single edge change.
	must(s.SetParent(first))
	for _, ch := range s.Children() {
		must(ch.SetParent(first))
		if ch.Misc.OriginalDep == constructions.AuxY && ch.UPOS == "CCONJ" {
			ch.Deprel = "cc"
		}
	}
	if s.IsArtificial() {
		c.opts.Logger.Debugf("removing artificial coordination head %s", s.Address())
		s.Remove()
	}

	// "A, B and C": the comma and the conjunction belong to the conjunct
	// they precede, not to A.
	for _, ch := range first.Children() {
		if rel := ch.UDeprel(); (rel == "cc" || rel == "punct") && !ch.Precedes(first) {
			attachRight(ch, "conj")
		}
	}
	st.Coordinations++
}

// apposition mirrors coordination with relation "apos", minus coordinator
// handling. A non-artificial old head survives as a dependent of the first
// member and is relabeled "punct" if it is punctuation.
func (c *Converter) apposition(s *tree.Node, st *Stats) {
	var members []*tree.Node
	for _, ch := range s.Children() {
		if ch.Misc.AposMember {
			members = append(members, ch)
		}
	}
	if len(members) == 0 {
		st.fail(converr.ErrCodeMissingMembers, 1)
		c.opts.Logger.Errorf("apposition %s has no members", s.Address())
		return
	}

	first := members[0]
	rel := s.Deprel
	must(first.SetParent(s.Parent()))
	first.Deprel = rel
	for _, m := range members[1:] {
		must(m.SetParent(first))
		m.Deprel = "apos"
	}

	for _, ch := range s.Children() {
		must(ch.SetParent(first))
	}
	if s.IsArtificial() {
		c.opts.Logger.Debugf("removing artificial apposition head %s", s.Address())
		s.Remove()
	} else {
		must(s.SetParent(first))
		if s.UPOS == "PUNCT" {
			s.Deprel = "punct"
		}
	}
	st.Appositions++
}

// copula promotes the predicate nominal over the copular verb and demotes
// the verb to "cop". With several predicate nominals the first in document
// order wins; with none the subtree is skipped.
func (c *Converter) copula(s *tree.Node, st *Stats) {
	var pnom *tree.Node
	pnoms := 0
	for _, ch := range s.Children() {
		if ch.Misc.OriginalDep == constructions.PNOM {
			if pnom == nil {
				pnom = ch
			}
			pnoms++
		}
	}
	if pnom == nil {
		st.fail(converr.ErrCodeAmbiguousPromotion, 1)
		c.opts.Logger.Errorf("copula %s has no predicate nominal", s.Address())
		return
	}
	if pnoms > 1 {
		c.opts.Logger.Debugf("copula %s has %d predicate nominals, promoting the first",
			s.Address(), pnoms)
	}

	promote(pnom, s)
	if s.IsArtificial() {
		c.opts.Logger.Debugf("removing artificial copula %s", s.Address())
		s.Remove()
	} else {
		s.Deprel = "cop"
	}
	st.Copulas++
}

// ellipsis replaces a placeholder head with its highest-priority dependent.
// The placeholder stays in the tree as a dependent of the promoted node;
// when enhanced output is on, the resolver later turns it into an empty
// node.
func (c *Converter) ellipsis(s *tree.Node, st *Stats) {
	winner := c.opts.Tables.firstByPriority(s.Children())
	if winner == nil {
		st.fail(converr.ErrCodeAmbiguousPromotion, 1)
		c.opts.Logger.Errorf("elided head %s %q has no promotable dependent",
			s.Address(), s.Form)
		return
	}
	promote(winner, s)
	st.Ellipses++
}
