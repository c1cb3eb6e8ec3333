package rewrite

import (
	"testing"

	"github.com/gregorycrane/tb2ud/pkg/constructions"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

func TestEllipsisProducesEmptyNode(t *testing.T) {
	// "John [went] Mary's way": the elided predicate survives the rewrite
	// and must come back as an empty node carrying the original structure
	// as secondary edges.
	tr := tree.New("ellipsis-enhanced")
	john := tok(tr, nil, "John", "obl")
	gap := artificial(tr, nil, "[went]", "root")
	gap.Lemma = "go"
	gap.UPOS = "VERB"
	gap.Misc.OriginalDep = "PRED"
	mary := tok(tr, nil, "Mary", "nmod")
	if err := john.SetParent(gap); err != nil {
		t.Fatal(err)
	}
	if err := mary.SetParent(gap); err != nil {
		t.Fatal(err)
	}

	st := newConverter(t, Options{Enhanced: true}).ConvertTree(tr)

	checkEdge(t, john, tr.Root(), "root")
	checkEdge(t, mary, john, "nmod")
	if gap.Tree() != nil {
		t.Fatal("artificial node still in tree after resolution")
	}
	if got, want := tr.Len(), 2; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	empties := tr.Empties()
	if len(empties) != 1 {
		t.Fatalf("empties = %d, want 1", len(empties))
	}
	e := empties[0]
	if got, want := e.Ord(), (tree.Ord{Major: 1, Minor: 1}); got != want {
		t.Errorf("empty ordinal = %s, want %s", got, want)
	}
	if e.Form != "E1.1" {
		t.Errorf("empty form = %q, want %q", e.Form, "E1.1")
	}
	if e.Lemma != "go" || e.UPOS != "VERB" {
		t.Errorf("lexical attributes not copied: lemma=%q upos=%q", e.Lemma, e.UPOS)
	}
	if e.Misc.OriginalDep != "PRED" {
		t.Errorf("OriginalDep = %q, want PRED", e.Misc.OriginalDep)
	}
	if got, want := e.Misc.OriginalOrd, (tree.Ord{Major: 2}); got != want {
		t.Errorf("OriginalOrd = %s, want %s", got, want)
	}

	if len(e.Deps) != 1 || e.Deps[0].Head != tr.Root() || e.Deps[0].Rel != "root" {
		t.Errorf("empty node deps = %v, want root edge", e.Deps)
	}
	if len(john.Deps) != 1 || john.Deps[0].Head != e || john.Deps[0].Rel != "obl" {
		t.Errorf("John deps = %v, want edge to empty node", john.Deps)
	}
	if len(mary.Deps) != 1 || mary.Deps[0].Head != e || mary.Deps[0].Rel != "nmod" {
		t.Errorf("Mary deps = %v, want edge to empty node", mary.Deps)
	}

	if st.Ellipses != 1 || st.EmptyNodes != 1 || st.SecondaryEdges != 3 {
		t.Errorf("stats = %+v, want 1 ellipsis, 1 empty node, 3 secondary edges", st)
	}
	if st.FailureCount() != 0 {
		t.Errorf("failures = %v, want none", st.Failures)
	}
	checkValid(t, tr)
}

func TestResolverSkipsWhenArtificialsConsumed(t *testing.T) {
	// An artificial coordination head is consumed by the rewrite, so
	// enhanced mode must not leave empty nodes or secondary edges behind.
	tr := tree.New("consumed")
	verb := tok(tr, nil, "saw", "root")
	a := tok(tr, nil, "men", "obj")
	a.Misc.CoordMember = true
	b := tok(tr, nil, "ships", "obj")
	b.Misc.CoordMember = true
	head := artificial(tr, verb, "[coord]", "obj")
	head.Misc.OriginalDep = constructions.COORD
	if err := a.SetParent(head); err != nil {
		t.Fatal(err)
	}
	if err := b.SetParent(head); err != nil {
		t.Fatal(err)
	}

	st := newConverter(t, Options{Enhanced: true}).ConvertTree(tr)

	if len(tr.Empties()) != 0 {
		t.Errorf("empties = %d, want 0", len(tr.Empties()))
	}
	if len(a.Deps) != 0 || len(b.Deps) != 0 {
		t.Error("secondary edges added for a consumed artificial head")
	}
	if st.EmptyNodes != 0 || st.SecondaryEdges != 0 {
		t.Errorf("stats = %+v, want no resolver output", st)
	}
	checkValid(t, tr)
}

func TestResolverDropsUnresolvableEdge(t *testing.T) {
	// A surviving artificial whose recorded head was itself consumed: the
	// empty node's own secondary edge is unresolvable and dropped, while
	// edges pointing at the empty node still resolve.
	tr := tree.New("unresolvable")
	verb := tok(tr, nil, "saw", "root")
	m1 := tok(tr, nil, "men", "obj")
	m1.Misc.CoordMember = true
	m2 := tok(tr, nil, "ships", "obj")
	m2.Misc.CoordMember = true
	w := tok(tr, nil, "yesterday", "obl")
	gap := artificial(tr, nil, "[pred]", "advmod")
	gap.Misc.OriginalDep = "ExD"
	head := artificial(tr, verb, "[coord]", "obj")
	head.Misc.OriginalDep = constructions.COORD
	for _, n := range []*tree.Node{m1, m2, gap} {
		if err := n.SetParent(head); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.SetParent(gap); err != nil {
		t.Fatal(err)
	}

	st := newConverter(t, Options{Enhanced: true}).ConvertTree(tr)

	checkEdge(t, m1, verb, "obj")
	checkEdge(t, m2, m1, "conj")
	checkEdge(t, w, m1, "advmod")

	empties := tr.Empties()
	if len(empties) != 1 {
		t.Fatalf("empties = %d, want 1", len(empties))
	}
	e := empties[0]
	if e.Form != "E4.1" {
		t.Errorf("empty form = %q, want E4.1", e.Form)
	}
	if len(e.Deps) != 0 {
		t.Errorf("empty node deps = %v, want none (head was consumed)", e.Deps)
	}
	if len(w.Deps) != 1 || w.Deps[0].Head != e || w.Deps[0].Rel != "obl" {
		t.Errorf("w deps = %v, want edge to empty node", w.Deps)
	}
	if got := st.Failures[converr.ErrCodeUnresolvedEdge]; got != 1 {
		t.Errorf("unresolved edge failures = %d, want 1", got)
	}
	if st.EmptyNodes != 1 || st.SecondaryEdges != 1 {
		t.Errorf("stats = %+v, want 1 empty node and 1 secondary edge", st)
	}
	checkValid(t, tr)
}

func TestEmptyNodeOrdinalsDistinct(t *testing.T) {
	// Two artificial nodes anchored behind the same token must get distinct
	// fractional ordinals, both strictly between that token and the next.
	tr := tree.New("two-empties")
	verb := tok(tr, nil, "stayed", "root")
	anchor := tok(tr, verb, "there", "obj")
	gap1 := artificial(tr, verb, "[p1]", "advcl")
	gap2 := artificial(tr, verb, "[p2]", "advcl")
	c1 := tok(tr, gap1, "north", "obl")
	c2 := tok(tr, gap2, "south", "obl")

	st := newConverter(t, Options{Enhanced: true}).ConvertTree(tr)

	checkEdge(t, c1, verb, "advcl")
	checkEdge(t, c2, verb, "advcl")

	empties := tr.Empties()
	if len(empties) != 2 {
		t.Fatalf("empties = %d, want 2", len(empties))
	}
	e1, e2 := empties[0], empties[1]
	if e1.Ord() == e2.Ord() {
		t.Fatalf("both empty nodes got ordinal %s", e1.Ord())
	}
	next := tree.Ord{Major: anchor.Ord().Major + 1}
	for _, e := range empties {
		if !anchor.Ord().Less(e.Ord()) || !e.Ord().Less(next) {
			t.Errorf("ordinal %s not strictly between %s and %s",
				e.Ord(), anchor.Ord(), next)
		}
	}

	if len(c1.Deps) != 1 || c1.Deps[0].Head != e1 {
		t.Errorf("c1 deps = %v, want edge to first empty node", c1.Deps)
	}
	if len(c2.Deps) != 1 || c2.Deps[0].Head != e2 {
		t.Errorf("c2 deps = %v, want edge to second empty node", c2.Deps)
	}
	if len(e1.Deps) != 1 || e1.Deps[0].Head != verb {
		t.Errorf("e1 deps = %v, want edge to %s", e1.Deps, verb.Form)
	}

	if st.EmptyNodes != 2 || st.SecondaryEdges != 4 || st.FailureCount() != 0 {
		t.Errorf("stats = %+v, want 2 empty nodes, 4 secondary edges, no failures", st)
	}
	checkValid(t, tr)
}
