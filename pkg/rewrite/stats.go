package rewrite

import (
	"github.com/gregorycrane/tb2ud/pkg/converr"
)

// Stats reports what one conversion pass did to a sentence. Counts from
// several sentences can be folded together with [Stats.Add].
type Stats struct {
	// Subtrees is the number of scheduled subtree roots visited.
	Subtrees int

	// Per-construction rewrite counts. A visited subtree that matches no
	// construction is counted in Subtrees only.
	Bridges       int
	Coordinations int
	Appositions   int
	Copulas       int
	Ellipses      int

	// EmptyNodes and SecondaryEdges count resolver output and stay zero
	// unless [Options.Enhanced] is set.
	EmptyNodes     int
	SecondaryEdges int

	// Failures counts fail-soft skips by error code. Nil when nothing
	// failed.
	Failures map[converr.Code]int
}

// Rewritten returns how many visited subtrees were actually restructured.
func (s Stats) Rewritten() int {
	return s.Bridges + s.Coordinations + s.Appositions + s.Copulas + s.Ellipses
}

// FailureCount returns the total number of fail-soft skips.
func (s Stats) FailureCount() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}

// Add returns the field-wise sum of s and other.
func (s Stats) Add(other Stats) Stats {
	sum := Stats{
		Subtrees:       s.Subtrees + other.Subtrees,
		Bridges:        s.Bridges + other.Bridges,
		Coordinations:  s.Coordinations + other.Coordinations,
		Appositions:    s.Appositions + other.Appositions,
		Copulas:        s.Copulas + other.Copulas,
		Ellipses:       s.Ellipses + other.Ellipses,
		EmptyNodes:     s.EmptyNodes + other.EmptyNodes,
		SecondaryEdges: s.SecondaryEdges + other.SecondaryEdges,
	}
	for code, n := range s.Failures {
		sum.fail(code, n)
	}
	for code, n := range other.Failures {
		sum.fail(code, n)
	}
	return sum
}

func (s *Stats) fail(code converr.Code, n int) {
	if s.Failures == nil {
		s.Failures = make(map[converr.Code]int)
	}
	s.Failures[code] += n
}
