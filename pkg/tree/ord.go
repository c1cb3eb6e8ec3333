package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Ord is a node ordinal: the position of a node in its sentence. Genuine
// tokens carry consecutive integer ordinals starting at 1; the sentence root
// is 0. Empty nodes created during artificial-node resolution carry
// fractional ordinals such as 3.1, anchored after the token they follow.
//
// The fraction is stored as an explicit Major.Minor pair rather than a float
// so that 3.10 stays distinct from 3.1 and ordering stays exact for any
// minor index.
type Ord struct {
	Major int
	Minor int
}

// ParseOrd parses a CoNLL-U ID or HEAD value such as "7" or "3.1".
// Integer-range IDs for multiword tokens ("1-2") are not valid ordinals and
// are rejected.
func ParseOrd(s string) (Ord, error) {
	major, minor, fractional := strings.Cut(s, ".")
	m, err := strconv.Atoi(major)
	if err != nil || m < 0 {
		return Ord{}, fmt.Errorf("invalid ordinal %q", s)
	}
	o := Ord{Major: m}
	if fractional {
		f, err := strconv.Atoi(minor)
		if err != nil || f < 1 {
			return Ord{}, fmt.Errorf("invalid ordinal %q", s)
		}
		o.Minor = f
	}
	return o, nil
}

// String renders the ordinal the way CoNLL-U writes it: "7" for tokens,
// "3.1" for empty nodes.
func (o Ord) String() string {
	if o.Minor == 0 {
		return strconv.Itoa(o.Major)
	}
	return strconv.Itoa(o.Major) + "." + strconv.Itoa(o.Minor)
}

// Compare orders ordinals by document position: by Major, then by Minor, so
// an empty node at 3.1 falls between tokens 3 and 4.
func (o Ord) Compare(other Ord) int {
	if o.Major != other.Major {
		if o.Major < other.Major {
			return -1
		}
		return 1
	}
	switch {
	case o.Minor < other.Minor:
		return -1
	case o.Minor > other.Minor:
		return 1
	}
	return 0
}

// Less reports whether o precedes other in document order.
func (o Ord) Less(other Ord) bool { return o.Compare(other) < 0 }

// Fractional reports whether the ordinal belongs to an empty node.
func (o Ord) Fractional() bool { return o.Minor > 0 }
