package rewrite

import (
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// Tables hold the small lookup sets the rewrite branches consult. The zero
// value of every field is replaced by the treebank defaults, so callers
// override only what they need. Fields map 1:1 onto the [tables] section of
// the TOML config file.
type Tables struct {
	// OpenClassTags lists the first characters of positional tags that mark
	// content words eligible for promotion out of a bridge: adjectives,
	// pronouns, verbs, nouns, participles, articles, numerals.
	OpenClassTags []string `toml:"open_class_tags"`

	// RelatorSatellites lists original relation labels that disqualify an
	// otherwise promotable bridge dependent, such as sentence adverbials
	// and emphasizers riding on the relator.
	RelatorSatellites []string `toml:"relator_satellites"`

	// PromotionOrder ranks universal relations for ellipsis resolution,
	// best candidate first.
	PromotionOrder []string `toml:"promotion_order"`
}

// DefaultTables returns the standard Ancient Greek and Latin treebank
// tables.
func DefaultTables() Tables {
	return Tables{
		OpenClassTags:     []string{"a", "p", "v", "n", "t", "l", "m"},
		RelatorSatellites: []string{"AuxY", "AuxZ"},
		PromotionOrder: []string{
			"nsubj", "obj", "iobj", "obl", "advmod", "csubj", "xcomp",
			"ccomp", "advcl", "dislocated", "vocative", "nmod",
		},
	}
}

// setDefaults fills every empty field from [DefaultTables].
func (tb *Tables) setDefaults() {
	def := DefaultTables()
	if len(tb.OpenClassTags) == 0 {
		tb.OpenClassTags = def.OpenClassTags
	}
	if len(tb.RelatorSatellites) == 0 {
		tb.RelatorSatellites = def.RelatorSatellites
	}
	if len(tb.PromotionOrder) == 0 {
		tb.PromotionOrder = def.PromotionOrder
	}
}

// Validate checks that the tables are usable: tag markers must be single
// characters and the promotion order must contain well-formed, unique
// universal relations.
func (tb Tables) Validate() error {
	for _, tag := range tb.OpenClassTags {
		if len(tag) != 1 {
			return converr.New(converr.ErrCodeInvalidConfig,
				"open class tag %q must be a single character", tag)
		}
	}
	seen := make(map[string]bool, len(tb.PromotionOrder))
	for _, rel := range tb.PromotionOrder {
		if err := converr.ValidateDeprel(rel); err != nil {
			return err
		}
		if seen[rel] {
			return converr.New(converr.ErrCodeInvalidConfig,
				"promotion order lists %q twice", rel)
		}
		seen[rel] = true
	}
	return nil
}

// openClass reports whether a positional tag marks a content word. Empty
// tags never do.
func (tb Tables) openClass(xpos string) bool {
	if xpos == "" {
		return false
	}
	for _, tag := range tb.OpenClassTags {
		if strings.HasPrefix(xpos, tag) {
			return true
		}
	}
	return false
}

// satellite reports whether an original relation label rides on a relator
// rather than depending through it.
func (tb Tables) satellite(originalDep string) bool {
	for _, rel := range tb.RelatorSatellites {
		if originalDep == rel {
			return true
		}
	}
	return false
}

// firstByPriority returns the best ellipsis promotion candidate among
// nodes, or nil when no node carries a ranked relation. Rank beats document
// order; among nodes sharing the best rank the earliest wins.
func (tb Tables) firstByPriority(nodes []*tree.Node) *tree.Node {
	for _, rel := range tb.PromotionOrder {
		for _, n := range nodes {
			if n.UDeprel() == rel {
				return n
			}
		}
	}
	return nil
}
