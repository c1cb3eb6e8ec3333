// Package conllu reads and writes dependency trees in the CoNLL-U format.
//
// # Overview
//
// CoNLL-U is the line-oriented exchange format of the Universal
// Dependencies project: one token per line, ten tab-separated columns,
// sentences separated by blank lines, comment lines starting with "#".
// This package maps the format onto [tree.Tree] values, round-tripping
// everything the converter needs: comments, the conversion metadata
// sidecar in MISC, empty nodes, and secondary dependency edges in DEPS.
//
// # Columns
//
// ID FORM LEMMA UPOS XPOS FEATS HEAD DEPREL DEPS MISC. An underscore marks
// an absent value. FEATS is carried as an opaque string; the converter
// never inspects it.
//
// Token IDs must be the consecutive integers 1..N. Empty-node rows carry
// fractional IDs ("4.1") with HEAD and DEPREL "_", and must be numbered
// consecutively per anchor, as the format requires. Multiword-token range
// rows ("1-2") are rejected: the source treebanks this converter exists
// for never produce them, and silently dropping surface tokens would be
// worse than refusing the file.
//
// # MISC Keys
//
// The conversion sidecar uses a closed key set:
//
//   - original_dep: the relation label from the source schema ("AuxP")
//   - NodeType=Artificial: synthetic placeholder inserted for elision
//   - CoordMember=True, AposMember=True: membership flags
//   - original_ord: pre-rewrite ordinal of an artificial node
//   - art_deps: pre-rewrite edge "HEAD%:%REL" recorded by the resolver
//
// Unrecognized MISC items (SpaceAfter=No and friends) ride along verbatim
// and come back out unchanged. DEPS cells are "HEAD:REL" pairs joined by
// "|", sorted by head ordinal; head 0 is the sentence root.
//
// # Reading
//
// Use [ReadFile] for a path or [Read] for any io.Reader:
//
//	trees, err := conllu.ReadFile("corpus.conllu")
//
// The reader validates structure as it goes: column counts, ID sequences,
// head references, and the single-parent/no-cycle tree invariant. Errors
// carry the offending line number and the INVALID_FORMAT code.
//
// # Writing
//
// Use [WriteFile] or [Write]. Conversion retires ordinals of deleted
// nodes instead of renumbering mid-pass, so the writer renumbers tokens
// back to 1..N on output, remapping heads, empty-node anchors, and DEPS
// targets to match. A tree read from disk and written unchanged
// round-trips byte for byte apart from that renumbering.
package conllu
