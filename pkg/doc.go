// Package pkg provides the core libraries for tb2ud treebank conversion.
//
// # Overview
//
// tb2ud restructures dependency trees annotated in the Prague-style AGLDT
// schema into Universal Dependencies. The upstream shallow pass has already
// mapped part-of-speech tags and relation labels; these packages perform the
// structural half of the conversion: demoting function words, turning
// coordination and apposition inside out, demoting copulas, and reifying
// elided heads as empty nodes.
//
// # Architecture
//
// The typical data flow through tb2ud:
//
//	CoNLL-U document (shallow-converted AGLDT)
//	         ↓
//	    [conllu] package (parse rows into sentence trees)
//	         ↓
//	    [tree] package (ordinals, mutation, secondary edges)
//	         ↓
//	    [rewrite] package (bottom-up subtree restructuring)
//	         ↓
//	    [conllu] package (serialize, incl. empty nodes and DEPS)
//
// # Quick Start
//
// Convert a document and write the result:
//
//	import (
//	    "os"
//	    "github.com/gregorycrane/tb2ud/pkg/conllu"
//	    "github.com/gregorycrane/tb2ud/pkg/rewrite"
//	)
//
//	trees, _ := conllu.ReadFile("thucydides.conllu")
//	conv, _ := rewrite.New(rewrite.Options{Enhanced: true})
//	for _, t := range trees {
//	    conv.ConvertTree(t)
//	}
//	conllu.Write(trees, os.Stdout)
//
// # Main Packages
//
// ## Conversion Core
//
// [tree] - Sentence tree model: fractional ordinals, single-parent invariant,
// empty nodes, and the secondary dependency graph.
//
// [constructions] - Classifier predicates recognizing the five rewritable
// constructions (functional relator, coordination, apposition, copula,
// ellipsis) from AGLDT annotation conventions.
//
// [rewrite] - The restructuring engine: bottom-up scheduling, the promote
// primitive, per-construction rewrites, and artificial-node resolution.
//
// ## Input and Output
//
// [conllu] - CoNLL-U reader and writer, including the CoNLL-U-plus MISC
// conventions the shallow pass emits and the empty-node/DEPS columns the
// enhanced output needs.
//
// [render] - Sentence-tree visualization: deterministic DOT generation plus
// Graphviz SVG/PNG rasterization.
//
// ## Infrastructure
//
// [pipeline] - Document-level runner shared by CLI and API: parallel
// sentence conversion, conversion stats, and content-addressed caching.
//
// [cache] - Cache backends (file, Redis, null) and the key scheme for
// conversion artifacts.
//
// [store] - Corpus document store with filesystem, SQLite, and MongoDB
// backends behind one interface.
//
// [converr] - Structured errors with machine-readable codes shared by all
// layers.
//
// [buildinfo] - Version metadata injected at link time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/rewrite/...    # Specific package
//	go test -run Example         # Examples only
//
// [tree]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/tree
// [constructions]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/constructions
// [rewrite]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/rewrite
// [conllu]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/conllu
// [render]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/cache
// [store]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/store
// [converr]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/converr
// [buildinfo]: https://pkg.go.dev/github.com/gregorycrane/tb2ud/pkg/buildinfo
package pkg
