// Package store persists treebank documents across conversion runs.
//
// A document is a named sequence of sentence trees inside a corpus
// ("agldt", "proiel", ...). The Store interface exposes the repository
// operations the CLI corpus verbs and the API need, with three backends:
//   - filesystem: one CoNLL-U file per document under a root directory
//   - sqlite: single-file database with per-sentence rows (zombiezen pool)
//   - mongo: collection per corpus for shared deployments
//
// All backends serialize through the conllu package, so a document reads
// back byte-equivalent regardless of where it was stored.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("corpus.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.Put(ctx, store.Document{
//	    Meta:  store.Meta{Corpus: "agldt", ID: "tlg0003.tlg001"},
//	    Trees: trees,
//	})
package store

import (
	"context"
	"time"

	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// Meta is the document metadata returned by List, without sentence content.
type Meta struct {
	// Corpus is the collection the document belongs to.
	Corpus string
	// ID identifies the document within its corpus.
	ID string
	// Sentences is the number of stored sentence trees.
	Sentences int
	// ImportedAt is when the document was stored.
	ImportedAt time.Time
}

// Document is a stored treebank document.
type Document struct {
	Meta
	Trees []*tree.Tree
}

// Store is the document repository interface.
//
// Put upserts; storing an existing (corpus, id) replaces it. Get and
// Delete return a NOT_FOUND error for absent documents. List returns
// metadata sorted by document ID; listing an unknown corpus yields an
// empty slice, not an error.
type Store interface {
	Put(ctx context.Context, doc Document) error
	Get(ctx context.Context, corpus, id string) (Document, error)
	List(ctx context.Context, corpus string) ([]Meta, error)
	Delete(ctx context.Context, corpus, id string) error
	Close() error
}

// validateKey checks corpus and document identifiers before they reach
// file paths, SQL, or collection names.
func validateKey(corpus, id string) error {
	if err := converr.ValidateDocumentID(corpus); err != nil {
		return err
	}
	return converr.ValidateDocumentID(id)
}

// stamp fills derived Meta fields on Put: the sentence count always
// reflects the stored trees, and a zero import time becomes now.
func stamp(doc *Document) {
	doc.Sentences = len(doc.Trees)
	if doc.ImportedAt.IsZero() {
		doc.ImportedAt = time.Now()
	}
}
