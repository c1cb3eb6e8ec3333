package store

import (
	"bytes"
	"context"
	"embed"
	"runtime"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// schemaFS embeds the SQL scripts from the sql/ subdirectory.
//
//go:embed sql/schema.sql
var schemaFS embed.FS

// SQLiteStore keeps a whole corpus collection in one database file, with
// per-sentence rows. Connections come from a zombiezen pool sized to the
// CPU count; the default pool options enable WAL mode.
type SQLiteStore struct {
	pool *sqlitex.Pool
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (Store, error) {
	pool, err := sqlitex.NewPool("file:"+path, sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "open sqlite pool at %s", path)
	}

	s := &SQLiteStore{pool: pool}
	if err := s.createSchema(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	script, err := schemaFS.ReadFile("sql/schema.sql")
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "read embedded schema")
	}

	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "acquire connection")
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, string(script), nil); err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "create schema")
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, doc Document) (err error) {
	if err := validateKey(doc.Corpus, doc.ID); err != nil {
		return err
	}
	stamp(&doc)

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "acquire connection")
	}
	defer s.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	err = sqlitex.Execute(conn,
		"DELETE FROM sentences WHERE corpus = ? AND doc_id = ?",
		&sqlitex.ExecOptions{Args: []any{doc.Corpus, doc.ID}})
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "clear sentences")
	}

	err = sqlitex.Execute(conn,
		"INSERT OR REPLACE INTO documents (corpus, id, sentences, imported_at) VALUES (?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{doc.Corpus, doc.ID, doc.Sentences, doc.ImportedAt.Unix()}})
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "insert document")
	}

	var buf bytes.Buffer
	for pos, tr := range doc.Trees {
		buf.Reset()
		// Assign the named return: the deferred Save must see this error,
		// or it would commit a half-written document.
		if err = conllu.Write([]*tree.Tree{tr}, &buf); err != nil {
			return err
		}
		err = sqlitex.Execute(conn,
			"INSERT INTO sentences (corpus, doc_id, pos, data) VALUES (?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{doc.Corpus, doc.ID, pos, buf.String()}})
		if err != nil {
			return converr.Wrap(converr.ErrCodeInternal, err, "insert sentence %d", pos)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, corpus, id string) (Document, error) {
	if err := validateKey(corpus, id); err != nil {
		return Document{}, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Document{}, converr.Wrap(converr.ErrCodeInternal, err, "acquire connection")
	}
	defer s.pool.Put(conn)

	doc := Document{Meta: Meta{Corpus: corpus, ID: id}}
	found := false
	err = sqlitex.Execute(conn,
		"SELECT sentences, imported_at FROM documents WHERE corpus = ? AND id = ?",
		&sqlitex.ExecOptions{
			Args: []any{corpus, id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				doc.Sentences = stmt.ColumnInt(0)
				doc.ImportedAt = time.Unix(stmt.ColumnInt64(1), 0)
				return nil
			},
		})
	if err != nil {
		return Document{}, converr.Wrap(converr.ErrCodeInternal, err, "select document")
	}
	if !found {
		return Document{}, converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}

	var sb strings.Builder
	err = sqlitex.Execute(conn,
		"SELECT data FROM sentences WHERE corpus = ? AND doc_id = ? ORDER BY pos",
		&sqlitex.ExecOptions{
			Args: []any{corpus, id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sb.WriteString(stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return Document{}, converr.Wrap(converr.ErrCodeInternal, err, "select sentences")
	}

	doc.Trees, err = conllu.Read(strings.NewReader(sb.String()))
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context, corpus string) ([]Meta, error) {
	if err := converr.ValidateDocumentID(corpus); err != nil {
		return nil, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "acquire connection")
	}
	defer s.pool.Put(conn)

	metas := []Meta{}
	err = sqlitex.Execute(conn,
		"SELECT id, sentences, imported_at FROM documents WHERE corpus = ? ORDER BY id",
		&sqlitex.ExecOptions{
			Args: []any{corpus},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				metas = append(metas, Meta{
					Corpus:     corpus,
					ID:         stmt.ColumnText(0),
					Sentences:  stmt.ColumnInt(1),
					ImportedAt: time.Unix(stmt.ColumnInt64(2), 0),
				})
				return nil
			},
		})
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "list corpus %s", corpus)
	}
	return metas, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, corpus, id string) (err error) {
	if err := validateKey(corpus, id); err != nil {
		return err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "acquire connection")
	}
	defer s.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	err = sqlitex.Execute(conn,
		"DELETE FROM sentences WHERE corpus = ? AND doc_id = ?",
		&sqlitex.ExecOptions{Args: []any{corpus, id}})
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "delete sentences")
	}

	err = sqlitex.Execute(conn,
		"DELETE FROM documents WHERE corpus = ? AND id = ?",
		&sqlitex.ExecOptions{Args: []any{corpus, id}})
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "delete document")
	}
	if conn.Changes() == 0 {
		return converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
