package store

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/converr"
)

// FilesystemStore keeps each document as a plain CoNLL-U file under
// <root>/<corpus>/<id>.conllu. The files stay readable by any other
// treebank tool, which makes this the default backend for CLI use.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a filesystem store rooted at dir, creating it
// if needed.
func NewFilesystemStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "create store root %s", dir)
	}
	return &FilesystemStore{root: dir}, nil
}

const fileExt = ".conllu"

func (s *FilesystemStore) path(corpus, id string) string {
	return filepath.Join(s.root, corpus, id+fileExt)
}

// Put writes the document through a temp file and rename, so a concurrent
// reader never sees a half-written corpus file.
func (s *FilesystemStore) Put(ctx context.Context, doc Document) error {
	if err := validateKey(doc.Corpus, doc.ID); err != nil {
		return err
	}
	stamp(&doc)

	path := s.path(doc.Corpus, doc.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "create corpus dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".doc-*")
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "create temp file")
	}
	if err := conllu.Write(doc.Trees, tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return converr.Wrap(converr.ErrCodeInternal, err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "store %s/%s", doc.Corpus, doc.ID)
	}
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, corpus, id string) (Document, error) {
	if err := validateKey(corpus, id); err != nil {
		return Document{}, err
	}

	path := s.path(corpus, id)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Document{}, converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}
	if err != nil {
		return Document{}, converr.Wrap(converr.ErrCodeInternal, err, "stat %s", path)
	}

	trees, err := conllu.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Meta: Meta{
			Corpus:     corpus,
			ID:         id,
			Sentences:  len(trees),
			ImportedAt: info.ModTime(),
		},
		Trees: trees,
	}, nil
}

func (s *FilesystemStore) List(ctx context.Context, corpus string) ([]Meta, error) {
	if err := converr.ValidateDocumentID(corpus); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, corpus)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []Meta{}, nil
	}

	var metas []Meta
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		n, err := countSentences(path)
		if err != nil {
			return err
		}
		metas = append(metas, Meta{
			Corpus:     corpus,
			ID:         strings.TrimSuffix(filepath.ToSlash(rel), fileExt),
			Sentences:  n,
			ImportedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "list corpus %s", corpus)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, corpus, id string) error {
	if err := validateKey(corpus, id); err != nil {
		return err
	}
	err := os.Remove(s.path(corpus, id))
	if os.IsNotExist(err) {
		return converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "delete %s/%s", corpus, id)
	}
	return nil
}

// Close does nothing for the filesystem store.
func (s *FilesystemStore) Close() error {
	return nil
}

// countSentences counts sentences without parsing: a sentence is a run of
// non-blank lines, the same boundary rule the reader uses.
func countSentences(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	inSentence := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			if inSentence {
				n++
			}
			inSentence = false
			continue
		}
		inSentence = true
	}
	if inSentence {
		n++
	}
	return n, sc.Err()
}

// Ensure FilesystemStore implements Store.
var _ Store = (*FilesystemStore)(nil)
