package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/store"
)

// corpusOpts holds the persistent flags shared by the corpus subcommands.
type corpusOpts struct {
	store  string // backend: directory, sqlite file, or mongodb:// URI
	config string // config file path (auto-detected if empty)
}

// newCorpusCmd creates the corpus command with its document verbs.
//
// The backend is chosen from --store, falling back to the [store] config
// section, falling back to a filesystem store in the user data directory.
// A mongodb:// value selects MongoDB, a .db/.sqlite path selects SQLite,
// anything else is a filesystem directory.
func newCorpusCmd() *cobra.Command {
	var opts corpusOpts

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage stored treebank documents",
		Long: `Import, export, list, and remove treebank documents in a document store.

Examples:
  tb2ud corpus import agldt thucydides.conllu
  tb2ud corpus ls agldt
  tb2ud corpus export agldt thucydides -o out.conllu
  tb2ud corpus rm agldt thucydides
  tb2ud corpus --store corpus.db import agldt thucydides.conllu`,
	}

	cmd.PersistentFlags().StringVar(&opts.store, "store", "", "store backend: directory, sqlite file, or mongodb:// URI")
	cmd.PersistentFlags().StringVar(&opts.config, "config", "", "config file (default: tb2ud.toml)")

	cmd.AddCommand(corpusImportCmd(&opts))
	cmd.AddCommand(corpusExportCmd(&opts))
	cmd.AddCommand(corpusLsCmd(&opts))
	cmd.AddCommand(corpusRmCmd(&opts))

	return cmd
}

// corpusImportCmd creates the "corpus import" subcommand.
func corpusImportCmd(opts *corpusOpts) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "import <corpus> <file>",
		Short: "Store a document in a corpus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			corpus, path := args[0], args[1]
			docID := id
			if docID == "" {
				docID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			trees, err := conllu.ReadFile(path)
			if err != nil {
				return err
			}
			doc := store.Document{
				Meta:  store.Meta{Corpus: corpus, ID: docID},
				Trees: trees,
			}
			if err := st.Put(cmd.Context(), doc); err != nil {
				return err
			}

			printSuccess("Imported %s/%s", corpus, docID)
			printDetail("%d sentences", len(trees))
			printNextStep("Convert it", fmt.Sprintf("%s corpus export %s %s | %s convert", appName, corpus, docID, appName))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document ID (default: file name without extension)")
	return cmd
}

// corpusExportCmd creates the "corpus export" subcommand.
func corpusExportCmd(opts *corpusOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <corpus> <doc>",
		Short: "Write a stored document as CoNLL-U",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := st.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := conllu.Write(doc.Trees, &buf); err != nil {
				return err
			}
			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}

			if output != "" {
				printSuccess("Exported %s/%s", doc.Corpus, doc.ID)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// corpusLsCmd creates the "corpus ls" subcommand.
func corpusLsCmd(opts *corpusOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <corpus>",
		Short: "List the documents in a corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			metas, err := st.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(metas) == 0 {
				printInfo("Corpus %s is empty", args[0])
				return nil
			}
			for _, m := range metas {
				fmt.Printf("%s %s %s\n",
					StyleValue.Render(fmt.Sprintf("%-32s", m.ID)),
					StyleNumber.Render(fmt.Sprintf("%6d", m.Sentences)),
					StyleDim.Render(m.ImportedAt.Format("2006-01-02 15:04")))
			}
			printDetail("%d document(s)", len(metas))
			return nil
		},
	}
}

// corpusRmCmd creates the "corpus rm" subcommand.
func corpusRmCmd(opts *corpusOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <corpus> <doc>",
		Short: "Remove a stored document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printSuccess("Removed %s/%s", args[0], args[1])
			return nil
		},
	}
}

// =============================================================================
// Store Selection
// =============================================================================

// openStore opens the document store selected by flag or config.
func openStore(ctx context.Context, opts *corpusOpts) (store.Store, error) {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return nil, err
	}
	return openStoreFrom(ctx, cfg.Store, opts.store)
}

// openStoreFrom resolves the backend from an override value and the config
// section. The override is the --store flag; its shape picks the backend.
func openStoreFrom(ctx context.Context, cfg StoreConfig, override string) (store.Store, error) {
	if override != "" {
		switch {
		case strings.HasPrefix(override, "mongodb://"), strings.HasPrefix(override, "mongodb+srv://"):
			return openMongo(ctx, store.MongoConfig{URI: override, Database: cfg.Database})
		case isSQLitePath(override):
			return store.NewSQLiteStore(override)
		default:
			return store.NewFilesystemStore(override)
		}
	}

	switch cfg.Backend {
	case "mongo":
		return openMongo(ctx, store.MongoConfig{URI: cfg.URI, Database: cfg.Database})
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	case "filesystem":
		return store.NewFilesystemStore(cfg.Path)
	case "":
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		return store.NewFilesystemStore(dir)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (must be 'filesystem', 'sqlite', or 'mongo')", cfg.Backend)
	}
}

// openMongo connects with a spinner; the ping can take a few seconds when
// the server is cold.
func openMongo(ctx context.Context, cfg store.MongoConfig) (store.Store, error) {
	spinner := newSpinnerWithContext(ctx, "Connecting to MongoDB...")
	spinner.Start()
	st, err := store.NewMongoStore(ctx, cfg)
	spinner.Stop()
	return st, err
}

// isSQLitePath reports whether a store override names a SQLite database.
func isSQLitePath(path string) bool {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// dataDir returns the default corpus directory using the XDG standard
// (~/.local/share/tb2ud/corpora).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "corpora"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "corpora"), nil
}
