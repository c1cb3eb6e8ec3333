package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/rewrite"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output   string // output file path (stdout if empty)
	enhanced bool   // reify artificial nodes into empty nodes and DEPS edges
	workers  int    // concurrent sentence conversions
	refresh  bool   // recompute even when a cached result exists
	noCache  bool   // disable the conversion cache entirely
	stats    bool   // print per-construction rewrite counts
	config   string // config file path (auto-detected if empty)
}

// newConvertCmd creates the convert command.
//
// Default options:
//   - workers: pipeline.DefaultWorkers concurrent sentence conversions
//   - enhanced: false (primary tree only, no empty nodes)
//   - caching: enabled, keyed by input bytes and options
func newConvertCmd() *cobra.Command {
	opts := convertOpts{workers: pipeline.DefaultWorkers}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a CoNLL-U document to Universal Dependencies",
		Long: `Convert a treebank document from source-schema annotation to Universal
Dependencies. The input is CoNLL-U with original relations preserved in MISC;
the output is the same document with subtrees restructured and relations
finalized.

Reads from stdin when no file is given.

Examples:
  tb2ud convert thucydides.conllu -o thucydides-ud.conllu
  tb2ud convert --enhanced --stats herodotus.conllu
  cat doc.conllu | tb2ud convert > doc-ud.conllu`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runConvert(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.enhanced, "enhanced", false, "emit empty nodes and secondary dependencies")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "concurrent sentence conversions")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the conversion cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the conversion cache")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print rewrite statistics")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: tb2ud.toml)")

	return cmd
}

// runConvert executes the conversion pass and writes the result.
func runConvert(ctx context.Context, input string, opts *convertOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}

	runner, err := newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, data, pipeline.Options{
		Enhanced: opts.enhanced,
		Workers:  opts.workers,
		Refresh:  opts.refresh,
		Tables:   cfg.Tables,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d sentences", res.Stats.Sentences))

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(res.Output); err != nil {
		return err
	}

	// Decorations are suppressed when the document goes to stdout.
	if opts.output != "" {
		printSuccess("Converted %d sentences", res.Stats.Sentences)
		printFile(opts.output)
		printStats(res.Stats.Sentences, res.Stats.Rewrite.Rewritten(), res.CacheInfo.Hit)
		printNextStep("Draw a sentence", fmt.Sprintf("%s render %s --sentence 1", appName, opts.output))
	}

	if opts.stats {
		printRewriteStats(res.Stats.Rewrite)
	}
	warnFailures(logger, res.Stats.Rewrite)
	return nil
}

// printRewriteStats prints the folded per-construction counts.
func printRewriteStats(st rewrite.Stats) {
	printNewline()
	printKeyValue("subtrees", fmt.Sprintf("%d", st.Subtrees))
	printKeyValue("bridges", fmt.Sprintf("%d", st.Bridges))
	printKeyValue("coords", fmt.Sprintf("%d", st.Coordinations))
	printKeyValue("appositions", fmt.Sprintf("%d", st.Appositions))
	printKeyValue("copulas", fmt.Sprintf("%d", st.Copulas))
	printKeyValue("ellipses", fmt.Sprintf("%d", st.Ellipses))
	if st.EmptyNodes > 0 || st.SecondaryEdges > 0 {
		printKeyValue("empty nodes", fmt.Sprintf("%d", st.EmptyNodes))
		printKeyValue("secondary", fmt.Sprintf("%d", st.SecondaryEdges))
	}
}

// warnFailures logs one warning per fail-soft error code, in stable order.
func warnFailures(logger interface{ Warnf(string, ...any) }, st rewrite.Stats) {
	if len(st.Failures) == 0 {
		return
	}
	codes := make([]converr.Code, 0, len(st.Failures))
	for code := range st.Failures {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		logger.Warnf("%d subtree(s) left unrewritten: %s", st.Failures[code], code)
	}
}
