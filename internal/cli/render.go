package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/converr"
	"github.com/gregorycrane/tb2ud/pkg/pipeline"
	"github.com/gregorycrane/tb2ud/pkg/render"
	"github.com/gregorycrane/tb2ud/pkg/tree"
)

const (
	formatSVG = "svg"
	formatPNG = "png"
	formatDOT = "dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path (derived from input if empty)
	sentence  int    // 1-based sentence number to draw
	format    string // output format: svg, png, dot
	detailed  bool   // include lemma, POS, and original relation in labels
	secondary bool   // draw secondary dependency edges alongside the tree
	enhanced  bool   // convert with empty nodes before drawing
	noCache   bool   // disable conversion and render caches
	config    string // config file path (auto-detected if empty)
}

// newRenderCmd creates the render command for drawing converted sentences.
// The document is converted first (through the cache), then the selected
// sentence is laid out with Graphviz.
//
// Default settings:
//   - sentence: 1 (the first sentence of the document)
//   - format: svg
//   - secondary edges: drawn only with --secondary
func newRenderCmd() *cobra.Command {
	opts := renderOpts{sentence: 1, format: formatSVG}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Draw one converted sentence as a dependency graph",
		Long: `Convert a document and draw one of its sentences as a dependency graph.

Examples:
  tb2ud render thucydides.conllu --sentence 3
  tb2ud render --enhanced --secondary -f png doc.conllu
  tb2ud render -f dot doc.conllu -o tree.dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRenderFormat(opts.format); err != nil {
				return err
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runRender(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().IntVarP(&opts.sentence, "sentence", "s", opts.sentence, "sentence number to draw (1-based)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show lemma, POS, and original relation in node labels")
	cmd.Flags().BoolVar(&opts.secondary, "secondary", false, "draw secondary dependency edges")
	cmd.Flags().BoolVar(&opts.enhanced, "enhanced", false, "convert with empty nodes before drawing")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: tb2ud.toml)")

	return cmd
}

// validFormats is the set of supported render formats.
var validFormats = map[string]bool{formatSVG: true, formatPNG: true, formatDOT: true}

// validateRenderFormat checks the --format value.
func validateRenderFormat(f string) error {
	if !validFormats[f] {
		return converr.New(converr.ErrCodeUnsupported,
			"invalid format: %s (must be 'svg', 'png', or 'dot')", f)
	}
	return nil
}

// renderPath derives the output file path: explicit output wins, otherwise
// the input name with the sentence number and format appended.
func renderPath(output, input string, sentence int, format string) string {
	if output != "" {
		return output
	}
	base := "sentence"
	if input != "" && input != "-" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	return fmt.Sprintf("%s_%d.%s", base, sentence, format)
}

// runRender converts the document and draws the selected sentence.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
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

	res, err := runner.Execute(ctx, data, pipeline.Options{
		Enhanced: opts.enhanced,
		Tables:   cfg.Tables,
	})
	if err != nil {
		return err
	}

	if opts.sentence < 1 || opts.sentence > len(res.Trees) {
		return converr.New(converr.ErrCodeInvalidInput,
			"sentence %d out of range: document has %d sentences", opts.sentence, len(res.Trees))
	}
	t := res.Trees[opts.sentence-1]
	logger.Infof("Drawing sentence %d (%s): %d tokens", opts.sentence, t.ID, t.Len())

	dot := render.ToDOT(t, render.Options{Detailed: opts.detailed, Secondary: opts.secondary})

	img, err := renderImage(ctx, runner, dot, opts)
	if err != nil {
		return err
	}

	path := renderPath(opts.output, input, opts.sentence, opts.format)
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(img); err != nil {
		return err
	}

	printSuccess("Rendered sentence %d", opts.sentence)
	printFile(path)
	return nil
}

// renderImage turns the DOT source into the requested format. SVG and PNG
// renders are cached under a key derived from the DOT text, which captures
// the tree shape and every label option.
func renderImage(ctx context.Context, runner *pipeline.Runner, dot string, opts *renderOpts) ([]byte, error) {
	if opts.format == formatDOT {
		return []byte(dot), nil
	}

	key := runner.Keyer.RenderKey(cache.Hash([]byte(dot)), cache.RenderKeyOpts{
		Format:    opts.format,
		Secondary: opts.secondary,
	})
	if img, hit, err := runner.Cache.Get(ctx, key); err == nil && hit {
		loggerFromContext(ctx).Debug("render cache hit", "key", key)
		return img, nil
	}

	var img []byte
	var err error
	switch opts.format {
	case formatSVG:
		img, err = render.SVG(dot)
	case formatPNG:
		img, err = render.PNG(dot)
	}
	if err != nil {
		return nil, err
	}
	_ = runner.Cache.Set(ctx, key, img, cache.TTLRender)
	return img, nil
}

// sentenceLabel formats a sentence for display in listings.
func sentenceLabel(i int, t *tree.Tree) string {
	id := t.ID
	if id == "" {
		id = fmt.Sprintf("#%d", i+1)
	}
	return id
}
