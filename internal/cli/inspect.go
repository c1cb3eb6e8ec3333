package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gregorycrane/tb2ud/pkg/pipeline"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	enhanced bool   // convert with empty nodes before browsing
	noCache  bool   // disable the conversion cache
	config   string // config file path (auto-detected if empty)
}

// newInspectCmd creates the inspect command, an interactive sentence browser
// over the converted document. Inspect requires a file argument: the
// terminal is taken over by the browser, so the document cannot arrive on
// stdin.
func newInspectCmd() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Browse a converted document sentence by sentence",
		Long: `Convert a document and browse the result interactively. The list view
shows every sentence; opening one shows its tokens with the converted
relation, the head, and the original relation it replaced.

Examples:
  tb2ud inspect thucydides.conllu
  tb2ud inspect --enhanced herodotus.conllu`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.enhanced, "enhanced", false, "emit empty nodes and secondary dependencies")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the conversion cache")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: tb2ud.toml)")

	return cmd
}

// runInspect converts the document and hands the sentences to the browser.
func runInspect(ctx context.Context, input string, opts *inspectOpts) error {
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

	spinner := newSpinnerWithContext(ctx, "Converting document...")
	spinner.Start()
	res, err := runner.Execute(ctx, data, pipeline.Options{
		Enhanced: opts.enhanced,
		Tables:   cfg.Tables,
	})
	spinner.Stop()
	if err != nil {
		return err
	}
	if len(res.Trees) == 0 {
		printWarning("Document is empty")
		return nil
	}

	program := tea.NewProgram(NewDocModel(res.Trees), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
