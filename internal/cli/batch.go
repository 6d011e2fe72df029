package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/merge"
	"github.com/suratkita/suratkita/pkg/pipeline"
)

// defaultArchive is the archive name when --output is not given.
const defaultArchive = "surat.zip"

// batchCommand creates the batch (mail merge) command.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		opts       exportOpts
		recipients string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "batch [id]",
		Short: "Generate one letter per recipient into a ZIP archive",
		Long: `Mail-merge a letter over a recipient spreadsheet.

Each row of the spreadsheet replaces the letter's recipient and is rendered
to its own PDF named <n>_<name>.pdf. Rows that fail are reported at the end
and do not stop the run. Interrupting the run (Ctrl+C) finishes the letter
in progress, writes the archive of what was generated and stops.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.source(args)
			if err != nil {
				return err
			}
			if recipients == "" {
				return fmt.Errorf("--recipients is required")
			}
			return c.runBatch(cmd.Context(), id, recipients, workers, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&recipients, "recipients", "r", "", "recipient spreadsheet (.xlsx or .csv)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent renders (default batch.workers)")

	return cmd
}

// runBatch imports recipients, runs the merge and writes the archive.
func (c *CLI) runBatch(ctx context.Context, id, recipientsPath string, workers int, opts exportOpts) error {
	actor, err := c.actor()
	if err != nil {
		return err
	}
	records, err := c.readRecipients(ctx, recipientsPath)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var doc *document.Document
	if opts.file != "" {
		doc, err = c.loadDocument(opts.file)
	} else {
		doc, err = runner.Load(ctx, id)
	}
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(fmt.Sprintf("Generating 0/%d letters...", len(records)))
	spinner.Start()

	res, err := runner.BatchDocument(ctx, doc, actor, records, pipeline.BatchOptions{
		Workers: workers,
		OnProgress: func(done, total int, name string) {
			spinner.SetMessage("Generating %d/%d letters... %s", done, total, name)
		},
	})
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()

	return c.reportBatch(ctx, res, opts.output, prog)
}

// reportBatch writes the archive and prints the outcome. A canceled run
// still writes what it generated and then returns the cancellation.
func (c *CLI) reportBatch(ctx context.Context, res *merge.BatchResult, output string, prog *progress) error {
	if output == "" {
		output = defaultArchive
	}
	if res.Archive != nil {
		if err := writeOutput(output, res.Archive); err != nil {
			return err
		}
	}

	switch {
	case len(res.Artifacts) == 0:
		printError("No letters generated")
	case len(res.Failures) == 0 && !res.Canceled:
		printSuccess("Generated %s letters", StyleNumber.Render(fmt.Sprint(len(res.Artifacts))))
	default:
		printWarning("Generated %d of %d letters", len(res.Artifacts), res.Total)
	}
	if res.Archive != nil {
		printFile(output)
	}
	for _, f := range res.Failures {
		printDetail("%d. %s: %s", f.Index, f.Name, f.Reason)
	}
	prog.done("batch finished",
		"succeeded", len(res.Artifacts),
		"failed", len(res.Failures),
		"skipped", res.Skipped)

	if res.Canceled {
		printWarning("Canceled; %d recipients not attempted", res.Skipped)
		return ctx.Err()
	}
	if len(res.Artifacts) == 0 {
		return fmt.Errorf("%s", res.Summary())
	}
	return nil
}
