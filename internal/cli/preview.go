package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/merge"
	"github.com/suratkita/suratkita/pkg/paginate"
)

// previewCommand creates the interactive mail merge preview.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		opts       exportOpts
		recipients string
	)

	cmd := &cobra.Command{
		Use:   "preview [id]",
		Short: "Browse a mail merge recipient by recipient",
		Long: `Open an interactive preview of a mail merge.

The letter is shown resolved for each recipient of the spreadsheet in turn,
with the page count it will render to. Press enter to export the letter of
the current recipient.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.source(args)
			if err != nil {
				return err
			}
			if recipients == "" {
				return fmt.Errorf("--recipients is required")
			}
			return c.runPreview(cmd.Context(), id, recipients, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&recipients, "recipients", "r", "", "recipient spreadsheet (.xlsx or .csv)")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, id, recipientsPath string, opts exportOpts) error {
	actor, err := c.actor()
	if err != nil {
		return err
	}
	cfg, err := c.config()
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

	pages := func(d *document.Document) (int, error) {
		descs, err := paginate.Paginate(d, cfg.Policy(d.Kind))
		return len(descs), err
	}
	model := NewPreviewModel(merge.NewPreview(doc, records), pages)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	m := final.(PreviewModel)
	if m.Selected < 0 {
		return nil
	}

	rec, resolved := m.Preview.Current()
	art, err := runner.ExportDocument(ctx, resolved, actor)
	if err != nil {
		return err
	}
	path := opts.output
	if path == "" {
		path = merge.ArtifactName(m.Selected+1, rec.Name, "pdf")
	}
	if err := writeOutput(path, art.Bytes); err != nil {
		return err
	}
	printSuccess("Exported letter for %s", StyleHighlight.Render(rec.Name))
	printFile(path)
	printArtifactStats(art.Pages, len(art.Bytes), art.Stats.CacheHit)
	return nil
}
