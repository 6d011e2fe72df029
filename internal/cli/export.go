package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/pipeline"
)

// exportOpts holds the command-line flags shared by export-like commands.
type exportOpts struct {
	file    string // local letter JSON instead of a stored id
	output  string // output path; default is the artifact's own name
	noCache bool
	refresh bool
}

func (o *exportOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "read the letter from a local JSON file instead of the store")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output path")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the artifact cache")
}

// source checks that exactly one of a stored id or --file was given.
func (o *exportOpts) source(args []string) (string, error) {
	switch {
	case o.file != "" && len(args) > 0:
		return "", fmt.Errorf("give either a document id or --file, not both")
	case o.file == "" && len(args) == 0:
		return "", fmt.Errorf("a document id or --file is required")
	case len(args) > 0:
		return args[0], nil
	}
	return "", nil
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Render a letter to PDF",
		Long: `Render a letter to a print-ready PDF.

The letter is read from the configured store by id, or from a local JSON
file with --file. Members may export only approved letters; reviewers and
owner admins may export at any status.

Rendered files are cached by content, so exporting an unchanged letter
again, even after its status changed, is instant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.source(args)
			if err != nil {
				return err
			}
			return c.runExport(cmd.Context(), id, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached file exists")

	return cmd
}

// runExport renders one letter and writes it to disk.
func (c *CLI) runExport(ctx context.Context, id string, opts exportOpts) error {
	actor, err := c.actor()
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
		if doc, err = c.loadDocument(opts.file); err != nil {
			return fmt.Errorf("load %s: %w", opts.file, err)
		}
	}

	spinner := newSpinnerWithContext(ctx, "Rendering letter...")
	spinner.Start()

	popts := pipeline.Options{Refresh: opts.refresh}
	var art *pipeline.RenderedArtifact
	if doc != nil {
		art, err = runner.ExportDocumentWithOptions(ctx, doc, actor, popts)
	} else {
		art, err = runner.ExportWithOptions(ctx, id, actor, popts)
	}
	if err != nil {
		spinner.StopWithError("Export failed")
		return err
	}
	spinner.Stop()

	path := opts.output
	if path == "" {
		path = art.FileName
	}
	if err := writeOutput(path, art.Bytes); err != nil {
		return err
	}

	printSuccess("Exported %s", StyleHighlight.Render(art.FileName))
	printFile(path)
	printArtifactStats(art.Pages, len(art.Bytes), art.Stats.CacheHit)
	return nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
