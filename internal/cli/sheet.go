package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/sheet"
)

// defaultTemplate is the file name written by the template command.
const defaultTemplate = "penerima.xlsx"

// readRecipients imports a recipient spreadsheet under the configured timeout.
func (c *CLI) readRecipients(ctx context.Context, path string) (sheet.RecordList, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fn := func(ctx context.Context, r io.Reader) (sheet.RecordList, error) {
		return sheet.ImportFile(ctx, path, r)
	}
	records, err := sheet.ImportWithTimeout(ctx, f, cfg.Import.Timeout, fn)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("recipients imported", "file", path, "rows", len(records))
	return records, nil
}

// templateCommand creates the template command.
func (c *CLI) templateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty recipient spreadsheet",
		Long: `Write a recipient spreadsheet with the Nama, Jabatan and Alamat columns
and two example rows, ready to be filled in and used with batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := sheet.Template(&buf); err != nil {
				return err
			}
			if err := writeOutput(output, buf.Bytes()); err != nil {
				return err
			}
			printSuccess("Template written")
			printFile(output)
			printNextStep("Generate letters", fmt.Sprintf("%s batch <id> --recipients %s", appName, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultTemplate, "output path")

	return cmd
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Validate a recipient spreadsheet",
		Long: `Read a recipient spreadsheet (.xlsx or .csv) and list the recipients that
will receive a letter. Rows without a name are skipped.

With --output the cleaned list is written back as a workbook.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.readRecipients(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(recipientTable(records))
			printSuccess("%s recipients ready", StyleNumber.Render(fmt.Sprint(len(records))))

			if output == "" {
				return nil
			}
			var buf bytes.Buffer
			if err := sheet.Export(&buf, records); err != nil {
				return err
			}
			if err := writeOutput(output, buf.Bytes()); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the cleaned list to this workbook")

	return cmd
}

// recipientTable renders recipients as a bordered table.
func recipientTable(records []document.Recipient) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{fmt.Sprint(i + 1), r.Name, r.Title, r.Place}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", sheet.HeaderName, sheet.HeaderTitle, sheet.HeaderPlace).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleDim
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
