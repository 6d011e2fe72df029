// Package sheet imports and exports recipient lists as spreadsheets.
//
// The first sheet of a workbook is read; its first row is the header.
// Header cells are matched against a small alias table case-insensitively,
// so "NAMA", "Nama" and "name" all select the name column:
//
//	name  ← Nama | Name
//	title ← Jabatan | Komisi | Title
//	place ← Alamat | Tempat | Address | Place
//
// Rows without a name are dropped silently. A sheet that yields no records
// at all is an [errors.ImportError] with zero valid rows.
package sheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// RecordList is an ordered list of recipients.
type RecordList []document.Recipient

// MIMEXLSX is the media type of workbooks written by this package.
const MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column headers written by [Template] and [Export].
const (
	HeaderName  = "Nama"
	HeaderTitle = "Jabatan"
	HeaderPlace = "Alamat"
)

type field int

const (
	fieldNone field = iota
	fieldName
	fieldTitle
	fieldPlace
)

var aliases = map[string]field{
	"nama":    fieldName,
	"name":    fieldName,
	"jabatan": fieldTitle,
	"komisi":  fieldTitle,
	"title":   fieldTitle,
	"alamat":  fieldPlace,
	"tempat":  fieldPlace,
	"address": fieldPlace,
	"place":   fieldPlace,
}

// fieldOf maps a header cell to a record field. Casers are stateful, so
// each call folds with a fresh one.
func fieldOf(header string) field {
	return aliases[cases.Fold().String(clean(header))]
}

// clean trims a cell and normalizes it to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// =============================================================================
// Import
// =============================================================================

// Import reads an .xlsx workbook.
func Import(ctx context.Context, r io.Reader) (RecordList, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &errors.ImportError{Reason: "file is not a readable workbook", Cause: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &errors.ImportError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &errors.ImportError{Reason: "cannot read sheet " + sheets[0], Cause: err}
	}
	return fromRows(ctx, rows)
}

// ImportCSV reads a comma- or semicolon-separated file with the same
// header rules as [Import]. A UTF-8 or UTF-16 byte order mark is honored.
func ImportCSV(ctx context.Context, r io.Reader) (RecordList, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	first, _ := br.Peek(4096)
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &errors.ImportError{Reason: "file is not valid CSV", Cause: err}
	}
	return fromRows(ctx, rows)
}

// ImportFile picks [ImportCSV] for .csv names and [Import] otherwise.
func ImportFile(ctx context.Context, name string, r io.Reader) (RecordList, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return ImportCSV(ctx, r)
	}
	return Import(ctx, r)
}

// ImportFunc is the signature shared by the importers.
type ImportFunc func(ctx context.Context, r io.Reader) (RecordList, error)

// ImportWithTimeout runs fn with a deadline of d. On expiry it returns a
// recoverable ImportError with code IMPORT_TIMEOUT; the parse is abandoned.
func ImportWithTimeout(ctx context.Context, r io.Reader, d time.Duration, fn ImportFunc) (RecordList, error) {
	if fn == nil {
		fn = Import
	}
	if d <= 0 {
		return fn(ctx, r)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		list RecordList
		err  error
	}
	done := make(chan result, 1)
	go func() {
		list, err := fn(ctx, r)
		done <- result{list, err}
	}()

	select {
	case res := <-done:
		return res.list, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.ImportError{
				Reason:  "import took longer than " + d.String() + "; try again",
				Cause:   ctx.Err(),
				Timeout: true,
			}
		}
		return nil, errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "import canceled")
	}
}

func fromRows(ctx context.Context, rows [][]string) (RecordList, error) {
	if len(rows) == 0 {
		return nil, &errors.ImportError{Reason: "sheet is empty"}
	}
	cols := map[field]int{}
	for i, h := range rows[0] {
		if f := fieldOf(h); f != fieldNone {
			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}
	}
	if _, ok := cols[fieldName]; !ok {
		return nil, &errors.ImportError{Reason: "no " + HeaderName + " column in the header row"}
	}

	cell := func(row []string, f field) string {
		i, ok := cols[f]
		if !ok || i >= len(row) {
			return ""
		}
		return clean(row[i])
	}

	var out RecordList
	for n, row := range rows[1:] {
		if n%256 == 0 && ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "import canceled")
		}
		rec := document.Recipient{
			Name:  cell(row, fieldName),
			Title: cell(row, fieldTitle),
			Place: cell(row, fieldPlace),
		}
		if rec.Name == "" {
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, &errors.ImportError{Reason: "no rows with a " + HeaderName}
	}
	return out, nil
}

// =============================================================================
// Export
// =============================================================================

// Template writes a workbook with the expected header and example rows.
func Template(w io.Writer) error {
	return write(w, RecordList{
		{Name: "Bapak Ahmad Sudirman", Title: "Ketua RT 01", Place: "Jl. Melati No. 3"},
		{Name: "Ibu Siti Rahmawati", Title: "Ketua PKK", Place: "Jl. Kenanga No. 12"},
	})
}

// Export writes records as a workbook that [Import] reads back unchanged.
func Export(w io.Writer, records RecordList) error {
	return write(w, records)
}

func write(w io.Writer, records RecordList) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := f.SetSheetRow(sheet, "A1", &[]any{HeaderName, HeaderTitle, HeaderPlace}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create header style")
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", bold); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "style header")
	}
	if err := f.SetColWidth(sheet, "A", "C", 32); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set column width")
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "row %d", i+2)
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{rec.Name, rec.Title, rec.Place}); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write row %d", i+2)
		}
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write workbook")
	}
	return nil
}
