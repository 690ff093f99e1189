// =============================================================================
// Invoice XML Exporter - Export Register
// =============================================================================
//
// This module writes and reads the export register: an XLSX workbook listing
// every invoice of an export and the XML file it was written to. Accountants
// use it to reconcile the importer's report with the billing platform.
//
// REGISTER LAYOUT (sheet "Facturi"):
//
//   | A      | B     | C        | D      | E   | F     | G   | H      |
//   |--------|-------|----------|--------|-----|-------|-----|--------|
//   | Numar  | Data  | Scadenta | Client | CIF | Total | TVA | Fisier |
//
// Row 1 holds the headers; one row per invoice follows, in export order.
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/danutsss/invoice-xml-export/internal/converter"
)

// SheetName is the name of the register sheet.
const SheetName = "Facturi"

// Headers are the register column headers, in column order.
var Headers = []string{"Numar", "Data", "Scadenta", "Client", "CIF", "Total", "TVA", "Fisier"}

// =============================================================================
// REGISTER ENTRY
// =============================================================================

// Entry is one register row as read back from a workbook.
type Entry struct {
	Number      string
	CreatedDate string
	DueDate     string
	Client      string
	TaxID       string
	Total       decimal.Decimal
	VAT         string
	File        string
}

// =============================================================================
// WRITER
// =============================================================================

// WriteRegister writes rows to a new workbook at path.
//
// PARAMETERS:
//   - path: The destination .xlsx file.
//   - rows: The exported invoices, as returned in converter.Result.Rows.
//   - fileNames: The file name of each document; rows reference it by index.
//
// RETURNS:
//   - An error if a row references a missing document or the file cannot
//     be written.
func WriteRegister(path string, rows []converter.RegisterRow, fileNames []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name register sheet: %w", err)
	}

	if err := writeHeader(f); err != nil {
		return err
	}

	for i, row := range rows {
		if row.Document < 0 || row.Document >= len(fileNames) {
			return fmt.Errorf("row %d (invoice %s) references document %d of %d",
				i+1, row.Number, row.Document, len(fileNames))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := []interface{}{
			row.Number,
			row.CreatedDate,
			row.DueDate,
			row.ClientName,
			row.TaxID,
			row.Total.InexactFloat64(),
			row.VAT,
			fileNames[row.Document],
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 {
		if err := formatTotals(f, len(rows)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save register: %w", err)
	}

	return nil
}

// writeHeader writes the bold header row and sizes the columns.
func writeHeader(f *excelize.File) error {
	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write register header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetName, "A", "G", 16); err != nil {
		return err
	}
	return f.SetColWidth(SheetName, "H", "H", 64)
}

// formatTotals applies the two-decimal number format to the Total column.
func formatTotals(f *excelize.File, count int) error {
	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "F2", fmt.Sprintf("F%d", count+1), style)
}

// =============================================================================
// READER
// =============================================================================

// ReadRegister reads the entries of a register written by WriteRegister.
func ReadRegister(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open register: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 || strings.Join(rows[0], ",") != strings.Join(Headers, ",") {
		return nil, fmt.Errorf("%s is not an export register", path)
	}

	var entries []Entry
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		entry, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// parseRow extracts an Entry from a single row.
func parseRow(row []string) (Entry, error) {
	get := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	total, err := decimal.NewFromString(get(5))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid total %q: %w", get(5), err)
	}

	return Entry{
		Number:      get(0),
		CreatedDate: get(1),
		DueDate:     get(2),
		Client:      get(3),
		TaxID:       get(4),
		Total:       total,
		VAT:         get(6),
		File:        get(7),
	}, nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DocumentPaths returns the XML documents listed in the register at path,
// once each and in register order. Documents are expected next to the
// register, where the export command writes them.
func DocumentPaths(path string) ([]string, error) {
	entries, err := ReadRegister(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool)

	var paths []string
	for _, entry := range entries {
		if entry.File == "" || seen[entry.File] {
			continue
		}
		seen[entry.File] = true
		paths = append(paths, filepath.Join(dir, entry.File))
	}

	return paths, nil
}
