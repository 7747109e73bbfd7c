package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"opportunity-engine/pkg/api"
)

var fileNameReplacer = strings.NewReplacer(
	":", "_", "/", "_", "\\", "_", "?", "_", "*", "_",
	"<", "_", ">", "_", "|", "_", "\"", "_",
)

// FileName derives the artifact name from the property identifier.
//
//	sc-domain:example.it, 2025 -> Report_sc-domain_example.it_2025.xlsx
func FileName(property string, year int) string {
	return fmt.Sprintf("Report_%s_%d.xlsx", fileNameReplacer.Replace(property), year)
}

// WriteXLSX writes every sheet of r to path. Writing an empty report is an error.
func WriteXLSX(r *Report, path string) error {
	sheets := r.Sheets()
	if len(sheets) == 0 {
		return &api.ReportError{Op: "write", Err: ErrEmptyReport}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &api.ReportError{Op: "write", Err: fmt.Errorf("failed to create output directory: %w", err)}
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return &api.ReportError{Op: "write", Err: err}
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return &api.ReportError{Op: "write", Err: fmt.Errorf("sheet %q: %w", sheet.Name, err)}
		}
		if err := writeSheet(f, sheet); err != nil {
			return &api.ReportError{Op: "write", Err: fmt.Errorf("sheet %q: %w", sheet.Name, err)}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return &api.ReportError{Op: "write", Err: err}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// cellValue flattens nested JSON values, which a cell cannot hold, into JSON text.
func cellValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}
