// Package report turns the monthly datasets and trend signals into the report workbook.
package report

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"opportunity-engine/pkg/aggregate"
	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/dataset"
	"opportunity-engine/pkg/trends"
)

const (
	SummarySheetName  = "Summary"
	MaxSheetNameRunes = 31
	TrendColumnPrefix = "Trend "
)

// ErrEmptyReport means every month was empty; no sheet was produced.
var ErrEmptyReport = errors.New("no records found to build report")

// SummaryColumns are the fixed leading columns of the summary sheet.
var SummaryColumns = []string{
	"Query",
	"Total Clicks",
	"Total Impressions",
	"Avg Position",
	"Avg CTR",
	"Max Search Volume",
	"First Click Month",
	"Peak Click Month",
	"Last Click Month",
}

// Sheet is a header row plus data rows. A nil cell is written as an empty cell.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Report is the assembled workbook content.
type Report struct {
	MonthSheets []Sheet
	Summary     *Sheet
}

// Sheets returns the month sheets followed by the summary sheet.
func (r *Report) Sheets() []Sheet {
	sheets := append([]Sheet(nil), r.MonthSheets...)
	if r.Summary != nil {
		sheets = append(sheets, *r.Summary)
	}
	return sheets
}

// Empty reports whether the report has no sheet at all.
func (r *Report) Empty() bool {
	return len(r.MonthSheets) == 0 && r.Summary == nil
}

// Assemble builds one sheet per non-empty month and the summary sheet. When every
// month is empty it returns an empty report together with ErrEmptyReport.
func Assemble(d dataset.MonthlyDataset, signals map[string]trends.TrendSignal) (*Report, error) {
	rep := &Report{}
	names := make(map[string]string)

	for _, slot := range d.Slots {
		if len(slot.Records) == 0 {
			continue
		}
		name := SheetName(slot.Window.Label)
		if prev, ok := names[name]; ok {
			return nil, &api.ReportError{
				Op:  "assemble",
				Err: fmt.Errorf("months %q and %q both map to sheet %q", prev, slot.Window.Label, name),
			}
		}
		names[name] = slot.Window.Label
		rep.MonthSheets = append(rep.MonthSheets, monthSheet(name, slot.Records))
	}

	if len(rep.MonthSheets) == 0 {
		return rep, ErrEmptyReport
	}
	if prev, ok := names[SummarySheetName]; ok {
		return nil, &api.ReportError{
			Op:  "assemble",
			Err: fmt.Errorf("month %q collides with the summary sheet", prev),
		}
	}

	summary := summarySheet(aggregate.Summarize(d), signals)
	rep.Summary = &summary
	return rep, nil
}

// SheetName truncates a label to the spreadsheet sheet-name limit.
func SheetName(label string) string {
	if utf8.RuneCountInString(label) <= MaxSheetNameRunes {
		return label
	}
	return string([]rune(label)[:MaxSheetNameRunes])
}

func monthSheet(name string, records []dataset.PerformanceRecord) Sheet {
	columns := dataset.Columns(records)
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = r.Value(c)
		}
		rows = append(rows, row)
	}
	return Sheet{Name: name, Columns: columns, Rows: rows}
}

func summarySheet(summaries []aggregate.QuerySummary, signals map[string]trends.TrendSignal) Sheet {
	used := make(map[string]bool)
	for _, s := range summaries {
		if sig, ok := signals[s.Query]; ok {
			for _, f := range sig.Fields() {
				used[f.Name] = true
			}
		}
	}
	var trendFields []string
	for _, name := range trends.FieldNames {
		if used[name] {
			trendFields = append(trendFields, name)
		}
	}

	columns := append([]string(nil), SummaryColumns...)
	for _, name := range trendFields {
		columns = append(columns, TrendColumnPrefix+name)
	}

	rows := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		var maxVolume any
		if s.MaxSearchVolume != nil {
			maxVolume = *s.MaxSearchVolume
		}
		row := []any{
			s.Query,
			s.TotalClicks,
			s.TotalImpressions,
			s.AvgPosition,
			s.AvgCTR,
			maxVolume,
			s.FirstClickMonth,
			s.PeakClickMonth,
			s.LastClickMonth,
		}

		values := make(map[string]any)
		if sig, ok := signals[s.Query]; ok {
			for _, f := range sig.Fields() {
				values[f.Name] = f.Value
			}
		}
		for _, name := range trendFields {
			row = append(row, values[name])
		}
		rows = append(rows, row)
	}
	return Sheet{Name: SummarySheetName, Columns: columns, Rows: rows}
}
