package report

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/dataset"
	"opportunity-engine/pkg/trends"
)

func sampleDataset() dataset.MonthlyDataset {
	d := dataset.NewMonthlyDataset(dataset.YearWindows(2025, language.Italian))
	vol := 1200.0
	d.Slots[0].Records = []dataset.PerformanceRecord{
		{Query: "shoes", Clicks: 3, Impressions: 30, AveragePosition: 4, CTR: 0.1, SearchVolume: &vol, MonthLabel: "Gen 2025",
			Extra: map[string]any{"url": "https://example.it/shoes"}},
		{Query: "boots", Clicks: 1, Impressions: 10, AveragePosition: 8, CTR: 0.1, MonthLabel: "Gen 2025"},
	}
	d.Slots[2].Records = []dataset.PerformanceRecord{
		{Query: "shoes", Clicks: 5, Impressions: 50, AveragePosition: 2, CTR: 0.1, MonthLabel: "Mar 2025"},
	}
	return d
}

func column(t *testing.T, sheet Sheet, name string) int {
	t.Helper()
	for i, c := range sheet.Columns {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not in %v", name, sheet.Columns)
	return -1
}

func TestAssemble_MonthSheetsSkipEmptyMonths(t *testing.T) {
	rep, err := Assemble(sampleDataset(), nil)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(rep.MonthSheets) != 2 {
		t.Fatalf("month sheets = %d, want 2", len(rep.MonthSheets))
	}
	if rep.MonthSheets[0].Name != "Gen 2025" || rep.MonthSheets[1].Name != "Mar 2025" {
		t.Errorf("sheet names = %q, %q", rep.MonthSheets[0].Name, rep.MonthSheets[1].Name)
	}

	jan := rep.MonthSheets[0]
	wantColumns := []string{"query", "clicks", "impressions", "average_position", "ctr", "search_volume", "url"}
	if !reflect.DeepEqual(jan.Columns, wantColumns) {
		t.Errorf("columns = %v, want %v", jan.Columns, wantColumns)
	}
	for _, c := range jan.Columns {
		if strings.Contains(c, "month") {
			t.Errorf("internal column %q leaked into month sheet", c)
		}
	}
	if jan.Rows[1][column(t, jan, "search_volume")] != nil {
		t.Error("missing search volume should be an empty cell")
	}
	if jan.Rows[1][column(t, jan, "url")] != nil {
		t.Error("missing extra column should be an empty cell")
	}

	sheets := rep.Sheets()
	if len(sheets) != 3 || sheets[2].Name != SummarySheetName {
		t.Errorf("expected summary sheet last, got %d sheets", len(sheets))
	}
}

func TestAssemble_SummaryWithPartialTrends(t *testing.T) {
	signals := map[string]trends.TrendSignal{
		"boots": {LastValue: 64, Direction: trends.Up, DataPoints: 52},
	}

	rep, err := Assemble(sampleDataset(), signals)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	summary := rep.Summary
	wantColumns := append(append([]string(nil), SummaryColumns...),
		"Trend last_value", "Trend year_trend", "Trend data_points")
	if !reflect.DeepEqual(summary.Columns, wantColumns) {
		t.Errorf("columns = %v, want %v", summary.Columns, wantColumns)
	}
	if len(summary.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(summary.Rows))
	}

	boots, shoes := summary.Rows[0], summary.Rows[1]
	if boots[0] != "boots" || shoes[0] != "shoes" {
		t.Fatalf("rows not ordered by query: %v / %v", boots[0], shoes[0])
	}
	if boots[column(t, *summary, "Trend year_trend")] != "Up" {
		t.Errorf("boots trend = %v", boots[column(t, *summary, "Trend year_trend")])
	}
	for _, name := range []string{"Trend last_value", "Trend year_trend", "Trend data_points"} {
		if shoes[column(t, *summary, name)] != nil {
			t.Errorf("shoes %s = %v, want empty", name, shoes[column(t, *summary, name)])
		}
	}

	if shoes[column(t, *summary, "Total Clicks")] != 8.0 {
		t.Errorf("shoes clicks = %v, want 8", shoes[column(t, *summary, "Total Clicks")])
	}
	if shoes[column(t, *summary, "Max Search Volume")] != 1200.0 {
		t.Errorf("shoes max volume = %v", shoes[column(t, *summary, "Max Search Volume")])
	}
	if boots[column(t, *summary, "Max Search Volume")] != nil {
		t.Error("boots has no search volume and should be an empty cell")
	}
	if shoes[column(t, *summary, "Peak Click Month")] != "Mar 2025" {
		t.Errorf("shoes peak = %v", shoes[column(t, *summary, "Peak Click Month")])
	}
}

func TestAssemble_NoDataSignal(t *testing.T) {
	signals := map[string]trends.TrendSignal{"shoes": {NoData: true}}

	rep, err := Assemble(sampleDataset(), signals)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	col := column(t, *rep.Summary, "Trend trend")
	if rep.Summary.Rows[1][col] != trends.NoDataMarker || rep.Summary.Rows[0][col] != nil {
		t.Errorf("unexpected trend cells: %v / %v", rep.Summary.Rows[0][col], rep.Summary.Rows[1][col])
	}
}

func TestAssemble_EmptyReportIsDistinguishable(t *testing.T) {
	empty := dataset.NewMonthlyDataset(dataset.YearWindows(2025, language.Italian))

	rep, err := Assemble(empty, map[string]trends.TrendSignal{})
	if !errors.Is(err, ErrEmptyReport) {
		t.Fatalf("Expected ErrEmptyReport, got %v", err)
	}
	if !rep.Empty() || len(rep.Sheets()) != 0 {
		t.Errorf("expected zero sheets, got %d", len(rep.Sheets()))
	}

	withData, err := Assemble(sampleDataset(), map[string]trends.TrendSignal{})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if withData.Empty() || withData.Summary == nil {
		t.Fatal("report with records must carry a summary sheet")
	}
	if !reflect.DeepEqual(withData.Summary.Columns, SummaryColumns) {
		t.Errorf("no trend columns expected, got %v", withData.Summary.Columns)
	}
}

func TestAssemble_SheetNameCollision(t *testing.T) {
	label := strings.Repeat("x", 31)
	var windows [dataset.MonthsPerYear]dataset.MonthWindow
	windows[0] = dataset.MonthWindow{Index: 0, Label: label + " A"}
	windows[1] = dataset.MonthWindow{Index: 1, Label: label + " B"}
	d := dataset.NewMonthlyDataset(windows)
	d.Slots[0].Records = []dataset.PerformanceRecord{{Query: "a"}}
	d.Slots[1].Records = []dataset.PerformanceRecord{{Query: "b"}}

	_, err := Assemble(d, nil)

	var reportErr *api.ReportError
	if !errors.As(err, &reportErr) {
		t.Fatalf("Expected ReportError, got %v", err)
	}
}

func TestSheetName(t *testing.T) {
	if got := SheetName("Gen 2025"); got != "Gen 2025" {
		t.Errorf("SheetName = %q", got)
	}
	long := strings.Repeat("è", 40)
	if got := SheetName(long); len([]rune(got)) != MaxSheetNameRunes {
		t.Errorf("SheetName kept %d runes, want %d", len([]rune(got)), MaxSheetNameRunes)
	}
}
