package dataset

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestYearWindows(t *testing.T) {
	windows := YearWindows(2024, language.Italian)

	tests := []struct {
		index int
		label string
		start string
		end   string
	}{
		{0, "Gen 2024", "2024-01-01", "2024-01-31"},
		{1, "Feb 2024", "2024-02-01", "2024-02-29"},
		{4, "Mag 2024", "2024-05-01", "2024-05-31"},
		{8, "Set 2024", "2024-09-01", "2024-09-30"},
		{11, "Dic 2024", "2024-12-01", "2024-12-31"},
	}

	for _, tt := range tests {
		w := windows[tt.index]
		if w.Label != tt.label || w.StartDate() != tt.start || w.EndDate() != tt.end {
			t.Errorf("window %d = {%s %s %s}, want {%s %s %s}",
				tt.index, w.Label, w.StartDate(), w.EndDate(), tt.label, tt.start, tt.end)
		}
	}

	if got := YearWindows(2025, language.Italian)[1].EndDate(); got != "2025-02-28" {
		t.Errorf("non-leap February ends %s", got)
	}
}

func TestMonthAbbreviations_Locale(t *testing.T) {
	if got := MonthAbbreviations(language.English)[4]; got != "May" {
		t.Errorf("English May = %q", got)
	}
	if got := MonthAbbreviations(language.BritishEnglish)[0]; got != "Jan" {
		t.Errorf("en-GB should match the English table, got %q", got)
	}
	if got := MonthAbbreviations(language.Japanese)[0]; got != "Gen" {
		t.Errorf("unsupported locale should fall back to Italian, got %q", got)
	}
}

func TestParseMonthLabel(t *testing.T) {
	tests := []struct {
		label string
		want  time.Time
		ok    bool
	}{
		{"Gen 2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"Ott 2025", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), true},
		{"Dec 2024", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), true},
		{"mag 2025", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"Foo 2025", time.Time{}, false},
		{"Gen", time.Time{}, false},
		{"Gen 25", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseMonthLabel(tt.label)
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Errorf("ParseMonthLabel(%q) = %v, %v; want %v, %v", tt.label, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFormatMonth(t *testing.T) {
	if got := FormatMonth(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); got != "Mar 2025" {
		t.Errorf("FormatMonth = %q", got)
	}
}
