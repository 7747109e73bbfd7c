package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// MonthsPerYear is the fixed number of extraction windows.
const MonthsPerYear = 12

var supportedLocales = []language.Tag{language.Italian, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

// Three-letter month abbreviations per supported locale, indexed like supportedLocales.
var monthAbbreviations = [][MonthsPerYear]string{
	{"Gen", "Feb", "Mar", "Apr", "Mag", "Giu", "Lug", "Ago", "Set", "Ott", "Nov", "Dic"},
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// MonthWindow is one calendar month of the target year.
type MonthWindow struct {
	Index int
	Label string
	Start time.Time
	End   time.Time
}

// StartDate formats the first day as YYYY-MM-DD.
func (w MonthWindow) StartDate() string { return w.Start.Format(time.DateOnly) }

// EndDate formats the last day as YYYY-MM-DD.
func (w MonthWindow) EndDate() string { return w.End.Format(time.DateOnly) }

// MonthAbbreviations returns the abbreviation table closest to tag.
// Unsupported locales fall back to Italian.
func MonthAbbreviations(tag language.Tag) [MonthsPerYear]string {
	_, idx, _ := localeMatcher.Match(tag)
	return monthAbbreviations[idx]
}

// YearWindows builds the twelve month windows of year, labelled "<abbr> <year>".
func YearWindows(year int, tag language.Tag) [MonthsPerYear]MonthWindow {
	abbr := MonthAbbreviations(tag)

	var windows [MonthsPerYear]MonthWindow
	for i := 0; i < MonthsPerYear; i++ {
		start := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		windows[i] = MonthWindow{
			Index: i,
			Label: fmt.Sprintf("%s %d", abbr[i], year),
			Start: start,
			End:   start.AddDate(0, 1, -1),
		}
	}
	return windows
}

// ParseMonthLabel maps "<abbr> <year>" in any supported locale to the first day of
// that month. Labels that do not map report false and must be treated as unorderable.
func ParseMonthLabel(label string) (time.Time, bool) {
	fields := strings.Fields(label)
	if len(fields) != 2 || len(fields[1]) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year <= 0 {
		return time.Time{}, false
	}

	for _, table := range monthAbbreviations {
		for i, abbr := range table {
			if strings.EqualFold(abbr, fields[0]) {
				return time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

// FormatMonth renders a month the way summary columns show it, e.g. "Mar 2025".
func FormatMonth(t time.Time) string {
	return t.Format("Jan 2006")
}
