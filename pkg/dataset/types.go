package dataset

import "sort"

// Raw column names of a performance record as the extraction API sends them.
const (
	ColumnQuery           = "query"
	ColumnClicks          = "clicks"
	ColumnImpressions     = "impressions"
	ColumnAveragePosition = "average_position"
	ColumnCTR             = "ctr"
	ColumnSearchVolume    = "search_volume"
)

// KnownColumns lists the typed record columns in sheet order.
var KnownColumns = []string{
	ColumnQuery,
	ColumnClicks,
	ColumnImpressions,
	ColumnAveragePosition,
	ColumnCTR,
	ColumnSearchVolume,
}

// PerformanceRecord is one query's performance in one month.
// Numeric fields are already zero-coerced; SearchVolume is nil when absent.
type PerformanceRecord struct {
	Query           string
	Clicks          float64
	Impressions     float64
	AveragePosition float64
	CTR             float64
	SearchVolume    *float64
	MonthLabel      string
	// Extra holds additional raw columns, written to the month sheet unchanged.
	Extra map[string]any
}

// Value returns the raw-column value of the record, or nil.
func (r PerformanceRecord) Value(column string) any {
	switch column {
	case ColumnQuery:
		return r.Query
	case ColumnClicks:
		return r.Clicks
	case ColumnImpressions:
		return r.Impressions
	case ColumnAveragePosition:
		return r.AveragePosition
	case ColumnCTR:
		return r.CTR
	case ColumnSearchVolume:
		if r.SearchVolume == nil {
			return nil
		}
		return *r.SearchVolume
	default:
		return r.Extra[column]
	}
}

// MonthSlot holds the records of one month window; Records may be empty.
type MonthSlot struct {
	Window  MonthWindow
	Records []PerformanceRecord
}

// MonthlyDataset is the fixed, ordered set of twelve month slots.
type MonthlyDataset struct {
	Slots [MonthsPerYear]MonthSlot
}

// NewMonthlyDataset creates an empty dataset over windows.
func NewMonthlyDataset(windows [MonthsPerYear]MonthWindow) MonthlyDataset {
	var d MonthlyDataset
	for i, w := range windows {
		d.Slots[i] = MonthSlot{Window: w}
	}
	return d
}

// RecordCount is the number of records across all months.
func (d MonthlyDataset) RecordCount() int {
	n := 0
	for _, s := range d.Slots {
		n += len(s.Records)
	}
	return n
}

// Empty reports whether every month slot is empty.
func (d MonthlyDataset) Empty() bool {
	return d.RecordCount() == 0
}

// Columns returns the raw columns of the records: the known columns (search_volume only
// when some record carries it) followed by the sorted union of extra columns.
func Columns(records []PerformanceRecord) []string {
	seen := make(map[string]struct{})
	var extra []string
	hasVolume := false
	for _, r := range records {
		if r.SearchVolume != nil {
			hasVolume = true
		}
		for k := range r.Extra {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	cols := make([]string, 0, len(KnownColumns)+len(extra))
	for _, c := range KnownColumns {
		if c == ColumnSearchVolume && !hasVolume {
			continue
		}
		cols = append(cols, c)
	}
	return append(cols, extra...)
}
