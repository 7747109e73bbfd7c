package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DecodeRecords converts raw API rows into typed records for one month.
// This is the only place where missing or non-numeric metrics become 0.
// Rows without a string query are skipped and counted in dropped.
func DecodeRecords(rows []map[string]any, monthLabel string) (records []PerformanceRecord, dropped int) {
	records = make([]PerformanceRecord, 0, len(rows))
	for _, row := range rows {
		query, ok := row[ColumnQuery].(string)
		if !ok {
			dropped++
			continue
		}

		rec := PerformanceRecord{
			Query:           query,
			Clicks:          coerce(row[ColumnClicks]),
			Impressions:     coerce(row[ColumnImpressions]),
			AveragePosition: coerce(row[ColumnAveragePosition]),
			CTR:             coerce(row[ColumnCTR]),
			MonthLabel:      monthLabel,
		}
		if v, ok := toFloat(row[ColumnSearchVolume]); ok {
			rec.SearchVolume = &v
		}

		for k, v := range row {
			if isKnownColumn(k) || strings.HasPrefix(k, "_") {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[k] = normalizeExtra(v)
		}
		records = append(records, rec)
	}
	return records, dropped
}

func isKnownColumn(k string) bool {
	for _, c := range KnownColumns {
		if c == k {
			return true
		}
	}
	return false
}

func coerce(v any) float64 {
	f, _ := toFloat(v)
	return f
}

// toFloat accepts JSON numbers and numeric strings. NaN and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func normalizeExtra(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
