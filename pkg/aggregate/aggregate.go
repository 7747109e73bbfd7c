// Package aggregate merges the monthly datasets into one summary row per query.
package aggregate

import (
	"sort"
	"time"

	"opportunity-engine/pkg/dataset"
)

// NotAvailable fills month columns that cannot be computed.
const NotAvailable = "N/A"

// QuerySummary aggregates one query across every month it appeared in.
type QuerySummary struct {
	Query            string   `json:"query"`
	TotalClicks      float64  `json:"total_clicks"`
	TotalImpressions float64  `json:"total_impressions"`
	AvgPosition      float64  `json:"avg_position"`
	AvgCTR           float64  `json:"avg_ctr"`
	MaxSearchVolume  *float64 `json:"max_search_volume,omitempty"`
	FirstClickMonth  string   `json:"first_click_month"`
	PeakClickMonth   string   `json:"peak_click_month"`
	LastClickMonth   string   `json:"last_click_month"`
}

type accumulator struct {
	clicks      float64
	impressions float64
	positionSum float64
	ctrSum      float64
	rows        int
	maxVolume   *float64
	monthClicks map[time.Time]float64
}

// Summarize groups every record of d by exact query string. Rows are returned sorted
// by query so repeated calls on the same dataset produce identical output.
//
// Average position and CTR are unweighted means over the query's records. Month
// columns only consider months whose label maps to a calendar date; first and last
// click months need clicks > 0, the peak month is the earliest month holding the
// highest monthly click total.
func Summarize(d dataset.MonthlyDataset) []QuerySummary {
	acc := make(map[string]*accumulator)

	for _, slot := range d.Slots {
		for _, r := range slot.Records {
			a, ok := acc[r.Query]
			if !ok {
				a = &accumulator{monthClicks: make(map[time.Time]float64)}
				acc[r.Query] = a
			}
			a.clicks += r.Clicks
			a.impressions += r.Impressions
			a.positionSum += r.AveragePosition
			a.ctrSum += r.CTR
			a.rows++
			if r.SearchVolume != nil && (a.maxVolume == nil || *r.SearchVolume > *a.maxVolume) {
				v := *r.SearchVolume
				a.maxVolume = &v
			}

			label := r.MonthLabel
			if label == "" {
				label = slot.Window.Label
			}
			if month, ok := dataset.ParseMonthLabel(label); ok {
				a.monthClicks[month] += r.Clicks
			}
		}
	}

	summaries := make([]QuerySummary, 0, len(acc))
	for query, a := range acc {
		s := QuerySummary{
			Query:            query,
			TotalClicks:      a.clicks,
			TotalImpressions: a.impressions,
			AvgPosition:      a.positionSum / float64(a.rows),
			AvgCTR:           a.ctrSum / float64(a.rows),
			MaxSearchVolume:  a.maxVolume,
		}
		s.FirstClickMonth, s.PeakClickMonth, s.LastClickMonth = monthMetrics(a.monthClicks)
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Query < summaries[j].Query
	})
	return summaries
}

func monthMetrics(monthClicks map[time.Time]float64) (first, peak, last string) {
	first, peak, last = NotAvailable, NotAvailable, NotAvailable
	if len(monthClicks) == 0 {
		return
	}

	months := make([]time.Time, 0, len(monthClicks))
	for m := range monthClicks {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	peakMonth := months[0]
	for _, m := range months {
		clicks := monthClicks[m]
		if clicks > monthClicks[peakMonth] {
			peakMonth = m
		}
		if clicks > 0 {
			if first == NotAvailable {
				first = dataset.FormatMonth(m)
			}
			last = dataset.FormatMonth(m)
		}
	}
	peak = dataset.FormatMonth(peakMonth)
	return
}

// UniqueQueries is the sorted, deduplicated set of queries across all months.
func UniqueQueries(d dataset.MonthlyDataset) []string {
	seen := make(map[string]struct{})
	for _, slot := range d.Slots {
		for _, r := range slot.Records {
			seen[r.Query] = struct{}{}
		}
	}
	queries := make([]string, 0, len(seen))
	for q := range seen {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries
}
