package aggregate

import "math"

// Select keeps the candidates whose analyze flag is true. Queries without a flag
// default to true. Candidate order is preserved.
func Select(candidates []string, analyze map[string]bool) []string {
	selected := make([]string, 0, len(candidates))
	for _, q := range candidates {
		if flag, ok := analyze[q]; ok && !flag {
			continue
		}
		selected = append(selected, q)
	}
	return selected
}

// ReviewRow is one line of the selection table shown to the operator.
type ReviewRow struct {
	Analyze          bool    `json:"analyze"`
	Query            string  `json:"query"`
	TotalClicks      float64 `json:"total_clicks"`
	TotalImpressions float64 `json:"total_impressions"`
	AvgPosition      float64 `json:"avg_position"`
	AvgCTR           float64 `json:"avg_ctr"`
}

// ReviewTable renders summaries for selection, with average position rounded to one
// decimal and CTR to four.
func ReviewTable(summaries []QuerySummary, analyze map[string]bool) []ReviewRow {
	rows := make([]ReviewRow, 0, len(summaries))
	for _, s := range summaries {
		flag, ok := analyze[s.Query]
		rows = append(rows, ReviewRow{
			Analyze:          !ok || flag,
			Query:            s.Query,
			TotalClicks:      s.TotalClicks,
			TotalImpressions: s.TotalImpressions,
			AvgPosition:      round(s.AvgPosition, 1),
			AvgCTR:           round(s.AvgCTR, 4),
		})
	}
	return rows
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
