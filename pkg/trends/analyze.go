package trends

// Analyze derives a signal from the series: the direction compares the first value of
// the last point with the first value of the first point. Points without values count
// as 0. An empty series yields the NoData marker.
func Analyze(points []Point) TrendSignal {
	if len(points) == 0 {
		return TrendSignal{NoData: true}
	}

	first := firstValue(points[0])
	last := firstValue(points[len(points)-1])

	direction := Down
	if last > first {
		direction = Up
	}
	return TrendSignal{
		LastValue:  last,
		Direction:  direction,
		DataPoints: len(points),
	}
}

func firstValue(p Point) float64 {
	if len(p.Values) == 0 || p.Values[0] == nil {
		return 0
	}
	return *p.Values[0]
}
