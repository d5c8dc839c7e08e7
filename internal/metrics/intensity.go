package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// intensityStats computes mean, median, and population standard deviation
// over the given sample. The caller guarantees the slice is non-empty.
func intensityStats(values []float64) *IntensityStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return &IntensityStats{
		Mean:   stat.Mean(values, nil),
		Median: median,
		Std:    stat.PopStdDev(values, nil),
	}
}
