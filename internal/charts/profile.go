package charts

import (
	"math"

	"npdstudio/domain/distribution"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PositionStats summarises one distribution position across all clients
type PositionStats struct {
	Position int     `json:"position"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"stdDev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// DistributionProfile computes per-position statistics over a dataset. Non-numeric
// values are ignored; a position with no numeric values reports Count 0 and zeros.
func DistributionProfile(ds distribution.ClientDataset) []PositionStats {
	profile := make([]PositionStats, distribution.Width)
	column := make([]float64, 0, len(ds))

	for pos := range profile {
		column = column[:0]
		for _, rec := range ds {
			if pos >= len(rec.Distribution) {
				continue
			}
			v := rec.Distribution[pos]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			column = append(column, v)
		}

		ps := PositionStats{Position: pos + 1, Count: len(column)}
		if len(column) > 0 {
			ps.Mean = stat.Mean(column, nil)
			ps.Min = floats.Min(column)
			ps.Max = floats.Max(column)
			if median, err := stats.Median(column); err == nil {
				ps.Median = median
			}
			if len(column) > 1 {
				ps.StdDev = stat.StdDev(column, nil)
			}
		}
		profile[pos] = ps
	}
	return profile
}

// DatasetTotal sums every numeric value in the dataset.
func DatasetTotal(ds distribution.ClientDataset) float64 {
	var total float64
	for _, rec := range ds {
		for _, v := range rec.Distribution {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				total += v
			}
		}
	}
	return total
}
