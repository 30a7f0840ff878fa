// Package charts derives the figures shown on the output dashboard from a forecast
// and renders them as PNG images.
package charts

import (
	"math"

	"npdstudio/domain/scenario"

	"github.com/montanaflynn/stats"
)

// Share is one slice of the retailer doughnut
type Share struct {
	Retailer scenario.Retailer `json:"retailer"`
	Total    float64           `json:"total"`
	Percent  float64           `json:"percent"`
}

// RetailerTotals sums each retailer's forecast over all months.
func RetailerTotals(pred scenario.PredictionResponse) map[scenario.Retailer]float64 {
	totals := make(map[scenario.Retailer]float64, len(pred))
	for retailer, months := range pred {
		totals[retailer] = sumMonths(months)
	}
	return totals
}

// RetailerShares splits TOTAL_MARKET between the four named retailers and OTHERS,
// the remainder. Percentages are of TOTAL_MARKET. Nil when TOTAL_MARKET is absent.
func RetailerShares(pred scenario.PredictionResponse) []Share {
	market, ok := pred[scenario.TotalMarket]
	if !ok || market == nil {
		return nil
	}
	total := sumMonths(market)

	shares := make([]Share, 0, len(scenario.MainRetailers)+1)
	var named float64
	for _, r := range scenario.MainRetailers {
		sum := sumMonths(pred[r])
		named += sum
		shares = append(shares, Share{Retailer: r, Total: sum})
	}
	shares = append(shares, Share{Retailer: scenario.Others, Total: total - named})

	for i := range shares {
		shares[i].Percent = percentOf(shares[i].Total, total)
	}
	return shares
}

func percentOf(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	return v / total * 100
}

// sumMonths adds the finite values of a retailer; a missing retailer sums to 0.
func sumMonths(months scenario.RetailerData) float64 {
	data := make(stats.Float64Data, 0, len(months))
	for _, v := range months {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if data.Len() == 0 {
		return 0
	}
	sum, err := data.Sum()
	if err != nil {
		return 0
	}
	return sum
}
