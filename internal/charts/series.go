package charts

import (
	"sort"
	"strconv"
	"strings"

	"npdstudio/domain/scenario"
)

var monthOrder = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Series is one retailer line of the prediction chart. Values align with the month
// labels returned alongside it; a month the retailer lacks is 0.
type Series struct {
	Retailer scenario.Retailer `json:"retailer"`
	Values   []float64         `json:"values"`
}

// PredictionSeries returns the chart's month axis in chronological order and one series
// per retailer present in the response. Months come from TOTAL_MARKET, or from every
// retailer when TOTAL_MARKET is absent.
func PredictionSeries(pred scenario.PredictionResponse) ([]string, []Series) {
	months := monthLabels(pred)
	SortMonths(months)

	var series []Series
	for _, r := range scenario.ResponseRetailers {
		data, ok := pred[r]
		if !ok {
			continue
		}
		values := make([]float64, len(months))
		for i, m := range months {
			values[i] = data[m]
		}
		series = append(series, Series{Retailer: r, Values: values})
	}
	return months, series
}

func monthLabels(pred scenario.PredictionResponse) []string {
	seen := map[string]bool{}
	var labels []string
	add := func(data scenario.RetailerData) {
		for m := range data {
			if !seen[m] {
				seen[m] = true
				labels = append(labels, m)
			}
		}
	}
	if market, ok := pred[scenario.TotalMarket]; ok {
		add(market)
		return labels
	}
	for _, data := range pred {
		add(data)
	}
	return labels
}

// SortMonths orders "Mon-YY" labels by year then month. Labels that do not parse
// follow the parsed ones in lexical order.
func SortMonths(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		ki, oki := monthKey(labels[i])
		kj, okj := monthKey(labels[j])
		switch {
		case oki && okj:
			if ki != kj {
				return ki < kj
			}
			return labels[i] < labels[j]
		case oki != okj:
			return oki
		default:
			return labels[i] < labels[j]
		}
	})
}

func monthKey(label string) (int, bool) {
	month, year, found := strings.Cut(label, "-")
	if !found || len(month) < 3 {
		return 0, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, false
	}
	for i, m := range monthOrder {
		if strings.EqualFold(month[:3], m) {
			return y*12 + i, true
		}
	}
	return 0, false
}
