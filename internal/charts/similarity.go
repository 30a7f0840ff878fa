package charts

import (
	"math"
	"sort"

	"npdstudio/domain/scenario"
)

// WeekPoint is one week of a similar product's distribution
type WeekPoint struct {
	WeekDate string  `json:"weekDate"`
	Value    float64 `json:"value"`
}

// SimilarityRow is a row of the similar products table
type SimilarityRow struct {
	BaseCode     string      `json:"baseCode"`
	Description  string      `json:"description"`
	Similarity   float64     `json:"similarity"`
	SellInVolume float64     `json:"sellInVolume"`
	Points       []WeekPoint `json:"points"`
}

// SimilarityRows flattens the similarity response into table rows, most similar first.
// Each week date is paired with the distribution value at the same index; a missing
// or non-numeric value becomes 0.
func SimilarityRows(sim scenario.SimilarityResponse) []SimilarityRow {
	rows := make([]SimilarityRow, 0, len(sim))
	for code, product := range sim {
		points := make([]WeekPoint, len(product.WeekDate))
		for i, week := range product.WeekDate {
			var v float64
			if i < len(product.Distribution) && !math.IsNaN(product.Distribution[i]) {
				v = product.Distribution[i]
			}
			points[i] = WeekPoint{WeekDate: week, Value: v}
		}
		rows = append(rows, SimilarityRow{
			BaseCode:     code,
			Description:  product.Description,
			Similarity:   product.Similarity,
			SellInVolume: product.SellInVolume,
			Points:       points,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Similarity != rows[j].Similarity {
			return rows[i].Similarity > rows[j].Similarity
		}
		return rows[i].BaseCode < rows[j].BaseCode
	})
	return rows
}
