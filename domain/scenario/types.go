// Package scenario models product scenario forms, the forecasts returned for them and the
// workspace state that owns both.
package scenario

import (
	"fmt"

	"npdstudio/domain/core"
)

// MaxForms is the number of product scenarios a workspace may hold at once.
const MaxForms = 6

// Retailer names a column of the prediction response
type Retailer string

const (
	Asda        Retailer = "ASDA"
	Morrisons   Retailer = "MORRISONS"
	Sainsburys  Retailer = "SAINSBURYS"
	Tesco       Retailer = "TESCO"
	TotalMarket Retailer = "TOTAL_MARKET"
	// Others is derived: TOTAL_MARKET minus the four named retailers.
	Others      Retailer = "OTHERS"
)

// MainRetailers are the retailers reported individually, in display order.
var MainRetailers = []Retailer{Asda, Morrisons, Tesco, Sainsburys}

// ResponseRetailers are the keys every prediction response must carry.
var ResponseRetailers = []Retailer{Asda, Morrisons, Sainsburys, Tesco, TotalMarket}

// RetailerData maps a month label (e.g. "Apr-25") to a forecast value.
type RetailerData map[string]float64

// PredictionResponse is the forecast per retailer.
type PredictionResponse map[Retailer]RetailerData

// HasAllRetailers reports whether every retailer in ResponseRetailers is present.
func (p PredictionResponse) HasAllRetailers() bool {
	for _, r := range ResponseRetailers {
		if _, ok := p[r]; !ok || p[r] == nil {
			return false
		}
	}
	return true
}

// SimilarProduct is one existing product the prediction service judged similar.
type SimilarProduct struct {
	Description  string    `json:"description"`
	SellInVolume float64   `json:"sell_in_volume"`
	Similarity   float64   `json:"similarity"`
	Distribution []float64 `json:"distribution"`
	WeekDate     []string  `json:"week_date"`
}

// SimilarityResponse maps a base code to its similar product details.
type SimilarityResponse map[string]SimilarProduct

// ProductForm is a user-configured forecasting input.
type ProductForm struct {
	ID                    core.FormID        `json:"id"`
	BaseCode              string             `json:"baseCode"`
	Scenario              string             `json:"scenario"`
	Retailer              string             `json:"retailer,omitempty"`
	WeekDate              string             `json:"weekDate"`
	LevelOfSugar          string             `json:"levelOfSugar"`
	PackGroup             string             `json:"packGroup"`
	ProductRange          string             `json:"productRange"`
	Segment               string             `json:"segment"`
	SuperSegment          string             `json:"superSegment"`
	BaseNumberInMultipack string             `json:"baseNumberInMultipack"`
	Flavor                string             `json:"flavor"`
	Choco                 string             `json:"choco"`
	Salty                 string             `json:"salty"`
	WeightPerUnitMl       float64            `json:"weightPerUnitMl"`
	ListPricePerUnitMl    float64            `json:"listPricePerUnitMl"`
	IsMinimized           bool               `json:"isMinimized"`
	IsDetailedModel       bool               `json:"isDetailedModel"`
	Country               string             `json:"country,omitempty"`
	Category              string             `json:"category,omitempty"`
	PredictionData        PredictionResponse `json:"predictionData,omitempty"`
	SimilarityData        SimilarityResponse `json:"similarityData,omitempty"`
}

// NewForm returns an empty form stamped with the current selection.
func NewForm(country, category string) ProductForm {
	return ProductForm{
		ID:       core.NewFormID(),
		Country:  country,
		Category: category,
	}
}

// CloneForm copies a form under a fresh id. The clone falls back to the general model and
// prefers the current selection over the source form's country and category.
func CloneForm(src ProductForm, country, category string) ProductForm {
	clone := src
	clone.ID = core.NewFormID()
	clone.BaseCode = fmt.Sprintf("Clone of %s", src.BaseCode)
	clone.Scenario = fmt.Sprintf("Clone of %s", src.Scenario)
	clone.IsDetailedModel = false
	clone.Country = firstNonEmpty(country, src.Country)
	clone.Category = firstNonEmpty(category, src.Category)
	return clone
}

// ScenarioName is the display name of the form, falling back like the output page does.
func (f ProductForm) ScenarioName() string {
	if f.Scenario != "" {
		return f.Scenario
	}
	return "Unnamed Scenario"
}

// ProductOutput is the forecast fetched for one product.
type ProductOutput struct {
	ProductID      core.FormID        `json:"productId"`
	ScenarioName   string             `json:"scenarioName"`
	PredictionData PredictionResponse `json:"predictionData"`
	SimilarityData SimilarityResponse `json:"similarityData"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
