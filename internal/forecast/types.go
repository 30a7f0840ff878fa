// Package forecast talks to the remote prediction service that turns a product
// scenario into retailer forecasts and a list of similar existing products.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
)

// Submission statuses reported by the prediction service
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Predictor is implemented by the HTTP client and the offline sample generator.
type Predictor interface {
	SubmitProduct(ctx context.Context, form scenario.ProductForm) (SubmissionResult, error)
	SubmitAll(ctx context.Context, forms []scenario.ProductForm) ([]SubmissionResult, error)
	FetchProduct(ctx context.Context, productID core.FormID, weekDate string) (scenario.ProductOutput, error)
	QueryAI(ctx context.Context, query string) (AIQueryResponse, error)
}

// SubmissionResult is the outcome of submitting one product. A service-side rejection
// is reported with StatusError and a message rather than as a Go error.
type SubmissionResult struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   *SubmissionData `json:"data,omitempty"`
}

// OK reports whether the submission produced a usable forecast
func (r SubmissionResult) OK() bool {
	return r.Status == StatusSuccess && r.Data != nil
}

// SubmissionData is the forecast returned for a product, together with the form as
// it stands after the forecast was applied.
type SubmissionData struct {
	ID          core.FormID                 `json:"id"`
	Predictions scenario.PredictionResponse `json:"predictions"`
	Similarity  scenario.SimilarityResponse `json:"similarity"`
	Form        scenario.ProductForm        `json:"form"`
}

// AIQueryResponse carries the assistant's suggested form values.
type AIQueryResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   *FormSuggestion `json:"data,omitempty"`
}

// FormSuggestion holds the form fields the assistant proposed. Absent fields are nil.
type FormSuggestion struct {
	BaseCode              *string  `json:"baseCode,omitempty"`
	Scenario              *string  `json:"scenario,omitempty"`
	WeekDate              *string  `json:"weekDate,omitempty"`
	LevelOfSugar          *string  `json:"levelOfSugar,omitempty"`
	PackGroup             *string  `json:"packGroup,omitempty"`
	ProductRange          *string  `json:"productRange,omitempty"`
	Segment               *string  `json:"segment,omitempty"`
	SuperSegment          *string  `json:"superSegment,omitempty"`
	BaseNumberInMultipack *string  `json:"baseNumberInMultipack,omitempty"`
	Flavor                *string  `json:"flavor,omitempty"`
	Choco                 *string  `json:"choco,omitempty"`
	Salty                 *string  `json:"salty,omitempty"`
	WeightPerUnitMl       *float64 `json:"weightPerUnitMl,omitempty"`
	ListPricePerUnitMl    *float64 `json:"listPricePerUnitMl,omitempty"`
}

// ApplyTo copies every suggested field onto form.
func (s FormSuggestion) ApplyTo(form scenario.ProductForm) scenario.ProductForm {
	setString(&form.BaseCode, s.BaseCode)
	setString(&form.Scenario, s.Scenario)
	setString(&form.WeekDate, s.WeekDate)
	setString(&form.LevelOfSugar, s.LevelOfSugar)
	setString(&form.PackGroup, s.PackGroup)
	setString(&form.ProductRange, s.ProductRange)
	setString(&form.Segment, s.Segment)
	setString(&form.SuperSegment, s.SuperSegment)
	setString(&form.BaseNumberInMultipack, s.BaseNumberInMultipack)
	setString(&form.Flavor, s.Flavor)
	setString(&form.Choco, s.Choco)
	setString(&form.Salty, s.Salty)
	if s.WeightPerUnitMl != nil {
		form.WeightPerUnitMl = *s.WeightPerUnitMl
	}
	if s.ListPricePerUnitMl != nil {
		form.ListPricePerUnitMl = *s.ListPricePerUnitMl
	}
	return form
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// HTTPError is a non-2xx answer from the prediction service
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// submissionPayload is the body of /get_prediction_on_userinput.
type submissionPayload struct {
	ID                    core.FormID                 `json:"id"`
	IsMinimized           bool                        `json:"isMinimized"`
	Country               string                      `json:"country"`
	Category              string                      `json:"category"`
	BaseCode              string                      `json:"basecode"`
	Scenario              string                      `json:"scenario"`
	WeekDate              string                      `json:"weekDate"`
	PackGroup             string                      `json:"packGroup"`
	ProductRange          string                      `json:"productRange"`
	BaseNumberInMultipack string                      `json:"baseNumberInMultipack"`
	Segment               string                      `json:"segment"`
	SuperSegment          string                      `json:"superSegment"`
	Salty                 string                      `json:"salty"`
	Choco                 string                      `json:"choco"`
	Flavor                string                      `json:"flavor"`
	LevelOfSugar          string                      `json:"levelOfSugar"`
	ListPricePerUnitMl    float64                     `json:"listPricePerUnitMl"`
	WeightPerUnitMl       float64                     `json:"weightPerUnitMl"`
	SimilarityData        scenario.SimilarityResponse `json:"similarityData"`
	SampleOutput          bool                        `json:"sampleOutput"`
}

func newSubmissionPayload(form scenario.ProductForm) submissionPayload {
	similarity := form.SimilarityData
	if similarity == nil {
		similarity = scenario.SimilarityResponse{}
	}
	return submissionPayload{
		ID:                    form.ID,
		IsMinimized:           form.IsMinimized,
		Country:               form.Country,
		Category:              form.Category,
		BaseCode:              form.BaseCode,
		Scenario:              form.Scenario,
		WeekDate:              form.WeekDate,
		PackGroup:             form.PackGroup,
		ProductRange:          form.ProductRange,
		BaseNumberInMultipack: form.BaseNumberInMultipack,
		Segment:               form.Segment,
		SuperSegment:          form.SuperSegment,
		Salty:                 form.Salty,
		Choco:                 form.Choco,
		Flavor:                form.Flavor,
		LevelOfSugar:          form.LevelOfSugar,
		ListPricePerUnitMl:    form.ListPricePerUnitMl,
		WeightPerUnitMl:       form.WeightPerUnitMl,
		SimilarityData:        similarity,
		SampleOutput:          true,
	}
}

// productResponse is the envelope the service answers with. Predictions and similarity
// stay raw until validated so a malformed body is reported as an invalid structure.
type productResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Data   *struct {
		ID          core.FormID     `json:"id"`
		Predictions json.RawMessage `json:"predictions"`
		Similarity  json.RawMessage `json:"similarity"`
	} `json:"data"`
}

// decode returns the forecast carried by the response, or ok=false when either part
// is missing or has the wrong shape.
func (r productResponse) decode() (pred scenario.PredictionResponse, sim scenario.SimilarityResponse, ok bool) {
	if r.Data == nil {
		return nil, nil, false
	}
	if err := json.Unmarshal(r.Data.Predictions, &pred); err != nil || !pred.HasAllRetailers() {
		return nil, nil, false
	}
	if err := json.Unmarshal(r.Data.Similarity, &sim); err != nil || len(sim) == 0 {
		return nil, nil, false
	}
	return pred, sim, true
}
