package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
)

// SampleMonths is the forecast horizon produced by the sample generator
const SampleMonths = 13

// SampleClient generates plausible random forecasts without a prediction service.
// It is selected when the configured service URL is "sample".
type SampleClient struct {
	mu    sync.Mutex
	rng   *rand.Rand
	start time.Time
	store map[core.FormID]scenario.ProductOutput
}

// NewSampleClient creates a generator. A zero seed draws a random one.
func NewSampleClient(seed uint64) *SampleClient {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SampleClient{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		start: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		store: make(map[core.FormID]scenario.ProductOutput),
	}
}

// SampleMonthLabels returns the month labels of the sample horizon, Apr-25 onwards.
func (s *SampleClient) SampleMonthLabels() []string {
	labels := make([]string, SampleMonths)
	for i := range labels {
		labels[i] = s.start.AddDate(0, i, 0).Format("Jan-06")
	}
	return labels
}

// SubmitProduct generates a forecast and remembers it for FetchProduct.
func (s *SampleClient) SubmitProduct(ctx context.Context, form scenario.ProductForm) (SubmissionResult, error) {
	if err := ctx.Err(); err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to submit product details: %w", err)
	}

	s.mu.Lock()
	predictions := s.predictions()
	similarity := s.similarity(form)
	s.store[form.ID] = scenario.ProductOutput{
		ProductID:      form.ID,
		ScenarioName:   "Scenario " + form.ID.String(),
		PredictionData: predictions,
		SimilarityData: similarity,
	}
	s.mu.Unlock()

	updated := form
	updated.PredictionData = predictions
	updated.SimilarityData = similarity
	return SubmissionResult{
		Status: StatusSuccess,
		Data: &SubmissionData{
			ID:          form.ID,
			Predictions: predictions,
			Similarity:  similarity,
			Form:        updated,
		},
	}, nil
}

// SubmitAll submits every form concurrently, keeping their order.
func (s *SampleClient) SubmitAll(ctx context.Context, forms []scenario.ProductForm) ([]SubmissionResult, error) {
	return submitAll(ctx, s, forms)
}

// FetchProduct returns the forecast generated for a previously submitted product.
func (s *SampleClient) FetchProduct(_ context.Context, productID core.FormID, _ string) (scenario.ProductOutput, error) {
	if productID.String() == "" {
		return scenario.ProductOutput{}, core.NewValidationError("productId", "Product ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.store[productID]
	if !ok {
		return scenario.ProductOutput{}, fmt.Errorf("%w: %s", core.ErrOutputNotFound, productID)
	}
	return out, nil
}

// QueryAI answers with an empty suggestion.
func (s *SampleClient) QueryAI(_ context.Context, _ string) (AIQueryResponse, error) {
	return AIQueryResponse{Status: StatusSuccess, Data: &FormSuggestion{}}, nil
}

// predictions fills each retailer with values up to 10000 and makes TOTAL_MARKET
// exceed the sum of the named retailers by up to 1000. Caller holds mu.
func (s *SampleClient) predictions() scenario.PredictionResponse {
	pred := scenario.PredictionResponse{}
	for _, r := range scenario.ResponseRetailers {
		pred[r] = scenario.RetailerData{}
	}
	for _, month := range s.SampleMonthLabels() {
		var others float64
		for _, r := range scenario.MainRetailers {
			v := round2(s.rng.Float64() * 10000)
			pred[r][month] = v
			others += v
		}
		// strictly above the rounded sum even after rounding
		pred[scenario.TotalMarket][month] = round2(others + 0.01 + s.rng.Float64()*1000)
	}
	return pred
}

// similarity invents three look-alike products. Caller holds mu.
func (s *SampleClient) similarity(form scenario.ProductForm) scenario.SimilarityResponse {
	weeks := s.SampleMonthLabels()
	sim := scenario.SimilarityResponse{}
	for i := 1; i <= 3; i++ {
		dist := make([]float64, len(weeks))
		for j := range dist {
			dist[j] = round2(s.rng.Float64() * 100)
		}
		code := fmt.Sprintf("%s-SIM%d", firstOr(form.BaseCode, "BASE"), i)
		sim[code] = scenario.SimilarProduct{
			Description:  fmt.Sprintf("Similar product %d to %s", i, form.ScenarioName()),
			SellInVolume: round2(s.rng.Float64() * 50000),
			Similarity:   round2(0.6 + s.rng.Float64()*0.39),
			Distribution: dist,
			WeekDate:     append([]string(nil), weeks...),
		}
	}
	return sim
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func firstOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
