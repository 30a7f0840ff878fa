package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"
)

const (
	predictionPath = "/get_prediction_on_userinput"
	queryPath      = "/query_ai"
)

// Config holds the settings of the HTTP client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client calls the prediction service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
	logger     *internal.Logger
}

// NewClient creates a prediction service client
func NewClient(config Config, logger *internal.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing prediction service URL")
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Retries < 1 {
		config.Retries = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		attempts:   uint(config.Retries),
		retryDelay: config.RetryDelay,
		logger:     logger,
	}, nil
}

// SubmitProduct requests a forecast for one product form.
func (c *Client) SubmitProduct(ctx context.Context, form scenario.ProductForm) (SubmissionResult, error) {
	payload := newSubmissionPayload(form)

	var resp productResponse
	if err := c.post(ctx, predictionPath, payload, &resp); err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to submit product details: %w", err)
	}

	if resp.Status != StatusSuccess || resp.Data == nil {
		msg := resp.Error
		if msg == "" {
			msg = "No data available"
		}
		return SubmissionResult{Status: resp.Status, Error: msg}, nil
	}

	predictions, similarity, ok := resp.decode()
	if !ok {
		c.logger.Error("[Forecast] Invalid data structure returned for product %s", form.ID)
		return SubmissionResult{Status: StatusError, Error: "Invalid data structure"}, nil
	}

	updated := form
	updated.PredictionData = predictions
	updated.SimilarityData = similarity

	return SubmissionResult{
		Status: StatusSuccess,
		Data: &SubmissionData{
			ID:          resp.Data.ID,
			Predictions: predictions,
			Similarity:  similarity,
			Form:        updated,
		},
	}, nil
}

// SubmitAll submits every form concurrently. Results keep the order of forms; the
// first failure cancels the rest and is returned.
func (c *Client) SubmitAll(ctx context.Context, forms []scenario.ProductForm) ([]SubmissionResult, error) {
	return submitAll(ctx, c, forms)
}

func submitAll(ctx context.Context, p Predictor, forms []scenario.ProductForm) ([]SubmissionResult, error) {
	results := make([]SubmissionResult, len(forms))
	g, gctx := errgroup.WithContext(ctx)
	for i, form := range forms {
		g.Go(func() error {
			res, err := p.SubmitProduct(gctx, form)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to submit products: %w", err)
	}
	return results, nil
}

// FetchProduct retrieves the forecast already computed for a product.
func (c *Client) FetchProduct(ctx context.Context, productID core.FormID, weekDate string) (scenario.ProductOutput, error) {
	if productID.String() == "" {
		return scenario.ProductOutput{}, core.NewValidationError("productId", "Product ID is required")
	}

	var resp productResponse
	body := map[string]string{"id": productID.String(), "weekDate": weekDate}
	if err := c.post(ctx, predictionPath, body, &resp); err != nil {
		return scenario.ProductOutput{}, fmt.Errorf("failed to fetch product data: %w", err)
	}
	if resp.Status == StatusError || resp.Data == nil {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to fetch prediction data"
		}
		return scenario.ProductOutput{}, fmt.Errorf("failed to fetch product data: %s", msg)
	}

	output := scenario.ProductOutput{
		ProductID:    productID,
		ScenarioName: "Scenario " + productID.String(),
	}
	// partial payloads are passed through; callers render what is present
	if len(resp.Data.Predictions) > 0 {
		if err := json.Unmarshal(resp.Data.Predictions, &output.PredictionData); err != nil {
			return scenario.ProductOutput{}, fmt.Errorf("failed to fetch product data: predictions: %w", err)
		}
	}
	if len(resp.Data.Similarity) > 0 {
		if err := json.Unmarshal(resp.Data.Similarity, &output.SimilarityData); err != nil {
			return scenario.ProductOutput{}, fmt.Errorf("failed to fetch product data: similarity: %w", err)
		}
	}
	return output, nil
}

// QueryAI relays a free-text question to the assistant endpoint.
func (c *Client) QueryAI(ctx context.Context, query string) (AIQueryResponse, error) {
	var resp AIQueryResponse
	if err := c.post(ctx, queryPath, map[string]string{"query": query}, &resp); err != nil {
		return AIQueryResponse{}, fmt.Errorf("failed to get AI response: %w", err)
	}
	return resp, nil
}

// transportError marks failures that never reached a status code.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode >= http.StatusInternalServerError || herr.StatusCode == http.StatusTooManyRequests
	}
	var terr *transportError
	return errors.As(err, &terr)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	url := c.baseURL + path

	return retry.Do(
		func() error {
			return c.doPost(ctx, url, raw, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("[Forecast] POST %s attempt %d failed: %v", path, attempt+1, err)
		}),
	)
}

func (c *Client) doPost(ctx context.Context, url string, raw []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &errBody)
		return &HTTPError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	c.logger.Debug("[Forecast] POST %s answered %d bytes", url, len(body))
	return nil
}
