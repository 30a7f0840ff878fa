package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validData(id string) map[string]interface{} {
	month := map[string]float64{"Apr-25": 10, "May-25": 20}
	return map[string]interface{}{
		"id": id,
		"predictions": map[string]interface{}{
			"ASDA": month, "MORRISONS": month, "SAINSBURYS": month, "TESCO": month,
			"TOTAL_MARKET": map[string]float64{"Apr-25": 100, "May-25": 200},
		},
		"similarity": map[string]interface{}{
			"B1": map[string]interface{}{
				"description":    "Choc bar",
				"sell_in_volume": 1200.5,
				"similarity":     0.91,
				"distribution":   []float64{1, 2},
				"week_date":      []string{"2025-04-01", "2025-04-08"},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:    srv.URL + "/",
		Timeout:    5 * time.Second,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}, internal.NewLoggerWithZap(zap.NewNop(), internal.LogLevelError))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmitProductSendsServicePayload(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/get_prediction_on_userinput", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": validData("f1")})
	})

	form := scenario.ProductForm{ID: "f1", BaseCode: "BC9", Country: "united-kingdom", WeightPerUnitMl: 45.5}
	res, err := client.SubmitProduct(context.Background(), form)
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Equal(t, "BC9", received["basecode"])
	assert.Equal(t, true, received["sampleOutput"])
	assert.Equal(t, 45.5, received["weightPerUnitMl"])
	assert.Equal(t, map[string]interface{}{}, received["similarityData"])
	assert.Equal(t, "", received["category"])

	assert.Equal(t, 100.0, res.Data.Predictions[scenario.TotalMarket]["Apr-25"])
	assert.Equal(t, 0.91, res.Data.Similarity["B1"].Similarity)
	assert.Equal(t, res.Data.Predictions, res.Data.Form.PredictionData)
	assert.Equal(t, core.FormID("f1"), res.Data.Form.ID)
}

func TestSubmitProductRejectsInvalidStructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing retailer", func(d map[string]interface{}) {
			delete(d["predictions"].(map[string]interface{}), "TESCO")
		}},
		{"retailer not an object", func(d map[string]interface{}) {
			d["predictions"].(map[string]interface{})["ASDA"] = 5
		}},
		{"empty similarity", func(d map[string]interface{}) {
			d["similarity"] = map[string]interface{}{}
		}},
		{"missing similarity", func(d map[string]interface{}) {
			delete(d, "similarity")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				data := validData("f1")
				tt.mutate(data)
				writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": data})
			})

			res, err := client.SubmitProduct(context.Background(), scenario.ProductForm{ID: "f1"})
			require.NoError(t, err)
			assert.False(t, res.OK())
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, "Invalid data structure", res.Error)
		})
	}
}

func TestSubmitProductServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "error", "error": "model offline"})
	})

	res, err := client.SubmitProduct(context.Background(), scenario.ProductForm{ID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, SubmissionResult{Status: StatusError, Error: "model offline"}, res)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
	})
	res, err = client.SubmitProduct(context.Background(), scenario.ProductForm{ID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, "No data available", res.Error)
}

func TestHTTPErrorsAreNotRetriedOnClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "weekDate is invalid"})
	})

	_, err := client.SubmitProduct(context.Background(), scenario.ProductForm{ID: "f1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit product details: weekDate is invalid")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusBadRequest, herr.StatusCode)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": validData("f1")})
	})

	res, err := client.SubmitProduct(context.Background(), scenario.ProductForm{ID: "f1"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestServerErrorMessageFallsBackToStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.QueryAI(context.Background(), "suggest a biscuit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error! status: 502")
}

func TestFetchProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p-7", body["id"])
		assert.Equal(t, "2025-04-01", body["weekDate"])
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": validData("p-7")})
	})

	_, err := client.FetchProduct(context.Background(), "", "2025-04-01")
	assert.True(t, core.IsValidationError(err))

	out, err := client.FetchProduct(context.Background(), "p-7", "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, "Scenario p-7", out.ScenarioName)
	assert.True(t, out.PredictionData.HasAllRetailers())
	assert.Len(t, out.SimilarityData, 1)
}

func TestFetchProductServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "error"})
	})

	_, err := client.FetchProduct(context.Background(), "p-7", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch prediction data")
}

func TestFetchProductRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		want string
	}{
		{"predictions", map[string]interface{}{"predictions": map[string]interface{}{"ASDA": "oops"}}, "predictions"},
		{"similarity", map[string]interface{}{"similarity": []int{1, 2}}, "similarity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": tt.data})
			})

			out, err := client.FetchProduct(context.Background(), "p-7", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to fetch product data: "+tt.want)
			assert.Nil(t, out.PredictionData)
			assert.Nil(t, out.SimilarityData)
		})
	}
}

func TestFetchProductPassesPartialPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"predictions": map[string]interface{}{"ASDA": map[string]float64{"Apr-25": 1}}},
		})
	})

	out, err := client.FetchProduct(context.Background(), "p-7", "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.PredictionData["ASDA"]["Apr-25"])
	assert.Nil(t, out.SimilarityData)
}

func TestSubmitAllKeepsFormOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		id := body["id"].(string)
		if id == "a" {
			time.Sleep(20 * time.Millisecond)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": validData(id)})
	})

	forms := []scenario.ProductForm{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	results, err := client.SubmitAll(context.Background(), forms)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, forms[i].ID, res.Data.ID)
	}
}

func TestSubmitAllFailsOnFirstError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no model"})
	})

	_, err := client.SubmitAll(context.Background(), []scenario.ProductForm{{ID: "a"}, {ID: "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit products")
}

func TestQueryAIRelaysSuggestion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query_ai", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"flavor": "mint", "weightPerUnitMl": 30},
		})
	})

	resp, err := client.QueryAI(context.Background(), "mint chocolate")
	require.NoError(t, err)
	require.NotNil(t, resp.Data)

	form := resp.Data.ApplyTo(scenario.ProductForm{Flavor: "plain", Salty: "no"})
	assert.Equal(t, "mint", form.Flavor)
	assert.Equal(t, "no", form.Salty)
	assert.Equal(t, 30.0, form.WeightPerUnitMl)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "  "}, nil)
	assert.Error(t, err)
}
