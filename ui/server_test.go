package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"npdstudio/adapters/memory"
	"npdstudio/app"
	"npdstudio/domain/scenario"
	"npdstudio/internal"
	"npdstudio/internal/api"
	"npdstudio/internal/forecast"
	"npdstudio/internal/ingestion"
	"npdstudio/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*Server
	studio *app.StudioService
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	hub := api.NewSSEHub(logger)
	t.Cleanup(hub.Close)

	studio := app.NewStudioService(memory.NewWorkspaceRepository(), forecast.NewSampleClient(3), ingestion.NewParser(0), hub, logger)
	srv := NewServer(studio, hub, logger, Options{MaxUploadBytes: maxUpload, GinMode: gin.TestMode})
	return &testServer{Server: srv, studio: studio}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return ts.do(t, method, target, body, "application/json")
}

func (ts *testServer) createForm(t *testing.T, form scenario.ProductForm) scenario.ProductForm {
	t.Helper()
	rec := ts.doJSON(t, http.MethodPost, "/api/forms", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created scenario.ProductForm
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func distributionCSV(rows int) string {
	lines := []string{"id,m1,m2,m3,m4,m5,m6,m7,m8,m9,m10,m11,m12"}
	for i := 0; i < rows; i++ {
		lines = append(lines, fmt.Sprintf("CL%d,1,2,3,4,5,6,7,8,9,10,11,%d", i, i))
	}
	lines = append(lines, "short,1")
	return strings.Join(lines, "\n")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSelection(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.doJSON(t, http.MethodPut, "/api/workspace/selection", gin.H{"country": "united-kingdom", "category": "cheese"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "GB01.EUCH", decode(t, rec)["section"])

	rec = ts.do(t, http.MethodGet, "/api/workspace/selection", nil, "")
	assert.Equal(t, "cheese", decode(t, rec)["category"])

	rec = ts.doJSON(t, http.MethodPut, "/api/workspace/selection", gin.H{"country": "narnia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptions(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodGet, "/api/options", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["countries"], 1)
	assert.Len(t, body["categories"], 4)
}

func TestFormLifecycle(t *testing.T) {
	ts := newTestServer(t, 0)
	form := ts.createForm(t, scenario.ProductForm{BaseCode: "BC1", Scenario: "Launch"})

	rec := ts.doJSON(t, http.MethodPut, "/api/forms/"+form.ID.String(), scenario.ProductForm{BaseCode: "BC2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BC2", decode(t, rec)["baseCode"])

	rec = ts.do(t, http.MethodPost, "/api/forms/"+form.ID.String()+"/clone", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Clone of BC2", decode(t, rec)["baseCode"])

	rec = ts.do(t, http.MethodPost, "/api/forms/"+form.ID.String()+"/minimize", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isMinimized"])

	rec = ts.do(t, http.MethodDelete, "/api/forms/"+form.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/forms", nil, "")
	body := decode(t, rec)
	assert.Len(t, body["forms"], 1)
	assert.Equal(t, true, body["canAddForm"])

	rec = ts.do(t, http.MethodGet, "/api/forms/"+form.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFormBeyondLimit(t *testing.T) {
	ts := newTestServer(t, 0)
	for i := 0; i < scenario.MaxForms; i++ {
		rec := ts.do(t, http.MethodPost, "/api/forms", nil, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/forms", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
}

func TestWorkspacesAreIsolated(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.createForm(t, scenario.ProductForm{})

	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set(middleware.WorkspaceHeader, "other")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Empty(t, decode(t, rec)["forms"])
}

func TestUploadDistributionWait(t *testing.T) {
	ts := newTestServer(t, 0)
	form := ts.createForm(t, scenario.ProductForm{})

	body, contentType := multipartFile(t, "clients.CSV", distributionCSV(4))
	rec := ts.do(t, http.MethodPost, "/api/forms/"+form.ID.String()+"/distribution?wait=true", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, float64(4), out["records"])
	assert.Equal(t, "idle", out["state"])
	assert.NotNil(t, out["profile"])

	rec = ts.do(t, http.MethodGet, "/api/forms/"+form.ID.String()+"/distribution?include=records", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 4)
}

func TestUploadDistributionAsync(t *testing.T) {
	ts := newTestServer(t, 0)
	form := ts.createForm(t, scenario.ProductForm{})

	body, contentType := multipartFile(t, "clients.txt", distributionCSV(2))
	rec := ts.do(t, http.MethodPost, "/api/forms/"+form.ID.String()+"/distribution", body, contentType)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.NoError(t, ts.studio.WaitForUpload(t.Context(), DefaultWorkspace, form.ID))
	ds, err := ts.studio.Distribution(t.Context(), DefaultWorkspace, form.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CL0", "CL1"}, ds.ClientIDs())
}

func TestUploadDistributionRejections(t *testing.T) {
	ts := newTestServer(t, 1024)
	form := ts.createForm(t, scenario.ProductForm{})
	target := "/api/forms/" + form.ID.String() + "/distribution"

	body, contentType := multipartFile(t, "clients.xlsx", distributionCSV(1))
	rec := ts.do(t, http.MethodPost, target, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, target, strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartFile(t, "big.csv", distributionCSV(100))
	rec = ts.do(t, http.MethodPost, target, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartFile(t, "clients.csv", distributionCSV(1))
	rec = ts.do(t, http.MethodPost, "/api/forms/missing/distribution", body, contentType)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitOutputChartsAndReports(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.doJSON(t, http.MethodPut, "/api/workspace/selection", gin.H{"country": "united-kingdom", "category": "biscuits"})
	form := ts.createForm(t, scenario.ProductForm{BaseCode: "BC1", Scenario: "Launch"})
	base := "/api/forms/" + form.ID.String()

	rec := ts.do(t, http.MethodGet, base+"/charts/prediction.png", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/forms/submit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["results"], 1)

	rec = ts.do(t, http.MethodGet, base+"/output", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, form.ID.String(), decode(t, rec)["productId"])

	for _, chart := range []string{"prediction.png", "shares.png"} {
		rec = ts.do(t, http.MethodGet, base+"/charts/"+chart, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, chart)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	}

	rec = ts.do(t, http.MethodGet, base+"/charts/bars.png", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, base+"/report", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Biscuits")

	rec = ts.do(t, http.MethodGet, base+"/report.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestAssistantQuery(t *testing.T) {
	ts := newTestServer(t, 0)
	form := ts.createForm(t, scenario.ProductForm{BaseCode: "BC1"})

	rec := ts.doJSON(t, http.MethodPost, "/api/assistant/query", gin.H{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.doJSON(t, http.MethodPost, "/api/assistant/query", gin.H{"query": "a new biscuit", "formId": form.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotNil(t, body["response"])
	assert.Equal(t, "BC1", body["form"].(map[string]interface{})["baseCode"])
}
