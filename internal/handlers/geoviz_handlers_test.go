package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"geoviz-platform/internal/models"
	"geoviz-platform/internal/services"
	"geoviz-platform/pkg/logging"
	"geoviz-platform/pkg/metrics"
)

// promauto registers against the default registry; one collector per binary.
var testMetrics = metrics.NewCollector("geoviz_handlers_test")

func newTestRouter() (*mux.Router, *services.DatasetService) {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.FatalLevel)
	logger.SetOutput(io.Discard)

	store := services.NewDatasetService(models.DefaultThresholds(), logger, testMetrics)
	analysisSvc := services.NewAnalysisService(store, logger, testMetrics)
	handler := NewGeoHandler(store, analysisSvc, logger, testMetrics, 1<<20)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, store
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const monitoringCSV = "timestamp,rainfall_mm,displacement_mm,pore_pressure_kpa\n" +
	"2023-05-01T00:00:00Z,35,2,10\n" +
	"2023-05-02T00:00:00Z,5,2,10\n"

func TestUploadAndStats(t *testing.T) {
	router, _ := newTestRouter()

	rec := doRequest(t, router, "POST", "/api/datasets/monitoring?name=site-a.csv", monitoringCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	var ds DatasetResponse
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if ds.Rows != 2 || ds.Kind != "monitoring" || ds.Name != "site-a.csv" {
		t.Errorf("upload response = %+v", ds)
	}

	rec = doRequest(t, router, "GET", "/api/datasets/monitoring/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var summary map[string]models.StatSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	rain, ok := summary["rainfall_mm"]
	if !ok {
		t.Fatalf("stats missing rainfall_mm: %v", summary)
	}
	if rain.N != 2 || rain.Mean != 20 || rain.Min != 5 || rain.Max != 35 {
		t.Errorf("rainfall summary = %+v", rain)
	}
}

func TestUploadParseFailureClearsDataset(t *testing.T) {
	router, _ := newTestRouter()

	rec := doRequest(t, router, "POST", "/api/datasets/monitoring", monitoringCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	broken := "timestamp,rainfall_mm\n\"oops,5\n"
	rec = doRequest(t, router, "POST", "/api/datasets/monitoring", broken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken upload status = %d, want 400", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if !strings.Contains(errResp.Message, "parse error") {
		t.Errorf("error message = %q, want parse error detail", errResp.Message)
	}

	// The previous dataset was cleared, so reads now report no data.
	rec = doRequest(t, router, "GET", "/api/datasets/monitoring/records", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("records after failed load = %d, want 404", rec.Code)
	}
}

func TestAlertsAndThresholds(t *testing.T) {
	router, _ := newTestRouter()

	rec := doRequest(t, router, "POST", "/api/datasets/monitoring", monitoringCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", "/api/alerts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d", rec.Code)
	}
	var alerts []models.Record
	if err := json.NewDecoder(rec.Body).Decode(&alerts); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("len(alerts) = %d, want 1 (only the 35mm rainfall row)", len(alerts))
	}

	// Tighten the displacement threshold; both rows now alert.
	rec = doRequest(t, router, "PUT", "/api/thresholds", `{"disp": 1.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("thresholds status = %d", rec.Code)
	}
	var updated models.ThresholdConfig
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode thresholds: %v", err)
	}
	if updated.Disp != 1.5 || updated.Rain != 30 || updated.Pore != 60 {
		t.Errorf("thresholds = %+v, want partial update of disp only", updated)
	}

	rec = doRequest(t, router, "GET", "/api/alerts", "")
	if err := json.NewDecoder(rec.Body).Decode(&alerts); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Errorf("len(alerts) = %d, want 2 after tightening disp", len(alerts))
	}
}

func TestGetRecordsNormalizesTimestamps(t *testing.T) {
	router, _ := newTestRouter()

	doRequest(t, router, "POST", "/api/datasets/monitoring", monitoringCSV)

	rec := doRequest(t, router, "GET", "/api/datasets/monitoring/records?page=1&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("records status = %d", rec.Code)
	}

	var resp struct {
		Data  []map[string]interface{} `json:"data"`
		Total int                      `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 {
		t.Fatalf("total = %d, page rows = %d", resp.Total, len(resp.Data))
	}
	if resp.Data[0]["timestamp"] != "2023-05-01" {
		t.Errorf("timestamp = %v, want 2023-05-01", resp.Data[0]["timestamp"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	doRequest(t, router, "POST", "/api/datasets/monitoring", monitoringCSV)

	rec := doRequest(t, router, "GET", "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var report []struct {
		Field    string  `json:"field"`
		Max      float64 `json:"max"`
		Critical bool    `json:"critical"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(report) != 3 {
		t.Fatalf("len(report) = %d, want 3", len(report))
	}
	for _, fs := range report {
		if fs.Field == "rainfall_mm" && (!fs.Critical || fs.Max != 35) {
			t.Errorf("rainfall status = %+v, want critical max 35", fs)
		}
		if fs.Field == "displacement_mm" && fs.Critical {
			t.Errorf("displacement should not be critical: %+v", fs)
		}
	}
}

func TestNoDataStates(t *testing.T) {
	router, _ := newTestRouter()

	for _, path := range []string{
		"/api/datasets/monitoring/stats",
		"/api/datasets/borehole/records",
		"/api/datasets/monitoring/correlations",
		"/api/alerts",
		"/api/status",
	} {
		rec := doRequest(t, router, "GET", path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404 before any load", path, rec.Code)
		}
	}
}

func TestUnknownDatasetKind(t *testing.T) {
	router, _ := newTestRouter()

	rec := doRequest(t, router, "POST", "/api/datasets/inclinometer", monitoringCSV)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}
}

func TestBoreholeUploadAndCorrelations(t *testing.T) {
	router, _ := newTestRouter()

	boreholeCSV := "depth_m,n_spt,moisture_pct,soil_type\n" +
		"1.5,4,30,clay\n" +
		"3.0,8,25,clay\n" +
		"4.5,12,20,sand\n"

	rec := doRequest(t, router, "POST", "/api/datasets/borehole", boreholeCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", "/api/datasets/borehole/correlations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("correlations status = %d", rec.Code)
	}

	var matrix []struct {
		FieldX string  `json:"field_x"`
		FieldY string  `json:"field_y"`
		R      float64 `json:"r"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&matrix); err != nil {
		t.Fatalf("decode correlations: %v", err)
	}

	foundDepthSPT := false
	for _, c := range matrix {
		if c.FieldX == "depth_m" && c.FieldY == "n_spt" {
			foundDepthSPT = true
			if c.R != 1 {
				t.Errorf("depth~n_spt r = %v, want 1 (perfectly linear)", c.R)
			}
		}
		if c.FieldX == "soil_type" || c.FieldY == "soil_type" {
			t.Errorf("text column in correlation matrix: %+v", c)
		}
	}
	if !foundDepthSPT {
		t.Error("depth_m~n_spt correlation missing")
	}
}

func TestHealthAndDocs(t *testing.T) {
	router, _ := newTestRouter()

	rec := doRequest(t, router, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", "/api/docs/openapi.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi = %d", rec.Code)
	}
	var spec map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if spec["openapi"] != "3.0.0" {
		t.Errorf("openapi version = %v", spec["openapi"])
	}

	rec = doRequest(t, router, "GET", "/api/docs", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("swagger-ui")) {
		t.Errorf("docs page = %d", rec.Code)
	}
}
