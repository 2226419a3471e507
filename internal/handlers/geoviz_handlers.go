package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"geoviz-platform/internal/models"
	"geoviz-platform/internal/services"
	"geoviz-platform/pkg/logging"
	"geoviz-platform/pkg/metrics"
)

// GeoHandler handles the dataset and analysis API endpoints
type GeoHandler struct {
	store          *services.DatasetService
	analysis       *services.AnalysisService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
	maxUploadBytes int64
}

// NewGeoHandler creates a new API handler
func NewGeoHandler(
	store *services.DatasetService,
	analysisService *services.AnalysisService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	maxUploadBytes int64,
) *GeoHandler {
	return &GeoHandler{
		store:          store,
		analysis:       analysisService,
		logger:         logger,
		metrics:        metricsCollector,
		maxUploadBytes: maxUploadBytes,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// DatasetResponse summarizes a freshly loaded dataset
type DatasetResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
	LoadedAt string   `json:"loaded_at"`
}

// UploadDataset handles POST /api/datasets/{kind}
// The request body is the raw delimited-text file.
func (h *GeoHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets").Observe(duration.Seconds())
	}()

	kind, ok := h.datasetKind(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer body.Close()

	ds, err := h.store.LoadDataset(ctx, kind, name, body)
	if err != nil {
		var parseErr *models.ParseError
		if errors.As(err, &parseErr) {
			h.metrics.RecordAPIError("parse_error", "/api/datasets")
			h.sendError(w, r, parseErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error(ctx, "[API_UPLOAD_ERROR] Failed to load dataset", logging.Fields{
			"kind": string(kind),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/datasets")
		h.sendError(w, r, "failed to load dataset", http.StatusInternalServerError)
		return
	}

	response := DatasetResponse{
		ID:       ds.ID.String(),
		Name:     ds.Name,
		Kind:     string(ds.Kind),
		Rows:     len(ds.Records),
		Columns:  ds.Columns,
		LoadedAt: ds.LoadedAt.Format(time.RFC3339),
	}

	h.metrics.RecordAPIRequest("/api/datasets", "POST", "201")
	h.sendJSON(w, response, http.StatusCreated)
}

// GetRecords handles GET /api/datasets/{kind}/records
func (h *GeoHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets/records").Observe(duration.Seconds())
	}()

	kind, ok := h.datasetKind(w, r)
	if !ok {
		return
	}

	page, limit := h.pagination(r)
	offset := (page - 1) * limit

	records, total, err := h.analysis.Records(ctx, kind, limit, offset)
	if err != nil {
		h.sendAnalysisError(w, r, "/api/datasets/records", err)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/datasets/records", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStats handles GET /api/datasets/{kind}/stats
func (h *GeoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets/stats").Observe(duration.Seconds())
	}()

	kind, ok := h.datasetKind(w, r)
	if !ok {
		return
	}

	summary, err := h.analysis.Summarize(ctx, kind)
	if err != nil {
		h.sendAnalysisError(w, r, "/api/datasets/stats", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/datasets/stats", "GET", "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetCorrelations handles GET /api/datasets/{kind}/correlations
func (h *GeoHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets/correlations").Observe(duration.Seconds())
	}()

	kind, ok := h.datasetKind(w, r)
	if !ok {
		return
	}

	matrix, err := h.analysis.Correlations(ctx, kind)
	if err != nil {
		h.sendAnalysisError(w, r, "/api/datasets/correlations", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/datasets/correlations", "GET", "200")
	h.sendJSON(w, matrix, http.StatusOK)
}

// GetAlerts handles GET /api/alerts
func (h *GeoHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/alerts").Observe(duration.Seconds())
	}()

	alerts, err := h.analysis.Alerts(ctx)
	if err != nil {
		h.sendAnalysisError(w, r, "/api/alerts", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/alerts", "GET", "200")
	h.sendJSON(w, alerts, http.StatusOK)
}

// GetStatus handles GET /api/status
func (h *GeoHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.analysis.Status(ctx)
	if err != nil {
		h.sendAnalysisError(w, r, "/api/status", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/status", "GET", "200")
	h.sendJSON(w, report, http.StatusOK)
}

// GetThresholds handles GET /api/thresholds
func (h *GeoHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordAPIRequest("/api/thresholds", "GET", "200")
	h.sendJSON(w, h.store.Thresholds(), http.StatusOK)
}

// UpdateThresholds handles PUT /api/thresholds
// The body is a partial document: absent fields keep their current value.
func (h *GeoHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch models.ThresholdPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.metrics.RecordAPIError("bad_request", "/api/thresholds")
		h.sendError(w, r, "invalid threshold document", http.StatusBadRequest)
		return
	}

	updated := h.store.SetThresholds(ctx, patch)

	h.metrics.RecordAPIRequest("/api/thresholds", "PUT", "200")
	h.sendJSON(w, updated, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *GeoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// datasetKind extracts and validates the {kind} path variable.
func (h *GeoHandler) datasetKind(w http.ResponseWriter, r *http.Request) (models.DatasetKind, bool) {
	kind := models.DatasetKind(mux.Vars(r)["kind"])
	if !kind.Valid() {
		h.sendError(w, r, "unknown dataset kind, expected monitoring or borehole", http.StatusBadRequest)
		return "", false
	}
	return kind, true
}

// pagination parses page/limit query parameters.
func (h *GeoHandler) pagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	return page, limit
}

// sendAnalysisError maps service errors to API responses. A missing dataset
// is a normal "nothing to display" state, reported as 404.
func (h *GeoHandler) sendAnalysisError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	if errors.Is(err, services.ErrNoDataset) {
		h.sendError(w, r, "no data loaded", http.StatusNotFound)
		return
	}
	h.logger.Error(r.Context(), "[API_ANALYSIS_ERROR] Analysis request failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "analysis failed", http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *GeoHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *GeoHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all API routes
func (h *GeoHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/datasets/{kind}", h.UploadDataset).Methods("POST")
	router.HandleFunc("/api/datasets/{kind}/records", h.GetRecords).Methods("GET")
	router.HandleFunc("/api/datasets/{kind}/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/api/datasets/{kind}/correlations", h.GetCorrelations).Methods("GET")
	router.HandleFunc("/api/alerts", h.GetAlerts).Methods("GET")
	router.HandleFunc("/api/status", h.GetStatus).Methods("GET")
	router.HandleFunc("/api/thresholds", h.GetThresholds).Methods("GET")
	router.HandleFunc("/api/thresholds", h.UpdateThresholds).Methods("PUT")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
