package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the GeoViz Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	kindParam := map[string]interface{}{
		"name":        "kind",
		"in":          "path",
		"description": "Dataset kind",
		"required":    true,
		"schema":      map[string]interface{}{"type": "string", "enum": []string{"monitoring", "borehole"}},
	}

	statSummarySchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"n":    map[string]string{"type": "integer"},
			"mean": map[string]string{"type": "number"},
			"std":  map[string]string{"type": "number"},
			"min":  map[string]string{"type": "number"},
			"max":  map[string]string{"type": "number"},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "GeoViz Platform API",
			"description": "Geotechnical monitoring analytics: delimited-text ingestion, descriptive statistics, Pearson correlations, and threshold alerts",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "GeoViz Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/datasets/{kind}": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Load a dataset",
					"description": "Replaces the current dataset of this kind with the parsed contents of the request body. All-or-nothing: a parse failure clears the previous dataset and returns 400.",
					"parameters": []map[string]interface{}{
						kindParam,
						{
							"name":        "name",
							"in":          "query",
							"description": "Display name for the dataset",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"text/csv": map[string]interface{}{
								"schema": map[string]string{"type": "string"},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Dataset loaded"},
						"400": map[string]interface{}{"description": "Parse failure; previous dataset cleared"},
					},
				},
			},
			"/api/datasets/{kind}/records": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List dataset rows",
					"description": "Paginated rows in file order with timestamps normalized to YYYY-MM-DD where they parse",
					"parameters": []map[string]interface{}{
						kindParam,
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "No data loaded"},
					},
				},
			},
			"/api/datasets/{kind}/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-column descriptive statistics",
					"description": "StatSummary for every column holding at least one numeric value; missing and text cells are excluded, not coerced",
					"parameters":  []map[string]interface{}{kindParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type":                 "object",
										"additionalProperties": statSummarySchema,
									},
								},
							},
						},
						"404": map[string]interface{}{"description": "No data loaded"},
					},
				},
			},
			"/api/datasets/{kind}/correlations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Pairwise Pearson correlations",
					"description": "Coefficients in [-1, 1] for every defined pair of numeric columns; undefined pairs are omitted",
					"parameters":  []map[string]interface{}{kindParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "No data loaded"},
					},
				},
			},
			"/api/alerts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Threshold-exceeding records",
					"description": "Monitoring records where rainfall_mm, displacement_mm, or pore_pressure_kpa strictly exceeds its threshold",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "No data loaded"},
					},
				},
			},
			"/api/status": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Monitored field status",
					"description": "Maximum of each monitored field compared to its threshold",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "No data loaded"},
					},
				},
			},
			"/api/thresholds": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Current alert thresholds",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
					},
				},
				"put": map[string]interface{}{
					"summary":     "Update alert thresholds",
					"description": "Partial update: absent fields keep their current value",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"rain": map[string]string{"type": "number"},
										"disp": map[string]string{"type": "number"},
										"pore": map[string]string{"type": "number"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Updated thresholds"},
						"400": map[string]interface{}{"description": "Invalid threshold document"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service healthy"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
