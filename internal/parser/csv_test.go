package parser

import (
	"errors"
	"strings"
	"testing"

	"geoviz-platform/internal/models"
)

// TestParse_MonitoringFile covers the happy path for the documented
// monitoring layout, including type inference per cell.
func TestParse_MonitoringFile(t *testing.T) {
	input := "timestamp,rainfall_mm,displacement_mm,pore_pressure_kpa\n" +
		"2023-05-01,12.5,1.2,40\n" +
		"2023-05-02,35,2.0,55.5\n"

	records, columns, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantColumns := []string{"timestamp", "rainfall_mm", "displacement_mm", "pore_pressure_kpa"}
	if len(columns) != len(wantColumns) {
		t.Fatalf("columns = %v, want %v", columns, wantColumns)
	}
	for i, c := range wantColumns {
		if columns[i] != c {
			t.Errorf("columns[%d] = %q, want %q", i, columns[i], c)
		}
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	if ts, ok := records[0]["timestamp"].Str(); !ok || ts != "2023-05-01" {
		t.Errorf("timestamp = %v, want text 2023-05-01", records[0]["timestamp"])
	}
	if v, ok := records[0]["rainfall_mm"].Float(); !ok || v != 12.5 {
		t.Errorf("rainfall_mm = %v, want 12.5", records[0]["rainfall_mm"])
	}
	if v, ok := records[1]["pore_pressure_kpa"].Float(); !ok || v != 55.5 {
		t.Errorf("pore_pressure_kpa = %v, want 55.5", records[1]["pore_pressure_kpa"])
	}
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		checkResult func(*testing.T, []models.Record, []string)
	}{
		{
			name:  "blank lines are skipped, not emitted as rows",
			input: "\n\ndepth_m,n_spt\n\n1.5,12\n\n3.0,18\n\n",
			checkResult: func(t *testing.T, records []models.Record, columns []string) {
				if len(columns) != 2 || columns[0] != "depth_m" {
					t.Fatalf("header not taken from first non-empty line: %v", columns)
				}
				if len(records) != 2 {
					t.Errorf("len(records) = %d, want 2", len(records))
				}
			},
		},
		{
			name:  "short rows leave trailing columns missing",
			input: "depth_m,n_spt,soil_type\n1.5,12\n",
			checkResult: func(t *testing.T, records []models.Record, _ []string) {
				if !records[0]["soil_type"].IsMissing() {
					t.Errorf("soil_type = %v, want missing", records[0]["soil_type"])
				}
				if v, ok := records[0]["n_spt"].Float(); !ok || v != 12 {
					t.Errorf("n_spt = %v, want 12", records[0]["n_spt"])
				}
			},
		},
		{
			name:  "empty cells are missing, not zero and not empty text",
			input: "depth_m,moisture_pct\n1.5,\n",
			checkResult: func(t *testing.T, records []models.Record, _ []string) {
				if !records[0]["moisture_pct"].IsMissing() {
					t.Errorf("moisture_pct = %v, want missing", records[0]["moisture_pct"])
				}
			},
		},
		{
			name:  "mixed numeric and text column stays per-cell typed",
			input: "depth_m,n_spt\n1.5,12\n3.0,refusal\n",
			checkResult: func(t *testing.T, records []models.Record, _ []string) {
				if _, ok := records[0]["n_spt"].Float(); !ok {
					t.Errorf("row 0 n_spt should be numeric, got %v", records[0]["n_spt"])
				}
				if s, ok := records[1]["n_spt"].Str(); !ok || s != "refusal" {
					t.Errorf("row 1 n_spt = %v, want text refusal", records[1]["n_spt"])
				}
			},
		},
		{
			name:    "unterminated quote fails the whole file",
			input:   "timestamp,rainfall_mm\n2023-05-01,10\n\"2023-05-02,20\n",
			wantErr: true,
		},
		{
			name:    "empty input has no header",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, columns, err := Parse(strings.NewReader(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				var parseErr *models.ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("error type = %T, want *models.ParseError", err)
				}
				if records != nil {
					t.Errorf("partial results must be discarded, got %d records", len(records))
				}
				return
			}

			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.checkResult(t, records, columns)
		})
	}
}

func TestInferValue(t *testing.T) {
	tests := []struct {
		raw  string
		want models.ValueKind
	}{
		{"3.5", models.KindNumber},
		{"-12", models.KindNumber},
		{"1e3", models.KindNumber},
		{" 42 ", models.KindNumber},
		{"", models.KindMissing},
		{"   ", models.KindMissing},
		{"silty clay", models.KindText},
		{"2023-05-01", models.KindText},
		{"NaN", models.KindText},
		{"Inf", models.KindText},
	}

	for _, tt := range tests {
		if got := InferValue(tt.raw).Kind(); got != tt.want {
			t.Errorf("InferValue(%q).Kind() = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
