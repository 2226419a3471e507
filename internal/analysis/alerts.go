package analysis

import (
	"geoviz-platform/internal/models"
)

// FilterAlerts returns the monitoring records where any monitored field
// strictly exceeds its threshold. Equal-to-threshold does not alert.
//
// A missing or non-numeric field compares as 0, so a record missing
// rainfall_mm can only trip the rain threshold when that threshold is
// negative. This is deliberately different from the statistics path, which
// excludes such cells entirely: alerting wants a conservative default,
// summaries want honest sample sizes.
//
// The result is a fresh slice in the original row order; the input is not
// mutated.
func FilterAlerts(records []models.Record, thresholds models.ThresholdConfig) []models.Record {
	out := make([]models.Record, 0)
	for _, rec := range records {
		if rec.FloatOrZero(models.FieldRainfall) > thresholds.Rain ||
			rec.FloatOrZero(models.FieldDisplacement) > thresholds.Disp ||
			rec.FloatOrZero(models.FieldPorePressure) > thresholds.Pore {
			out = append(out, rec)
		}
	}
	return out
}

// FieldStatus reports how one monitored field's maximum compares to its
// threshold, mirroring the dashboard's critical/ok banner.
type FieldStatus struct {
	Field     string  `json:"field"`
	N         int     `json:"n"`
	Max       float64 `json:"max"`
	Threshold float64 `json:"threshold"`
	Critical  bool    `json:"critical"`
}

// StatusReport evaluates the maximum of each monitored field against its
// threshold. Fields with no numeric data are omitted.
func StatusReport(records []models.Record, thresholds models.ThresholdConfig) []FieldStatus {
	checks := []struct {
		field string
		limit float64
	}{
		{models.FieldRainfall, thresholds.Rain},
		{models.FieldDisplacement, thresholds.Disp},
		{models.FieldPorePressure, thresholds.Pore},
	}

	out := make([]FieldStatus, 0, len(checks))
	for _, c := range checks {
		s := ComputeStats(NumericColumn(records, c.field))
		if s == nil {
			continue
		}
		out = append(out, FieldStatus{
			Field:     c.field,
			N:         s.N,
			Max:       s.Max,
			Threshold: c.limit,
			Critical:  s.Max > c.limit,
		})
	}
	return out
}
