package analysis

import (
	"strconv"
	"strings"
	"time"

	"geoviz-platform/internal/models"
)

// dateLayouts are tried in order when normalizing a timestamp cell.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"20060102",
}

// NormalizeDate reformats a timestamp string to the canonical YYYY-MM-DD
// calendar date used for display ordering. Input that does not parse as a
// date passes through unchanged — the chart axis then falls back to the
// original string order. Empty input stays empty. This never fails.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// NormalizeTimestamps returns copies of the records with the timestamp
// column rewritten to the canonical date form where it parses. Digit-only
// timestamps like 20230501 arrive as numbers and are rendered back to digits
// before the layouts are tried; a number that is not a date stays numeric.
// Records without a timestamp column are copied untouched; the input is not
// mutated.
func NormalizeTimestamps(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		clone := rec.Clone()
		switch v := clone[models.FieldTimestamp]; v.Kind() {
		case models.KindText:
			raw, _ := v.Str()
			clone[models.FieldTimestamp] = models.Text(NormalizeDate(raw))
		case models.KindNumber:
			f, _ := v.Float()
			raw := strconv.FormatFloat(f, 'f', -1, 64)
			if norm := NormalizeDate(raw); norm != raw {
				clone[models.FieldTimestamp] = models.Text(norm)
			}
		}
		out = append(out, clone)
	}
	return out
}
