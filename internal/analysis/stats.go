package analysis

import (
	"math"
	"sort"

	"geoviz-platform/internal/models"
)

// ComputeStats summarizes a numeric sequence. Returns nil for an empty
// input: "no summary available" is a normal state, not an error.
//
// Std is the sample standard deviation with an (n-1) divisor, except that a
// single observation uses divisor 1 so the result is 0 rather than a
// division by zero.
func ComputeStats(values []float64) *models.StatSummary {
	n := len(values)
	if n == 0 {
		return nil
	}

	var sum float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	divisor := float64(n - 1)
	if n == 1 {
		divisor = 1
	}

	return &models.StatSummary{
		N:    n,
		Mean: mean,
		Std:  math.Sqrt(sumSq / divisor),
		Min:  min,
		Max:  max,
	}
}

// Pearson computes the correlation coefficient between two paired sequences.
//
// ok is false when the inputs are empty or of unequal length (the
// correlation is undefined for unpaired data). When either sequence is
// constant the denominator is zero and the result is 0 with ok true; a flat
// series carries no linear association, which is different from invalid
// input.
func Pearson(x, y []float64) (float64, bool) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, false
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(len(x))
	meanY /= float64(len(y))

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	denom := math.Sqrt(sxx * syy)
	if denom == 0 {
		return 0, true
	}
	return sxy / denom, true
}

// NumericColumn extracts the numeric cells of one column, preserving row
// order. Missing and text cells are dropped, not coerced, so summaries
// report honest sample sizes.
func NumericColumn(records []models.Record, field string) []float64 {
	var out []float64
	for _, rec := range records {
		if v, ok := rec[field].Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Describe computes a StatSummary for every column that holds at least one
// numeric cell. Columns with no numeric data are omitted.
func Describe(records []models.Record, columns []string) map[string]*models.StatSummary {
	out := make(map[string]*models.StatSummary)
	for _, col := range columns {
		if col == "" {
			continue
		}
		if s := ComputeStats(NumericColumn(records, col)); s != nil {
			out[col] = s
		}
	}
	return out
}

// Correlation is one pairwise Pearson coefficient between two columns.
type Correlation struct {
	FieldX string  `json:"field_x"`
	FieldY string  `json:"field_y"`
	R      float64 `json:"r"`
}

// numericPairs extracts row-aligned values for two columns, keeping only the
// rows where both cells are numeric. A row with a missing or text cell in
// either column contributes nothing to the pair, so the sequences stay
// index-paired by source row.
func numericPairs(records []models.Record, fieldX, fieldY string) (x, y []float64) {
	for _, rec := range records {
		vx, okX := rec[fieldX].Float()
		vy, okY := rec[fieldY].Float()
		if okX && okY {
			x = append(x, vx)
			y = append(y, vy)
		}
	}
	return x, y
}

// CorrelationMatrix computes Pearson coefficients for every unordered pair
// of numeric columns, over the rows where both columns hold a number. Pairs
// with no complete rows are undefined and omitted. Output order is
// deterministic: column names sorted, X < Y.
func CorrelationMatrix(records []models.Record, columns []string) []Correlation {
	numeric := make([]string, 0, len(columns))
	for _, col := range columns {
		if len(NumericColumn(records, col)) > 0 {
			numeric = append(numeric, col)
		}
	}
	sort.Strings(numeric)

	var out []Correlation
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			x, y := numericPairs(records, numeric[i], numeric[j])
			r, ok := Pearson(x, y)
			if !ok {
				continue
			}
			out = append(out, Correlation{FieldX: numeric[i], FieldY: numeric[j], R: r})
		}
	}
	return out
}
