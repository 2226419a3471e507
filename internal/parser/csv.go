package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"geoviz-platform/internal/models"
)

// Parse reads delimited text and returns one Record per data row plus the
// header column names, in file order.
//
// The first non-empty line is the header. Blank lines are skipped. Rows
// shorter than the header leave the trailing columns missing; extra cells
// beyond the header are dropped. There is no schema validation: unexpected
// or absent columns simply shrink the sample downstream statistics see.
//
// Parsing is all-or-nothing. Any tokenization failure (for example an
// unterminated quoted field) returns a *models.ParseError and no rows.
func Parse(r io.Reader) ([]models.Record, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, &models.ParseError{Message: "empty input, expected a header row", Err: err}
		}
		return nil, nil, wrapCSVError(err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, wrapCSVError(err)
		}

		rec := make(models.Record, len(columns))
		for i, name := range columns {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = InferValue(row[i])
			} else {
				rec[name] = models.Missing()
			}
		}
		records = append(records, rec)
	}

	return records, columns, nil
}

// InferValue classifies a raw cell. Strings that read as finite numeric
// literals become numbers, empty cells become missing, everything else stays
// text.
func InferValue(raw string) models.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.Missing()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return models.Text(s)
		}
		return models.Number(n)
	}
	return models.Text(s)
}

// wrapCSVError converts an encoding/csv failure into the domain ParseError,
// preserving the line number when the tokenizer reports one.
func wrapCSVError(err error) *models.ParseError {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &models.ParseError{
			Line:    csvErr.Line,
			Message: csvErr.Err.Error(),
			Err:     err,
		}
	}
	return &models.ParseError{Message: err.Error(), Err: err}
}
