package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known column names for monitoring datasets.
const (
	FieldTimestamp    = "timestamp"
	FieldRainfall     = "rainfall_mm"
	FieldDisplacement = "displacement_mm"
	FieldPorePressure = "pore_pressure_kpa"
)

// Well-known column names for borehole datasets.
const (
	FieldDepth    = "depth_m"
	FieldSPT      = "n_spt"
	FieldMoisture = "moisture_pct"
	FieldSoilType = "soil_type"
)

// ValueKind discriminates the typed cell variants produced by the parser.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
)

// Value is a single typed cell. Numeric inference happens once, at parse
// time; downstream code matches on the kind instead of re-coercing strings.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Missing returns the absent-value sentinel.
func Missing() Value {
	return Value{kind: KindMissing}
}

// Number wraps a finite float64 as a Value.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Text wraps a string as a Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the text payload and whether the value is text.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// IsMissing reports whether the cell was absent or empty in the source row.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Display renders the value for tables and logs. Missing renders empty.
func (v Value) Display() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON encodes Number as a JSON number, Text as a string, and
// Missing as null, so API consumers see the same shape the parser inferred.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// Record is one parsed row: a column-name-to-value mapping. The field set is
// fixed once the row is parsed; row order is carried by the enclosing slice.
type Record map[string]Value

// FloatOrZero returns the field's numeric value, or 0 when the field is
// missing or non-numeric. Alert comparisons rely on this conservative
// default; statistics must NOT use it (they exclude non-numbers instead).
func (r Record) FloatOrZero(field string) float64 {
	if v, ok := r[field].Float(); ok {
		return v
	}
	return 0
}

// Clone returns a copy sharing no map storage with the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DatasetKind names the two supported dataset layouts.
type DatasetKind string

const (
	DatasetMonitoring DatasetKind = "monitoring"
	DatasetBorehole   DatasetKind = "borehole"
)

// Valid reports whether the kind is one of the supported layouts.
func (k DatasetKind) Valid() bool {
	return k == DatasetMonitoring || k == DatasetBorehole
}

// Dataset is one loaded file held in memory for the session. Loading a new
// file of the same kind replaces the previous dataset wholesale.
type Dataset struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Kind     DatasetKind `json:"kind"`
	Columns  []string    `json:"columns"`
	Records  []Record    `json:"records"`
	LoadedAt time.Time   `json:"loaded_at"`
}

// ThresholdConfig holds the alert limits for the three monitored fields.
// Fields are mutated independently by user input and never reset on their
// own; any real value is allowed, including negatives.
type ThresholdConfig struct {
	Rain float64 `json:"rain"`
	Disp float64 `json:"disp"`
	Pore float64 `json:"pore"`
}

// DefaultThresholds returns the configuration used before any user edits.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{Rain: 30, Disp: 8, Pore: 60}
}

// ThresholdPatch updates a subset of threshold fields; nil fields are left
// untouched.
type ThresholdPatch struct {
	Rain *float64 `json:"rain,omitempty"`
	Disp *float64 `json:"disp,omitempty"`
	Pore *float64 `json:"pore,omitempty"`
}

// Apply merges the patch into cfg and returns the result.
func (p ThresholdPatch) Apply(cfg ThresholdConfig) ThresholdConfig {
	if p.Rain != nil {
		cfg.Rain = *p.Rain
	}
	if p.Disp != nil {
		cfg.Disp = *p.Disp
	}
	if p.Pore != nil {
		cfg.Pore = *p.Pore
	}
	return cfg
}

// StatSummary describes one numeric column. It is computed only over the
// cells that parsed as numbers; missing and text cells reduce N rather than
// being coerced to zero.
type StatSummary struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ParseError reports a file that could not be tokenized as delimited text.
// Parsing is all-or-nothing: rows read before the failure are discarded.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap exposes the underlying tokenizer error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
