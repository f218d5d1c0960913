package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Value represents a typed cell value with deterministic coercion
type Value struct {
	Type      ValueType `json:"type"`
	StringVal *string   `json:"string_val,omitempty"`
	NumberVal *float64  `json:"number_val,omitempty"`
	IsMissing bool      `json:"is_missing"`
}

// ValueType defines the storage type for cell values
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeNumber ValueType = "number"
	ValueTypeNull   ValueType = "null"
)

// NewStringValue creates a string value; empty strings collapse to null
func NewStringValue(s string) Value {
	if s == "" {
		return Value{Type: ValueTypeNull, IsMissing: true}
	}
	return Value{Type: ValueTypeString, StringVal: &s}
}

// NewNumberValue creates a numeric value
func NewNumberValue(n float64) Value {
	return Value{Type: ValueTypeNumber, NumberVal: &n}
}

// NewNullValue creates a null value
func NewNullValue() Value {
	return Value{Type: ValueTypeNull, IsMissing: true}
}

// IsNull reports whether the value carries no data
func (v Value) IsNull() bool {
	return v.Type == ValueTypeNull || v.IsMissing
}

// String returns the string representation of the value
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeNumber:
		if v.NumberVal != nil {
			return strconv.FormatFloat(*v.NumberVal, 'f', -1, 64)
		}
	}
	return ""
}

// AsNumber attempts a numeric view of the value
func (v Value) AsNumber() (float64, bool) {
	switch v.Type {
	case ValueTypeNumber:
		if v.NumberVal != nil {
			return *v.NumberVal, true
		}
	case ValueTypeString:
		if v.StringVal != nil {
			if n, err := strconv.ParseFloat(strings.TrimSpace(*v.StringVal), 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Row maps column names to cell values
type Row map[string]Value

// Get returns the cell for a column, null when the column is absent
func (r Row) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return NewNullValue()
}

// Table is an ordered, fully materialized tabular dataset.
// Columns preserves the source column order; Rows preserves the source row
// order. Both are required invariants for the enrichment join downstream.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table with the given column order
func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...), Rows: make([]Row, 0)}
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// HasColumn reports whether the table carries the named column
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AppendColumn adds a column with one value per existing row.
// Returns an error on length mismatch so a partial enrichment can never
// silently skew row alignment.
func (t *Table) AppendColumn(name string, values []Value) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %s has %d values for %d rows", name, len(values), len(t.Rows))
	}
	if t.HasColumn(name) {
		return fmt.Errorf("column %s already exists", name)
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i][name] = values[i]
	}
	return nil
}

// Clone returns a deep copy so enrichment never mutates the caller's table
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Rows[i] = copied
	}
	return out
}

// ColumnValues returns the cells of one column in row order
func (t *Table) ColumnValues(name string) []Value {
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(name)
	}
	return out
}
