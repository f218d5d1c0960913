// Package ingest turns decoded uploads into clean, role-annotated tables.
//
// The cleaning pipeline mirrors what analysts expect from spreadsheet tools:
// fully empty rows and columns disappear, headers are trimmed and
// deduplicated, and auto-generated placeholder headers for blank cells are
// dropped when they carry no data. A table that comes out of cleaning with
// zero rows is an error, never an empty success.
package ingest

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"eformboard/adapters/tabular"
	"eformboard/domain/core"
	"eformboard/domain/table"
	"eformboard/internal/config"
)

// placeholderPrefix matches auto-generated names for blank header cells
const placeholderPrefix = "Unnamed:"

// Loader produces CleanTables from raw upload payloads
type Loader struct {
	reader *tabular.Reader
}

// NewLoader creates a new ingestion loader
func NewLoader(reader *tabular.Reader) *Loader {
	return &Loader{reader: reader}
}

// Load decodes and cleans one uploaded file into a table.
// sheet is optional and only meaningful for workbook uploads.
func (l *Loader) Load(data []byte, filename, sheet string) (*table.Table, error) {
	grid, err := l.reader.Decode(data, filename, sheet)
	if err != nil {
		return nil, err
	}
	return l.Clean(grid)
}

// Clean applies the cleaning pipeline to a decoded grid:
// drop all-empty rows, drop all-empty columns, trim and deduplicate headers,
// drop empty placeholder-named columns, reindex rows contiguously.
func (l *Loader) Clean(grid *tabular.RawGrid) (*table.Table, error) {
	if len(grid.Records) == 0 {
		return nil, core.NewEmptyInputError("no data rows before cleaning")
	}

	headers := normalizeHeaders(grid.Header)

	// Drop rows where every cell is blank
	rows := make([][]string, 0, len(grid.Records))
	for _, rec := range grid.Records {
		if !rowEmpty(rec) {
			rows = append(rows, rec)
		}
	}

	// Decide which columns survive: a column is kept when any row has a
	// non-blank cell in it. Placeholder-named columns follow the same rule,
	// which also covers headers that were blank in the source.
	keep := make([]int, 0, len(headers))
	for col, name := range headers {
		if columnHasData(rows, col) {
			keep = append(keep, col)
			continue
		}
		if strings.HasPrefix(name, placeholderPrefix) {
			continue // auto-generated name with no values
		}
		// Named but entirely empty columns are dropped too
	}

	if len(keep) == 0 || len(rows) == 0 {
		return nil, core.NewEmptyInputError("no valid data found after cleaning")
	}

	columns := make([]string, len(keep))
	for i, col := range keep {
		columns[i] = headers[col]
	}

	t := table.New(columns)
	for _, rec := range rows {
		row := make(table.Row, len(keep))
		for i, col := range keep {
			cell := ""
			if col < len(rec) {
				cell = strings.TrimSpace(rec[col])
			}
			row[columns[i]] = coerceCell(cell)
		}
		t.Rows = append(t.Rows, row)
	}

	log.Printf("[Loader] Cleaned table: %d columns, %d rows (dropped %d empty rows, %d empty columns)",
		len(t.Columns), t.RowCount(), len(grid.Records)-len(rows), len(headers)-len(keep))

	return t, nil
}

// normalizeHeaders trims headers, names blank ones with the placeholder
// pattern and deduplicates repeats with a numeric suffix.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("%s %d", placeholderPrefix, i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 1
		}
		headers[i] = name
	}
	return headers
}

func rowEmpty(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func columnHasData(rows [][]string, col int) bool {
	for _, rec := range rows {
		if col < len(rec) && strings.TrimSpace(rec[col]) != "" {
			return true
		}
	}
	return false
}

// coerceCell converts a trimmed cell to a typed value, numbers first
func coerceCell(cell string) table.Value {
	if cell == "" {
		return table.NewNullValue()
	}
	if n, err := strconv.ParseFloat(cell, 64); err == nil {
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			return table.NewNumberValue(n)
		}
	}
	return table.NewStringValue(cell)
}

// Keyword heuristics for column-role detection.
var (
	vesselKeywords = []string{"vessel", "ship", "boat"}
	jobKeywords    = []string{"job", "work", "task", "project", "code"}
	eformKeywords  = []string{"e-form", "eform", "form"}
)

// eformHeader is the exact header the e-form role expects by default
const eformHeader = "E-Form"

// InferRoles resolves which columns play the vessel, job and e-form roles.
// Explicit overrides win; otherwise keyword matching over headers, with the
// first and second columns as vessel/job fallbacks. A missing e-form column
// is a schema error because completion analysis is meaningless without it.
func (l *Loader) InferRoles(t *table.Table, overrides config.RoleOverrides) (table.RoleConfig, error) {
	var cfg table.RoleConfig

	vessel, err := resolveRole(t, overrides.VesselCol, "vessel", vesselKeywords, 0)
	if err != nil {
		return cfg, err
	}

	job, err := resolveRole(t, overrides.JobCol, "job", jobKeywords, 1)
	if err != nil {
		return cfg, err
	}

	eform, err := resolveEFormRole(t, overrides.EFormCol)
	if err != nil {
		return cfg, err
	}

	cfg = table.RoleConfig{VesselCol: vessel, JobCol: job, EFormCol: eform}
	log.Printf("[Loader] Column roles: vessel=%q job=%q eform=%q", vessel, job, eform)
	return cfg, nil
}

func resolveRole(t *table.Table, override, role string, keywords []string, fallbackIdx int) (string, error) {
	if override != "" {
		if !t.HasColumn(override) {
			return "", core.NewSchemaError(role, override)
		}
		return override, nil
	}
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return col, nil
			}
		}
	}
	if fallbackIdx >= len(t.Columns) {
		fallbackIdx = 0
	}
	return t.Columns[fallbackIdx], nil
}

func resolveEFormRole(t *table.Table, override string) (string, error) {
	if override != "" {
		if !t.HasColumn(override) {
			return "", core.NewSchemaError("e-form", override)
		}
		return override, nil
	}
	if t.HasColumn(eformHeader) {
		return eformHeader, nil
	}
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, kw := range eformKeywords {
			if strings.Contains(lower, kw) {
				return col, nil
			}
		}
	}
	return "", core.NewSchemaError("e-form", eformHeader)
}
