// Package fleet joins uploaded e-form records against a fleet reference
// table on canonicalized vessel names and appends the two-level
// organizational hierarchy derived from the reference's combined fleet field.
//
// Enrichment is strictly best-effort: any failure while loading or joining
// the reference degrades to returning the primary table untouched, with the
// reason recorded in the diagnostics rather than propagated as an error. The
// dashboard stays usable without fleet context; it never goes dark because a
// secondary spreadsheet was malformed.
package fleet

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"eformboard/domain/table"
	"eformboard/internal/ingest"
	"eformboard/ports"
)

// fallbackOrgColumn is used when no reference header contains "fleet"
const fallbackOrgColumn = "Fleet"

// referenceCarryColumns are carried from the reference into the enriched
// table when present, unless the primary table already has them.
var referenceCarryColumns = []string{"Type", "IMO"}

// Diagnostics reports how enrichment went, without affecting table content
type Diagnostics struct {
	Attempted     bool   `json:"attempted"`
	Degraded      bool   `json:"degraded"`
	Reason        string `json:"reason,omitempty"`
	TotalRows     int    `json:"total_rows"`
	MatchedRows   int    `json:"matched_rows"`
	DuplicateKeys int    `json:"duplicate_keys"`
	VesselColumn  string `json:"vessel_column,omitempty"`
	OrgColumn     string `json:"org_column,omitempty"`
	UsedDefault   bool   `json:"used_default,omitempty"`
}

// Reconciler enriches a primary table with fleet hierarchy columns
type Reconciler struct {
	loader        *ingest.Loader
	defaultSource ports.FleetSource // nil means no configured default
}

// NewReconciler creates a reconciler. defaultSource may be nil.
func NewReconciler(loader *ingest.Loader, defaultSource ports.FleetSource) *Reconciler {
	return &Reconciler{loader: loader, defaultSource: defaultSource}
}

// Reconcile left-joins primary against a fleet reference. fleetData is the
// uploaded reference payload; when empty, the configured default source is
// consulted, and when there is neither, primary is returned unchanged.
//
// The returned table is always safe to use: on any reference failure it is
// exactly the primary table and Diagnostics.Degraded explains why.
func (r *Reconciler) Reconcile(ctx context.Context, primary *table.Table, roles table.RoleConfig, fleetData []byte, fleetFilename, fleetSheet string) (*table.Table, Diagnostics) {
	diag := Diagnostics{TotalRows: primary.RowCount()}

	if len(fleetData) == 0 {
		if r.defaultSource == nil {
			return primary, diag
		}
		data, filename, sheet, err := r.defaultSource.Fetch(ctx)
		if err != nil {
			diag.Attempted = true
			diag.Degraded = true
			diag.Reason = "default fleet reference unavailable: " + err.Error()
			log.Printf("[Reconciler] WARN: %s", diag.Reason)
			return primary, diag
		}
		fleetData, fleetFilename, fleetSheet = data, filename, sheet
		diag.UsedDefault = true
	}

	diag.Attempted = true

	reference, err := r.loader.Load(fleetData, fleetFilename, fleetSheet)
	if err != nil {
		diag.Degraded = true
		diag.Reason = "could not load fleet reference: " + err.Error()
		log.Printf("[Reconciler] WARN: %s", diag.Reason)
		return primary, diag
	}

	enriched, err := r.join(primary, roles, reference, &diag)
	if err != nil {
		diag.Degraded = true
		diag.Reason = "could not merge fleet reference: " + err.Error()
		log.Printf("[Reconciler] WARN: %s", diag.Reason)
		return primary, diag
	}

	log.Printf("[Reconciler] Fleet data merged: %d/%d records matched", diag.MatchedRows, diag.TotalRows)
	return enriched, diag
}

// join performs the left join and hierarchy split. primary is never mutated.
func (r *Reconciler) join(primary *table.Table, roles table.RoleConfig, reference *table.Table, diag *Diagnostics) (*table.Table, error) {
	vesselCol := inferVesselColumn(reference)
	orgCol := inferOrgColumn(reference)
	diag.VesselColumn = vesselCol
	diag.OrgColumn = orgCol

	if !reference.HasColumn(orgCol) {
		return nil, fmt.Errorf("fleet reference has no organizational column %q", orgCol)
	}

	// First match wins on duplicate normalized keys. Fanning the join out
	// would multiply primary rows, which violates the row-identity invariant,
	// so duplicates are counted and skipped instead.
	index := make(map[string]table.Row, reference.RowCount())
	for _, row := range reference.Rows {
		key := NormalizeKey(row.Get(vesselCol).String())
		if key == "" {
			continue
		}
		if _, exists := index[key]; exists {
			diag.DuplicateKeys++
			continue
		}
		index[key] = row
	}

	carry := make([]string, 0, len(referenceCarryColumns))
	for _, col := range referenceCarryColumns {
		if reference.HasColumn(col) && !primary.HasColumn(col) {
			carry = append(carry, col)
		}
	}

	enriched := primary.Clone()
	units := make([]table.Value, primary.RowCount())
	names := make([]table.Value, primary.RowCount())
	carried := make(map[string][]table.Value, len(carry))
	for _, col := range carry {
		carried[col] = make([]table.Value, primary.RowCount())
	}

	for i, row := range primary.Rows {
		key := NormalizeKey(row.Get(roles.VesselCol).String())
		match, ok := index[key]
		if !ok || key == "" {
			units[i] = table.NewNullValue()
			names[i] = table.NewNullValue()
			for _, col := range carry {
				carried[col][i] = table.NewNullValue()
			}
			continue
		}
		diag.MatchedRows++

		unit, name := SplitHierarchy(match.Get(orgCol).String())
		units[i] = table.NewStringValue(unit)
		names[i] = table.NewStringValue(name)
		for _, col := range carry {
			carried[col][i] = match.Get(col)
		}
	}

	if err := enriched.AppendColumn(table.ColManagementUnit, units); err != nil {
		return nil, err
	}
	if err := enriched.AppendColumn(table.ColFleetName, names); err != nil {
		return nil, err
	}
	for _, col := range carry {
		if err := enriched.AppendColumn(col, carried[col]); err != nil {
			return nil, err
		}
	}

	return enriched, nil
}

// NormalizeKey canonicalizes a vessel name for join matching: strip every
// character that is not an ASCII letter, digit or whitespace, collapse
// whitespace runs, trim, lowercase. Pure and idempotent.
func NormalizeKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// SplitHierarchy splits a combined organizational value on its first
// whitespace character. Everything before it is the management unit and
// everything after it is the fleet name. No whitespace puts the whole value
// in the management unit; an empty input yields two empty strings.
func SplitHierarchy(org string) (managementUnit, fleetName string) {
	if org == "" {
		return "", ""
	}
	idx := strings.IndexFunc(org, unicode.IsSpace)
	if idx < 0 {
		return org, ""
	}
	_, width := utf8.DecodeRuneInString(org[idx:])
	return org[:idx], org[idx+width:]
}

func inferVesselColumn(reference *table.Table) string {
	for _, col := range reference.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "vessel") || strings.Contains(lower, "ship") || strings.Contains(lower, "boat") {
			return col
		}
	}
	return reference.Columns[0]
}

func inferOrgColumn(reference *table.Table) string {
	for _, col := range reference.Columns {
		if strings.Contains(strings.ToLower(col), "fleet") {
			return col
		}
	}
	return fallbackOrgColumn
}
