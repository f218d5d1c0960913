package fleet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eformboard/adapters/tabular"
	"eformboard/domain/table"
	"eformboard/internal/ingest"
)

func newTestLoader() *ingest.Loader {
	return ingest.NewLoader(tabular.NewReader())
}

func primaryTable(vessels ...string) *table.Table {
	t := table.New([]string{"Vessel", "Job", "E-Form"})
	for i, v := range vessels {
		t.Rows = append(t.Rows, table.Row{
			"Vessel": table.NewStringValue(v),
			"Job":    table.NewStringValue("J1"),
			"E-Form": table.NewNumberValue(float64(i)),
		})
	}
	return t
}

var testRoles = table.RoleConfig{VesselCol: "Vessel", JobCol: "Job", EFormCol: "E-Form"}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"special characters stripped", "M/V Star", "mv star"},
		{"lowercased", "mv star", "mv star"},
		{"whitespace collapsed", "MV  STAR", "mv star"},
		{"leading and trailing trimmed", "  MV Star  ", "mv star"},
		{"digits kept", "Vessel 42", "vessel 42"},
		{"empty input", "", ""},
		{"only special characters", "///---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{"M/V Star", "MV  STAR", "  Ocean-Queen II  ", ""}
	for _, in := range inputs {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), "normalizing %q twice must be stable", in)
	}
}

func TestSplitHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUnit string
		wantName string
	}{
		{"two levels", "ALPHA BETA GAMMA", "ALPHA", "BETA GAMMA"},
		{"no whitespace", "ALPHA", "ALPHA", ""},
		{"empty", "", "", ""},
		{"single split only", "PACIFIC NorthFleet", "PACIFIC", "NorthFleet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, name := SplitHierarchy(tt.input)
			assert.Equal(t, tt.wantUnit, unit)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestReconcileJoinsOnNormalizedNames(t *testing.T) {
	// Three spellings of the same vessel must all match one reference row.
	primary := primaryTable("M/V Star", "mv star", "MV  STAR")
	fleetCSV := []byte("Vessel Name,Fleet\nMV Star,PACIFIC NorthFleet\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded, "merge must succeed: %s", diag.Reason)
	assert.Equal(t, 3, diag.MatchedRows)
	assert.Equal(t, 3, diag.TotalRows)
	require.Equal(t, 3, enriched.RowCount())

	for _, row := range enriched.Rows {
		assert.Equal(t, "PACIFIC", row.Get(table.ColManagementUnit).String())
		assert.Equal(t, "NorthFleet", row.Get(table.ColFleetName).String())
	}
}

func TestReconcileLeftJoinKeepsUnmatchedRows(t *testing.T) {
	primary := primaryTable("Alpha", "Beta", "Gamma")
	fleetCSV := []byte("Vessel,Fleet\nAlpha,NORTH SeaFleet\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded)
	assert.Equal(t, 1, diag.MatchedRows)
	require.Equal(t, 3, enriched.RowCount(), "left join must not drop rows")

	assert.Equal(t, "NORTH", enriched.Rows[0].Get(table.ColManagementUnit).String())
	assert.True(t, enriched.Rows[1].Get(table.ColManagementUnit).IsNull())
	assert.True(t, enriched.Rows[2].Get(table.ColFleetName).IsNull())

	// Original row order and identity preserved
	assert.Equal(t, "Alpha", enriched.Rows[0].Get("Vessel").String())
	assert.Equal(t, "Beta", enriched.Rows[1].Get("Vessel").String())
	assert.Equal(t, "Gamma", enriched.Rows[2].Get("Vessel").String())
}

func TestReconcileZeroMatches(t *testing.T) {
	primary := primaryTable("Alpha", "Beta")
	fleetCSV := []byte("Vessel,Fleet\nUnrelated,EAST Fleet\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded)
	assert.Equal(t, 0, diag.MatchedRows)
	assert.Equal(t, primary.RowCount(), enriched.RowCount())
	for _, row := range enriched.Rows {
		assert.True(t, row.Get(table.ColManagementUnit).IsNull())
		assert.True(t, row.Get(table.ColFleetName).IsNull())
	}
}

func TestReconcileFirstMatchWinsOnDuplicateKeys(t *testing.T) {
	primary := primaryTable("Star")
	fleetCSV := []byte("Vessel,Fleet\nStar,FIRST Fleet\nSTAR,SECOND Fleet\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded)
	assert.Equal(t, 1, diag.DuplicateKeys)
	require.Equal(t, 1, enriched.RowCount(), "duplicate reference keys must not fan out")
	assert.Equal(t, "FIRST", enriched.Rows[0].Get(table.ColManagementUnit).String())
}

func TestReconcileWithoutReferenceReturnsPrimaryUnchanged(t *testing.T) {
	primary := primaryTable("Alpha")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, nil, "", "")

	assert.False(t, diag.Attempted)
	assert.False(t, diag.Degraded)
	assert.Same(t, primary, enriched)
	assert.False(t, enriched.HasColumn(table.ColManagementUnit))
}

func TestReconcileDegradesOnMalformedReference(t *testing.T) {
	primary := primaryTable("Alpha", "Beta")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, []byte("not a table"), "fleet.xlsx", "")

	assert.True(t, diag.Attempted)
	assert.True(t, diag.Degraded)
	assert.NotEmpty(t, diag.Reason)
	assert.Same(t, primary, enriched, "degraded merge must return the unmodified primary table")
}

func TestReconcileDegradesWhenOrgColumnMissing(t *testing.T) {
	primary := primaryTable("Alpha")
	// No header contains "fleet" and no literal Fleet column exists.
	fleetCSV := []byte("Vessel,Region\nAlpha,North\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	assert.True(t, diag.Degraded)
	assert.Same(t, primary, enriched)
}

func TestReconcileCarriesTypeAndIMO(t *testing.T) {
	primary := primaryTable("Alpha")
	fleetCSV := []byte("Vessel,Fleet,Type,IMO\nAlpha,WEST Fleet,Tanker,9074729\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded)
	assert.Equal(t, "Tanker", enriched.Rows[0].Get("Type").String())
	assert.Equal(t, "9074729", enriched.Rows[0].Get("IMO").String())
}

// stubSource fakes a configured default fleet reference
type stubSource struct {
	data []byte
	err  error
}

func (s stubSource) Fetch(ctx context.Context) ([]byte, string, string, error) {
	return s.data, "default.csv", "", s.err
}

func TestReconcileUsesDefaultSource(t *testing.T) {
	primary := primaryTable("Alpha")
	src := stubSource{data: []byte("Vessel,Fleet\nAlpha,SOUTH Fleet\n")}

	r := NewReconciler(newTestLoader(), src)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, nil, "", "")

	require.False(t, diag.Degraded)
	assert.True(t, diag.UsedDefault)
	assert.Equal(t, "SOUTH", enriched.Rows[0].Get(table.ColManagementUnit).String())
}

func TestReconcileDegradesWhenDefaultSourceFails(t *testing.T) {
	primary := primaryTable("Alpha")
	src := stubSource{err: assert.AnError}

	r := NewReconciler(newTestLoader(), src)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, nil, "", "")

	assert.True(t, diag.Degraded)
	assert.Same(t, primary, enriched)
}

func TestReconcileVesselColumnInference(t *testing.T) {
	primary := primaryTable("Alpha")
	// Reference vessel column found by keyword, not position.
	fleetCSV := []byte("Region,Ship Name,Fleet\nNorth,Alpha,EAST Fleet\n")

	r := NewReconciler(newTestLoader(), nil)
	enriched, diag := r.Reconcile(context.Background(), primary, testRoles, fleetCSV, "fleet.csv", "")

	require.False(t, diag.Degraded)
	assert.Equal(t, "Ship Name", diag.VesselColumn)
	assert.Equal(t, 1, diag.MatchedRows)
	assert.Equal(t, "EAST", enriched.Rows[0].Get(table.ColManagementUnit).String())
}
