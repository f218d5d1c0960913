// Package analysis computes the summaries, filters and KPIs the dashboard
// renders from an enriched e-form table. All queries take explicit inputs
// (table, role config, filter selection); nothing here keeps ambient state.
package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"eformboard/domain/core"
	"eformboard/domain/table"
)

// unknownGroup labels rows whose grouping value is null
const unknownGroup = "Unknown"

// Processor answers grouped queries over one enriched table
type Processor struct {
	data  *table.Table
	roles table.RoleConfig
}

// NewProcessor validates the role columns and preprocesses the table.
// The input table is cloned; the caller's copy is never mutated.
func NewProcessor(t *table.Table, roles table.RoleConfig) (*Processor, error) {
	for _, rc := range []struct{ role, col string }{
		{"vessel", roles.VesselCol},
		{"job", roles.JobCol},
		{"e-form", roles.EFormCol},
	} {
		if !t.HasColumn(rc.col) {
			return nil, core.NewSchemaError(rc.role, rc.col)
		}
	}

	data := t.Clone()
	preprocess(data, roles)
	return &Processor{data: data, roles: roles}, nil
}

// preprocess trims the key string columns and nulls out textual stand-ins
// for missing values ("nan", "None" and friends from sloppy exports).
func preprocess(t *table.Table, roles table.RoleConfig) {
	for _, col := range []string{roles.VesselCol, roles.JobCol} {
		for i := range t.Rows {
			v := t.Rows[i].Get(col)
			if v.Type != table.ValueTypeString {
				continue
			}
			s := strings.TrimSpace(v.String())
			switch s {
			case "", "nan", "NaN", "None":
				t.Rows[i][col] = table.NewNullValue()
			default:
				t.Rows[i][col] = table.NewStringValue(s)
			}
		}
	}
}

// Data returns the processed table
func (p *Processor) Data() *table.Table {
	return p.data
}

// Roles returns the column-role configuration
func (p *Processor) Roles() table.RoleConfig {
	return p.roles
}

// VesselSummary holds per-vessel aggregates
type VesselSummary struct {
	Vessel           string  `json:"vessel"`
	TotalRecords     int     `json:"total_records"`
	EFormCompleted   int     `json:"eform_completed"`
	CompletionRate   float64 `json:"completion_rate_pct"`
	UniqueJobs       int     `json:"unique_jobs"`
	EFormUniqueCount int     `json:"eform_unique_values"`
	EFormMostCommon  string  `json:"eform_most_common"`
	QualityScore     float64 `json:"data_quality_score"`
}

// JobSummary holds per-job aggregates
type JobSummary struct {
	Job                 string  `json:"job"`
	TotalRecords        int     `json:"total_records"`
	EFormCompleted      int     `json:"eform_completed"`
	CompletionRate      float64 `json:"completion_rate_pct"`
	UniqueVessels       int     `json:"unique_vessels"`
	EFormUniqueCount    int     `json:"eform_unique_values"`
	EFormMostCommon     string  `json:"eform_most_common"`
	AvgRecordsPerVessel float64 `json:"avg_records_per_vessel"`
}

// VesselSummaries aggregates the table by vessel, sorted by vessel name
func (p *Processor) VesselSummaries() []VesselSummary {
	groups := p.groupBy(p.roles.VesselCol)

	out := make([]VesselSummary, 0, len(groups))
	for _, g := range groups {
		completed := p.completedIn(g.rows)
		eformStats := p.eformStats(g.rows)
		out = append(out, VesselSummary{
			Vessel:           g.key,
			TotalRecords:     len(g.rows),
			EFormCompleted:   completed,
			CompletionRate:   pct(completed, len(g.rows)),
			UniqueJobs:       p.uniqueIn(g.rows, p.roles.JobCol),
			EFormUniqueCount: eformStats.uniqueCount,
			EFormMostCommon:  eformStats.mostCommon,
			QualityScore:     eformStats.qualityScore,
		})
	}
	return out
}

// JobSummaries aggregates the table by job, sorted by job name
func (p *Processor) JobSummaries() []JobSummary {
	groups := p.groupBy(p.roles.JobCol)

	out := make([]JobSummary, 0, len(groups))
	for _, g := range groups {
		completed := p.completedIn(g.rows)
		eformStats := p.eformStats(g.rows)
		vessels := p.uniqueIn(g.rows, p.roles.VesselCol)

		avgPerVessel := 0.0
		if vessels > 0 {
			avgPerVessel = round2(float64(len(g.rows)) / float64(vessels))
		}

		out = append(out, JobSummary{
			Job:                 g.key,
			TotalRecords:        len(g.rows),
			EFormCompleted:      completed,
			CompletionRate:      pct(completed, len(g.rows)),
			UniqueVessels:       vessels,
			EFormUniqueCount:    eformStats.uniqueCount,
			EFormMostCommon:     eformStats.mostCommon,
			AvgRecordsPerVessel: avgPerVessel,
		})
	}
	return out
}

// CrossTable is the vessel-by-job matrix of completed e-form counts
type CrossTable struct {
	Vessels []string `json:"vessels"`
	Jobs    []string `json:"jobs"`
	Counts  [][]int  `json:"counts"` // Counts[v][j]
}

// CrossAnalysis builds the vessel x job completion matrix
func (p *Processor) CrossAnalysis() CrossTable {
	vesselIdx := make(map[string]int)
	jobIdx := make(map[string]int)
	var vessels, jobs []string

	for _, row := range p.data.Rows {
		v := groupKey(row.Get(p.roles.VesselCol))
		j := groupKey(row.Get(p.roles.JobCol))
		if _, ok := vesselIdx[v]; !ok {
			vesselIdx[v] = 0
			vessels = append(vessels, v)
		}
		if _, ok := jobIdx[j]; !ok {
			jobIdx[j] = 0
			jobs = append(jobs, j)
		}
	}
	sort.Strings(vessels)
	sort.Strings(jobs)
	for i, v := range vessels {
		vesselIdx[v] = i
	}
	for i, j := range jobs {
		jobIdx[j] = i
	}

	counts := make([][]int, len(vessels))
	for i := range counts {
		counts[i] = make([]int, len(jobs))
	}
	for _, row := range p.data.Rows {
		if row.Get(p.roles.EFormCol).IsNull() {
			continue
		}
		v := vesselIdx[groupKey(row.Get(p.roles.VesselCol))]
		j := jobIdx[groupKey(row.Get(p.roles.JobCol))]
		counts[v][j]++
	}

	return CrossTable{Vessels: vessels, Jobs: jobs, Counts: counts}
}

// Filter returns the rows matching an explicit selection. Empty selection
// lists pass every row; levels combine with AND, values within a level with
// OR. Hierarchy columns missing from the table simply never match.
func (p *Processor) Filter(sel table.FilterSelection) *table.Table {
	if sel.IsEmpty() {
		return p.data.Clone()
	}

	out := table.New(p.data.Columns)
	for _, row := range p.data.Rows {
		if !matchLevel(row, table.ColManagementUnit, sel.ManagementUnits) {
			continue
		}
		if !matchLevel(row, table.ColFleetName, sel.FleetNames) {
			continue
		}
		if !matchLevel(row, p.roles.VesselCol, sel.Vessels) {
			continue
		}
		if !matchLevel(row, p.roles.JobCol, sel.Jobs) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// ColumnInfo describes one column of the processed table
type ColumnInfo struct {
	Column       string   `json:"column"`
	Type         string   `json:"type"`
	NonNullCount int      `json:"non_null_count"`
	NullCount    int      `json:"null_count"`
	UniqueValues int      `json:"unique_values"`
	Mean         *float64 `json:"mean,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
}

// ColumnInfos reports type and completeness per column, with numeric
// aggregates where the column holds numbers.
func (p *Processor) ColumnInfos() []ColumnInfo {
	out := make([]ColumnInfo, 0, len(p.data.Columns))
	for _, col := range p.data.Columns {
		info := ColumnInfo{Column: col, Type: string(table.ValueTypeString)}
		unique := make(map[string]struct{})
		var numbers []float64

		for _, row := range p.data.Rows {
			v := row.Get(col)
			if v.IsNull() {
				info.NullCount++
				continue
			}
			info.NonNullCount++
			unique[v.String()] = struct{}{}
			if n, ok := v.AsNumber(); ok && v.Type == table.ValueTypeNumber {
				numbers = append(numbers, n)
			}
		}
		info.UniqueValues = len(unique)

		if len(numbers) > 0 && len(numbers) == info.NonNullCount {
			info.Type = string(table.ValueTypeNumber)
			if mean, err := stats.Mean(numbers); err == nil {
				mean = round2(mean)
				info.Mean = &mean
			}
			if min, err := stats.Min(numbers); err == nil {
				info.Min = &min
			}
			if max, err := stats.Max(numbers); err == nil {
				info.Max = &max
			}
		}

		out = append(out, info)
	}
	return out
}

// group is one grouping bucket in source order of first appearance
type group struct {
	key  string
	rows []table.Row
}

func (p *Processor) groupBy(col string) []group {
	index := make(map[string]int)
	var groups []group
	for _, row := range p.data.Rows {
		key := groupKey(row.Get(col))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].key < groups[b].key })
	return groups
}

func groupKey(v table.Value) string {
	if v.IsNull() {
		return unknownGroup
	}
	return v.String()
}

func (p *Processor) completedIn(rows []table.Row) int {
	n := 0
	for _, row := range rows {
		if !row.Get(p.roles.EFormCol).IsNull() {
			n++
		}
	}
	return n
}

func (p *Processor) uniqueIn(rows []table.Row, col string) int {
	unique := make(map[string]struct{})
	for _, row := range rows {
		if v := row.Get(col); !v.IsNull() {
			unique[v.String()] = struct{}{}
		}
	}
	return len(unique)
}

type eformGroupStats struct {
	uniqueCount  int
	mostCommon   string
	qualityScore float64
}

func (p *Processor) eformStats(rows []table.Row) eformGroupStats {
	counts := make(map[string]int)
	completed := 0
	for _, row := range rows {
		v := row.Get(p.roles.EFormCol)
		if v.IsNull() {
			continue
		}
		completed++
		counts[v.String()]++
	}

	st := eformGroupStats{uniqueCount: len(counts), mostCommon: "N/A"}
	best := 0
	for value, n := range counts {
		if n > best || (n == best && value < st.mostCommon) {
			best = n
			st.mostCommon = value
		}
	}
	if len(rows) > 0 {
		st.qualityScore = round1(float64(completed) / float64(len(rows)) * 100)
	}
	return st
}

func matchLevel(row table.Row, col string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	v := row.Get(col)
	if v.IsNull() {
		return false
	}
	for _, s := range selected {
		if v.String() == s {
			return true
		}
	}
	return false
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
