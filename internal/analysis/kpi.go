package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// KPICalculator derives dashboard metrics from a processor's table
type KPICalculator struct {
	processor *Processor
}

// NewKPICalculator creates a KPI calculator over processed data
func NewKPICalculator(p *Processor) *KPICalculator {
	return &KPICalculator{processor: p}
}

// VesselKPIs summarizes vessel performance
type VesselKPIs struct {
	TotalVessels         int     `json:"total_vessels"`
	AvgRecordsPerVessel  float64 `json:"avg_records_per_vessel"`
	BestPerformingVessel string  `json:"best_performing_vessel"`
	AvgCompletionRate    string  `json:"avg_completion_rate"`
}

// JobKPIs summarizes job performance
type JobKPIs struct {
	TotalJobTypes     int     `json:"total_job_types"`
	AvgRecordsPerJob  float64 `json:"avg_records_per_job"`
	MostEfficientJob  string  `json:"most_efficient_job"`
	JobDiversityScore string  `json:"job_diversity_score"`
}

// EFormKPIs summarizes e-form completion quality
type EFormKPIs struct {
	TotalEForms      int    `json:"total_eforms"`
	CompletionRate   string `json:"completion_rate"`
	UniqueValues     int    `json:"unique_values"`
	NullValues       int    `json:"null_values"`
	ConsistencyScore string `json:"consistency_score"`
}

// SummaryKPIs bundles the three KPI groups the dashboard header shows
type SummaryKPIs struct {
	Vessel VesselKPIs `json:"vessel_kpis"`
	Job    JobKPIs    `json:"job_kpis"`
	EForm  EFormKPIs  `json:"eform_kpis"`
}

// Summary calculates the full KPI bundle
func (k *KPICalculator) Summary() SummaryKPIs {
	return SummaryKPIs{
		Vessel: k.vesselKPIs(),
		Job:    k.jobKPIs(),
		EForm:  k.eformKPIs(),
	}
}

func (k *KPICalculator) vesselKPIs() VesselKPIs {
	summaries := k.processor.VesselSummaries()
	if len(summaries) == 0 {
		return VesselKPIs{BestPerformingVessel: "N/A", AvgCompletionRate: "0.0%"}
	}

	records := make([]float64, len(summaries))
	rates := make([]float64, len(summaries))
	best := summaries[0]
	for i, s := range summaries {
		records[i] = float64(s.TotalRecords)
		rates[i] = s.CompletionRate
		if s.CompletionRate > best.CompletionRate {
			best = s
		}
	}

	avgRecords, _ := stats.Mean(records)
	avgRate, _ := stats.Mean(rates)

	return VesselKPIs{
		TotalVessels:         len(summaries),
		AvgRecordsPerVessel:  round1(avgRecords),
		BestPerformingVessel: best.Vessel,
		AvgCompletionRate:    fmt.Sprintf("%.1f%%", avgRate),
	}
}

func (k *KPICalculator) jobKPIs() JobKPIs {
	summaries := k.processor.JobSummaries()
	if len(summaries) == 0 {
		return JobKPIs{MostEfficientJob: "N/A", JobDiversityScore: "0.0%"}
	}

	records := make([]float64, len(summaries))
	best := summaries[0]
	for i, s := range summaries {
		records[i] = float64(s.TotalRecords)
		if s.CompletionRate > best.CompletionRate {
			best = s
		}
	}
	avgRecords, _ := stats.Mean(records)

	return JobKPIs{
		TotalJobTypes:     len(summaries),
		AvgRecordsPerJob:  round1(avgRecords),
		MostEfficientJob:  best.Job,
		JobDiversityScore: fmt.Sprintf("%.1f%%", k.jobDiversity(records)),
	}
}

// jobDiversity scores how evenly records spread across job types, as Shannon
// entropy normalized against the uniform-distribution maximum.
func (k *KPICalculator) jobDiversity(counts []float64) float64 {
	if len(counts) < 2 {
		return 0
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	probs := make([]float64, len(counts))
	for i, c := range counts {
		probs[i] = c / total
	}

	entropy := stat.Entropy(probs)
	maxEntropy := math.Log(float64(len(counts)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy * 100
}

func (k *KPICalculator) eformKPIs() EFormKPIs {
	col := k.processor.Roles().EFormCol
	values := k.processor.Data().ColumnValues(col)

	total := len(values)
	completed := 0
	counts := make(map[string]int)
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		completed++
		counts[v.String()]++
	}

	completionRate := 0.0
	duplicateRate := 0.0
	if total > 0 {
		completionRate = float64(completed) / float64(total) * 100
		duplicateRate = float64(completed-len(counts)) / float64(total) * 100
	}

	return EFormKPIs{
		TotalEForms:      total,
		CompletionRate:   fmt.Sprintf("%.1f%%", completionRate),
		UniqueValues:     len(counts),
		NullValues:       total - completed,
		ConsistencyScore: fmt.Sprintf("%.1f%%", 100-duplicateRate),
	}
}

// OverallCompletionRate is the share of non-null cells across the table
func (k *KPICalculator) OverallCompletionRate() float64 {
	data := k.processor.Data()
	totalCells := data.RowCount() * len(data.Columns)
	if totalCells == 0 {
		return 0
	}

	nonNull := 0
	for _, row := range data.Rows {
		for _, col := range data.Columns {
			if !row.Get(col).IsNull() {
				nonNull++
			}
		}
	}
	return float64(nonNull) / float64(totalCells) * 100
}

// PerformanceMetric scores one vessel-job combination
type PerformanceMetric struct {
	Vessel           string  `json:"vessel"`
	Job              string  `json:"job"`
	Records          int     `json:"records"`
	Completed        int     `json:"completed"`
	CompletionRate   float64 `json:"completion_rate"`
	PerformanceScore float64 `json:"performance_score"`
}

// PerformanceMetrics computes completion metrics per vessel-job pair with a
// composite score weighting completion against log-scaled volume.
func (k *KPICalculator) PerformanceMetrics() []PerformanceMetric {
	data := k.processor.Data()
	roles := k.processor.Roles()

	type bucket struct {
		records   int
		completed int
	}
	index := make(map[[2]string]*bucket)
	var order [][2]string

	for _, row := range data.Rows {
		key := [2]string{
			groupKey(row.Get(roles.VesselCol)),
			groupKey(row.Get(roles.JobCol)),
		}
		b, ok := index[key]
		if !ok {
			b = &bucket{}
			index[key] = b
			order = append(order, key)
		}
		b.records++
		if !row.Get(roles.EFormCol).IsNull() {
			b.completed++
		}
	}

	out := make([]PerformanceMetric, 0, len(order))
	for _, key := range order {
		b := index[key]
		rate := pct(b.completed, b.records)
		out = append(out, PerformanceMetric{
			Vessel:           key[0],
			Job:              key[1],
			Records:          b.records,
			Completed:        b.completed,
			CompletionRate:   rate,
			PerformanceScore: performanceScore(rate, b.records),
		})
	}
	return out
}

// performanceScore blends completion rate with log-normalized record volume
func performanceScore(completionRate float64, records int) float64 {
	normalizedCount := math.Min(math.Log10(float64(records)+1)/math.Log10(1000), 1) * 100
	return round2(completionRate*0.7 + normalizedCount*0.3)
}
