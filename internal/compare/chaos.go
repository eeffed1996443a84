package compare

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

type ChaosChartPoint struct {
	Scenario     string  `json:"scenario"`
	SuccessRate  float64 `json:"successRate"`
	ErrorRate    float64 `json:"errorRate"`
	AvgLatencyMs int     `json:"avgLatency"`
	P95LatencyMs int     `json:"p95Latency"`
}

type ChaosRunRow struct {
	Scenario  string `json:"scenario"`
	RunID     string `json:"run_id"`
	Success   bool   `json:"success"`
	LatencyMs int    `json:"latency"`
	Errors    int    `json:"errors"`
}

// ChaosChart - проценты успеха и ошибок по отчетам, с точностью до десятых
func ChaosChart(reports []domain.ChaosReport) []ChaosChartPoint {
	out := make([]ChaosChartPoint, 0, len(reports))
	for _, r := range reports {
		s := r.Summary
		out = append(out, ChaosChartPoint{
			Scenario:     HumanizeScenario(s.Scenario),
			SuccessRate:  round1(s.SuccessRate * 100),
			ErrorRate:    round1(float64(s.ErrorCount) / float64(max(1, s.NumRuns)) * 100),
			AvgLatencyMs: s.AvgLatencyMs,
			P95LatencyMs: s.P95LatencyMs,
		})
	}
	return out
}

// ChaosRuns разворачивает прогоны всех отчетов в одну таблицу
func ChaosRuns(reports []domain.ChaosReport) []ChaosRunRow {
	out := make([]ChaosRunRow, 0)
	for _, r := range reports {
		scenario := HumanizeScenario(r.Summary.Scenario)
		for _, run := range r.Runs {
			out = append(out, ChaosRunRow{
				Scenario:  scenario,
				RunID:     run.RunID,
				Success:   run.Success,
				LatencyMs: run.LatencyMs,
				Errors:    len(run.Errors),
			})
		}
	}
	return out
}

// HumanizeScenario: scheduler_failures -> Scheduler Failures
func HumanizeScenario(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
