package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

const (
	parallelErrorsSample = 10
	chaosErrorsSample    = 5
)

// Percentile - ближайший ранг по отсортированным значениям:
// k = round(p/100 * (n-1)), зажатый в [0, n-1]. Пустой набор дает 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	k := int(math.RoundToEven(p / 100 * float64(len(s)-1)))
	k = max(0, min(len(s)-1, k))
	return s[k]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStddev - стандартное отклонение генеральной совокупности
func PopulationStddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return math.Sqrt(acc / float64(len(values)))
}

// PlanHash - sha256 канонического JSON плана (ключи объектов отсортированы)
func PlanHash(plan json.RawMessage) string {
	var v any
	data := []byte(plan)
	if len(plan) == 0 {
		data = []byte("{}")
	} else if err := json.Unmarshal(plan, &v); err == nil {
		if canon, err := json.Marshal(v); err == nil {
			data = canon
		}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PlanConsistency - доля прогонов, чей план совпал с самым частым
func PlanConsistency(plans []json.RawMessage) float64 {
	if len(plans) == 0 {
		return 0
	}
	counts := make(map[string]int, len(plans))
	best := 0
	for _, p := range plans {
		h := PlanHash(p)
		counts[h]++
		best = max(best, counts[h])
	}
	return float64(best) / float64(len(plans))
}

func round(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}

// SummarizeParallel сводит результаты нагрузочного батча
func SummarizeParallel(mode string, numRuns, concurrency int, elapsed time.Duration, results []domain.ConversationResult) domain.ParallelSummary {
	successes := 0
	latencies := make([]float64, 0, len(results))
	tokens := make([]float64, 0, len(results))
	plans := make([]json.RawMessage, 0, len(results))
	errs := []string{}
	for _, r := range results {
		if r.Success {
			successes++
		}
		latencies = append(latencies, float64(r.LatencyMs))
		tokens = append(tokens, float64(r.TokensTotal))
		plans = append(plans, r.PlanStruct)
		errs = append(errs, r.Errors...)
	}
	if len(errs) > parallelErrorsSample {
		errs = errs[:parallelErrorsSample]
	}

	return domain.ParallelSummary{
		Mode:            mode,
		NumRuns:         numRuns,
		Concurrency:     concurrency,
		ElapsedS:        round(elapsed.Seconds(), 3),
		SuccessRate:     round(float64(successes)/float64(max(1, len(results))), 3),
		P50LatencyMs:    int(Percentile(latencies, 50)),
		P95LatencyMs:    int(Percentile(latencies, 95)),
		AvgTokensPerRun: round(mean(tokens), 2),
		TokensStddev:    round(PopulationStddev(tokens), 2),
		PlanConsistency: round(PlanConsistency(plans), 3),
		ErrorsSample:    errs,
	}
}

// SummarizeChaos сводит результаты chaos-батча
func SummarizeChaos(scenario string, numRuns, concurrency int, elapsed time.Duration, runs []domain.ChaosRun) domain.ChaosSummary {
	successes, errorCount := 0, 0
	latencies := make([]float64, 0, len(runs))
	var total float64
	sample := []string{}
	for _, r := range runs {
		if r.Success {
			successes++
		}
		latencies = append(latencies, float64(r.LatencyMs))
		total += float64(r.LatencyMs)
		if len(r.Errors) > 0 {
			errorCount++
			if len(sample) < chaosErrorsSample {
				sample = append(sample, r.Errors[0])
			}
		}
	}

	s := domain.ChaosSummary{
		Scenario:     scenario,
		NumRuns:      numRuns,
		Concurrency:  concurrency,
		ElapsedS:     round(elapsed.Seconds(), 3),
		P50LatencyMs: int(Percentile(latencies, 50)),
		P95LatencyMs: int(Percentile(latencies, 95)),
		ErrorCount:   errorCount,
		ErrorsSample: sample,
	}
	if numRuns > 0 {
		s.SuccessRate = round(float64(successes)/float64(numRuns), 3)
	}
	if len(latencies) > 0 {
		s.AvgLatencyMs = int(total / float64(len(latencies)))
	}
	return s
}
