package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

const (
	RunDirPrefix = "longevity_plan_"

	summaryFile      = "longevity_plan_summary.json"
	telemetryFile    = "telemetry.json"
	validityFile     = "scientific_validity_checks.json"
	conversationFile = "conversation_history.txt"
	bookingsFile     = "bookings.json"
)

// RunSource читает артефакты прогонов из data/longevity_plan_* каталогов
type RunSource struct {
	dir      string
	testsDir string
	logger   *zap.Logger
}

func NewRunSource(dir, testsDir string, logger *zap.Logger) *RunSource {
	return &RunSource{
		dir:      dir,
		testsDir: testsDir,
		logger:   logger.With(zap.String("mod", "runs")),
	}
}

type runSummary struct {
	UserName *string          `json:"user_name"`
	Warnings []json.RawMessage `json:"warnings"`
}

// ListRuns возвращает прогоны от новых к старым
func (s *RunSource) ListRuns(ctx context.Context) ([]domain.RunListItem, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.RunListItem{}, nil
		}
		return nil, fmt.Errorf("runs: read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), RunDirPrefix) {
			names = append(names, e.Name())
		}
	}
	// Имена с одинаковым префиксом сортируются хронологически
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	runs := make([]domain.RunListItem, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runs = append(runs, s.listItem(name))
	}
	return runs, nil
}

func (s *RunSource) listItem(name string) domain.RunListItem {
	suffix := strings.TrimPrefix(name, RunDirPrefix)
	item := domain.RunListItem{
		ID:        name,
		Timestamp: suffix,
		User:      "Unknown",
		Status:    domain.RunSuccess,
	}
	if t, ok := parseStamp(name); ok {
		item.Timestamp = t.Format("2006-01-02T15:04:05")
	}

	var sum runSummary
	err := readJSON(filepath.Join(s.dir, name, summaryFile), &sum)
	switch {
	case err == nil:
		if sum.UserName != nil {
			item.User = *sum.UserName
		}
		if len(sum.Warnings) > 0 {
			item.Status = domain.RunWarning
		}
	case errors.Is(err, os.ErrNotExist):
		// Нет summary: прогон считается успешным, пользователь неизвестен
	default:
		s.logger.Warn("unreadable run summary", zap.String("run_id", name), zap.Error(err))
		item.Status = domain.RunFailed
	}
	return item
}

// GetRun собирает полный артефакт прогона. Каждый файл опционален.
func (s *RunSource) GetRun(ctx context.Context, id string) (*domain.RunDetail, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.dir, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}

	detail := &domain.RunDetail{
		ID:          id,
		Summary:     loadOr(filepath.Join(dir, summaryFile), json.RawMessage(`{}`)),
		Telemetry:   loadOr(filepath.Join(dir, telemetryFile), []domain.TelemetryPoint{}),
		Validations: loadOr(filepath.Join(dir, validityFile), []domain.ValidityCheck{}),
		Bookings:    loadOr(filepath.Join(dir, bookingsFile), []json.RawMessage{}),
	}
	if detail.Telemetry == nil {
		detail.Telemetry = []domain.TelemetryPoint{}
	}
	if detail.Validations == nil {
		detail.Validations = []domain.ValidityCheck{}
	}
	if detail.Bookings == nil {
		detail.Bookings = []json.RawMessage{}
	}
	if convo, err := os.ReadFile(filepath.Join(dir, conversationFile)); err == nil {
		detail.Conversation = string(convo)
	}
	return detail, nil
}

type validityEntry struct {
	Validity *string `json:"validity"`
}

// Overview агрегирует телеметрию и проверки по всем прогонам,
// а avg_tokens и plan_consistency_score берет из последнего parallel отчета.
func (s *RunSource) Overview(ctx context.Context) (*domain.OverviewMetrics, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	var latencies []float64
	total, unknown := 0, 0
	for _, r := range runs {
		dir := filepath.Join(s.dir, r.ID)

		var tel []map[string]json.RawMessage
		if err := readJSON(filepath.Join(dir, telemetryFile), &tel); err == nil {
			for _, point := range tel {
				latencies = append(latencies, latencyOf(point))
			}
		}

		var checks []validityEntry
		if err := readJSON(filepath.Join(dir, validityFile), &checks); err == nil {
			total += len(checks)
			for _, c := range checks {
				if c.Validity == nil || *c.Validity == "unknown" {
					unknown++
				}
			}
		}
	}

	m := &domain.OverviewMetrics{RunsCount: len(runs)}
	if len(latencies) > 0 {
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		avg := sum / float64(len(latencies))
		m.AvgLatencyS = &avg
	}
	if total > 0 {
		cov := math.Round(1000*(1-float64(unknown)/float64(total))) / 10
		m.ScientificValidityCoveragePct = &cov
	}
	if p, ok := LatestParallelSummary(s.testsDir); ok {
		tokens, consistency := p.AvgTokensPerRun, p.PlanConsistency
		m.AvgTokens = &tokens
		m.PlanConsistencyScore = &consistency
	}
	return m, nil
}

// latencyOf - latency_s точки телеметрии, отсутствующее или нечисловое значение считается нулем
func latencyOf(point map[string]json.RawMessage) float64 {
	raw, ok := point["latency_s"]
	if !ok {
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

// LatestParallelSummary читает summary самого свежего parallel_test_*.json
func LatestParallelSummary(testsDir string) (domain.ParallelSummary, bool) {
	matches, _ := filepath.Glob(filepath.Join(testsDir, "parallel_test_*.json"))
	sortByStampDesc(matches)
	for _, path := range matches {
		var report struct {
			Summary *domain.ParallelSummary `json:"summary"`
		}
		if err := readJSON(path, &report); err == nil && report.Summary != nil {
			return *report.Summary, true
		}
	}
	return domain.ParallelSummary{}, false
}

// sortByStampDesc упорядочивает отчеты по времени из имени, без времени - в конец по имени
func sortByStampDesc(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		ti, oki := parseStamp(filepath.Base(paths[i]))
		tj, okj := parseStamp(filepath.Base(paths[j]))
		switch {
		case oki && okj:
			if ti.Equal(tj) {
				return paths[i] > paths[j]
			}
			return ti.After(tj)
		case oki != okj:
			return oki
		default:
			return paths[i] > paths[j]
		}
	})
}
