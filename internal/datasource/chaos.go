package datasource

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

// ChaosSource - отчеты chaos-прогонов из data/tests/chaos_*.json
type ChaosSource struct {
	dir    string
	logger *zap.Logger
}

func NewChaosSource(dir string, logger *zap.Logger) *ChaosSource {
	return &ChaosSource{dir: dir, logger: logger.With(zap.String("mod", "chaos"))}
}

// List возвращает отчеты от новых к старым
func (s *ChaosSource) List(ctx context.Context) ([]domain.ChaosReport, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "chaos_*.json"))
	if err != nil {
		return nil, fmt.Errorf("chaos: glob: %w", err)
	}
	sortByStampDesc(matches)

	reports := make([]domain.ChaosReport, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r domain.ChaosReport
		if err := readJSON(path, &r); err != nil {
			s.logger.Warn("skip unreadable chaos report", zap.String("path", path), zap.Error(err))
			continue
		}
		if r.Summary.Scenario == "" {
			r.Summary.Scenario = r.Scenario
		}
		if r.Runs == nil {
			r.Runs = []domain.ChaosRun{}
		}
		reports = append(reports, r)
	}
	return reports, nil
}
