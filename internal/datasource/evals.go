package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

const evalPrefix = "conversation_eval_"

// EvalSource - отчеты судьи из data/evals/conversation_eval_*.json
type EvalSource struct {
	dir    string
	logger *zap.Logger
}

func NewEvalSource(dir string, logger *zap.Logger) *EvalSource {
	return &EvalSource{dir: dir, logger: logger.With(zap.String("mod", "evals"))}
}

// List возвращает краткие описания отчетов, новые первыми.
// Битые файлы пропускаются с предупреждением.
func (s *EvalSource) List(ctx context.Context) ([]domain.EvalListItem, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, evalPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("evals: glob: %w", err)
	}
	sortByStampDesc(matches)

	items := make([]domain.EvalListItem, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		var report domain.EvalReport
		if err := readJSON(path, &report); err != nil {
			s.logger.Warn("skip unreadable eval report", zap.String("id", id), zap.Error(err))
			continue
		}
		items = append(items, listItemOf(id, path, &report))
	}
	return items, nil
}

func listItemOf(id, path string, report *domain.EvalReport) domain.EvalListItem {
	item := domain.EvalListItem{ID: id, NumPairs: len(report.Pairs)}
	if sum := report.Summary; sum != nil {
		item.Project = sum.Project
		item.JudgeModel = sum.JudgeModel
		if sum.NumPairs != nil {
			item.NumPairs = *sum.NumPairs
		}
	}
	if t, ok := parseStamp(id); ok {
		item.CreatedAt = t
	} else if info, err := os.Stat(path); err == nil {
		item.CreatedAt = info.ModTime()
	}
	return item
}

// Load читает отчет по id (имя файла без .json)
func (s *EvalSource) Load(ctx context.Context, id string) (*domain.EvalReport, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var report domain.EvalReport
	if err := readJSON(filepath.Join(s.dir, id+".json"), &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("eval %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("evals: load %s: %w", id, err)
	}
	report.ID = id
	if report.Pairs == nil {
		report.Pairs = []domain.EvalPair{}
	}
	return &report, nil
}
