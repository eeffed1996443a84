// Package repository выбирает хранилище батчей по database.driver.
package repository

import (
	"context"
	"fmt"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/repository/postgres"
	"github.com/xela07ax/longevity-dashboard/internal/repository/sqlite"
)

// Store - история батчей и записи прогонов
type Store interface {
	SaveBatch(ctx context.Context, b domain.Batch) error
	ListBatches(ctx context.Context, limit int) ([]domain.Batch, error)
	GetBatch(ctx context.Context, id string) (*domain.BatchDetail, error)
	WriteRecords(ctx context.Context, records []domain.RunRecord) error
	ListRecords(ctx context.Context, batchID string) ([]domain.RunRecord, error)
	Close() error
}

var (
	_ Store = (*postgres.BatchRepo)(nil)
	_ Store = (*sqlite.BatchRepo)(nil)
)

func Open(ctx context.Context, cfg infra.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewBatchRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	case "sqlite":
		return sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("repository: unknown driver %q", cfg.Driver)
	}
}
