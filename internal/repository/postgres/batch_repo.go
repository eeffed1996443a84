package postgres

/*
Файл batch_repo.go хранит историю батчей и записи прогонов в PostgreSQL.
Записи recorder приходят пачками, поэтому вставка идет через COPY (pgx CopyFrom),
а не через многострочный INSERT.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	label       TEXT NOT NULL,
	num_runs    INTEGER NOT NULL,
	success     DOUBLE PRECISION NOT NULL,
	report_path TEXT NOT NULL,
	summary     JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batches_created ON batches (created_at DESC);

CREATE TABLE IF NOT EXISTS run_records (
	id           TEXT PRIMARY KEY,
	batch_id     TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	scenario     TEXT NOT NULL,
	success      BOOLEAN NOT NULL,
	latency_ms   INTEGER NOT NULL,
	tokens_total INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	ts           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_records_batch ON run_records (batch_id, ts);
`

type BatchRepo struct {
	pool *pgxpool.Pool
}

// NewPool поднимает пул соединений с лимитами из конфига и проверяет его Ping
func NewPool(ctx context.Context, cfg infra.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	pcfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func NewBatchRepo(pool *pgxpool.Pool) *BatchRepo {
	return &BatchRepo{pool: pool}
}

// Migrate создает таблицы, если их еще нет
func (r *BatchRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (r *BatchRepo) SaveBatch(ctx context.Context, b domain.Batch) error {
	query := `
		INSERT INTO batches (id, kind, label, num_runs, success, report_path, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			success = EXCLUDED.success,
			report_path = EXCLUDED.report_path,
			summary = EXCLUDED.summary`

	_, err := r.pool.Exec(ctx, query,
		b.ID, string(b.Kind), b.Label, b.NumRuns, b.Success, b.ReportPath, []byte(b.Summary), b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save batch %s: %w", b.ID, err)
	}
	return nil
}

func (r *BatchRepo) ListBatches(ctx context.Context, limit int) ([]domain.Batch, error) {
	query := `
		SELECT id, kind, label, num_runs, success, report_path, summary, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list batches: %w", err)
	}
	defer rows.Close()

	results := []domain.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

func (r *BatchRepo) GetBatch(ctx context.Context, id string) (*domain.BatchDetail, error) {
	query := `
		SELECT id, kind, label, num_runs, success, report_path, summary, created_at
		FROM batches
		WHERE id = $1`

	b, err := scanBatch(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	records, err := r.ListRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.BatchDetail{Batch: b, Records: records}, nil
}

// WriteRecords - пакетная вставка через протокол COPY
func (r *BatchRepo) WriteRecords(ctx context.Context, records []domain.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"run_records"},
		[]string{"id", "batch_id", "run_id", "scenario", "success", "latency_ms", "tokens_total", "error", "ts"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{
				rec.ID, rec.BatchID, rec.RunID, rec.Scenario, rec.Success,
				rec.LatencyMs, rec.TokensTotal, rec.Error, rec.Timestamp,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("postgres: copy %d records: %w", len(records), err)
	}
	return nil
}

func (r *BatchRepo) ListRecords(ctx context.Context, batchID string) ([]domain.RunRecord, error) {
	query := `
		SELECT id, batch_id, run_id, scenario, success, latency_ms, tokens_total, error, ts
		FROM run_records
		WHERE batch_id = $1
		ORDER BY ts`

	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list records: %w", err)
	}
	defer rows.Close()

	results := []domain.RunRecord{}
	for rows.Next() {
		var rec domain.RunRecord
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.RunID, &rec.Scenario, &rec.Success,
			&rec.LatencyMs, &rec.TokensTotal, &rec.Error, &rec.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *BatchRepo) Close() error {
	r.pool.Close()
	return nil
}

func scanBatch(row pgx.Row) (domain.Batch, error) {
	var (
		b       domain.Batch
		kind    string
		summary []byte
	)
	if err := row.Scan(&b.ID, &kind, &b.Label, &b.NumRuns, &b.Success, &b.ReportPath, &summary, &b.CreatedAt); err != nil {
		return domain.Batch{}, err
	}
	b.Kind = domain.BatchKind(kind)
	b.Summary = summary
	return b, nil
}
