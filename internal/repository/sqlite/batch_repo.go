// Package sqlite - локальное хранилище батчей для запуска без PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	_ "modernc.org/sqlite" // CGO-free драйвер
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	label       TEXT NOT NULL,
	num_runs    INTEGER NOT NULL,
	success     REAL NOT NULL,
	report_path TEXT NOT NULL,
	summary     TEXT,
	created_at  TEXT NOT NULL -- RFC3339Nano UTC
);
CREATE INDEX IF NOT EXISTS idx_batches_created ON batches(created_at);

CREATE TABLE IF NOT EXISTS run_records (
	id           TEXT PRIMARY KEY,
	batch_id     TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	scenario     TEXT NOT NULL,
	success      INTEGER NOT NULL,
	latency_ms   INTEGER NOT NULL,
	tokens_total INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	ts           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_records_batch ON run_records(batch_id, ts);
`

type BatchRepo struct {
	db *sql.DB
}

// Open открывает (и создает) файл базы и накатывает схему
func Open(ctx context.Context, path string) (*BatchRepo, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// один писатель: sqlite сериализует запись
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &BatchRepo{db: db}, nil
}

func (r *BatchRepo) Close() error { return r.db.Close() }

func (r *BatchRepo) SaveBatch(ctx context.Context, b domain.Batch) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO batches (id, kind, label, num_runs, success, report_path, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			success=excluded.success, report_path=excluded.report_path, summary=excluded.summary`,
		b.ID, string(b.Kind), b.Label, b.NumRuns, b.Success, b.ReportPath, nullableJSON(b.Summary), formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save batch %s: %w", b.ID, err)
	}
	return nil
}

func (r *BatchRepo) ListBatches(ctx context.Context, limit int) ([]domain.Batch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, label, num_runs, success, report_path, summary, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list batches: %w", err)
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
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, label, num_runs, success, report_path, summary, created_at
		FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

// WriteRecords вставляет пачку в одной транзакции
func (r *BatchRepo) WriteRecords(ctx context.Context, records []domain.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_records (id, batch_id, run_id, scenario, success, latency_ms, tokens_total, error, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.BatchID, rec.RunID, rec.Scenario, rec.Success,
			rec.LatencyMs, rec.TokensTotal, rec.Error, formatTime(rec.Timestamp)); err != nil {
			return fmt.Errorf("sqlite: insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func (r *BatchRepo) ListRecords(ctx context.Context, batchID string) ([]domain.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, run_id, scenario, success, latency_ms, tokens_total, error, ts
		FROM run_records
		WHERE batch_id = ?
		ORDER BY ts`, batchID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list records: %w", err)
	}
	defer rows.Close()

	results := []domain.RunRecord{}
	for rows.Next() {
		var (
			rec domain.RunRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.RunID, &rec.Scenario, &rec.Success,
			&rec.LatencyMs, &rec.TokensTotal, &rec.Error, &ts); err != nil {
			return nil, err
		}
		rec.Timestamp = parseTime(ts)
		results = append(results, rec)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (domain.Batch, error) {
	var (
		b         domain.Batch
		kind      string
		summary   sql.NullString
		createdAt string
	)
	if err := row.Scan(&b.ID, &kind, &b.Label, &b.NumRuns, &b.Success, &b.ReportPath, &summary, &createdAt); err != nil {
		return domain.Batch{}, err
	}
	b.Kind = domain.BatchKind(kind)
	if summary.Valid {
		b.Summary = []byte(summary.String)
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// Фиксированная ширина дробной части: лексикографический порядок совпадает с временным
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
