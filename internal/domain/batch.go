package domain

import (
	"encoding/json"
	"time"
)

type BatchKind string

const (
	BatchParallel BatchKind = "parallel"
	BatchChaos    BatchKind = "chaos"
)

const (
	ModeBaseline  = "baseline"
	ModeOptimized = "optimized"
)

// ParallelRequest - тело POST /api/run/parallel
type ParallelRequest struct {
	Concurrency int    `json:"concurrency"`
	NumRuns     int    `json:"num_runs"`
	Mode        string `json:"mode"`
	Scenario    string `json:"scenario,omitempty"`
}

// ChaosRequest - тело POST /api/chaos-tests/run. Пустые поля конфигурации берутся из batch.*
type ChaosRequest struct {
	Scenario    string       `json:"scenario"`
	NumRuns     int          `json:"num_runs"`
	Concurrency int          `json:"concurrency"`
	Config      *ChaosConfig `json:"chaos_config,omitempty"`
}

type ParallelSummary struct {
	Mode            string   `json:"mode"`
	NumRuns         int      `json:"num_runs"`
	Concurrency     int      `json:"concurrency"`
	ElapsedS        float64  `json:"elapsed_s"`
	SuccessRate     float64  `json:"success_rate"`
	P50LatencyMs    int      `json:"p50_latency_ms"`
	P95LatencyMs    int      `json:"p95_latency_ms"`
	AvgTokensPerRun float64  `json:"avg_tokens_per_run"`
	TokensStddev    float64  `json:"tokens_stddev"`
	PlanConsistency float64  `json:"plan_consistency"`
	ErrorsSample    []string `json:"errors_sample"`
	ReportPath      string   `json:"report_path,omitempty"`
	BatchID         string   `json:"batch_id,omitempty"`
}

// ConversationResult - итог одного прогона разговора
type ConversationResult struct {
	RunID       string          `json:"run_id"`
	ScenarioID  string          `json:"scenario_id"`
	Success     bool            `json:"success"`
	NumTurns    int             `json:"num_turns"`
	PlanStruct  json.RawMessage `json:"plan_struct"`
	TokensTotal int             `json:"tokens_total"`
	LatencyMs   int             `json:"latency_ms"`
	Errors      []string        `json:"errors"`
	Mode        string          `json:"mode"`
}

// ParallelReport - файл data/tests/parallel_test_<mode>_<ts>.json
type ParallelReport struct {
	Summary ParallelSummary      `json:"summary"`
	Runs    []ConversationResult `json:"runs"`
}

// Batch - запись о батче в хранилище
type Batch struct {
	ID         string          `json:"id"`
	Kind       BatchKind       `json:"kind"`
	Label      string          `json:"label"` // mode для parallel, scenario для chaos
	NumRuns    int             `json:"num_runs"`
	Success    float64         `json:"success_rate"`
	ReportPath string          `json:"report_path"`
	Summary    json.RawMessage `json:"summary"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RunRecord - событие одного прогона для recorder
type RunRecord struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	Success     bool      `json:"success"`
	LatencyMs   int       `json:"latency_ms"`
	TokensTotal int       `json:"tokens_total"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// BatchDetail - батч вместе с записями прогонов
type BatchDetail struct {
	Batch
	Records []RunRecord `json:"records"`
}

// ScheduledBatch - ответ POST /api/tests/run
type ScheduledBatch struct {
	Scheduled bool   `json:"scheduled"`
	BatchID   string `json:"batch_id"`
}

type BatchStatus string

const (
	BatchStarted  BatchStatus = "started"
	BatchFinished BatchStatus = "finished"
	BatchFailed   BatchStatus = "failed"
)

// BatchEvent публикуется в канал событий батчей
type BatchEvent struct {
	BatchID     string      `json:"batch_id"`
	Kind        BatchKind   `json:"kind"`
	Status      BatchStatus `json:"status"`
	SuccessRate float64     `json:"success_rate,omitempty"`
	ReportPath  string      `json:"report_path,omitempty"`
	At          time.Time   `json:"at"`
}

// DefaultParallelRequest - батч POST /api/tests/run без тела
func DefaultParallelRequest() ParallelRequest {
	return ParallelRequest{Concurrency: 10, NumRuns: 20, Mode: ModeBaseline, Scenario: "default"}
}
