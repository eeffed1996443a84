package domain

import "encoding/json"

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunWarning RunStatus = "warning"
	RunFailed  RunStatus = "failed"
)

// RunListItem - строка таблицы Recent Runs
type RunListItem struct {
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	User      string    `json:"user"`
	PlanScore *float64  `json:"plan_score"`
	Status    RunStatus `json:"status"`
}

// OverviewMetrics - карточки на главной. nil означает "нет данных".
type OverviewMetrics struct {
	AvgLatencyS                   *float64 `json:"avg_latency_s"`
	AvgTokens                     *float64 `json:"avg_tokens"`
	PlanConsistencyScore          *float64 `json:"plan_consistency_score"`
	ScientificValidityCoveragePct *float64 `json:"scientific_validity_coverage_pct"`
	RunsCount                     int      `json:"runs_count"`
}

type TelemetryPoint struct {
	LatencyS float64 `json:"latency_s"`
}

type ValidityCheck struct {
	Claim      json.RawMessage `json:"claim"`
	Validity   string          `json:"validity"`
	Confidence float64         `json:"confidence"`
}

// RunDetail - полный артефакт прогона. Summary и Bookings остаются сырыми:
// их схему задает внешний пайплайн.
type RunDetail struct {
	ID           string            `json:"id"`
	Summary      json.RawMessage   `json:"summary"`
	Telemetry    []TelemetryPoint  `json:"telemetry"`
	Validations  []ValidityCheck   `json:"validations"`
	Conversation string            `json:"conversation"`
	Bookings     []json.RawMessage `json:"bookings"`
}

// TestSuite - описание группы тестов для вкладки Tests
type TestSuite struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
