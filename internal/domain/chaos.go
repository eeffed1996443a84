package domain

// ChaosConfig параметры fault-injection слоя
type ChaosConfig struct {
	Enabled          bool    `json:"enabled"`
	JitterMinMs      int     `json:"jitter_min_ms"`
	JitterMaxMs      int     `json:"jitter_max_ms"`
	NetworkFailProb  float64 `json:"network_fail_prob"`
	ToolFailProb     float64 `json:"tool_fail_prob"`
	LLMBadOutputProb float64 `json:"llm_bad_output_prob"`
}

type ChaosSummary struct {
	Scenario     string   `json:"scenario"`
	NumRuns      int      `json:"num_runs"`
	Concurrency  int      `json:"concurrency"`
	ElapsedS     float64  `json:"elapsed_s"`
	SuccessRate  float64  `json:"success_rate"`
	P50LatencyMs int      `json:"p50_latency_ms"`
	P95LatencyMs int      `json:"p95_latency_ms"`
	AvgLatencyMs int      `json:"avg_latency_ms"`
	ErrorCount   int      `json:"error_count"`
	ErrorsSample []string `json:"errors_sample"`
	ReportPath   string   `json:"report_path,omitempty"`
}

type ChaosRun struct {
	RunID     string   `json:"run_id"`
	Scenario  string   `json:"scenario"`
	Success   bool     `json:"success"`
	LatencyMs int      `json:"latency_ms"`
	Errors    []string `json:"errors"`
}

// ChaosReport - файл data/tests/chaos_<scenario>_<ts>.json
type ChaosReport struct {
	Scenario    string       `json:"scenario"`
	ChaosConfig ChaosConfig  `json:"chaos_config"`
	Summary     ChaosSummary `json:"summary"`
	Runs        []ChaosRun   `json:"runs"`
}
