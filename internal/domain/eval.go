package domain

import "time"

// EvalSummary агрегаты по всем парам отчета. Pointer-поля: в пустом отчете summary = {}.
type EvalSummary struct {
	AvgCollaboration  *float64 `json:"avg_collaboration,omitempty"`
	AvgAlignmentA     *float64 `json:"avg_alignment_a,omitempty"`
	AvgAlignmentB     *float64 `json:"avg_alignment_b,omitempty"`
	AvgReasoningDepth *float64 `json:"avg_reasoning_depth,omitempty"`
	AvgConsistency    *float64 `json:"avg_consistency,omitempty"`
	NumPairs          *int     `json:"num_pairs,omitempty"`
	Project           string   `json:"project,omitempty"`
	JudgeModel        string   `json:"judge_model,omitempty"`
	SummaryModel      *string  `json:"summary_model,omitempty"`
}

// EvalPair - оценка судьей пары разговоров одного сценария
type EvalPair struct {
	ScenarioID              string  `json:"scenario_id"`
	ReferenceRunID          string  `json:"reference_run_id"`
	ComparisonRunID         string  `json:"comparison_run_id"`
	ReferenceOutputsDir     string  `json:"reference_outputs_dir,omitempty"`
	ComparisonOutputsDir    string  `json:"comparison_outputs_dir,omitempty"`
	CollaborationSimilarity float64 `json:"collaboration_similarity"`
	AlignmentA              float64 `json:"alignment_a"`
	AlignmentB              float64 `json:"alignment_b"`
	ReasoningDepth          float64 `json:"reasoning_depth"`
	ConsistencyScore        float64 `json:"consistency_score"`
	Recommendation          string  `json:"recommendation"`
	Notes                   string  `json:"notes"`
	JudgeModel              string  `json:"judge_model,omitempty"`
	SummaryModel            *string `json:"summary_model,omitempty"`
	CreatedAt               string  `json:"created_at,omitempty"`
}

type EvalReport struct {
	ID           string       `json:"id"`
	Pairs        []EvalPair   `json:"pairs"`
	Summary      *EvalSummary `json:"summary"`
	GroupCount   int          `json:"group_count,omitempty"`
	MinGroupSize int          `json:"min_group_size,omitempty"`
	Note         string       `json:"note,omitempty"`
}

// EvalListItem - элемент селектора сравнения
type EvalListItem struct {
	ID         string    `json:"id"`
	Project    string    `json:"project"`
	JudgeModel string    `json:"judge_model"`
	NumPairs   int       `json:"num_pairs"`
	CreatedAt  time.Time `json:"created_at"`
}
