package simulation

import (
	"math"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

type RunMetrics struct {
	ElapsedS             float64 `json:"elapsed_s"`
	MessagesShown        int     `json:"messages_shown"`
	SnapshotCompleteness int     `json:"snapshot_completeness_pct"`
	FlowProgress         int     `json:"flow_progress_pct"`
}

type QualitySignals struct {
	EvidenceCoverage string `json:"evidence_coverage"`
	PlanItems        int    `json:"plan_items"`
	Warnings         int    `json:"warnings"`
}

// State - то, что видит экран симуляции в конкретный момент
type State struct {
	SessionID  string                `json:"session_id"`
	Persona    domain.Persona        `json:"persona"`
	Focus      domain.FocusArea      `json:"focus"`
	StepIndex  int                   `json:"step_index"`
	StepCount  int                   `json:"step_count"`
	StageIndex int                   `json:"stage_index"`
	Stage      string                `json:"stage"`
	Messages   []domain.Message      `json:"messages"`
	Snapshot   domain.Snapshot       `json:"snapshot"`
	Workflow   []domain.WorkflowStep `json:"workflow"`
	Metrics    RunMetrics            `json:"metrics"`
	Quality    QualitySignals        `json:"quality"`
	Done       bool                  `json:"done"`
}

// BuildState вычисляет состояние по индексам. Индексы зажимаются в границы сценария.
func BuildState(steps []Step, stepIdx, stageIdx int, elapsedS float64) State {
	lastStep := len(steps) - 1
	lastStage := len(domain.Stages) - 1
	stepIdx = clamp(stepIdx, 0, lastStep)
	stageIdx = clamp(stageIdx, 0, lastStage)

	var messages []domain.Message
	for _, s := range steps[:stepIdx+1] {
		messages = append(messages, s.Messages...)
	}
	snap := steps[stepIdx].Snapshot

	coverage := "Collecting context"
	if stepIdx >= 3 {
		coverage = "Improving"
	}

	return State{
		StepIndex:  stepIdx,
		StepCount:  len(steps),
		StageIndex: stageIdx,
		Stage:      domain.Stages[stageIdx].ID,
		Messages:   messages,
		Snapshot:   snap,
		Workflow:   domain.StepsAt(stageIdx),
		Metrics: RunMetrics{
			ElapsedS:             math.Round(elapsedS*10) / 10,
			MessagesShown:        len(messages),
			SnapshotCompleteness: percent(stepIdx+1, len(steps)),
			FlowProgress:         percent(stageIdx+1, len(domain.Stages)),
		},
		Quality: QualitySignals{
			EvidenceCoverage: coverage,
			PlanItems:        min(3, stepIdx+1),
			Warnings:         len(snap.PotentialConcerns),
		},
		Done: stepIdx == lastStep && stageIdx == lastStage,
	}
}

func percent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
