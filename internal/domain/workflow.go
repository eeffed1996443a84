package domain

type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepRunning StepStatus = "running"
	StepPending StepStatus = "pending"
)

// Stage - этап оркестрации LEO ↔ LUNA
type Stage struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Agent       AgentBadge `json:"responsible_agent"`
}

// WorkflowStep - этап с вычисленным статусом относительно активного индекса
type WorkflowStep struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Agent       AgentBadge `json:"responsible_agent"`
	Status      StepStatus `json:"status"`
}

var Stages = []Stage{
	{ID: "Start", Description: "Initialize context, welcome user", Agent: AgentLEO},
	{ID: "Intake", Description: "Collect routines, goals, constraints", Agent: AgentLEO},
	{ID: "PlanDraft", Description: "Generate initial plan from intake", Agent: AgentLEO},
	{ID: "PlanReview", Description: "Self-check before handoff", Agent: AgentLEO},
	{ID: "Audit", Description: "Safety + guideline audit, evidence tags", Agent: AgentLUNA},
	{ID: "Revision", Description: "Update plan using audit feedback", Agent: AgentLEO},
	{ID: "FinalPlan", Description: "Verify consistency, approve", Agent: AgentLUNA},
	{ID: "Scheduling", Description: "Create schedule for sessions", Agent: AgentLUNA},
	{ID: "FinalSummary", Description: "Explain plan and next steps", Agent: AgentLEO},
}

// StepsAt раскладывает этапы по статусам: до active - success, active - running, дальше pending.
func StepsAt(active int) []WorkflowStep {
	out := make([]WorkflowStep, len(Stages))
	for i, s := range Stages {
		status := StepPending
		switch {
		case i < active:
			status = StepSuccess
		case i == active:
			status = StepRunning
		}
		out[i] = WorkflowStep{ID: s.ID, Title: s.ID, Description: s.Description, Agent: s.Agent, Status: status}
	}
	return out
}

// AgentProfile - карточка на странице Agents
type AgentProfile struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	PromptExcerpt string `json:"prompt_excerpt"`
	Model         string `json:"model"`
}

type Tool struct {
	Name   string `json:"name"`
	By     string `json:"by"`
	Config string `json:"config"`
	Status string `json:"status"`
}

func AgentProfiles(model string) []AgentProfile {
	return []AgentProfile{
		{
			Name:          "Health Advocate",
			Role:          "Represents the user; ensures goals, budget, and safety are respected.",
			PromptExcerpt: "You are Health Advocate... (excerpt)",
			Model:         model,
		},
		{
			Name:          "Service Planner",
			Role:          "Proposes services; adheres to company eligibility and policies.",
			PromptExcerpt: "You are Service Planner... (excerpt)",
			Model:         model,
		},
	}
}

var Tools = []Tool{
	{Name: "Valyu Validator", By: "Service Planner", Config: "URL from .env / CLI", Status: "OK"},
	{Name: "Clinic Scheduler", By: "Service Planner", Config: "Mock slots (deterministic)", Status: "OK"},
	{Name: "Conversation Saver", By: "Both", Config: "Writes to data/", Status: "OK"},
	{Name: "Summarizer", By: "Pipeline", Config: "Final plan text + JSON", Status: "OK"},
}

var TestSuites = []TestSuite{
	{Name: "Consistency", File: "tests/test_consistency.py", Description: "Repeated runs produce stable plans.", Status: "unknown"},
	{Name: "Chaos", File: "tests/test_chaos.py", Description: "Fault injection resilience.", Status: "unknown"},
	{Name: "Load", File: "tests/test_load.py", Description: "Parallel conversation runs.", Status: "unknown"},
	{Name: "Role Confusion", File: "tests/test_role_confusion.py", Description: "No role flipping.", Status: "unknown"},
	{Name: "Scientific Safety", File: "tests/test_scientific_safety.py", Description: "Detect unsafe claims.", Status: "unknown"},
}
