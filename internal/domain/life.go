package domain

import "strings"

type Persona struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Summary string `json:"summary"`
}

// FirstName - первое слово имени, им персона представляется в диалоге
func (p Persona) FirstName() string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "User"
	}
	first, _, _ := strings.Cut(name, " ")
	return first
}

type FocusArea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AgentBadge - LEO ведет пользователя, LUNA отвечает за аудит и расписание
type AgentBadge string

const (
	AgentLEO  AgentBadge = "LEO"
	AgentLUNA AgentBadge = "LUNA"
)

type LifeAgent struct {
	Badge       AgentBadge `json:"badge"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

var Personas = []Persona{
	{Name: "Jordan Dubois", Age: 35, Summary: "Ambitious product leader prioritizing energy, metabolic balance, and long-term vitality"},
	{Name: "Alex Sharma", Age: 63, Summary: "Older adult committed to staying active, mobile, and resilient."},
	{Name: "Sacha Silva", Age: 24, Summary: "High-stress young professional seeking better rest, energy, and recovery."},
}

var FocusAreas = []FocusArea{
	{Title: "Metabolic Health", Description: "Weight, energy, blood sugar stability, sustainable nutrition."},
	{Title: "Sleep & Recovery", Description: "Improve sleep quality, circadian rhythm, and daytime energy."},
	{Title: "Strength & Movement", Description: "Build aerobic capacity and functional strength."},
	{Title: "Cognitive Resilience", Description: "Protect focus, mood, and long term brain function."},
}

var LifeAgents = []LifeAgent{
	{
		Badge:       AgentLEO,
		Title:       "LEO — Intake & Coaching",
		Description: "User-facing intake, coaching context building, and plan drafting. Maintains friendly, supportive tone and non-medical guidance.",
	},
	{
		Badge:       AgentLUNA,
		Title:       "LUNA — Audit & Scheduling",
		Description: "Backend safety review, evidence tagging, final approval, and scheduling logistics. Clear, policy-aligned operations.",
	},
}

// FindPersona ищет персону каталога по имени (без учета регистра)
func FindPersona(name string) (Persona, bool) {
	for _, p := range Personas {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Persona{}, false
}

func FindFocusArea(title string) (FocusArea, bool) {
	for _, f := range FocusAreas {
		if strings.EqualFold(f.Title, strings.TrimSpace(title)) {
			return f, true
		}
	}
	return FocusArea{}, false
}

// Snapshot - сгенерированная карточка образа жизни для коуча (не медицинская)
type Snapshot struct {
	PrimaryGoals      []string `json:"primary_goals"`
	LifestyleOverview string   `json:"lifestyle_overview"`
	Strengths         []string `json:"strengths"`
	PotentialConcerns []string `json:"potential_concerns"`
	FocusAreas        []string `json:"focus_areas"`
	QuestionsForCoach []string `json:"questions_for_coach"`
}

type Speaker string

const (
	SpeakerAgent   Speaker = "agent"
	SpeakerPersona Speaker = "persona"
)

// Message - реплика диалога интервью
type Message struct {
	Speaker Speaker `json:"speaker"`
	Name    string  `json:"name"`
	Text    string  `json:"text"`
}
