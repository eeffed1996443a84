// Package snapshot собирает карточку образа жизни из текста разговора
// по набору ключевых слов. Это не классификатор: каждое правило просто
// проверяет вхождение подстроки и добавляет заготовленные пункты.
package snapshot

import (
	"strings"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

type rule struct {
	keywords []string
	theme    string // фрагмент для lifestyle overview
	goal     string
	concern  string
	focus    string
	question string
	strength string
}

var rules = []rule{
	{
		keywords: []string{"tired", "energy", "exhausted", "crash"},
		theme:    "low day-to-day energy",
		goal:     "Increase day-to-day energy within the next 3–6 months",
		concern:  "Energy dips and perceived fatigue (non-medical; lifestyle context)",
		question: "What would be the first 1–2 habits that could improve energy safely?",
	},
	{
		keywords: []string{"sleep", "bed", "midnight", "insomnia"},
		theme:    "late or irregular sleep timing",
		goal:     "Stabilize sleep timing and wind-down routine",
		concern:  "Chronic sleep restriction risk from late bedtime",
		focus:    "Sleep timing window",
		question: "Could earlier evening wind-down improve sleep quality and energy?",
	},
	{
		keywords: []string{"desk", "sitting", "laptop", "meetings"},
		theme:    "long desk hours",
		concern:  "High sitting time across the workday",
		focus:    "Workday micro-breaks",
	},
	{
		keywords: []string{"walk", "exercise", "movement", "gym", "workout"},
		theme:    "limited structured movement",
		goal:     "Reduce long-term lifestyle risk by improving movement and sleep",
		concern:  "Very low weekly movement volume",
		focus:    "Beginner strength routine",
		question: "Best way to start with short, safe strength sessions at home?",
		strength: "Willingness to improve and test small changes",
	},
	{
		keywords: []string{"coffee", "caffeine", "espresso"},
		theme:    "high afternoon caffeine",
		concern:  "High afternoon caffeine may delay wind-down",
		focus:    "Caffeine cutoff timing",
		question: "What’s a realistic caffeine cutoff to try next week?",
	},
	{
		keywords: []string{"takeout", "late", "skip breakfast", "snack"},
		theme:    "late or irregular meals",
		concern:  "Late eating may reduce perceived sleep quality",
		focus:    "Earlier protein-forward meal",
		question: "How to shift dinner earlier on workdays?",
	},
	{
		keywords: []string{"stress", "wired", "anxious", "pressure"},
		theme:    "evening stress and alertness",
		concern:  "Evening alertness despite tiredness",
		focus:    "Evening routine",
	},
}

var nonSmoker = []string{"don't smoke", "dont smoke", "do not smoke", "non-smoker", "never smoked", "does not smoke"}

// FromTranscript строит снимок для персоны и фокуса по тексту разговора
func FromTranscript(p domain.Persona, f domain.FocusArea, text string) domain.Snapshot {
	lower := strings.ToLower(text)
	name := p.Name
	if name == "" {
		name = "User"
	}
	focus := f.Title
	if focus == "" {
		focus = "Longevity"
	}

	s := domain.Snapshot{
		PrimaryGoals:      []string{},
		Strengths:         []string{},
		PotentialConcerns: []string{},
		FocusAreas:        []string{focus},
		QuestionsForCoach: []string{},
	}
	var themes []string
	for _, r := range rules {
		if !containsAny(lower, r.keywords) {
			continue
		}
		themes = append(themes, r.theme)
		s.PrimaryGoals = appendNonEmpty(s.PrimaryGoals, r.goal)
		s.PotentialConcerns = appendNonEmpty(s.PotentialConcerns, r.concern)
		s.FocusAreas = appendNonEmpty(s.FocusAreas, r.focus)
		s.QuestionsForCoach = appendNonEmpty(s.QuestionsForCoach, r.question)
		s.Strengths = appendNonEmpty(s.Strengths, r.strength)
	}

	switch {
	case containsAny(lower, nonSmoker):
		s.Strengths = append(s.Strengths, "Non-smoker")
	case strings.Contains(lower, "smoke"):
		s.PotentialConcerns = append(s.PotentialConcerns, "Smoking mentioned; explore readiness to change")
	}
	if containsAny(lower, []string{"ready to try", "want to", "motivated"}) {
		s.Strengths = append(s.Strengths, "Motivated to improve")
	}

	s.PrimaryGoals = append(s.PrimaryGoals, "Focus area: "+focus)

	if len(themes) == 0 {
		s.LifestyleOverview = name + " shared limited detail so far. Basic routines not yet clarified."
	} else {
		s.LifestyleOverview = name + " reports " + joinThemes(themes) + "."
	}
	if len(s.QuestionsForCoach) == 0 {
		s.QuestionsForCoach = append(s.QuestionsForCoach, "Which single habit should we start with for "+focus+"?")
	}
	return s
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func appendNonEmpty(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// joinThemes: "a", "a and b", "a, b and c"
func joinThemes(themes []string) string {
	switch len(themes) {
	case 1:
		return themes[0]
	case 2:
		return themes[0] + " and " + themes[1]
	}
	return strings.Join(themes[:len(themes)-1], ", ") + " and " + themes[len(themes)-1]
}
