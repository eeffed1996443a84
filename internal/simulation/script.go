package simulation

import (
	"fmt"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

const IntakeAgentName = "Intake Agent"

// Step - шаг сценария: пара реплик и снимок, накопленный к этому моменту
type Step struct {
	ID       int              `json:"id"`
	Messages []domain.Message `json:"messages"`
	Snapshot domain.Snapshot  `json:"snapshot"`
}

// Script собирает пять шагов интервью под выбранную персону и фокус
func Script(p domain.Persona, f domain.FocusArea) []Step {
	name := p.Name
	if name == "" {
		name = "User"
	}
	focus := f.Title
	if focus == "" {
		focus = "Longevity"
	}

	agent := func(text string) domain.Message {
		return domain.Message{Speaker: domain.SpeakerAgent, Name: IntakeAgentName, Text: text}
	}
	persona := func(text string) domain.Message {
		return domain.Message{Speaker: domain.SpeakerPersona, Name: name, Text: text}
	}
	goals := func() []string {
		return []string{
			"Increase day-to-day energy within the next 3–6 months",
			"Reduce long-term lifestyle risk by improving movement and sleep",
			"Focus area: " + focus,
		}
	}

	return []Step{
		{
			ID: 0,
			Messages: []domain.Message{
				agent("Thanks for taking time to do this. I’m a longevity intake assistant, here to understand your daily routines and long-term goals so a human coach can make the most of your session. To start, in your own words, what matters most to you right now?"),
				persona(fmt.Sprintf("I’m %s, and I’m just tired all the time. I work long days at my desk and by the evening I crash on the sofa. I don’t want this to catch up with me later.", p.FirstName())),
			},
			Snapshot: domain.Snapshot{
				PrimaryGoals:      goals(),
				LifestyleOverview: name + " works long desk hours and reports low evening energy. Basic routines not yet clarified.",
				Strengths:         []string{},
				PotentialConcerns: []string{"Energy dips and perceived fatigue (non-medical; lifestyle context)"},
				FocusAreas:        []string{focus},
				QuestionsForCoach: []string{"What would be the first 1–2 habits that could improve energy safely?"},
			},
		},
		{
			ID: 1,
			Messages: []domain.Message{
				agent("Can you walk me through a typical weekday—wake time, work pattern, and bedtime?"),
				persona("Up around 7:30, coffee, straight to my laptop by 8. Mostly meetings until late afternoon. I often work until 7:30–8:00 pm and go to bed around midnight."),
			},
			Snapshot: domain.Snapshot{
				PrimaryGoals:      goals(),
				LifestyleOverview: "Weekdays: 7:30 wake, desk work 8:00–19:30, bedtime near midnight; extended sitting and late cutoff from work.",
				Strengths:         []string{},
				PotentialConcerns: []string{
					"Chronic sleep restriction risk from late bedtime",
					"High sitting time across the workday",
				},
				FocusAreas:        []string{focus, "Sleep timing window", "Workday micro-breaks"},
				QuestionsForCoach: []string{"Could earlier evening wind-down improve sleep quality and energy?"},
			},
		},
		{
			ID: 2,
			Messages: []domain.Message{
				agent("How much movement do you usually get in a normal week? Any structured exercise?"),
				persona("Barely any during the week. Sometimes a short walk on weekends, maybe 30 minutes."),
			},
			Snapshot: domain.Snapshot{
				PrimaryGoals:      goals(),
				LifestyleOverview: "Minimal weekday movement; occasional short weekend walk. No current strength or aerobic practice.",
				Strengths:         []string{"Willingness to improve and test small changes"},
				PotentialConcerns: []string{"Very low weekly movement volume"},
				FocusAreas:        []string{"Strength & Movement", "Light daily steps", "Beginner strength routine"},
				QuestionsForCoach: []string{"Best way to start with short, safe strength sessions at home?"},
			},
		},
		{
			ID: 3,
			Messages: []domain.Message{
				agent("Tell me about nutrition and stress—typical meals, late eating, caffeine, or pressure during the day."),
				persona("I often skip breakfast and eat takeout late. Lots of afternoon coffee. I feel wired at night even when I’m tired."),
			},
			Snapshot: domain.Snapshot{
				PrimaryGoals:      goals(),
				LifestyleOverview: "Frequent late meals and high afternoon caffeine; evening alertness despite overall tiredness.",
				Strengths:         []string{"Does not smoke", "Alcohol likely modest or occasional"},
				PotentialConcerns: []string{
					"Late eating may reduce perceived sleep quality",
					"High afternoon caffeine may delay wind-down",
				},
				FocusAreas: []string{"Evening routine", "Earlier protein-forward meal", "Caffeine cutoff timing"},
				QuestionsForCoach: []string{
					"How to shift dinner earlier on workdays?",
					"What’s a realistic caffeine cutoff to try next week?",
				},
			},
		},
		{
			ID: 4,
			Messages: []domain.Message{
				agent("Thanks, I’ll compile a simple intake snapshot for your coach. We’ll focus on a few habits you can practice safely."),
				persona("Great—short, doable steps would help a lot. I’m ready to try."),
			},
			Snapshot: domain.Snapshot{
				PrimaryGoals:      goals(),
				LifestyleOverview: "Long desk days, late bedtime, minimal weekday movement, late takeout, high afternoon caffeine.",
				Strengths:         []string{"Motivated to improve", "Non-smoker", "Willing to test small changes"},
				PotentialConcerns: []string{
					"High sitting time and very low weekly movement",
					"Late eating and caffeine timing may affect perceived sleep quality",
				},
				FocusAreas: []string{
					"Two 20–25 min beginner strength sessions/week",
					"Light daily steps or movement snacks",
					"Wind-down routine + earlier dinner where possible",
				},
				QuestionsForCoach: []string{
					"Confirm safe progression for strength routine",
					"Adjust evening routine and meal timing to fit work constraints",
				},
			},
		},
	}
}

// Transcript склеивает реплики шагов в текст "Имя: реплика" построчно
func Transcript(steps []Step) string {
	var out []byte
	for _, s := range steps {
		for _, m := range s.Messages {
			out = fmt.Appendf(out, "%s: %s\n", m.Name, m.Text)
		}
	}
	return string(out)
}
