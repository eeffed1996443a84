// Package compare строит данные для страницы сравнения двух eval-отчетов
// и сводки chaos-прогонов.
package compare

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Metrics - оси радара и столбцы графика
var Metrics = []Metric{
	{Key: "avg_collaboration", Label: "Collaboration"},
	{Key: "avg_alignment_a", Label: "Alignment A"},
	{Key: "avg_alignment_b", Label: "Alignment B"},
	{Key: "avg_reasoning_depth", Label: "Reasoning Depth"},
	{Key: "avg_consistency", Label: "Consistency"},
}

// ScorecardRows - строки таблицы: метрики плюс количество пар
var ScorecardRows = append(append([]Metric{}, Metrics...), Metric{Key: "num_pairs", Label: "Scenario Pairs"})

type ScorecardRow struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Left  float64 `json:"left_value"`
	Right float64 `json:"right_value"`
	Diff  float64 `json:"diff"`
	// Отформатированные значения для CLI и клиентов без своей локализации
	LeftText  string `json:"left_text"`
	RightText string `json:"right_text"`
	DiffText  string `json:"diff_text"`
}

type RadarPoint struct {
	Metric string  `json:"metric"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Value достает метрику из summary. Отсутствующий summary или поле дают 0.
func Value(s *domain.EvalSummary, key string) float64 {
	if s == nil {
		return 0
	}
	var p *float64
	switch key {
	case "avg_collaboration":
		p = s.AvgCollaboration
	case "avg_alignment_a":
		p = s.AvgAlignmentA
	case "avg_alignment_b":
		p = s.AvgAlignmentB
	case "avg_reasoning_depth":
		p = s.AvgReasoningDepth
	case "avg_consistency":
		p = s.AvgConsistency
	case "num_pairs":
		if s.NumPairs != nil {
			return float64(*s.NumPairs)
		}
	}
	if p == nil {
		return 0
	}
	return *p
}

// BuildScorecard считает diff = right - left по каждой строке
func BuildScorecard(left, right *domain.EvalSummary) []ScorecardRow {
	rows := make([]ScorecardRow, 0, len(ScorecardRows))
	for _, m := range ScorecardRows {
		l, r := Value(left, m.Key), Value(right, m.Key)
		diff := r - l
		rows = append(rows, ScorecardRow{
			Key:       m.Key,
			Label:     m.Label,
			Left:      l,
			Right:     r,
			Diff:      diff,
			LeftText:  FormatValue(l),
			RightText: FormatValue(r),
			DiffText:  FormatDiff(diff),
		})
	}
	return rows
}

// Radar пуст, пока не загружены оба summary
func Radar(left, right *domain.EvalSummary) []RadarPoint {
	if left == nil || right == nil {
		return []RadarPoint{}
	}
	points := make([]RadarPoint, 0, len(Metrics))
	for _, m := range Metrics {
		points = append(points, RadarPoint{Metric: m.Label, Left: Value(left, m.Key), Right: Value(right, m.Key)})
	}
	return points
}

// FormatDiff: "+" только для положительных, два знака после запятой
func FormatDiff(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatValue: целые - с разделителями тысяч, остальное - два знака
func FormatValue(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53 {
		return humanize.Comma(int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// PickDefaultIDs выбирает пару для сравнения: запрошенные id, если они есть в списке,
// иначе первый и второй отчеты (второй равен первому, если отчет один).
func PickDefaultIDs(ids []string, left, right string) (string, string) {
	first, second := "", ""
	if len(ids) > 0 {
		first = ids[0]
		second = first
	}
	if len(ids) > 1 {
		second = ids[1]
	}
	if !contains(ids, left) {
		left = first
	}
	if !contains(ids, right) {
		right = second
	}
	return left, right
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Comparison - ответ GET /api/evals/compare
type Comparison struct {
	LeftID    string             `json:"left_id"`
	RightID   string             `json:"right_id"`
	Left      *domain.EvalReport `json:"left"`
	Right     *domain.EvalReport `json:"right"`
	Scorecard []ScorecardRow     `json:"scorecard"`
	Radar     []RadarPoint       `json:"radar"`
}

func NewComparison(leftID, rightID string, left, right *domain.EvalReport) *Comparison {
	return &Comparison{
		LeftID:    leftID,
		RightID:   rightID,
		Left:      left,
		Right:     right,
		Scorecard: BuildScorecard(summaryOf(left), summaryOf(right)),
		Radar:     Radar(summaryOf(left), summaryOf(right)),
	}
}

func summaryOf(r *domain.EvalReport) *domain.EvalSummary {
	if r == nil {
		return nil
	}
	return r.Summary
}
