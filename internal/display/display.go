// Package display форматирует значения дашборда для текстового вывода.
// Отсутствующее значение всегда выводится как Missing.
package display

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

const Missing = "—"

// OptionalFloat форматирует *float64 с заданной точностью
func OptionalFloat(v *float64, precision int) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

// OptionalPercent: 92.3 -> "92.3%"
func OptionalPercent(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.1f%%", *v)
}

// OptionalSeconds: 2.84 -> "2.84s"
func OptionalSeconds(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2fs", *v)
}

// OptionalInt: nil -> Missing, иначе с разделителями тысяч
func OptionalInt(v *int) string {
	if v == nil {
		return Missing
	}
	return humanize.Comma(int64(*v))
}

// OptionalString: пустая строка тоже считается отсутствующей
func OptionalString(s string) string {
	if s == "" {
		return Missing
	}
	return s
}
