package datasource

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

// Формат суффикса в именах каталогов и отчетов: 20250118_153012
const stampLayout = "20060102_150405"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateID отсекает пустые id, обход каталогов и посторонние символы
func ValidateID(id string) error {
	if id == "" || id == "." || strings.Contains(id, "..") || !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return nil
}

// parseStamp достает время из хвоста имени вида prefix_YYYYMMDD_HHMMSS
func parseStamp(name string) (time.Time, bool) {
	name = strings.TrimSuffix(name, ".json")
	if len(name) < len(stampLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(stampLayout, name[len(name)-len(stampLayout):], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// readJSON декодирует файл в dst. Ошибка возвращается как есть (os.ErrNotExist различим).
func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// loadOr декодирует файл, а при любой ошибке оставляет в dst значение по умолчанию
func loadOr[T any](path string, def T) T {
	var v T
	if err := readJSON(path, &v); err != nil {
		return def
	}
	return v
}
