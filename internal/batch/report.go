package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stampLayout = "20060102_150405"

// WriteReport пишет отчет в dir/<prefix>_<YYYYMMDD_HHMMSS>.json.
// Если файл с такой секундой уже есть, метка сдвигается вперед.
func WriteReport(dir, prefix string, now time.Time, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}

	for attempt := 0; attempt < 60; attempt++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, now.Add(time.Duration(attempt)*time.Second).Format(stampLayout)))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("report: create: %w", err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("report: write: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("report: no free file name for %s", prefix)
}
