// Package mocks хранит статические JSON-фикстуры, которые отдаются по /mocks/*
// и используются как запасной источник, когда файловые данные недоступны.
package mocks

import (
	"embed"
	"io/fs"
)

//go:embed *.json
var files embed.FS

const (
	MetricsOverview = "metrics_overview.json"
	Runs            = "runs.json"
	RunDetailSample = "run_detail_sample.json"
	Tests           = "tests.json"
	Evals           = "evals.json"
	ChaosTests      = "chaos_tests.json"
)

// FS возвращает встроенные фикстуры
func FS() fs.FS {
	return files
}

// Read читает встроенную фикстуру по имени файла
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}
