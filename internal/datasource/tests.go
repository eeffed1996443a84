package datasource

import "github.com/xela07ax/longevity-dashboard/internal/domain"

// TestCatalog - статический список тестовых наборов вкладки Tests
type TestCatalog struct{}

func (TestCatalog) List() []domain.TestSuite {
	out := make([]domain.TestSuite, len(domain.TestSuites))
	copy(out, domain.TestSuites)
	return out
}
