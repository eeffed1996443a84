package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/batch"
	"github.com/xela07ax/longevity-dashboard/internal/cache"
	"github.com/xela07ax/longevity-dashboard/internal/console/handler"
	"github.com/xela07ax/longevity-dashboard/internal/console/service"
	"github.com/xela07ax/longevity-dashboard/internal/datasource"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/infra/auth"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"github.com/xela07ax/longevity-dashboard/internal/repository/sqlite"
	"github.com/xela07ax/longevity-dashboard/internal/settings"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"github.com/xela07ax/longevity-dashboard/internal/voice"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	srv     *DashboardServer
	cfg     *infra.Config
	runner  *batch.Runner
	key     *rsa.PrivateKey
	dataDir string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newFixture собирает сервер на временном каталоге данных.
// secured включает RS256 проверку для мутирующих эндпоинтов.
func newFixture(t *testing.T, secured bool) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dataDir := t.TempDir()

	run := filepath.Join(dataDir, "longevity_plan_20250101_090000")
	writeFile(t, filepath.Join(run, "longevity_plan_summary.json"), `{"user_name": "Jordan Dubois", "warnings": []}`)
	writeFile(t, filepath.Join(run, "telemetry.json"), `[{"latency_s": 2}]`)
	writeFile(t, filepath.Join(run, "scientific_validity_checks.json"), `[{"claim": "a", "validity": "supported", "confidence": 0.9}]`)

	frontend := filepath.Join(dataDir, "dist")
	writeFile(t, filepath.Join(frontend, "index.html"), "<html>dashboard</html>")
	writeFile(t, filepath.Join(frontend, "assets", "app.js"), "console.log(1)")

	cfg := &infra.Config{
		Server: infra.ServerConfig{AllowedOrigin: "*"},
		Data: infra.DataConfig{
			Dir:         dataDir,
			EvalsDir:    filepath.Join(dataDir, "evals"),
			TestsDir:    filepath.Join(dataDir, "tests"),
			FrontendDir: frontend,
		},
		Batch: infra.BatchConfig{MaxConcurrency: 4, MaxRuns: 20, TurnLimit: 4, Model: "gpt-4o-mini"},
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	repo, err := sqlite.Open(context.Background(), filepath.Join(dataDir, "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	layered := cache.NewLayered(nil, time.Minute, m, logger)
	loader := handler.NewLoader(layered, datasource.NewFallback("", m, logger), logger)

	runner := batch.NewRunner(
		batch.NewMockConversation(0, 0, 1),
		cfg.Data.TestsDir,
		batch.Limits{MaxConcurrency: 4, MaxRuns: 20, TurnLimit: 4, Model: "gpt-4o-mini", RunTimeout: time.Second},
		domain.ChaosConfig{Enabled: true},
		batch.Deps{Store: repo, Notifier: layered, Metrics: m},
		logger,
	)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })

	sims := simulation.NewManager(simulation.Options{StepInterval: 10 * time.Millisecond, StageInterval: 10 * time.Millisecond}, time.Minute, m, logger)
	t.Cleanup(sims.Close)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := service.NewAuthService([]infra.OperatorUser{
		{Username: "ops", PasswordHash: string(hash), Scopes: []string{domain.ScopeBatchRun}},
	}, key, time.Hour)

	var validator auth.TokenValidator
	if secured {
		validator = auth.NewRS256Validator(&key.PublicKey)
	}

	h := Handlers{
		Auth:       handler.NewAuthHandler(authSvc, logger),
		Runs:       handler.NewRunsHandler(datasource.NewRunSource(cfg.Data.Dir, cfg.Data.TestsDir, logger), datasource.TestCatalog{}, loader, logger),
		Evals:      handler.NewEvalsHandler(datasource.NewEvalSource(cfg.Data.EvalsDir, logger), loader, logger),
		Chaos:      handler.NewChaosHandler(datasource.NewChaosSource(cfg.Data.TestsDir, logger), runner, loader, logger),
		Batches:    handler.NewBatchHandler(runner, repo, logger),
		Simulation: handler.NewSimulationHandler(sims, logger),
		Settings:   handler.NewSettingsHandler(settings.NewService(settings.NewMemoryStore(), logger), logger),
		Catalog:    handler.NewCatalogHandler(cfg.Batch.Model),
		Voice:      handler.NewVoiceHandler(voice.NewService(nil, nil, infra.VoiceConfig{}, logger), logger),
	}
	return &fixture{
		srv:     NewDashboardServer(cfg, logger, validator, m, reg, h),
		cfg:     cfg,
		runner:  runner,
		key:     key,
		dataDir: dataDir,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func TestServer_ReadEndpoints(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []domain.RunListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "Jordan Dubois", runs[0].User)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/api/runs/longevity_plan_20250101_090000", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/runs/longevity_plan_20990101_000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/metrics/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var overview domain.OverviewMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, 1, overview.RunsCount)

	for _, path := range []string{
		"/api/tests", "/api/evals", "/api/evals/compare", "/api/chaos-tests", "/api/chaos-tests/chart",
		"/api/batches", "/api/agents", "/api/tools", "/api/workflow",
		"/api/life/personas", "/api/life/focus-areas", "/api/life/agents",
		"/health", "/mocks/runs.json",
	} {
		rec = f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_UnknownAPIRoute(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestServer_CORSPreflight(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodOptions, "/api/run/parallel", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestServer_SPAFallback(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/life/simulation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard")

	rec = f.do(t, http.MethodGet, "/assets/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")
}

func TestServer_ParallelBatchPersisted(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/run/parallel", `{"concurrency": 2, "num_runs": 4, "mode": "baseline"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary domain.ParallelSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.NumRuns)
	require.NotEmpty(t, summary.BatchID)
	assert.FileExists(t, summary.ReportPath)

	rec = f.do(t, http.MethodGet, "/api/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var batches []domain.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, summary.BatchID, batches[0].ID)

	rec = f.do(t, http.MethodGet, "/api/batches/"+summary.BatchID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/run/parallel", `{"concurrency": 100, "num_runs": 4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ProtectedRoutes(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/api/tests/run", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/token", `{"username": "ops", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/token", `{"username": "ops", "password": "s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var token domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	rec = f.do(t, http.MethodPost, "/api/tests/run", `{"num_runs": 2, "concurrency": 1}`,
		"Authorization", "Bearer "+token.AccessToken)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var scheduled domain.ScheduledBatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scheduled))
	assert.True(t, scheduled.Scheduled)
	require.NoError(t, f.runner.Shutdown(context.Background()))

	// Голосовой мост не настроен
	rec = f.do(t, http.MethodPost, "/api/tts", `{"text": "hello"}`,
		"Authorization", "Bearer "+token.AccessToken)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Settings(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/settings/theme/toggle", "", handler.ClientIDHeader, "tab")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"theme":"light"`)

	rec = f.do(t, http.MethodPut, "/api/settings/theme", `{"theme": "dark"}`, handler.ClientIDHeader, "tab")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/settings/theme", "", handler.ClientIDHeader, "tab")
	assert.Contains(t, rec.Body.String(), `"theme":"dark"`)
}

func TestServer_SimulationLifecycle(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/simulations/", `{}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), simulation.RestartRoute)

	rec = f.do(t, http.MethodPost, "/api/simulations/", `{"persona": "Jordan Dubois", "focus": "Metabolic Health"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var st simulation.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.NotEmpty(t, st.SessionID)

	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/simulations/" + st.SessionID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// сессия быстрая: читаем до финального состояния
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var last simulation.State
	for !last.Done {
		require.NoError(t, conn.ReadJSON(&last))
		assert.Equal(t, st.SessionID, last.SessionID)
	}

	rec = f.do(t, http.MethodDelete, "/api/simulations/"+st.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/simulations/"+st.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodGet, "/api/runs", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/runs"`)
}
