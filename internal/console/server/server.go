package server

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/longevity-dashboard/internal/console/handler"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/infra/auth"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap"
)

// Handlers - обработчики бизнес-доменов дашборда
type Handlers struct {
	Auth       *handler.AuthHandler       // /auth/token
	Runs       *handler.RunsHandler       // /api/runs, /api/metrics/overview, /api/tests
	Evals      *handler.EvalsHandler      // /api/evals
	Chaos      *handler.ChaosHandler      // /api/chaos-tests
	Batches    *handler.BatchHandler      // /api/batches, /api/run/parallel, /api/tests/run
	Simulation *handler.SimulationHandler // /api/simulations
	Settings   *handler.SettingsHandler   // /api/settings/theme
	Catalog    *handler.CatalogHandler    // /api/agents, /api/tools, /api/workflow, /api/life/*
	Voice      *handler.VoiceHandler      // /api/tts, /api/eleven/signed-url, /api/duo/run
}

type DashboardServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// nil - мутирующие эндпоинты открыты (демо-режим без ключей)
	authValidator auth.TokenValidator
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	h             Handlers
}

// NewDashboardServer инициализирует API дашборда со всеми зависимостями
func NewDashboardServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	h Handlers,
) *DashboardServer {
	s := &DashboardServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("dashboard-api"),
		cfg:           cfg,
		authValidator: validator,
		metrics:       m,
		gatherer:      gatherer,
		h:             h,
	}
	s.routes()
	return s
}

func (s *DashboardServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.metrics))
	r.Use(cors(s.cfg.Server.AllowedOrigin))

	// --- 2. Служебные ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/mocks/*", http.StripPrefix("/mocks/", http.FileServer(http.FS(s.mocksFS()))))
	r.Post("/auth/token", s.h.Auth.Login)

	// --- 3. Публичное чтение ---
	r.Route("/api", func(r chi.Router) {
		r.NotFound(handler.NotFound)
		r.MethodNotAllowed(handler.NotFound)

		r.Get("/runs", s.h.Runs.List)
		r.Get("/runs/{id}", s.h.Runs.Get)
		r.Get("/metrics/overview", s.h.Runs.Overview)
		r.Get("/tests", s.h.Runs.Tests)

		r.Get("/evals", s.h.Evals.List)
		r.Get("/evals/compare", s.h.Evals.Compare)
		r.Get("/evals/{id}", s.h.Evals.Get)

		r.Get("/chaos-tests", s.h.Chaos.List)
		r.Get("/chaos-tests/chart", s.h.Chaos.Chart)

		r.Get("/batches", s.h.Batches.List)
		r.Get("/batches/{id}", s.h.Batches.Get)

		r.Get("/agents", s.h.Catalog.Agents)
		r.Get("/tools", s.h.Catalog.Tools)
		r.Get("/workflow", s.h.Catalog.Workflow)
		r.Get("/life/personas", s.h.Catalog.Personas)
		r.Get("/life/focus-areas", s.h.Catalog.FocusAreas)
		r.Get("/life/agents", s.h.Catalog.LifeAgents)

		// Симуляция и настройки - состояние одной вкладки, токен не нужен
		r.Route("/simulations", func(r chi.Router) {
			r.Post("/", s.h.Simulation.Create)
			r.Get("/{id}", s.h.Simulation.Get)
			r.Delete("/{id}", s.h.Simulation.Stop)
			r.Get("/{id}/stream", s.h.Simulation.Stream)
		})
		r.Get("/settings/theme", s.h.Settings.GetTheme)
		r.Put("/settings/theme", s.h.Settings.PutTheme)
		r.Post("/settings/theme/toggle", s.h.Settings.ToggleTheme)

		r.Post("/duo/run", s.h.Voice.Duo)

		// --- 4. Защищенный периметр: запуск батчей и платные внешние вызовы ---
		r.Group(func(r chi.Router) {
			if s.authValidator != nil {
				r.Use(auth.NewMiddleware(s.authValidator, domain.ScopeBatchRun, s.logger))
			}
			r.Post("/tests/run", s.h.Batches.Schedule)
			r.Post("/run/parallel", s.h.Batches.RunParallel)
			r.Post("/chaos-tests/run", s.h.Chaos.Run)
			r.Post("/tts", s.h.Voice.TTS)
			r.Post("/eleven/signed-url", s.h.Voice.SignedURL)
		})
	})

	// --- 5. SPA: файл сборки, иначе index.html для клиентского роутинга ---
	r.NotFound(s.spa)
}

func (s *DashboardServer) mocksFS() fs.FS {
	if dir := s.cfg.Data.MocksDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(dir)
		}
		s.logger.Warn("mocks dir not found, serving embedded fixtures", zap.String("dir", dir))
	}
	return mocks.FS()
}

func (s *DashboardServer) spa(w http.ResponseWriter, r *http.Request) {
	root := s.cfg.Data.FrontendDir
	if root == "" || r.Method != http.MethodGet {
		handler.NotFound(w, r)
		return
	}
	rel := filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+r.URL.Path)), "/"))
	target := filepath.Join(root, rel)
	if st, err := os.Stat(target); err == nil && !st.IsDir() {
		http.ServeFile(w, r, target)
		return
	}
	index := filepath.Join(root, "index.html")
	if _, err := os.Stat(index); err != nil {
		handler.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

// ServeHTTP позволяет использовать DashboardServer как стандартный http.Handler
func (s *DashboardServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
