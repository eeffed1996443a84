package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: время обработки HTTP запроса по шаблону маршрута
	RequestDuration *prometheus.HistogramVec

	// Fallback: сколько раз ответ собран из фикстуры /mocks
	FallbackHits *prometheus.CounterVec

	// Batch: прогоны разговоров по типу батча и результату
	BatchRuns *prometheus.CounterVec

	// Chaos: сработавшие инъекции отказов
	ChaosFaults *prometheus.CounterVec

	// Simulation: живые сессии симуляции
	ActiveSessions prometheus.Gauge

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Recorder: заполненность буфера записей (backpressure)
	RecorderBufferFill prometheus.Gauge

	// Cache: попадания и промахи по уровням
	CacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),

		FallbackHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fallback_hits_total",
			Help: "Responses served from mock fixtures.",
		}, []string{"mock"}),

		BatchRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_batch_runs_total",
			Help: "Conversation runs executed by batches.",
		}, []string{"kind", "result"}),

		ChaosFaults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_chaos_faults_total",
			Help: "Injected chaos faults by type.",
		}, []string{"type"}), // типы: network, tool, llm_bad_output

		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_simulation_sessions",
			Help: "Current number of live simulation sessions.",
		}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 0.5=half-open, 1=open).",
		}, []string{"name"}),

		RecorderBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_recorder_buffer_utilization",
			Help: "Current number of records waiting in recorder buffer.",
		}),

		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Cache lookups by layer and outcome.",
		}, []string{"layer", "outcome"}),
	}
}
