package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	turns          *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	attempts       *prometheus.CounterVec
	attemptScore   prometheus.Histogram
	analyzerErrors *prometheus.CounterVec
	rollbacks      *prometheus.CounterVec
	threadWraps    *prometheus.CounterVec
	alerts         *prometheus.CounterVec

	pgStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when disabled, and
// every method is safe on a nil receiver.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "summit_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "summit_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_llm_calls_total",
			Help: "Model calls by model/op/status.",
		}, []string{"model", "op", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "summit_llm_call_duration_seconds",
			Help:    "Model call latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"model", "op", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_llm_tokens_total",
			Help: "Model tokens by model/kind.",
		}, []string{"model", "kind"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_turns_total",
			Help: "Pipeline turns by outcome.",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "summit_turn_duration_seconds",
			Help:    "Pipeline turn latency in seconds.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_attempts_total",
			Help: "Generation attempts by decision.",
		}, []string{"decision"}),
		attemptScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summit_attempt_error_score",
			Help:    "Error score per scored attempt.",
			Buckets: []float64{0, 1, 3, 5, 10, 15, 20},
		}),
		analyzerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_analyzer_errors_total",
			Help: "Analyzer failures by analyzer/kind.",
		}, []string{"analyzer", "kind"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_attempt_rollbacks_total",
			Help: "Deleted attempts by reason.",
		}, []string{"reason"}),
		threadWraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_thread_wraps_total",
			Help: "Thread wraps by reason.",
		}, []string{"reason"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_alerts_total",
			Help: "Operational alerts by sink/status.",
		}, []string{"sink", "status"}),
		pgStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "summit_db_pool",
			Help: "database/sql pool stats.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "summit_redis_up",
			Help: "Whether the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "summit_redis_ping_seconds",
			Help: "Last redis ping latency.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.turns, m.turnLatency, m.attempts, m.attemptScore,
		m.analyzerErrors, m.rollbacks, m.threadWraps, m.alerts,
		m.pgStats, m.redisUp, m.redisPing,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orUnknown(method), orUnknown(route), orUnknown(status)
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, op, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model, op, status = orUnknown(model), orUnknown(op), orUnknown(status)
	m.llmRequests.WithLabelValues(model, op, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, op, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) ObserveTurn(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	outcome = orUnknown(outcome)
	m.turns.WithLabelValues(outcome).Inc()
	m.turnLatency.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) ObserveAttempt(decision string, score int) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(orUnknown(decision)).Inc()
	if score >= 0 {
		m.attemptScore.Observe(float64(score))
	}
}

func (m *Metrics) IncAnalyzerError(analyzer, kind string) {
	if m == nil {
		return
	}
	m.analyzerErrors.WithLabelValues(orUnknown(analyzer), orUnknown(kind)).Inc()
}

func (m *Metrics) IncRollback(reason string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(orUnknown(reason)).Inc()
}

func (m *Metrics) IncThreadWrap(reason string) {
	if m == nil {
		return
	}
	m.threadWraps.WithLabelValues(orUnknown(reason)).Inc()
}

func (m *Metrics) IncAlert(sink, status string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(orUnknown(sink), orUnknown(status)).Inc()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string, interval time.Duration) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
