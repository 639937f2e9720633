package telemetry

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the chat counters on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry     *prometheus.Registry
	attempts     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	streamErrors prometheus.Counter
	turns        *prometheus.HistogramVec
	citations    prometheus.Histogram
}

// NewMetrics registers the chat metrics plus Go/process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchchat_attempts_total",
			Help: "Streaming request attempts by configuration and outcome",
		}, []string{"model", "tool", "reasoning", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchchat_fallbacks_total",
			Help: "Ladder steps taken after a rejected request, by the step entered",
		}, []string{"step"}),
		streamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "searchchat_stream_errors_total",
			Help: "In-band error events reported by the remote stream",
		}),
		turns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "searchchat_turn_duration_seconds",
			Help:    "Time from prompt to completed response",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		}, []string{"result"}),
		citations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "searchchat_citations_per_response",
			Help:    "Citations extracted from each completed response",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		}),
	}
	reg.MustRegister(
		m.attempts, m.fallbacks, m.streamErrors, m.turns, m.citations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAttempt(model string, tool, reasoning bool, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(model, strconv.FormatBool(tool), strconv.FormatBool(reasoning), outcome).Inc()
}

func (m *Metrics) ObserveFallback(step int) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(strconv.Itoa(step)).Inc()
}

func (m *Metrics) ObserveStreamError() {
	if m == nil {
		return
	}
	m.streamErrors.Inc()
}

func (m *Metrics) ObserveTurn(d time.Duration, ok bool, citations int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.turns.WithLabelValues(result).Observe(d.Seconds())
	if ok {
		m.citations.Observe(float64(citations))
	}
}

// Serve exposes /metrics on its own port in the background. port <= 0 is a no-op.
func (m *Metrics) Serve(port int, logger *log.Logger) {
	if m == nil || port <= 0 {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()
}
