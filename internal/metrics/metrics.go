package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swanjin/go2/internal/logging"
)

// Metrics counts samples moving through the transports
type Metrics struct {
	registry    *prometheus.Registry
	published   *prometheus.CounterVec
	received    *prometheus.CounterVec
	failed      *prometheus.CounterVec
	sampleBytes *prometheus.HistogramVec
}

// New registers the sample metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "go2",
			Name:      "samples_published_total",
			Help:      "Samples serialized and handed to the transport.",
		}, []string{"topic", "transport"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "go2",
			Name:      "samples_received_total",
			Help:      "Samples decoded and stored.",
		}, []string{"topic", "transport"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "go2",
			Name:      "samples_failed_total",
			Help:      "Samples that could not be encoded, decoded or stored.",
		}, []string{"topic", "stage"}),
		sampleBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "go2",
			Name:      "sample_size_bytes",
			Help:      "Serialized sample size including the encapsulation header.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}, []string{"topic"}),
	}

	m.registry.MustRegister(
		m.published,
		m.received,
		m.failed,
		m.sampleBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Published counts a sample handed to a transport and records its size
func (m *Metrics) Published(topic, transport string, size int) {
	m.published.WithLabelValues(topic, transport).Inc()
	m.sampleBytes.WithLabelValues(topic).Observe(float64(size))
}

// Received counts a sample decoded and stored and records its size
func (m *Metrics) Received(topic, transport string, size int) {
	m.received.WithLabelValues(topic, transport).Inc()
	m.sampleBytes.WithLabelValues(topic).Observe(float64(size))
}

// Failed counts a failure at one stage (encode, publish, decode, validate, store)
func (m *Metrics) Failed(topic, stage string) {
	m.failed.WithLabelValues(topic, stage).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr, path string, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	logger.Info("Serving metrics", "address", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
