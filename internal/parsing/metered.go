package parsing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the collectors updated by Metered.
type Metrics struct {
	Attempts *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewMetrics creates parsing collectors and registers them with reg. A nil
// reg leaves them unregistered. Collectors already registered under the same
// names are reused, so several services can share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codesearch",
			Subsystem: "parsing",
			Name:      "attempts_total",
			Help:      "Parse attempts by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "codesearch",
			Subsystem: "parsing",
			Name:      "duration_seconds",
			Help:      "Parse latency by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"outcome"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "codesearch",
			Subsystem: "parsing",
			Name:      "in_flight",
			Help:      "Parses currently running.",
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.Attempts, err = register(reg, m.Attempts); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(reg, m.InFlight); err != nil {
		return nil, err
	}
	return m, nil
}

// AttemptsMetric is the fully qualified name of the attempts counter.
var AttemptsMetric = prometheus.BuildFQName("codesearch", "parsing", "attempts_total")

// GatherOutcomes reads parse attempt counts by outcome label from g.
func GatherOutcomes(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	outcomes := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != AttemptsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return outcomes, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register parsing metrics: %w", err)
	}
	return c, nil
}

// Metered counts attempts and records latency per outcome.
type Metered struct {
	inner   Service
	metrics *Metrics
}

// NewMetered wraps inner.
func NewMetered(inner Service, m *Metrics) *Metered {
	mustInner("metrics", inner)
	if m == nil {
		panic(fmt.Errorf("%w: metrics decorator needs metrics", ErrContractViolation))
	}
	return &Metered{inner: inner, metrics: m}
}

// WithMetrics returns a Decorator that adds a Metered layer.
func WithMetrics(m *Metrics) Decorator {
	return func(inner Service) Service { return NewMetered(inner, m) }
}

// Exclusions forwards to the inner service.
func (m *Metered) Exclusions() []string { return m.inner.Exclusions() }

// SetExclusions forwards to the inner service.
func (m *Metered) SetExclusions(patterns []string) { m.inner.SetExclusions(patterns) }

// Analyzer forwards to the inner service.
func (m *Metered) Analyzer() analysis.Analyzer { return m.inner.Analyzer() }

// Unwrap returns the inner service.
func (m *Metered) Unwrap() Service { return m.inner }

// TryParse delegates and records the outcome.
func (m *Metered) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	m.metrics.InFlight.Inc()
	defer m.metrics.InFlight.Dec()

	start := time.Now()
	doc, ok := m.inner.TryParse(ctx, file)

	outcome := outcomeFailure
	if ok {
		outcome = outcomeSuccess
	}
	m.metrics.Attempts.WithLabelValues(outcome).Inc()
	m.metrics.Duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return doc, ok
}
