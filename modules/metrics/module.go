package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/example/calculator-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for calculator_evaluations_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Module turns calculator events into Prometheus metrics.
// It subscribes to domain events using the EventConsumerModule interface.
type Module struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	operations  *prometheus.CounterVec
	steps       prometheus.Histogram
	duration    *prometheus.HistogramVec
	logger      types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)

// NewModule creates the metrics module with its own registry.
func NewModule(logger types.Logger) *Module {
	m := &Module{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calculator_evaluations_total",
			Help: "Expressions evaluated, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calculator_evaluation_failures_total",
			Help: "Failed evaluations, by error kind.",
		}, []string{"kind"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calculator_operations_total",
			Help: "Binary operations applied, by operator.",
		}, []string{"operator"}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calculator_evaluation_steps",
			Help:    "Number of steps per successful evaluation.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calculator_evaluation_duration_seconds",
			Help:    "Evaluation latency, by operator strategy.",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		logger: logger,
	}

	m.registry.MustRegister(
		m.evaluations,
		m.failures,
		m.operations,
		m.steps,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Module) Name() string {
	return "metrics"
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Module) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Module) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.CalculationEvaluatedV1, m.handleEvaluated, m); err != nil {
		return fmt.Errorf("failed to register CalculationEvaluated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.CalculationFailedV1, m.handleFailed, m); err != nil {
		return fmt.Errorf("failed to register CalculationFailed consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "CalculationEvaluated, CalculationFailed")
	return nil
}

func (m *Module) handleEvaluated(_ context.Context, event events.CalculationEvaluatedEvent, _ *mono.Msg) error {
	m.evaluations.WithLabelValues(OutcomeSuccess).Inc()
	for _, op := range event.Operators {
		m.operations.WithLabelValues(op).Inc()
	}
	m.steps.Observe(float64(len(event.Operators)))
	m.duration.WithLabelValues(event.Strategy).Observe(event.Duration)

	m.logger.Debug("Calculation evaluated",
		"calculation_id", event.CalculationID,
		"steps", len(event.Operators),
		"persisted", event.Persisted)
	return nil
}

func (m *Module) handleFailed(_ context.Context, event events.CalculationFailedEvent, _ *mono.Msg) error {
	m.evaluations.WithLabelValues(OutcomeFailure).Inc()
	m.failures.WithLabelValues(event.Kind).Inc()
	m.duration.WithLabelValues(event.Strategy).Observe(event.Duration)

	m.logger.Debug("Calculation failed", "kind", event.Kind, "reason", event.Reason)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Metrics module started - listening for calculator events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Metrics module stopped")
	return nil
}
