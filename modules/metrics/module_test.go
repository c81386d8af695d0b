package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/calculator-demo/events"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func TestModule_Name(t *testing.T) {
	assert.Equal(t, "metrics", NewModule(&mockLogger{}).Name())
}

func TestModule_HandleEvaluated(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.handleEvaluated(ctx, events.CalculationEvaluatedEvent{
		CalculationID: "c1",
		Operators:     []string{"+", "-"},
		Strategy:      "local",
		Duration:      0.002,
	}, nil))
	require.NoError(t, m.handleEvaluated(ctx, events.CalculationEvaluatedEvent{
		CalculationID: "c2",
		Operators:     []string{"+"},
		Strategy:      "remote",
		Duration:      0.01,
	}, nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("+")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("-")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestModule_HandleFailed(t *testing.T) {
	m := NewModule(&mockLogger{})

	require.NoError(t, m.handleFailed(context.Background(), events.CalculationFailedEvent{
		Expression: "10/0",
		Kind:       "evaluation",
		Reason:     "division by zero",
		Strategy:   "local",
	}, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("evaluation")))
}

func TestModule_Handler(t *testing.T) {
	m := NewModule(&mockLogger{})
	require.NoError(t, m.handleEvaluated(context.Background(), events.CalculationEvaluatedEvent{
		Operators: []string{"*"},
		Strategy:  "local",
	}, nil))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `calculator_evaluations_total{outcome="success"} 1`))
	assert.True(t, strings.Contains(text, `calculator_operations_total{operator="*"} 1`))
	assert.True(t, strings.Contains(text, "calculator_evaluation_steps_bucket"))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
