package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/example/calculator-demo/domain/expression"
	"github.com/example/calculator-demo/modules/arithmetic"
	"github.com/example/calculator-demo/modules/calculator"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
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

// mockCalculator is a CalculatorPort with canned answers.
type mockCalculator struct {
	calc       *domain.Calculation
	history    []domain.Calculation
	steps      []domain.Step
	err        error
	lastFilter domain.HistoryFilter
	lastID     string
}

func (m *mockCalculator) Evaluate(_ context.Context, expr string) (*domain.Calculation, error) {
	if m.err != nil {
		return nil, m.err
	}
	c := *m.calc
	c.Expression = expr
	return &c, nil
}

func (m *mockCalculator) History(_ context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	m.lastFilter = filter
	return m.history, m.err
}

func (m *mockCalculator) Details(_ context.Context, id string) ([]domain.Step, error) {
	m.lastID = id
	return m.steps, m.err
}

func (m *mockCalculator) Latest(_ context.Context) (*domain.Calculation, []domain.Step, error) {
	return m.calc, m.steps, m.err
}

// mockArithmetic is an ArithmeticPort that records calls.
type mockArithmetic struct {
	calls int
	resp  *arithmetic.CalculateResponse
	err   error
}

func (m *mockArithmetic) Calculate(_ context.Context, op arithmetic.Operation, a, b float64) (*arithmetic.CalculateResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	var r float64
	switch op {
	case arithmetic.OpAdd:
		r = a + b
	case arithmetic.OpSubtract:
		r = a - b
	case arithmetic.OpMultiply:
		r = a * b
	case arithmetic.OpDivide:
		r = a / b
	}
	return &arithmetic.CalculateResponse{Result: r, Operation: op}, nil
}

// healthStub is a HealthCheckableModule with a fixed status.
type healthStub struct {
	healthy bool
}

func (h healthStub) Name() string                  { return "stub" }
func (h healthStub) Start(_ context.Context) error { return nil }
func (h healthStub) Stop(_ context.Context) error  { return nil }
func (h healthStub) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{Healthy: h.healthy}
}

var testDate = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupApp(t *testing.T, calc *mockCalculator, arith *mockArithmetic) *fiber.App {
	t.Helper()
	m := NewModule(Config{Port: 0}, nil, &mockLogger{})
	m.calculatorPort = calc
	m.arithmeticPort = arith
	return m.newApp()
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestEvaluate(t *testing.T) {
	calc := &mockCalculator{calc: &domain.Calculation{ID: "c-1", Result: 25, CreatedAt: testDate}}
	app := setupApp(t, calc, &mockArithmetic{})

	status, body := doRequest(t, app, http.MethodPost, "/calculator/evaluate", `{"expression":"100 - (50 + 25)"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "c-1", body["calculation_id"])
	assert.Equal(t, "100 - (50 + 25)", body["expression"])
	assert.Equal(t, 25.0, body["result"])
}

func TestEvaluate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"syntax", expression.ErrMismatchedParentheses, http.StatusBadRequest, expression.ErrMismatchedParentheses.Error()},
		{"evaluation", expression.ErrDivisionByZero, http.StatusBadRequest, expression.ErrDivisionByZero.Error()},
		{"overflow", &calculator.ServiceError{Kind: calculator.KindEvaluation, Message: expression.ErrOverflow.Error()}, http.StatusBadRequest, expression.ErrOverflow.Error()},
		{"remote rejection", &calculator.RemoteRejection{Message: "nope"}, http.StatusBadRequest, "nope"},
		{"service error", &calculator.ServiceError{Kind: calculator.KindSyntax, Message: "bad token"}, http.StatusBadRequest, "bad token"},
		{"internal", &calculator.ServiceError{Kind: calculator.KindInternal, Message: "db down"}, http.StatusInternalServerError, msgInternal},
		{"transport", errors.New("no responders"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, &mockCalculator{err: tt.err}, &mockArithmetic{})
			status, body := doRequest(t, app, http.MethodPost, "/calculator/evaluate", `{"expression":"x"}`)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestEvaluate_InvalidBody(t *testing.T) {
	app := setupApp(t, &mockCalculator{}, &mockArithmetic{})
	status, body := doRequest(t, app, http.MethodPost, "/calculator/evaluate", `{"expression":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidBody, body["detail"])
}

func TestHistory(t *testing.T) {
	calc := &mockCalculator{history: []domain.Calculation{
		{ID: "a", Expression: "6*7", Result: 42, CreatedAt: testDate},
		{ID: "b", Expression: "1+1", Result: 2, CreatedAt: testDate.Add(-time.Hour)},
	}}
	app := setupApp(t, calc, &mockArithmetic{})

	status, body := doRequest(t, app, http.MethodGet,
		"/calculator/history?operation_types=mul&operation_types=sum&start_date=2024-05-01&sort_by=result&sort_order=asc", "")
	require.Equal(t, http.StatusOK, status)

	history := body["history"].([]any)
	require.Len(t, history, 2)
	first := history[0].(map[string]any)
	assert.Equal(t, "a", first["calculation_id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", first["date"])

	assert.Equal(t, []domain.OperationType{domain.OperationMul, domain.OperationSum}, calc.lastFilter.Operations)
	assert.Equal(t, domain.SortByResult, calc.lastFilter.SortBy)
	assert.Equal(t, domain.SortAsc, calc.lastFilter.SortOrder)
	require.NotNil(t, calc.lastFilter.Start)
	assert.Nil(t, calc.lastFilter.End)
}

func TestHistory_EmptyIsArray(t *testing.T) {
	app := setupApp(t, &mockCalculator{}, &mockArithmetic{})
	status, body := doRequest(t, app, http.MethodGet, "/calculator/history", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["history"])
}

func TestHistory_InvalidFilter(t *testing.T) {
	for _, query := range []string{
		"start_date=yesterday",
		"end_date=2024-13-01",
		"operation_types=pow",
		"sort_by=expression",
		"sort_order=sideways",
	} {
		t.Run(query, func(t *testing.T) {
			app := setupApp(t, &mockCalculator{}, &mockArithmetic{})
			status, body := doRequest(t, app, http.MethodGet, "/calculator/history?"+query, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestDetails(t *testing.T) {
	calc := &mockCalculator{steps: []domain.Step{
		{CalculationID: "c-1", Seq: 0, A: 50, B: 25, Operator: "+", Result: 75, CreatedAt: testDate},
		{CalculationID: "c-1", Seq: 1, A: 100, B: 75, Operator: "-", Result: 25, CreatedAt: testDate.Add(time.Microsecond)},
	}}
	app := setupApp(t, calc, &mockArithmetic{})

	status, body := doRequest(t, app, http.MethodGet, "/calculator/history/c-1/details", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "c-1", calc.lastID)
	assert.Equal(t, "c-1", body["calculation_id"])

	steps := body["steps"].([]any)
	require.Len(t, steps, 2)
	first := steps[0].(map[string]any)
	assert.Equal(t, 50.0, first["a"])
	assert.Equal(t, 25.0, first["b"])
	assert.Equal(t, "+", first["operator"])
	assert.Equal(t, 75.0, first["result"])
	assert.Contains(t, first, "date")
	assert.NotContains(t, first, "seq")
}

func TestDetails_UnknownIDIsEmpty(t *testing.T) {
	app := setupApp(t, &mockCalculator{steps: []domain.Step{}}, &mockArithmetic{})
	status, body := doRequest(t, app, http.MethodGet, "/calculator/history/missing/details", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["steps"])
}

func TestLatest(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		app := setupApp(t, &mockCalculator{steps: []domain.Step{}}, &mockArithmetic{})
		status, body := doRequest(t, app, http.MethodGet, "/calculator/history/latest", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{}, body["history"])
		assert.Equal(t, []any{}, body["steps"])
	})

	t.Run("one calculation", func(t *testing.T) {
		calc := &mockCalculator{
			calc:  &domain.Calculation{ID: "c-9", Expression: "2*3", Result: 6, CreatedAt: testDate},
			steps: []domain.Step{{CalculationID: "c-9", A: 2, B: 3, Operator: "*", Result: 6, CreatedAt: testDate}},
		}
		app := setupApp(t, calc, &mockArithmetic{})
		status, body := doRequest(t, app, http.MethodGet, "/calculator/history/latest", "")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body["history"], 1)
		assert.Equal(t, "c-9", body["history"].([]any)[0].(map[string]any)["calculation_id"])
		assert.Len(t, body["steps"], 1)
	})
}

func TestBinaryOperations(t *testing.T) {
	tests := []struct {
		path       string
		body       string
		wantStatus int
		wantResult float64
		wantDetail string
	}{
		{"/calculator/add", `{"a":2,"b":3}`, http.StatusOK, 5, ""},
		{"/calculator/subtract", `{"a":2,"b":3}`, http.StatusOK, -1, ""},
		{"/calculator/multiply", `{"a":2.5,"b":4}`, http.StatusOK, 10, ""},
		{"/calculator/divide", `{"a":9,"b":2}`, http.StatusOK, 4.5, ""},
		{"/calculator/add", `{"a":-1,"b":3}`, http.StatusBadRequest, 0, msgNegativeOperand},
		{"/calculator/multiply", `{"a":1,"b":-3}`, http.StatusBadRequest, 0, msgNegativeOperand},
		{"/calculator/divide", `{"a":1,"b":0}`, http.StatusBadRequest, 0, msgDivisionByZero},
		{"/calculator/add", `{"a":1}`, http.StatusBadRequest, 0, msgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.path, tt.body), func(t *testing.T) {
			arith := &mockArithmetic{}
			app := setupApp(t, &mockCalculator{}, arith)

			status, body := doRequest(t, app, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
				assert.Zero(t, arith.calls)
				return
			}
			assert.Equal(t, tt.wantResult, body["result"])
			assert.Equal(t, 1, arith.calls)
		})
	}
}

func TestBinaryOperations_ServiceFailures(t *testing.T) {
	t.Run("rejected in band", func(t *testing.T) {
		arith := &mockArithmetic{resp: &arithmetic.CalculateResponse{Error: "invalid operation", Code: arithmetic.CodeInvalidArgument}}
		status, body := doRequest(t, setupApp(t, &mockCalculator{}, arith), http.MethodPost, "/calculator/add", `{"a":1,"b":2}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid operation", body["detail"])
	})

	t.Run("out of range", func(t *testing.T) {
		arith := &mockArithmetic{resp: &arithmetic.CalculateResponse{Error: "result out of range", Code: arithmetic.CodeOutOfRange}}
		status, body := doRequest(t, setupApp(t, &mockCalculator{}, arith), http.MethodPost, "/calculator/multiply", `{"a":1e308,"b":10}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "result out of range", body["detail"])
	})

	t.Run("internal code", func(t *testing.T) {
		arith := &mockArithmetic{resp: &arithmetic.CalculateResponse{Error: "boom", Code: arithmetic.CodeInternal}}
		status, body := doRequest(t, setupApp(t, &mockCalculator{}, arith), http.MethodPost, "/calculator/add", `{"a":1,"b":2}`)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, msgInternal, body["detail"])
	})

	t.Run("transport error", func(t *testing.T) {
		arith := &mockArithmetic{err: errors.New("timeout")}
		status, _ := doRequest(t, setupApp(t, &mockCalculator{}, arith), http.MethodPost, "/calculator/add", `{"a":1,"b":2}`)
		assert.Equal(t, http.StatusInternalServerError, status)
	})
}

func TestHealth(t *testing.T) {
	m := NewModule(Config{}, nil, &mockLogger{})
	m.calculatorPort = &mockCalculator{}
	m.arithmeticPort = &mockArithmetic{}
	m.AddHealthCheck("history", healthStub{healthy: true})
	app := m.newApp()

	status, body := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	m.AddHealthCheck("broken", healthStub{healthy: false})
	status, body = doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestMetricsRoute(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("calculator_evaluations_total 0\n"))
	})
	m := NewModule(Config{}, handler, &mockLogger{})
	app := m.newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "calculator_evaluations_total")
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t, &mockCalculator{}, &mockArithmetic{})
	status, body := doRequest(t, app, http.MethodGet, "/calculator/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["detail"])
}

func TestCORS(t *testing.T) {
	app := setupApp(t, &mockCalculator{}, &mockArithmetic{})
	req := httptest.NewRequest(http.MethodOptions, "/calculator/evaluate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestModule_StartRequiresDependencies(t *testing.T) {
	m := NewModule(Config{Port: 0}, nil, &mockLogger{})
	assert.Error(t, m.Start(context.Background()))
	assert.Equal(t, "api", m.Name())
	assert.Equal(t, []string{"calculator", "arithmetic"}, m.Dependencies())
}
