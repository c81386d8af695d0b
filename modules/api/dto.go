package api

import (
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
)

// EvaluateRequest is the body of POST /calculator/evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is returned for a successful evaluation.
type EvaluateResponse struct {
	CalculationID string  `json:"calculation_id"`
	Expression    string  `json:"expression"`
	Result        float64 `json:"result"`
}

// CalculationResponse is one history entry.
type CalculationResponse struct {
	CalculationID string    `json:"calculation_id"`
	Expression    string    `json:"expression"`
	Result        float64   `json:"result"`
	Date          time.Time `json:"date"`
}

// StepResponse is one evaluation step.
type StepResponse struct {
	A        float64   `json:"a"`
	B        float64   `json:"b"`
	Operator string    `json:"operator"`
	Result   float64   `json:"result"`
	Date     time.Time `json:"date"`
}

// HistoryResponse is returned by GET /calculator/history.
type HistoryResponse struct {
	History []CalculationResponse `json:"history"`
}

// DetailsResponse is returned by GET /calculator/history/:calculation_id/details.
type DetailsResponse struct {
	CalculationID string         `json:"calculation_id"`
	Steps         []StepResponse `json:"steps"`
}

// LatestResponse is returned by GET /calculator/history/latest. History
// holds zero or one entry.
type LatestResponse struct {
	History []CalculationResponse `json:"history"`
	Steps   []StepResponse        `json:"steps"`
}

// OperandsRequest is the body of the binary arithmetic endpoints.
type OperandsRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

// ResultResponse is returned by the binary arithmetic endpoints.
type ResultResponse struct {
	Result float64 `json:"result"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules,omitempty"`
}

// ModuleHealth is one module's entry in HealthResponse.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func toCalculationResponse(c domain.Calculation) CalculationResponse {
	return CalculationResponse{
		CalculationID: c.ID,
		Expression:    c.Expression,
		Result:        c.Result,
		Date:          c.CreatedAt,
	}
}

func toStepResponses(steps []domain.Step) []StepResponse {
	out := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepResponse{
			A:        s.A,
			B:        s.B,
			Operator: s.Operator,
			Result:   s.Result,
			Date:     s.CreatedAt,
		})
	}
	return out
}
