package calculator

import (
	"context"
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
)

// CalculatorPort defines the interface for calculator operations.
// The API module depends on this port, not on the implementation.
type CalculatorPort interface {
	Evaluate(ctx context.Context, expression string) (*domain.Calculation, error)
	History(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error)
	Details(ctx context.Context, calculationID string) ([]domain.Step, error)
	// Latest returns nil and no steps when nothing has been calculated yet.
	Latest(ctx context.Context) (*domain.Calculation, []domain.Step, error)
}

// EvaluateRequest is the request for the evaluate service.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is the response from the evaluate service.
type EvaluateResponse struct {
	Calculation *domain.Calculation `json:"calculation,omitempty"`
	Failure
}

// HistoryRequest is the request for the history service.
type HistoryRequest struct {
	Operations []string   `json:"operations,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

// HistoryResponse is the response from the history service.
type HistoryResponse struct {
	History []domain.Calculation `json:"history"`
	Failure
}

// DetailsRequest is the request for the details service.
type DetailsRequest struct {
	CalculationID string `json:"calculation_id"`
}

// DetailsResponse is the response from the details service.
type DetailsResponse struct {
	CalculationID string        `json:"calculation_id"`
	Steps         []domain.Step `json:"steps"`
	Failure
}

// LatestRequest is the request for the latest service.
type LatestRequest struct{}

// LatestResponse is the response from the latest service.
type LatestResponse struct {
	Calculation *domain.Calculation `json:"calculation,omitempty"`
	Steps       []domain.Step       `json:"steps"`
	Failure
}

// Failure carries a classified error across the service boundary.
type Failure struct {
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func toHistoryRequest(f domain.HistoryFilter) HistoryRequest {
	req := HistoryRequest{
		Start:     f.Start,
		End:       f.End,
		SortBy:    string(f.SortBy),
		SortOrder: string(f.SortOrder),
	}
	for _, op := range f.Operations {
		req.Operations = append(req.Operations, string(op))
	}
	return req
}

func (r HistoryRequest) toFilter() domain.HistoryFilter {
	f := domain.HistoryFilter{
		Start:     r.Start,
		End:       r.End,
		SortBy:    domain.SortField(r.SortBy),
		SortOrder: domain.SortOrder(r.SortOrder),
	}
	if f.SortBy == "" {
		f.SortBy = domain.SortByDate
	}
	if f.SortOrder == "" {
		f.SortOrder = domain.SortDesc
	}
	for _, op := range r.Operations {
		f.Operations = append(f.Operations, domain.OperationType(op))
	}
	return f
}
