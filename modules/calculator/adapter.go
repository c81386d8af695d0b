package calculator

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// calculatorAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the CalculatorPort interface.
type calculatorAdapter struct {
	container mono.ServiceContainer
}

// NewCalculatorAdapter creates a new adapter for calculator services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewCalculatorAdapter(container mono.ServiceContainer) CalculatorPort {
	if container == nil {
		panic("calculator adapter requires non-nil ServiceContainer")
	}
	return &calculatorAdapter{container: container}
}

// Evaluate evaluates an expression via the evaluate service.
func (a *calculatorAdapter) Evaluate(ctx context.Context, expression string) (*domain.Calculation, error) {
	req := EvaluateRequest{Expression: expression}
	var resp EvaluateResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"evaluate",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("evaluate service call failed: %w", err)
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.Calculation == nil {
		return nil, &ServiceError{Kind: KindInternal, Message: "evaluate returned no calculation"}
	}
	return resp.Calculation, nil
}

// History lists calculations via the history service.
func (a *calculatorAdapter) History(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	req := toHistoryRequest(filter)
	var resp HistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"history",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("history service call failed: %w", err)
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.History == nil {
		resp.History = []domain.Calculation{}
	}
	return resp.History, nil
}

// Details lists the steps of a calculation via the details service.
func (a *calculatorAdapter) Details(ctx context.Context, calculationID string) ([]domain.Step, error) {
	req := DetailsRequest{CalculationID: calculationID}
	var resp DetailsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"details",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("details service call failed: %w", err)
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.Steps == nil {
		resp.Steps = []domain.Step{}
	}
	return resp.Steps, nil
}

// Latest fetches the most recent calculation via the latest service.
func (a *calculatorAdapter) Latest(ctx context.Context) (*domain.Calculation, []domain.Step, error) {
	var req LatestRequest
	var resp LatestResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"latest",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, nil, fmt.Errorf("latest service call failed: %w", err)
	}
	if err := resp.err(); err != nil {
		return nil, nil, err
	}
	if resp.Steps == nil {
		resp.Steps = []domain.Step{}
	}
	return resp.Calculation, resp.Steps, nil
}
