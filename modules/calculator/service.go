package calculator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/example/calculator-demo/domain/expression"
	"github.com/example/calculator-demo/events"
	"github.com/example/calculator-demo/modules/history"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Service runs the evaluation pipeline and answers history queries.
type Service struct {
	store        history.Store
	strategy     expression.OperatorStrategy
	strategyName string
	eventBus     mono.EventBus
	logger       types.Logger
	now          func() time.Time
}

var _ CalculatorPort = (*Service)(nil)

// NewService creates a calculator service. A nil strategy evaluates locally.
func NewService(store history.Store, strategy expression.OperatorStrategy, logger types.Logger) *Service {
	name := StrategyRemote
	if strategy == nil {
		strategy = expression.LocalStrategy{}
	}
	if _, ok := strategy.(expression.LocalStrategy); ok {
		name = StrategyLocal
	}
	return &Service{
		store:        store,
		strategy:     strategy,
		strategyName: name,
		logger:       logger,
		now:          time.Now,
	}
}

// SetEventBus enables event publishing.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

// Evaluate computes expr, stores the calculation with its steps and returns
// it. Nothing is stored when evaluation fails. A storage failure is logged
// and does not fail the evaluation.
func (s *Service) Evaluate(ctx context.Context, expr string) (*domain.Calculation, error) {
	expr = strings.TrimSpace(expr)
	started := s.now().UTC()

	value, steps, err := expression.Calculate(ctx, expr, s.strategy)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.logEvaluationFailure(expr, err)
		s.publishFailed(expr, err, elapsed)
		return nil, err
	}

	calc := &domain.Calculation{
		ID:         uuid.New().String(),
		Expression: expr,
		Result:     value,
		CreatedAt:  started,
	}

	persisted := true
	if err := s.store.Save(ctx, calc, stepRecords(calc.ID, started, steps)); err != nil {
		persisted = false
		s.logger.Error("Failed to persist calculation",
			"calculation_id", calc.ID,
			"expression", expr,
			"error", err)
	}

	s.publishEvaluated(calc, steps, elapsed, persisted)
	return calc, nil
}

// History returns stored calculations matching filter.
func (s *Service) History(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	calcs, err := s.store.FindCalculations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", expression.ErrInternal, err)
	}
	return calcs, nil
}

// Details returns the steps of one calculation in evaluation order.
func (s *Service) Details(ctx context.Context, calculationID string) ([]domain.Step, error) {
	steps, err := s.store.FindSteps(ctx, calculationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", expression.ErrInternal, err)
	}
	return steps, nil
}

// Latest returns the most recent calculation and its steps.
func (s *Service) Latest(ctx context.Context) (*domain.Calculation, []domain.Step, error) {
	calc, err := s.store.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return nil, []domain.Step{}, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", expression.ErrInternal, err)
	}

	steps, err := s.Details(ctx, calc.ID)
	if err != nil {
		return nil, nil, err
	}
	return calc, steps, nil
}

// stepRecords stamps evaluator steps for storage. Each step is one
// microsecond after the previous so time order equals evaluation order.
func stepRecords(calculationID string, started time.Time, steps []expression.Step) []domain.Step {
	records := make([]domain.Step, 0, len(steps))
	for i, st := range steps {
		records = append(records, domain.Step{
			CalculationID: calculationID,
			Seq:           i,
			A:             st.A,
			B:             st.B,
			Operator:      st.Operator.String(),
			Result:        st.Result,
			CreatedAt:     started.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return records
}

func (s *Service) logEvaluationFailure(expr string, err error) {
	if expression.IsClientError(err) {
		s.logger.Warn("Expression rejected", "expression", expr, "error", err)
		return
	}
	s.logger.Error("Expression evaluation failed", "expression", expr, "error", err)
}

func (s *Service) publishEvaluated(calc *domain.Calculation, steps []expression.Step, elapsed time.Duration, persisted bool) {
	if s.eventBus == nil {
		return
	}

	operators := make([]string, 0, len(steps))
	for _, st := range steps {
		operators = append(operators, st.Operator.String())
	}

	event := events.CalculationEvaluatedEvent{
		CalculationID: calc.ID,
		Expression:    calc.Expression,
		Result:        calc.Result,
		Operators:     operators,
		Strategy:      s.strategyName,
		Duration:      elapsed.Seconds(),
		Persisted:     persisted,
		EvaluatedAt:   calc.CreatedAt,
	}
	if err := events.CalculationEvaluatedV1.Publish(s.eventBus, event, nil); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		s.logger.Warn("Failed to publish CalculationEvaluated event", "calculation_id", calc.ID, "error", err)
	}
}

func (s *Service) publishFailed(expr string, cause error, elapsed time.Duration) {
	if s.eventBus == nil {
		return
	}

	event := events.CalculationFailedEvent{
		Expression: expr,
		Kind:       ErrorKind(cause),
		Reason:     cause.Error(),
		Strategy:   s.strategyName,
		Duration:   elapsed.Seconds(),
		FailedAt:   s.now().UTC(),
	}
	if err := events.CalculationFailedV1.Publish(s.eventBus, event, nil); err != nil {
		s.logger.Warn("Failed to publish CalculationFailed event", "expression", expr, "error", err)
	}
}
