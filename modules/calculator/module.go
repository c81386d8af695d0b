package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/calculator-demo/domain/expression"
	"github.com/example/calculator-demo/events"
	"github.com/example/calculator-demo/modules/arithmetic"
	"github.com/example/calculator-demo/modules/history"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Config selects how operators are applied.
type Config struct {
	// Strategy is StrategyLocal or StrategyRemote.
	Strategy      string
	RemoteTimeout time.Duration
}

// Module is the core calculator domain module.
type Module struct {
	cfg            Config
	history        *history.Module
	arithmeticPort arithmetic.ArithmeticPort
	eventBus       mono.EventBus
	service        *Service
	logger         types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)

// NewModule creates the calculator module. Calculations are stored in the
// store owned by historyModule, which must be started first.
func NewModule(cfg Config, historyModule *history.Module, logger types.Logger) *Module {
	return &Module{
		cfg:     cfg,
		history: historyModule,
		logger:  logger,
	}
}

func (m *Module) Name() string {
	return "calculator"
}

// Dependencies lists history so it is started first; only the arithmetic
// container is used.
func (m *Module) Dependencies() []string {
	return []string{"history", "arithmetic"}
}

func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "arithmetic" {
		m.arithmeticPort = arithmetic.NewArithmeticAdapter(container)
	}
}

func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.CalculationEvaluatedV1.ToBase(),
		events.CalculationFailedV1.ToBase(),
	}
}

// Service returns the calculator service. It is nil before Start.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "evaluate", json.Unmarshal, json.Marshal, m.handleEvaluate,
	); err != nil {
		return fmt.Errorf("failed to register evaluate service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "history", json.Unmarshal, json.Marshal, m.handleHistory,
	); err != nil {
		return fmt.Errorf("failed to register history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "details", json.Unmarshal, json.Marshal, m.handleDetails,
	); err != nil {
		return fmt.Errorf("failed to register details service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "latest", json.Unmarshal, json.Marshal, m.handleLatest,
	); err != nil {
		return fmt.Errorf("failed to register latest service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.calculator.{evaluate,history,details,latest}")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	if m.history == nil || m.history.Store() == nil {
		return fmt.Errorf("history store not available")
	}

	var strategy expression.OperatorStrategy
	switch m.cfg.Strategy {
	case "", StrategyLocal:
		strategy = expression.LocalStrategy{}
	case StrategyRemote:
		if m.arithmeticPort == nil {
			return fmt.Errorf("arithmeticPort dependency not set")
		}
		strategy = NewRemoteStrategy(m.arithmeticPort, m.cfg.RemoteTimeout)
	default:
		return fmt.Errorf("unknown operator strategy %q", m.cfg.Strategy)
	}

	m.service = NewService(m.history.Store(), strategy, m.logger)
	if m.eventBus != nil {
		m.service.SetEventBus(m.eventBus)
	} else {
		m.logger.Warn("eventBus not set, events will not be published")
	}

	m.logger.Info("Calculator module started", "strategy", m.service.strategyName)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Calculator module stopped")
	return nil
}

var errNotStarted = fmt.Errorf("%w: calculator service not started", expression.ErrInternal)

func (m *Module) handleEvaluate(ctx context.Context, req EvaluateRequest, _ *mono.Msg) (EvaluateResponse, error) {
	if m.service == nil {
		return EvaluateResponse{Failure: failureOf(errNotStarted)}, nil
	}
	calc, err := m.service.Evaluate(ctx, req.Expression)
	if err != nil {
		return EvaluateResponse{Failure: failureOf(err)}, nil
	}
	return EvaluateResponse{Calculation: calc}, nil
}

func (m *Module) handleHistory(ctx context.Context, req HistoryRequest, _ *mono.Msg) (HistoryResponse, error) {
	if m.service == nil {
		return HistoryResponse{Failure: failureOf(errNotStarted)}, nil
	}
	calcs, err := m.service.History(ctx, req.toFilter())
	if err != nil {
		return HistoryResponse{Failure: failureOf(err)}, nil
	}
	return HistoryResponse{History: calcs}, nil
}

func (m *Module) handleDetails(ctx context.Context, req DetailsRequest, _ *mono.Msg) (DetailsResponse, error) {
	if m.service == nil {
		return DetailsResponse{Failure: failureOf(errNotStarted)}, nil
	}
	steps, err := m.service.Details(ctx, req.CalculationID)
	if err != nil {
		return DetailsResponse{CalculationID: req.CalculationID, Failure: failureOf(err)}, nil
	}
	return DetailsResponse{CalculationID: req.CalculationID, Steps: steps}, nil
}

func (m *Module) handleLatest(ctx context.Context, _ LatestRequest, _ *mono.Msg) (LatestResponse, error) {
	if m.service == nil {
		return LatestResponse{Failure: failureOf(errNotStarted)}, nil
	}
	calc, steps, err := m.service.Latest(ctx)
	if err != nil {
		return LatestResponse{Failure: failureOf(err)}, nil
	}
	return LatestResponse{Calculation: calc, Steps: steps}, nil
}
