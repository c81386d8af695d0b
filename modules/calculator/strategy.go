package calculator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/calculator-demo/domain/expression"
	"github.com/example/calculator-demo/modules/arithmetic"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyLocal  = "local"
	StrategyRemote = "remote"
)

// DefaultRemoteTimeout bounds a single remote operator call.
const DefaultRemoteTimeout = 5 * time.Second

// RemoteStrategy delegates each operation to the arithmetic service.
type RemoteStrategy struct {
	port    arithmetic.ArithmeticPort
	timeout time.Duration
}

var _ expression.OperatorStrategy = (*RemoteStrategy)(nil)

// NewRemoteStrategy creates a strategy calling port with a per-call timeout.
func NewRemoteStrategy(port arithmetic.ArithmeticPort, timeout time.Duration) *RemoteStrategy {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteStrategy{port: port, timeout: timeout}
}

// Apply implements expression.OperatorStrategy. Rejections from the remote
// side become evaluation errors carrying its message; transport failures
// and timeouts become internal errors.
func (s *RemoteStrategy) Apply(ctx context.Context, op expression.Operator, a, b float64) (float64, error) {
	if op == expression.OpDiv && b == 0 {
		return 0, expression.ErrDivisionByZero
	}

	operation, err := operationFor(op)
	if err != nil {
		return 0, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.port.Calculate(callCtx, operation, a, b)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: remote %s timed out after %s", expression.ErrInternal, operation, s.timeout)
		}
		return 0, fmt.Errorf("%w: remote %s failed: %v", expression.ErrInternal, operation, err)
	}

	if resp.Error != "" {
		switch resp.Code {
		case arithmetic.CodeInvalidArgument:
			return 0, &RemoteRejection{Message: resp.Error}
		case arithmetic.CodeOutOfRange:
			return 0, expression.ErrOverflow
		}
		return 0, fmt.Errorf("%w: remote %s failed: %s", expression.ErrInternal, operation, resp.Error)
	}
	return expression.Finite(resp.Result)
}

func operationFor(op expression.Operator) (arithmetic.Operation, error) {
	switch op {
	case expression.OpAdd:
		return arithmetic.OpAdd, nil
	case expression.OpSub:
		return arithmetic.OpSubtract, nil
	case expression.OpMul:
		return arithmetic.OpMultiply, nil
	case expression.OpDiv:
		return arithmetic.OpDivide, nil
	default:
		return "", fmt.Errorf("%w: unknown operator %q", expression.ErrInternal, op.String())
	}
}
