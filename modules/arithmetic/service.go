package arithmetic

import (
	"context"
	"errors"
	"math"

	"github.com/go-monolith/mono"
)

// Validation errors.
var (
	errInvalidOperation = errors.New("invalid operation")
	errDivisionByZero   = errors.New("division by zero")
	errOutOfRange       = errors.New("result out of range")
)

// calculate handles the arithmetic.calculate service request.
func (m *Module) calculate(_ context.Context, req CalculateRequest, _ *mono.Msg) (CalculateResponse, error) {
	result, err := performOperation(req.Operation, req.A, req.B)
	if err != nil {
		code := CodeInvalidArgument
		if errors.Is(err, errOutOfRange) {
			code = CodeOutOfRange
		}
		m.logger.Debug("Rejected calculation",
			"operation", string(req.Operation),
			"a", req.A,
			"b", req.B,
			"error", err)
		return CalculateResponse{
			Operation: req.Operation,
			Error:     err.Error(),
			Code:      code,
		}, nil // Return error in response, not as Go error
	}

	return CalculateResponse{
		Result:    result,
		Operation: req.Operation,
	}, nil
}

// performOperation executes the arithmetic operation. Non-finite results
// cannot be encoded as JSON and are rejected.
func performOperation(op Operation, a, b float64) (float64, error) {
	result, err := apply(op, a, b)
	if err != nil {
		return 0, err
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, errOutOfRange
	}
	return result, nil
}

func apply(op Operation, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	case OpDivide:
		if b == 0 {
			return 0, errDivisionByZero
		}
		return a / b, nil
	default:
		return 0, errInvalidOperation
	}
}
