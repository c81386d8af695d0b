package expression

import (
	"context"
	"fmt"
)

// Step records one binary operation performed during evaluation.
type Step struct {
	A        float64
	B        float64
	Operator Operator
	Result   float64
}

// OperatorStrategy computes the result of applying a binary operator.
// Implementations must return ErrDivisionByZero for a zero divisor.
type OperatorStrategy interface {
	Apply(ctx context.Context, op Operator, a, b float64) (float64, error)
}

// LocalStrategy applies operators with in-process arithmetic.
type LocalStrategy struct{}

var _ OperatorStrategy = LocalStrategy{}

// Apply implements OperatorStrategy.
func (LocalStrategy) Apply(_ context.Context, op Operator, a, b float64) (float64, error) {
	return op.Apply(a, b)
}

// Evaluate runs an RPN sequence against a value stack. It returns the final
// value and the steps performed in evaluation order. On failure the steps
// completed before the failing operation are returned with the error.
func Evaluate(ctx context.Context, rpn []Token, strategy OperatorStrategy) (float64, []Step, error) {
	if strategy == nil {
		strategy = LocalStrategy{}
	}

	values := make([]float64, 0, len(rpn)/2+1)
	steps := make([]Step, 0, len(rpn)/2)

	for _, tok := range rpn {
		switch tok.Kind {
		case KindNumber:
			values = append(values, tok.Value)
		case KindOperator:
			if len(values) < 2 {
				return 0, steps, ErrInsufficientOperands
			}
			b := values[len(values)-1]
			a := values[len(values)-2]
			values = values[:len(values)-2]

			result, err := strategy.Apply(ctx, tok.Op, a, b)
			if err == nil {
				result, err = Finite(result)
			}
			if err != nil {
				return 0, steps, err
			}
			steps = append(steps, Step{A: a, B: b, Operator: tok.Op, Result: result})
			values = append(values, result)
		default:
			return 0, steps, fmt.Errorf("%w: unexpected %s in RPN sequence", ErrInvalidExpression, tok.Kind)
		}
	}

	if len(values) != 1 {
		return 0, steps, ErrInvalidExpression
	}
	return values[0], steps, nil
}

// Calculate tokenizes, converts and evaluates expr in one call.
func Calculate(ctx context.Context, expr string, strategy OperatorStrategy) (float64, []Step, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return 0, nil, err
	}
	rpn, err := ToRPN(tokens)
	if err != nil {
		return 0, nil, err
	}
	return Evaluate(ctx, rpn, strategy)
}
