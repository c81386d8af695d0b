package expression

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package wraps exactly one of them.
var (
	ErrSyntax     = errors.New("syntax error")
	ErrEvaluation = errors.New("evaluation error")
	ErrInternal   = errors.New("internal error")
)

// Syntax errors.
var (
	ErrEmptyExpression       = fmt.Errorf("%w: empty expression", ErrSyntax)
	ErrMismatchedParentheses = fmt.Errorf("%w: mismatched parentheses", ErrSyntax)
)

// Evaluation errors.
var (
	ErrDivisionByZero       = fmt.Errorf("%w: division by zero", ErrEvaluation)
	ErrInsufficientOperands = fmt.Errorf("%w: insufficient operands", ErrEvaluation)
	ErrInvalidExpression    = fmt.Errorf("%w: invalid expression", ErrEvaluation)
	ErrOverflow             = fmt.Errorf("%w: result out of range", ErrEvaluation)
)

// IsSyntax reports whether err belongs to the syntax error class.
func IsSyntax(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsEvaluation reports whether err belongs to the evaluation error class.
func IsEvaluation(err error) bool {
	return errors.Is(err, ErrEvaluation)
}

// IsClientError reports whether err was caused by the expression itself
// rather than by the service.
func IsClientError(err error) bool {
	return IsSyntax(err) || IsEvaluation(err)
}
