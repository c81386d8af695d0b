package calculator

import (
	"errors"

	"github.com/example/calculator-demo/domain/expression"
)

// Error kinds reported across the service boundary and in failure events.
const (
	KindSyntax     = "syntax"
	KindEvaluation = "evaluation"
	KindInternal   = "internal"
)

// ErrorKind classifies err into one of the error kinds.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, expression.ErrSyntax):
		return KindSyntax
	case errors.Is(err, expression.ErrEvaluation):
		return KindEvaluation
	default:
		return KindInternal
	}
}

// ServiceError is an error reconstructed from a Failure. It keeps the
// failure message and unwraps to the matching expression error class.
type ServiceError struct {
	Kind    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	switch e.Kind {
	case KindSyntax:
		return expression.ErrSyntax
	case KindEvaluation:
		return expression.ErrEvaluation
	default:
		return expression.ErrInternal
	}
}

// RemoteRejection is a client error reported by the remote arithmetic
// service. Its message is passed through unchanged.
type RemoteRejection struct {
	Message string
}

func (e *RemoteRejection) Error() string {
	return e.Message
}

func (e *RemoteRejection) Unwrap() error {
	return expression.ErrEvaluation
}

func failureOf(err error) Failure {
	if err == nil {
		return Failure{}
	}
	return Failure{Error: err.Error(), Kind: ErrorKind(err)}
}

func (f Failure) err() error {
	if f.Error == "" && f.Kind == "" {
		return nil
	}
	return &ServiceError{Kind: f.Kind, Message: f.Error}
}
