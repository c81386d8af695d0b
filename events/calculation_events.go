package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// CalculationEvaluatedEvent is emitted after an expression evaluates successfully.
type CalculationEvaluatedEvent struct {
	CalculationID string    `json:"calculation_id"`
	Expression    string    `json:"expression"`
	Result        float64   `json:"result"`
	Operators     []string  `json:"operators"`
	Strategy      string    `json:"strategy"`
	Duration      float64   `json:"duration_seconds"`
	Persisted     bool      `json:"persisted"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// CalculationEvaluatedV1 is the typed event definition for successful evaluations.
// Subject: events.calculator.v1.calculation-evaluated
var CalculationEvaluatedV1 = helper.EventDefinition[CalculationEvaluatedEvent](
	"calculator", "CalculationEvaluated", "v1",
)

// CalculationFailedEvent is emitted when an expression cannot be evaluated.
// Kind is one of "syntax", "evaluation" or "internal".
type CalculationFailedEvent struct {
	Expression string    `json:"expression"`
	Kind       string    `json:"kind"`
	Reason     string    `json:"reason"`
	Strategy   string    `json:"strategy"`
	Duration   float64   `json:"duration_seconds"`
	FailedAt   time.Time `json:"failed_at"`
}

// CalculationFailedV1 is the typed event definition for failed evaluations.
// Subject: events.calculator.v1.calculation-failed
var CalculationFailedV1 = helper.EventDefinition[CalculationFailedEvent](
	"calculator", "CalculationFailed", "v1",
)
