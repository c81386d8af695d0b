package calculation

import "time"

// Calculation is the persisted record of one successful evaluation.
type Calculation struct {
	ID         string    `json:"calculation_id"`
	Expression string    `json:"expression"`
	Result     float64   `json:"result"`
	CreatedAt  time.Time `json:"date"`
}

// Step is one binary operation performed while evaluating a Calculation.
// Seq is the 0-based position of the operation in evaluation order.
type Step struct {
	CalculationID string    `json:"calculation_id"`
	Seq           int       `json:"seq"`
	A             float64   `json:"a"`
	B             float64   `json:"b"`
	Operator      string    `json:"operator"`
	Result        float64   `json:"result"`
	CreatedAt     time.Time `json:"date"`
}
