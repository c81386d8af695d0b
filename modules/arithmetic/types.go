package arithmetic

import "context"

// Operation names a binary arithmetic operation.
type Operation string

// Supported operations.
const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
)

// Error codes carried in CalculateResponse.Code.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeOutOfRange      = "out_of_range"
	CodeInternal        = "internal"
)

// CalculateRequest is the request for the calculate service.
type CalculateRequest struct {
	Operation Operation `json:"operation"`
	A         float64   `json:"a"`
	B         float64   `json:"b"`
}

// CalculateResponse is the response from the calculate service. Failures
// are reported in Error and Code rather than as transport errors.
type CalculateResponse struct {
	Result    float64   `json:"result"`
	Operation Operation `json:"operation"`
	Error     string    `json:"error,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// ArithmeticPort is the interface other modules use to reach the
// arithmetic service.
type ArithmeticPort interface {
	Calculate(ctx context.Context, op Operation, a, b float64) (*CalculateResponse, error)
}
