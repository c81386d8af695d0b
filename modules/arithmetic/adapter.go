package arithmetic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// arithmeticAdapter wraps ServiceContainer for type-safe cross-module communication.
type arithmeticAdapter struct {
	container mono.ServiceContainer
}

// NewArithmeticAdapter creates an ArithmeticPort over the arithmetic
// module's service container.
func NewArithmeticAdapter(container mono.ServiceContainer) ArithmeticPort {
	if container == nil {
		panic("arithmetic adapter requires non-nil ServiceContainer")
	}
	return &arithmeticAdapter{container: container}
}

// Calculate calls the calculate service. A non-nil error means the call
// itself failed; a rejected operation is reported in the response.
func (a *arithmeticAdapter) Calculate(ctx context.Context, op Operation, x, y float64) (*CalculateResponse, error) {
	req := CalculateRequest{Operation: op, A: x, B: y}
	var resp CalculateResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"calculate",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("calculate service call failed: %w", err)
	}
	return &resp, nil
}
