package api

import (
	"errors"
	"strings"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/example/calculator-demo/domain/expression"
	"github.com/example/calculator-demo/modules/arithmetic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Client-facing validation messages of the arithmetic endpoints.
const (
	msgNegativeOperand = "Negative numbers are not allowed"
	msgDivisionByZero  = "Division by zero is not allowed"
	msgInvalidBody     = "Invalid request body"
	msgInternal        = "Internal server error"
)

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)
	if m.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.metrics))
	}

	calc := app.Group("/calculator")
	calc.Post("/evaluate", m.evaluate)

	// latest is registered before the parameterized route
	calc.Get("/history", m.listHistory)
	calc.Get("/history/latest", m.latest)
	calc.Get("/history/:calculation_id/details", m.details)

	calc.Post("/add", m.binaryOperation(arithmetic.OpAdd))
	calc.Post("/subtract", m.binaryOperation(arithmetic.OpSubtract))
	calc.Post("/multiply", m.binaryOperation(arithmetic.OpMultiply))
	calc.Post("/divide", m.binaryOperation(arithmetic.OpDivide))
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "healthy", Modules: make(map[string]ModuleHealth, len(m.healthChecks))}
	for name, module := range m.healthChecks {
		h := module.Health(c.Context())
		resp.Modules[name] = ModuleHealth{Healthy: h.Healthy, Message: h.Message, Details: h.Details}
		if !h.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// evaluate handles POST /calculator/evaluate.
func (m *Module) evaluate(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: msgInvalidBody})
	}

	calc, err := m.calculatorPort.Evaluate(c.Context(), req.Expression)
	if err != nil {
		return m.writeError(c, err)
	}

	return c.JSON(EvaluateResponse{
		CalculationID: calc.ID,
		Expression:    calc.Expression,
		Result:        calc.Result,
	})
}

// listHistory handles GET /calculator/history.
func (m *Module) listHistory(c *fiber.Ctx) error {
	filter, err := domain.ParseHistoryFilter(
		operationTypesQuery(c),
		c.Query("start_date"),
		c.Query("end_date"),
		c.Query("sort_by"),
		c.Query("sort_order"),
	)
	if err != nil {
		return m.writeError(c, err)
	}

	calcs, err := m.calculatorPort.History(c.Context(), filter)
	if err != nil {
		return m.writeError(c, err)
	}

	history := make([]CalculationResponse, 0, len(calcs))
	for _, calc := range calcs {
		history = append(history, toCalculationResponse(calc))
	}
	return c.JSON(HistoryResponse{History: history})
}

// details handles GET /calculator/history/:calculation_id/details.
func (m *Module) details(c *fiber.Ctx) error {
	id := c.Params("calculation_id")

	steps, err := m.calculatorPort.Details(c.Context(), id)
	if err != nil {
		return m.writeError(c, err)
	}

	return c.JSON(DetailsResponse{
		CalculationID: id,
		Steps:         toStepResponses(steps),
	})
}

// latest handles GET /calculator/history/latest.
func (m *Module) latest(c *fiber.Ctx) error {
	calc, steps, err := m.calculatorPort.Latest(c.Context())
	if err != nil {
		return m.writeError(c, err)
	}

	history := make([]CalculationResponse, 0, 1)
	if calc != nil {
		history = append(history, toCalculationResponse(*calc))
	}
	return c.JSON(LatestResponse{
		History: history,
		Steps:   toStepResponses(steps),
	})
}

// binaryOperation handles POST /calculator/{add,subtract,multiply,divide}.
func (m *Module) binaryOperation(op arithmetic.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req OperandsRequest
		if err := c.BodyParser(&req); err != nil || req.A == nil || req.B == nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: msgInvalidBody})
		}

		a, b := *req.A, *req.B
		if a < 0 || b < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: msgNegativeOperand})
		}
		if op == arithmetic.OpDivide && b == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: msgDivisionByZero})
		}

		resp, err := m.arithmeticPort.Calculate(c.Context(), op, a, b)
		if err != nil {
			return m.writeError(c, err)
		}
		if resp.Error != "" {
			if resp.Code == arithmetic.CodeInvalidArgument || resp.Code == arithmetic.CodeOutOfRange {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: resp.Error})
			}
			m.logger.Error("Arithmetic service failed", "operation", string(op), "error", resp.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: msgInternal})
		}

		return c.JSON(ResultResponse{Result: resp.Result})
	}
}

// writeError maps err to a status code. Syntax, evaluation and filter
// errors are the caller's fault and carry their message; anything else is
// logged and reported as a generic 500.
func (m *Module) writeError(c *fiber.Ctx, err error) error {
	if expression.IsClientError(err) || errors.Is(err, domain.ErrInvalidFilter) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: err.Error()})
	}

	m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: msgInternal})
}

// operationTypesQuery accepts both repeated and comma separated
// operation_types parameters.
func operationTypesQuery(c *fiber.Ctx) string {
	values := c.Context().QueryArgs().PeekMulti("operation_types")
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ",")
}
