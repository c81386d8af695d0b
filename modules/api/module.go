package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/calculator-demo/modules/arithmetic"
	"github.com/example/calculator-demo/modules/calculator"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds the HTTP server settings.
type Config struct {
	Port int
	// AllowedOrigins is a comma separated CORS origin list, "*" for any.
	AllowedOrigins string
}

// Module is the driving adapter that exposes the calculator over HTTP.
// It reaches the core through CalculatorPort and ArithmeticPort.
type Module struct {
	cfg            Config
	app            *fiber.App
	calculatorPort calculator.CalculatorPort
	arithmeticPort arithmetic.ArithmeticPort
	metrics        http.Handler
	healthChecks   map[string]mono.HealthCheckableModule
	logger         types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the API module. metricsHandler may be nil, in which
// case GET /metrics is not served.
func NewModule(cfg Config, metricsHandler http.Handler, logger types.Logger) *Module {
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "*"
	}
	return &Module{
		cfg:          cfg,
		metrics:      metricsHandler,
		healthChecks: make(map[string]mono.HealthCheckableModule),
		logger:       logger,
	}
}

func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
// The framework will call SetDependencyServiceContainer for each dependency.
func (m *Module) Dependencies() []string {
	return []string{"calculator", "arithmetic"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "calculator":
		m.calculatorPort = calculator.NewCalculatorAdapter(container)
	case "arithmetic":
		m.arithmeticPort = arithmetic.NewArithmeticAdapter(container)
	}
}

// AddHealthCheck includes module in the GET /health report.
func (m *Module) AddHealthCheck(name string, module mono.HealthCheckableModule) {
	m.healthChecks[name] = module
}

// Start builds the Fiber app and starts listening.
// Returns an error if required dependencies are not set.
func (m *Module) Start(_ context.Context) error {
	if m.calculatorPort == nil {
		return fmt.Errorf("calculatorPort dependency not set")
	}
	if m.arithmeticPort == nil {
		return fmt.Errorf("arithmeticPort dependency not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	addr := fmt.Sprintf(":%d", m.cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// newApp configures middleware and routes.
func (m *Module) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Calculator",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.setupRoutes(app)
	return app
}

func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server...")
	return m.app.ShutdownWithTimeout(10 * time.Second)
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.cfg.Port,
		},
	}
}

// errorHandler renders errors that escape the handlers, including
// fiber's own 404 and 405.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		m.logger.Error("Unhandled request error", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{Detail: message})
}
