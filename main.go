package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/calculator-demo/modules/api"
	"github.com/example/calculator-demo/modules/arithmetic"
	"github.com/example/calculator-demo/modules/calculator"
	"github.com/example/calculator-demo/modules/history"
	"github.com/example/calculator-demo/modules/metrics"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Calculator Demo - RPN Evaluation Service ===")

	cfg := loadConfig()

	// Only ERROR quiets the default output.
	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if strings.EqualFold(cfg.logLevel, "ERROR") {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	historyModule := history.NewModule(cfg.history, logger.WithModule("history"))
	metricsModule := metrics.NewModule(logger.WithModule("metrics"))
	apiModule := api.NewModule(cfg.api, metricsModule.Handler(), logger.WithModule("api"))
	apiModule.AddHealthCheck("history", historyModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - history: Calculation store (SQLite, Postgres or memory, optional Redis cache)
	// - arithmetic: Binary operation service used by the remote strategy
	// - metrics: Event consumer (Prometheus)
	// - calculator: Core domain (evaluates, persists, emits events)
	// - api: Driving adapter (Fiber HTTP server)
	app.Register(historyModule)
	app.Register(arithmetic.NewModule(logger.WithModule("arithmetic")))
	app.Register(metricsModule)
	app.Register(calculator.NewModule(cfg.calculator, historyModule, logger.WithModule("calculator")))
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

type config struct {
	logLevel   string
	history    history.Config
	calculator calculator.Config
	api        api.Config
}

func loadConfig() config {
	return config{
		logLevel: getEnv("LOG_LEVEL", "INFO"),
		history: history.Config{
			DatabaseURL: getEnv("DATABASE_URL", "calculator.db"),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
			CachePrefix: getEnv("CACHE_PREFIX", "calculator:"),
			CacheTTL:    getEnvDuration("CACHE_TTL", 10*time.Minute),
			DBDebug:     getEnvBool("DB_DEBUG", false),
		},
		calculator: calculator.Config{
			Strategy:      getEnv("OPERATOR_STRATEGY", calculator.StrategyLocal),
			RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", calculator.DefaultRemoteTimeout),
		},
		api: api.Config{
			Port:           getEnvInt("HTTP_PORT", 8089),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
	}
}

func printStartupInfo(cfg config) {
	cache := "disabled"
	if cfg.history.RedisAddr != "" {
		cache = cfg.history.RedisAddr
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber")
	log.Printf("  - History Backend: %s", history.BackendFor(cfg.history.DatabaseURL))
	log.Printf("  - Step Cache: %s", cache)
	log.Printf("  - Operator Strategy: %s", cfg.calculator.Strategy)
	log.Println("")
	log.Println("Event-Driven Metrics:")
	log.Println("  - CalculationEvaluated events -> metrics module")
	log.Println("  - CalculationFailed events -> metrics module")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.api.Port)
	log.Println("  POST   /calculator/evaluate                         - Evaluate an expression")
	log.Println("  GET    /calculator/history                          - List calculations")
	log.Println("  GET    /calculator/history/latest                   - Latest calculation with steps")
	log.Println("  GET    /calculator/history/:calculation_id/details  - Steps of a calculation")
	log.Println("  POST   /calculator/{add,subtract,multiply,divide}   - Binary operations")
	log.Println("  GET    /health                                      - Health check")
	log.Println("  GET    /metrics                                     - Prometheus metrics")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}
