// Package history persists calculations and their steps and answers
// history queries against them.
package history

import (
	"context"
	"errors"
	"strings"

	domain "github.com/example/calculator-demo/domain/calculation"
)

// ErrNotFound is returned when no calculation matches a lookup.
var ErrNotFound = errors.New("calculation not found")

// Store is the append-and-query contract every history backend implements.
// Records are never updated or deleted.
type Store interface {
	// Save inserts a calculation together with its steps atomically.
	Save(ctx context.Context, calc *domain.Calculation, steps []domain.Step) error
	// FindCalculations returns calculations matching the filter, ordered by it.
	FindCalculations(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error)
	// FindSteps returns the steps of one calculation in evaluation order.
	// An unknown id yields an empty slice.
	FindSteps(ctx context.Context, calculationID string) ([]domain.Step, error)
	// FindLatest returns the most recently created calculation or ErrNotFound.
	FindLatest(ctx context.Context) (*domain.Calculation, error)
	Ping(ctx context.Context) error
	Close() error
}

// Backend identifies a storage implementation.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// BackendFor picks the backend from a connection string: postgres URLs use
// Postgres, "memory" keeps everything in process, anything else is a SQLite
// file path.
func BackendFor(databaseURL string) Backend {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return BackendPostgres
	case databaseURL == "memory" || databaseURL == ":memory:":
		return BackendMemory
	default:
		return BackendSQLite
	}
}
