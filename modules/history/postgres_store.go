package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS calculations (
	id          TEXT PRIMARY KEY,
	expression  TEXT NOT NULL,
	result      DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations (created_at);
CREATE TABLE IF NOT EXISTS calculation_steps (
	id              BIGSERIAL PRIMARY KEY,
	calculation_id  TEXT NOT NULL REFERENCES calculations (id),
	seq             INTEGER NOT NULL,
	a               DOUBLE PRECISION NOT NULL,
	b               DOUBLE PRECISION NOT NULL,
	operator        TEXT NOT NULL,
	result          DOUBLE PRECISION NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculation_steps_calculation_id ON calculation_steps (calculation_id);
`

// PostgresStore persists history in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the history tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, calc *domain.Calculation, steps []domain.Step) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO calculations (id, expression, result, created_at) VALUES ($1, $2, $3, $4)`,
		calc.ID, calc.Expression, calc.Result, calc.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}

	if len(steps) > 0 {
		batch := &pgx.Batch{}
		for _, st := range steps {
			batch.Queue(
				`INSERT INTO calculation_steps (calculation_id, seq, a, b, operator, result, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				calc.ID, st.Seq, st.A, st.B, st.Operator, st.Result, st.CreatedAt.UTC(),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save steps: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindCalculations implements Store.
func (s *PostgresStore) FindCalculations(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Start != nil {
		where = append(where, "created_at >= "+arg(filter.Start.UTC()))
	}
	if filter.End != nil {
		where = append(where, "created_at <= "+arg(filter.End.UTC()))
	}
	if len(filter.Operations) > 0 {
		ors := make([]string, 0, len(filter.Operations))
		for _, op := range filter.Operations {
			ors = append(ors, "strpos(expression, "+arg(op.Symbol())+") > 0")
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	query := "SELECT id, expression, result, created_at FROM calculations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find calculations: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Calculation, 0)
	for rows.Next() {
		var c domain.Calculation
		if err := rows.Scan(&c.ID, &c.Expression, &c.Result, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calculations: %w", err)
	}
	return result, nil
}

// FindSteps implements Store.
func (s *PostgresStore) FindSteps(ctx context.Context, calculationID string) ([]domain.Step, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT calculation_id, seq, a, b, operator, result, created_at
		 FROM calculation_steps WHERE calculation_id = $1
		 ORDER BY created_at ASC, seq ASC`,
		calculationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find steps: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Step, 0)
	for rows.Next() {
		var st domain.Step
		if err := rows.Scan(&st.CalculationID, &st.Seq, &st.A, &st.B, &st.Operator, &st.Result, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		st.CreatedAt = st.CreatedAt.UTC()
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	return result, nil
}

// FindLatest implements Store.
func (s *PostgresStore) FindLatest(ctx context.Context) (*domain.Calculation, error) {
	var c domain.Calculation
	err := s.pool.QueryRow(ctx,
		`SELECT id, expression, result, created_at FROM calculations ORDER BY created_at DESC LIMIT 1`,
	).Scan(&c.ID, &c.Expression, &c.Result, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest calculation: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
