package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
	"gorm.io/gorm"
)

// calculationRecord is the GORM model for the calculations table.
type calculationRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Expression string    `gorm:"not null"`
	Result     float64   `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (calculationRecord) TableName() string {
	return "calculations"
}

// stepRecord is the GORM model for the calculation_steps table.
type stepRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CalculationID string    `gorm:"size:36;not null;index"`
	Seq           int       `gorm:"not null"`
	A             float64   `gorm:"not null"`
	B             float64   `gorm:"not null"`
	Operator      string    `gorm:"size:1;not null"`
	Result        float64   `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (stepRecord) TableName() string {
	return "calculation_steps"
}

// GormStore persists history through GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store on top of an open GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the history tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&calculationRecord{}, &stepRecord{}); err != nil {
		return fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *GormStore) Save(ctx context.Context, calc *domain.Calculation, steps []domain.Step) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := calculationRecord{
			ID:         calc.ID,
			Expression: calc.Expression,
			Result:     calc.Result,
			CreatedAt:  calc.CreatedAt.UTC(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save calculation: %w", err)
		}
		if len(steps) == 0 {
			return nil
		}

		recs := make([]stepRecord, 0, len(steps))
		for _, st := range steps {
			recs = append(recs, stepRecord{
				CalculationID: calc.ID,
				Seq:           st.Seq,
				A:             st.A,
				B:             st.B,
				Operator:      st.Operator,
				Result:        st.Result,
				CreatedAt:     st.CreatedAt.UTC(),
			})
		}
		if err := tx.Create(&recs).Error; err != nil {
			return fmt.Errorf("failed to save steps: %w", err)
		}
		return nil
	})
}

// FindCalculations implements Store.
func (s *GormStore) FindCalculations(ctx context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	query := s.db.WithContext(ctx).Model(&calculationRecord{})

	if filter.Start != nil {
		query = query.Where("created_at >= ?", filter.Start.UTC())
	}
	if filter.End != nil {
		query = query.Where("created_at <= ?", filter.End.UTC())
	}
	if len(filter.Operations) > 0 {
		clauses := make([]string, 0, len(filter.Operations))
		args := make([]any, 0, len(filter.Operations))
		for _, op := range filter.Operations {
			clauses = append(clauses, "expression LIKE ?")
			args = append(args, "%"+op.Symbol()+"%")
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	var recs []calculationRecord
	if err := query.Order(orderClause(filter)).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find calculations: %w", err)
	}

	result := make([]domain.Calculation, 0, len(recs))
	for _, r := range recs {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// FindSteps implements Store.
func (s *GormStore) FindSteps(ctx context.Context, calculationID string) ([]domain.Step, error) {
	var recs []stepRecord
	err := s.db.WithContext(ctx).
		Where("calculation_id = ?", calculationID).
		Order("created_at ASC, seq ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find steps: %w", err)
	}

	result := make([]domain.Step, 0, len(recs))
	for _, r := range recs {
		result = append(result, domain.Step{
			CalculationID: r.CalculationID,
			Seq:           r.Seq,
			A:             r.A,
			B:             r.B,
			Operator:      r.Operator,
			Result:        r.Result,
			CreatedAt:     r.CreatedAt.UTC(),
		})
	}
	return result, nil
}

// FindLatest implements Store.
func (s *GormStore) FindLatest(ctx context.Context) (*domain.Calculation, error) {
	var rec calculationRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest calculation: %w", err)
	}
	calc := rec.toDomain()
	return &calc, nil
}

// Ping implements Store.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (r calculationRecord) toDomain() domain.Calculation {
	return domain.Calculation{
		ID:         r.ID,
		Expression: r.Expression,
		Result:     r.Result,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

// orderClause renders the ORDER BY for a filter from fixed column names only.
func orderClause(filter domain.HistoryFilter) string {
	dir := "DESC"
	if filter.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	if filter.SortBy == domain.SortByResult {
		return "result " + dir + ", created_at " + dir
	}
	return "created_at " + dir
}
