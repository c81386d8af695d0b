package history

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/calculator-demo/domain/calculation"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// CachedStore adds a read-through Redis cache for step details in front of
// another Store. Steps never change once written, so cached entries are
// never invalidated; they only expire.
type CachedStore struct {
	Store
	cache   *Cache
	sfGroup singleflight.Group
	logger  types.Logger
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps next with cache.
func NewCachedStore(next Store, cache *Cache, logger types.Logger) *CachedStore {
	return &CachedStore{
		Store:  next,
		cache:  cache,
		logger: logger,
	}
}

// sharedLookupTimeout bounds a store lookup shared by concurrent misses.
const sharedLookupTimeout = 10 * time.Second

func stepsKey(calculationID string) string {
	return "steps:" + calculationID
}

// Save writes through to the underlying store and primes the step cache.
func (s *CachedStore) Save(ctx context.Context, calc *domain.Calculation, steps []domain.Step) error {
	if err := s.Store.Save(ctx, calc, steps); err != nil {
		return err
	}
	if len(steps) > 0 {
		if err := s.cache.Set(ctx, stepsKey(calc.ID), steps); err != nil {
			s.logger.Warn("Failed to cache steps", "calculation_id", calc.ID, "error", err)
		}
	}
	return nil
}

// FindSteps serves from cache when possible. Concurrent misses for the same
// calculation share one store query.
func (s *CachedStore) FindSteps(ctx context.Context, calculationID string) ([]domain.Step, error) {
	key := stepsKey(calculationID)

	var cached []domain.Step
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store", "calculation_id", calculationID, "error", err)
	}
	if found {
		s.logger.Debug("Cache hit", "key", key)
		return cached, nil
	}

	// The shared lookup ignores the starting caller's cancellation; each
	// caller stops waiting when its own ctx is done.
	ch := s.sfGroup.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.Store.FindSteps(lookupCtx, calculationID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	steps, ok := res.Val.([]domain.Step)
	if !ok {
		return nil, fmt.Errorf("unexpected step lookup result %T", res.Val)
	}

	// Unknown ids are not cached so a later save is visible immediately.
	if len(steps) > 0 {
		if err := s.cache.Set(ctx, key, steps); err != nil {
			s.logger.Warn("Failed to cache steps", "calculation_id", calculationID, "error", err)
		}
	}

	out := make([]domain.Step, len(steps))
	copy(out, steps)
	return out, nil
}

// CacheStats returns the cache counters.
func (s *CachedStore) CacheStats() CacheStats {
	return s.cache.Stats()
}

// Ping checks both the store and Redis.
func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return err
	}
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying store and the Redis client.
func (s *CachedStore) Close() error {
	storeErr := s.Store.Close()
	if err := s.cache.Close(); err != nil && storeErr == nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	return storeErr
}
