package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// ResultCache caches aggregate responses (Redis)
type ResultCache interface {
	// Get returns a cached response or domain.ErrNotFound on a miss
	Get(ctx context.Context, key string) (*domain.AggregateResponse, error)

	// Set stores a response for ttl
	Set(ctx context.Context, key string, resp *domain.AggregateResponse, ttl time.Duration) error
}
