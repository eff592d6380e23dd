package driving

import (
	"context"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// AggregationService runs the search pipeline: fan-out to the back-ends,
// normalise, tier by confidence and pre-fill a handover draft
type AggregationService interface {
	// Aggregate returns the unified result set for a query
	Aggregate(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error)
}
