package driven

import (
	"context"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// DocumentSearcher queries the document archive search (RAG back-end)
type DocumentSearcher interface {
	// SearchDocuments returns raw document hits in back-end order
	SearchDocuments(ctx context.Context, q domain.SearchQuery) ([]*domain.DocumentRecord, error)
}

// EmailSearcher queries the mailbox search
type EmailSearcher interface {
	// SearchEmails returns raw email hits in back-end order
	SearchEmails(ctx context.Context, q domain.SearchQuery) ([]*domain.EmailRecord, error)
}

// EntityExtractor recognises equipment, locations, fault codes etc. in a query
type EntityExtractor interface {
	// Extract returns the merged entity list for the query
	Extract(ctx context.Context, query string) ([]domain.Entity, error)
}
