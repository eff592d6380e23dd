package upstream

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EntityExtractor = (*EntityClient)(nil)

// EntitiesPath is the extraction endpoint of the entity service
const EntitiesPath = "/api/v1/extract"

// EntityClient calls the entity extraction service
type EntityClient struct {
	*client
}

// NewEntityClient creates an EntityClient. httpClient may be nil.
func NewEntityClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *EntityClient {
	return &EntityClient{client: newClient("entities", cfg, httpClient, logger)}
}

type extractRequest struct {
	Query string `json:"query"`
}

// wireEntity accepts both spellings of the canonical form
type wireEntity struct {
	Term           string  `json:"term"`
	Type           string  `json:"type"`
	CanonicalForm  string  `json:"canonicalForm"`
	CanonicalSnake string  `json:"canonical_form"`
	Weight         float64 `json:"weight"`
}

type extractResponse struct {
	Entities struct {
		Merged []wireEntity `json:"merged"`
	} `json:"entities"`
}

// Extract returns the merged entity list. Entities without a term are skipped.
func (c *EntityClient) Extract(ctx context.Context, query string) ([]domain.Entity, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var resp extractResponse
	if err := c.postJSON(ctx, EntitiesPath, extractRequest{Query: query}, &resp); err != nil {
		return nil, err
	}

	entities := make([]domain.Entity, 0, len(resp.Entities.Merged))
	for _, w := range resp.Entities.Merged {
		if strings.TrimSpace(w.Term) == "" {
			continue
		}
		canonical := w.CanonicalForm
		if canonical == "" {
			canonical = w.CanonicalSnake
		}
		entities = append(entities, domain.Entity{
			Term:          w.Term,
			Type:          w.Type,
			CanonicalForm: canonical,
			Weight:        w.Weight,
		})
	}
	return entities, nil
}
