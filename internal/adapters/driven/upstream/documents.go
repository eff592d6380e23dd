package upstream

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentSearcher = (*DocumentClient)(nil)

// DocumentsPath is the search endpoint of the document service
const DocumentsPath = "/api/v1/search"

// DocumentClient queries the document archive search
type DocumentClient struct {
	*client
}

// NewDocumentClient creates a DocumentClient. httpClient may be nil.
func NewDocumentClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *DocumentClient {
	return &DocumentClient{client: newClient(string(domain.SourceDocument), cfg, httpClient, logger)}
}

type documentSearchRequest struct {
	Query   string `json:"query"`
	YachtID string `json:"yacht_id,omitempty"`
	Limit   int    `json:"limit"`
}

// documentSearchResponse accepts both envelopes the service has used
type documentSearchResponse struct {
	Results   []*domain.DocumentRecord `json:"results"`
	Documents []*domain.DocumentRecord `json:"documents"`
}

// SearchDocuments returns document hits in service order
func (c *DocumentClient) SearchDocuments(ctx context.Context, q domain.SearchQuery) ([]*domain.DocumentRecord, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var resp documentSearchResponse
	err := c.postJSON(ctx, DocumentsPath, documentSearchRequest{
		Query:   q.Query,
		YachtID: q.YachtID,
		Limit:   q.Limit,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Results != nil {
		return resp.Results, nil
	}
	if resp.Documents != nil {
		return resp.Documents, nil
	}
	return []*domain.DocumentRecord{}, nil
}
