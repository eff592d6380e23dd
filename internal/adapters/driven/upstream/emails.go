package upstream

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmailSearcher = (*EmailClient)(nil)

// EmailsPath is the search endpoint of the email service
const EmailsPath = "/api/email/search"

// maxEmailTop is the largest page the email service returns
const maxEmailTop = 100

// EmailClient queries the mailbox search
type EmailClient struct {
	*client
}

// NewEmailClient creates an EmailClient. httpClient may be nil.
func NewEmailClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *EmailClient {
	return &EmailClient{client: newClient(string(domain.SourceEmail), cfg, httpClient, logger)}
}

type emailSearchRequest struct {
	Query string `json:"query"`
	Top   int    `json:"top"`
}

// emailSearchResponse carries the same list under "emails" and, for
// Graph compatibility, under "value"
type emailSearchResponse struct {
	Emails []*domain.EmailRecord `json:"emails"`
	Value  []*domain.EmailRecord `json:"value"`
}

// SearchEmails returns email hits in service order
func (c *EmailClient) SearchEmails(ctx context.Context, q domain.SearchQuery) ([]*domain.EmailRecord, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	top := q.Limit
	if top <= 0 || top > maxEmailTop {
		top = maxEmailTop
	}

	var resp emailSearchResponse
	if err := c.postJSON(ctx, EmailsPath, emailSearchRequest{Query: q.Query, Top: top}, &resp); err != nil {
		return nil, err
	}

	if resp.Emails != nil {
		return resp.Emails, nil
	}
	if resp.Value != nil {
		return resp.Value, nil
	}
	return []*domain.EmailRecord{}, nil
}
