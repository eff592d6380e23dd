package normalisers

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultNormaliser = (*EmailNormaliser)(nil)

// EmailNormaliser handles hits from the mailbox search.
type EmailNormaliser struct {
	scoring domain.ScoringSettings
	links   *LinkBuilder
}

// NewEmailNormaliser creates an EmailNormaliser.
func NewEmailNormaliser(scoring domain.ScoringSettings, links *LinkBuilder) *EmailNormaliser {
	return &EmailNormaliser{scoring: scoring, links: links}
}

// Normalise converts an email record into a Result.
func (n *EmailNormaliser) Normalise(record domain.SourceRecord) (domain.Result, error) {
	e := record.Email
	if record.Kind != domain.SourceEmail || e == nil {
		return domain.Result{}, fmt.Errorf("%w: expected email record", domain.ErrMalformedRecord)
	}
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return domain.Result{}, fmt.Errorf("%w: email without id", domain.ErrMalformedRecord)
	}

	return domain.Result{
		ID:           id,
		DisplayName:  displayName(e.Subject),
		Confidence:   EmailConfidence(e, n.scoring),
		Preview:      CleanPreview(e.BodyPreview, n.scoring.PreviewLength),
		Locator:      domain.Locator{ReceivedAt: ParseReceivedAt(e.ReceivedDateTime)},
		Links:        n.links.EmailLinks(id),
		SourceKind:   domain.SourceEmail,
		SourceFields: emailFields(e),
	}, nil
}

// SourceKind returns the email kind.
func (n *EmailNormaliser) SourceKind() domain.SourceKind {
	return domain.SourceEmail
}

// Priority returns 50 - built-in normaliser.
func (n *EmailNormaliser) Priority() int {
	return 50
}

func emailFields(e *domain.EmailRecord) map[string]any {
	fields := map[string]any{
		"hasAttachments": e.HasAttachments || len(e.Attachments) > 0,
		"isRead":         e.IsRead,
	}
	if !e.From.IsZero() {
		fields["from"] = e.From.String()
	}
	putString(fields, "importance", e.Importance)
	putString(fields, "conversationId", e.ConversationID)
	putString(fields, "receivedDateTime", e.ReceivedDateTime)
	putFloat(fields, "bm25Score", e.BM25Score)
	putFloat(fields, "entityBoost", e.EntityBoost)
	putFloat(fields, "relevanceScore", e.RelevanceScore)
	if len(e.Attachments) > 0 {
		names := make([]string, 0, len(e.Attachments))
		for _, a := range e.Attachments {
			names = append(names, a.Name)
		}
		fields["attachments"] = names
	}
	if len(e.MatchedEntities) > 0 {
		fields["matchedEntities"] = append([]string(nil), e.MatchedEntities...)
	}
	return fields
}
