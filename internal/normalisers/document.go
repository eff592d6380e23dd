package normalisers

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultNormaliser = (*DocumentNormaliser)(nil)

// DocumentNormaliser handles hits from the document archive search.
type DocumentNormaliser struct {
	scoring domain.ScoringSettings
	links   *LinkBuilder
}

// NewDocumentNormaliser creates a DocumentNormaliser.
func NewDocumentNormaliser(scoring domain.ScoringSettings, links *LinkBuilder) *DocumentNormaliser {
	return &DocumentNormaliser{scoring: scoring, links: links}
}

// Normalise converts a document record into a Result.
func (n *DocumentNormaliser) Normalise(record domain.SourceRecord) (domain.Result, error) {
	d := record.Document
	if record.Kind != domain.SourceDocument || d == nil {
		return domain.Result{}, fmt.Errorf("%w: expected document record", domain.ErrMalformedRecord)
	}

	id := d.Identifier()
	if id == "" {
		return domain.Result{}, fmt.Errorf("%w: document without id", domain.ErrMalformedRecord)
	}

	preview := d.Snippet
	if strings.TrimSpace(preview) == "" {
		preview = d.Content
	}

	return domain.Result{
		ID:           id,
		DisplayName:  displayName(d.Title, d.Filename),
		Confidence:   DocumentConfidence(d, n.scoring),
		Preview:      CleanPreview(preview, n.scoring.PreviewLength),
		Locator:      domain.Locator{Page: d.Page},
		Links:        n.links.DocumentLinks(id, d.Page, d.Path),
		SourceKind:   domain.SourceDocument,
		SourceFields: documentFields(d),
	}, nil
}

// SourceKind returns the document kind.
func (n *DocumentNormaliser) SourceKind() domain.SourceKind {
	return domain.SourceDocument
}

// Priority returns 50 - built-in normaliser.
func (n *DocumentNormaliser) Priority() int {
	return 50
}

func documentFields(d *domain.DocumentRecord) map[string]any {
	fields := make(map[string]any)
	putString(fields, "solutionId", d.SolutionID)
	putString(fields, "title", d.Title)
	putString(fields, "filename", d.Filename)
	putString(fields, "path", d.Path)
	putString(fields, "mimeType", d.MimeType)
	putFloat(fields, "matchRatio", d.MatchRatio)
	putFloat(fields, "relevanceScore", d.RelevanceScore)
	putFloat(fields, "score", d.Score)
	if len(d.EntityMatches) > 0 {
		fields["entityMatches"] = append([]string(nil), d.EntityMatches...)
	}
	return fields
}

// displayName returns the first non-blank candidate, then "Untitled".
func displayName(candidates ...string) string {
	for _, candidate := range candidates {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return "Untitled"
}

func putString(fields map[string]any, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fields[key] = value
	}
}

func putFloat(fields map[string]any, key string, value *float64) {
	if present(value) {
		fields[key] = *value
	}
}
