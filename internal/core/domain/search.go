package domain

import (
	"fmt"
	"strings"
)

// DefaultSearchLimit is the number of hits requested from each back-end
const DefaultSearchLimit = 50

// MaxSearchLimit caps a client-supplied limit
const MaxSearchLimit = 100

// AllSources lists every searchable back-end in aggregation order
var AllSources = []SourceKind{SourceDocument, SourceEmail}

// AggregateRequest asks for a unified result set and handover draft
type AggregateRequest struct {
	Query   string       `json:"query"`
	Sources []SourceKind `json:"sources,omitempty"`
	Limit   int          `json:"limit,omitempty"`

	// Identity comes from the bearer token, never from the body
	UserID  string `json:"-"`
	YachtID string `json:"-"`
}

// Normalize trims the query and fills defaults. It rejects an empty query
// and unknown source kinds.
func (r *AggregateRequest) Normalize() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
	if r.Limit > MaxSearchLimit {
		r.Limit = MaxSearchLimit
	}
	if len(r.Sources) == 0 {
		r.Sources = append([]SourceKind(nil), AllSources...)
		return nil
	}

	seen := make(map[SourceKind]bool, len(r.Sources))
	sources := make([]SourceKind, 0, len(r.Sources))
	for _, s := range r.Sources {
		s = SourceKind(strings.ToLower(strings.TrimSpace(string(s))))
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSource, s)
		}
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	r.Sources = sources
	return nil
}

// Wants reports whether the request includes the given source
func (r *AggregateRequest) Wants(kind SourceKind) bool {
	for _, s := range r.Sources {
		if s == kind {
			return true
		}
	}
	return false
}

// SearchQuery is what the upstream search clients receive
type SearchQuery struct {
	Query   string
	UserID  string
	YachtID string
	Limit   int
}

// AggregateResponse is the unified payload returned to the chat UI
type AggregateResponse struct {
	ResultSet
	HandoverDraft    HandoverDraft    `json:"handoverDraft"`
	HandoverMetadata HandoverMetadata `json:"handoverMetadata"`
	Entities         []Entity         `json:"entities"`

	// DegradedSources names upstreams that failed; their results are missing
	DegradedSources []string `json:"degradedSources,omitempty"`
}
