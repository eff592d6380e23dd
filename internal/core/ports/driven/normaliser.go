package driven

import "github.com/custodia-labs/handover-core/internal/core/domain"

// ResultNormaliser turns one kind of raw source record into a canonical Result.
type ResultNormaliser interface {
	// Normalise converts the record. It returns domain.ErrMalformedRecord when
	// the record cannot be surfaced (e.g. it has no id).
	Normalise(record domain.SourceRecord) (domain.Result, error)

	// SourceKind returns the kind of record this normaliser handles.
	SourceKind() domain.SourceKind

	// Priority returns the normaliser priority (higher = more specific).
	// Priority ranges:
	//   90-100: Deployment-specific overrides
	//   50-89:  Built-in source normalisers
	//   1-49:   Fallbacks
	Priority() int
}

// NormaliserRegistry manages result normalisers.
// When multiple normalisers handle a source kind, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best normaliser for a source kind, or nil.
	Get(kind domain.SourceKind) ResultNormaliser

	// GetAll retrieves all normalisers for a source kind, sorted by priority (highest first).
	GetAll(kind domain.SourceKind) []ResultNormaliser

	// Register registers a normaliser.
	Register(normaliser ResultNormaliser)

	// List returns all registered source kinds.
	List() []domain.SourceKind
}

// FieldRule fills one handover field from the query entities.
// Rules form a chain per field: the first rule that matches wins.
type FieldRule interface {
	// Field returns the handover field this rule fills (domain.Field*).
	Field() string

	// Extract returns the field value and the entities that contributed to it.
	// ok is false when the rule does not apply.
	Extract(entities []domain.Entity, query string) (value string, used []domain.Entity, ok bool)

	// Name returns the rule name for logging/debugging.
	Name() string

	// Order returns the rule position within its field chain (lower = earlier).
	Order() int
}

// FieldExtractor runs the rule chains and assembles a partial draft.
type FieldExtractor interface {
	// ExtractFields derives handover fields from entities and the raw query.
	ExtractFields(entities []domain.Entity, query string) domain.PartialHandoverDraft

	// Add adds a rule. Rules are sorted by Order() within their field.
	Add(rule FieldRule)

	// List returns rule names in evaluation order.
	List() []string
}
