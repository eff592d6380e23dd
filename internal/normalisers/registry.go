package normalisers

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// DropFunc observes a record that could not be normalised.
type DropFunc func(kind domain.SourceKind, err error)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers handle a source kind, the highest priority one is used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.ResultNormaliser
	logger      *zap.Logger
}

// NewRegistry creates a new normaliser registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		normalisers: make([]driven.ResultNormaliser, 0),
		logger:      logger,
	}
}

// Register registers a normaliser.
// Normalisers are stored and later selected by priority.
func (r *Registry) Register(normaliser driven.ResultNormaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the best normaliser for a source kind.
// Returns nil if no normaliser is registered for the kind.
func (r *Registry) Get(kind domain.SourceKind) driven.ResultNormaliser {
	matches := r.GetAll(kind)
	if len(matches) == 0 {
		return nil
	}
	return matches[0] // Already sorted by priority (highest first)
}

// GetAll retrieves all normalisers for a source kind, sorted by priority (highest first).
func (r *Registry) GetAll(kind domain.SourceKind) []driven.ResultNormaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.ResultNormaliser
	for _, n := range r.normalisers {
		if n.SourceKind() == kind {
			matches = append(matches, n)
		}
	}

	// Stable so equal priorities keep registration order
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered source kinds.
func (r *Registry) List() []domain.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kindSet := make(map[domain.SourceKind]struct{})
	for _, n := range r.normalisers {
		kindSet[n.SourceKind()] = struct{}{}
	}

	kinds := make([]domain.SourceKind, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Normalise converts a single record with the best normaliser for its kind.
func (r *Registry) Normalise(record domain.SourceRecord) (domain.Result, error) {
	n := r.Get(record.Kind)
	if n == nil {
		return domain.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownSource, record.Kind)
	}
	return n.Normalise(record)
}

// NormaliseAll converts records in order. Records that fail are dropped,
// logged at warn level and reported to onDrop (which may be nil); they
// never reach the result list.
func (r *Registry) NormaliseAll(records []domain.SourceRecord, onDrop DropFunc) []domain.Result {
	results := make([]domain.Result, 0, len(records))

	for i, record := range records {
		result, err := r.Normalise(record)
		if err != nil {
			r.logger.Warn("dropping source record",
				zap.String("source", string(record.Kind)),
				zap.Int("position", i),
				zap.Bool("malformed", errors.Is(err, domain.ErrMalformedRecord)),
				zap.Error(err),
			)
			if onDrop != nil {
				onDrop(record.Kind, err)
			}
			continue
		}
		results = append(results, result)
	}

	return results
}

// DefaultRegistry creates a registry with the document and email normalisers registered.
func DefaultRegistry(scoring domain.ScoringSettings, links domain.LinkSettings, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)

	builder := NewLinkBuilder(links)
	r.Register(NewDocumentNormaliser(scoring, builder))
	r.Register(NewEmailNormaliser(scoring, builder))

	return r
}
