// Package extractors derives handover fields from query entities with
// ordered per-field rule chains.
package extractors

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FieldExtractor = (*Chain)(nil)

// DefaultActionsSource names the correspondence searched in the actions placeholder
const DefaultActionsSource = "email"

// chainedFields are the fields filled by rules, in autoFilledFields order
var chainedFields = []string{domain.FieldSystem, domain.FieldFaultCode}

// Chain implements FieldExtractor.
// Rules are grouped by field and evaluated in Order(); the first rule that
// yields a non-empty value wins.
type Chain struct {
	mu            sync.RWMutex
	rules         []driven.FieldRule
	sorted        bool
	actionsSource string
}

// Option configures a Chain.
type Option func(*Chain)

// WithActionsSource sets the source named in the actionsTaken placeholder.
func WithActionsSource(source string) Option {
	return func(c *Chain) {
		if source = strings.TrimSpace(source); source != "" {
			c.actionsSource = source
		}
	}
}

// NewChain creates an empty chain.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		rules:         make([]driven.FieldRule, 0),
		actionsSource: DefaultActionsSource,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add adds a rule to the chain.
// Rules are sorted by Order() before extraction.
func (c *Chain) Add(rule driven.FieldRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = append(c.rules, rule)
	c.sorted = false
}

// ExtractFields runs every field chain. It never fails: with no entities
// the draft degrades to the query-only symptoms fill.
func (c *Chain) ExtractFields(entities []domain.Entity, query string) domain.PartialHandoverDraft {
	rules := c.snapshot()

	draft := domain.PartialHandoverDraft{
		ActionsTaken:     ActionsPlaceholder(c.actionsSource),
		AutoFilledFields: []string{},
	}
	var contributors []domain.Entity

	for _, field := range chainedFields {
		for _, rule := range rules {
			if rule.Field() != field {
				continue
			}
			value, used, ok := rule.Extract(entities, query)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			setField(&draft, field, strings.TrimSpace(value))
			draft.AutoFilledFields = append(draft.AutoFilledFields, field)
			contributors = append(contributors, used...)
			break
		}
	}

	if symptoms := strings.TrimSpace(query); symptoms != "" {
		draft.Symptoms = symptoms
		draft.AutoFilledFields = append(draft.AutoFilledFields, domain.FieldSymptoms)
	}

	draft.Confidence = Confidence(contributors)
	return draft
}

// List returns rule names in evaluation order.
func (c *Chain) List() []string {
	rules := c.snapshot()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Field() + "/" + rule.Name()
	}
	return names
}

func (c *Chain) snapshot() []driven.FieldRule {
	c.mu.Lock()
	if !c.sorted {
		sort.SliceStable(c.rules, func(i, j int) bool {
			return c.rules[i].Order() < c.rules[j].Order()
		})
		c.sorted = true
	}
	rules := make([]driven.FieldRule, len(c.rules))
	copy(rules, c.rules)
	c.mu.Unlock()
	return rules
}

func setField(draft *domain.PartialHandoverDraft, field, value string) {
	switch field {
	case domain.FieldSystem:
		draft.System = value
	case domain.FieldFaultCode:
		draft.FaultCode = value
	}
}

// ActionsPlaceholder is the text left in actionsTaken for the user to overwrite.
func ActionsPlaceholder(source string) string {
	return fmt.Sprintf("Searched %s correspondence for related information", source)
}

// Confidence scores a draft from the entities that filled it:
// 1 - prod(1 - (0.2 + 0.3*weight)), or 0 when nothing contributed.
// Each entity counts once.
func Confidence(contributors []domain.Entity) float64 {
	seen := make(map[string]bool, len(contributors))
	miss := 1.0
	counted := 0

	for _, e := range contributors {
		key := strings.ToLower(e.Type) + "\x00" + strings.ToLower(e.Term) + "\x00" + strings.ToLower(e.CanonicalForm)
		if seen[key] {
			continue
		}
		seen[key] = true
		counted++
		miss *= 1 - (0.2 + 0.3*clamp(e.Weight))
	}

	if counted == 0 {
		return 0
	}
	return 1 - miss
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// DefaultChain creates a chain with the built-in rules:
//
//	system:    equipment entity -> organisation entity -> query vocabulary,
//	           each prefixed with a location_on_board entity when present
//	faultCode: fault/error code entity -> fault code pattern in the query
func DefaultChain(opts ...Option) *Chain {
	c := NewChain(opts...)

	c.Add(WithLocationPrefix(NewEntityRule(domain.FieldSystem, "equipment", 10, TitleCase, domain.EntityEquipment)))
	c.Add(WithLocationPrefix(NewEntityRule(domain.FieldSystem, "organisation", 20, TitleCase,
		domain.EntityOrg, domain.EntityOrganization, domain.EntityCompany)))
	c.Add(WithLocationPrefix(NewVocabularyRule(domain.FieldSystem, 30, DefaultSystemVocabulary)))

	c.Add(NewEntityRule(domain.FieldFaultCode, "fault-code-entity", 10, strings.ToUpper,
		domain.EntityFaultCode, domain.EntityErrorCode))
	c.Add(NewPatternRule(domain.FieldFaultCode, "fault-code-pattern", 20, FaultCodePattern))

	return c
}
