package extractors

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// FaultCodePattern matches manufacturer codes (SPN-1234, ALM42) and OBD
// style codes (P0234) in any case.
var FaultCodePattern = regexp.MustCompile(`(?i)\b(?:[A-Z]{2,4}-?\d{2,4}|[PBCU]\d{4})\b`)

// TitleCase upper-cases the first letter of each word and leaves the rest
// untouched, so acronyms such as "HVAC" survive.
func TitleCase(s string) string {
	// A Caser is stateful; build one per call
	return cases.Title(language.English, cases.NoLower).String(s)
}

// EntityRule fills a field from the first entity of the given types.
type EntityRule struct {
	field     string
	name      string
	order     int
	transform func(string) string
	types     []string
}

// Verify interface compliance
var _ driven.FieldRule = (*EntityRule)(nil)

// NewEntityRule creates an EntityRule. transform may be nil.
func NewEntityRule(field, name string, order int, transform func(string) string, types ...string) *EntityRule {
	return &EntityRule{field: field, name: name, order: order, transform: transform, types: types}
}

// Extract returns the canonical form (or term) of the first matching entity.
func (r *EntityRule) Extract(entities []domain.Entity, _ string) (string, []domain.Entity, bool) {
	for _, e := range entities {
		if !e.Is(r.types...) {
			continue
		}
		value := e.Value()
		if value == "" {
			continue
		}
		if r.transform != nil {
			value = r.transform(value)
		}
		return value, []domain.Entity{e}, true
	}
	return "", nil, false
}

func (r *EntityRule) Field() string { return r.field }
func (r *EntityRule) Name() string  { return r.name }
func (r *EntityRule) Order() int    { return r.order }

// PatternRule fills a field from the first match of a pattern in the query.
type PatternRule struct {
	field   string
	name    string
	order   int
	pattern *regexp.Regexp
}

// Verify interface compliance
var _ driven.FieldRule = (*PatternRule)(nil)

// NewPatternRule creates a PatternRule.
func NewPatternRule(field, name string, order int, pattern *regexp.Regexp) *PatternRule {
	return &PatternRule{field: field, name: name, order: order, pattern: pattern}
}

// Extract returns the leftmost match, upper-cased.
func (r *PatternRule) Extract(_ []domain.Entity, query string) (string, []domain.Entity, bool) {
	match := r.pattern.FindString(query)
	if match == "" {
		return "", nil, false
	}
	return strings.ToUpper(match), nil, true
}

func (r *PatternRule) Field() string { return r.field }
func (r *PatternRule) Name() string  { return r.name }
func (r *PatternRule) Order() int    { return r.order }

// locationPrefixRule decorates a rule with the location_on_board entity,
// turning "Engine" into "Port - Engine".
type locationPrefixRule struct {
	driven.FieldRule
}

// WithLocationPrefix wraps rule so a matched value is prefixed with the
// first location_on_board entity. A location alone never fills the field.
func WithLocationPrefix(rule driven.FieldRule) driven.FieldRule {
	return &locationPrefixRule{FieldRule: rule}
}

func (r *locationPrefixRule) Extract(entities []domain.Entity, query string) (string, []domain.Entity, bool) {
	value, used, ok := r.FieldRule.Extract(entities, query)
	if !ok || value == "" {
		return value, used, ok
	}

	for _, e := range entities {
		if !e.Is(domain.EntityLocationOnBoard) {
			continue
		}
		location := e.Value()
		if location == "" {
			continue
		}
		return TitleCase(location) + " - " + value, append(used, e), true
	}
	return value, used, true
}

func (r *locationPrefixRule) Name() string {
	return r.FieldRule.Name() + "+location"
}
