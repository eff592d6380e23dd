package extractors

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// DefaultSystemVocabulary maps on-board system terms found in free text to
// the system name used in handovers.
var DefaultSystemVocabulary = map[string]string{
	"engine":           "Engine",
	"main engine":      "Main Engine",
	"generator":        "Generator",
	"genset":           "Generator",
	"pump":             "Pump",
	"bilge pump":       "Bilge Pump",
	"fuel pump":        "Fuel Pump",
	"hydraulics":       "Hydraulics",
	"hydraulic":        "Hydraulics",
	"radar":            "Radar",
	"watermaker":       "Watermaker",
	"stabiliser":       "Stabilisers",
	"stabilisers":      "Stabilisers",
	"stabilizer":       "Stabilisers",
	"stabilizers":      "Stabilisers",
	"thruster":         "Thruster",
	"bow thruster":     "Bow Thruster",
	"stern thruster":   "Stern Thruster",
	"autopilot":        "Autopilot",
	"steering":         "Steering",
	"windlass":         "Windlass",
	"anchor":           "Anchor",
	"gearbox":          "Gearbox",
	"turbo":            "Turbocharger",
	"turbocharger":     "Turbocharger",
	"alternator":       "Alternator",
	"battery":          "Batteries",
	"batteries":        "Batteries",
	"inverter":         "Inverter",
	"shore power":      "Shore Power",
	"air conditioning": "HVAC",
	"hvac":             "HVAC",
	"chiller":          "Chiller",
	"sewage":           "Sewage System",
	"black water":      "Sewage System",
	"fire suppression": "Fire Suppression",
	"gps":              "GPS",
	"vhf":              "VHF",
	"satcom":           "Satcom",
	"crane":            "Crane",
	"davit":            "Davit",
	"tender":           "Tender",
	"propeller":        "Propeller",
	"shaft seal":       "Shaft Seal",
}

// VocabularyRule fills a field from the leftmost vocabulary term in the query.
type VocabularyRule struct {
	field   string
	order   int
	terms   map[string]string
	pattern *regexp.Regexp
}

// Verify interface compliance
var _ driven.FieldRule = (*VocabularyRule)(nil)

// NewVocabularyRule creates a VocabularyRule. At the same position a longer
// term wins over a shorter one ("bow thruster" over "thruster").
func NewVocabularyRule(field string, order int, vocabulary map[string]string) *VocabularyRule {
	terms := make(map[string]string, len(vocabulary))
	keys := make([]string, 0, len(vocabulary))
	for term, name := range vocabulary {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms[term] = name
		keys = append(keys, term)
	}

	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	alternatives := make([]string, len(keys))
	for i, k := range keys {
		alternatives[i] = strings.ReplaceAll(regexp.QuoteMeta(k), " ", `\s+`)
	}

	var pattern *regexp.Regexp
	if len(alternatives) > 0 {
		pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
	}

	return &VocabularyRule{field: field, order: order, terms: terms, pattern: pattern}
}

// Extract returns the system name for the leftmost term in the query.
func (r *VocabularyRule) Extract(_ []domain.Entity, query string) (string, []domain.Entity, bool) {
	if r.pattern == nil {
		return "", nil, false
	}
	match := r.pattern.FindString(query)
	if match == "" {
		return "", nil, false
	}
	term := strings.ToLower(strings.Join(strings.Fields(match), " "))
	if name, ok := r.terms[term]; ok {
		return name, nil, true
	}
	return TitleCase(term), nil, true
}

func (r *VocabularyRule) Field() string { return r.field }
func (r *VocabularyRule) Name() string  { return "vocabulary" }
func (r *VocabularyRule) Order() int    { return r.order }
