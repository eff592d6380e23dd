package domain

import "strings"

// Entity types understood by the field extractor. The vocabulary is open;
// any other type is carried through and ignored.
const (
	EntityEquipment       = "equipment"
	EntityOrg             = "org"
	EntityOrganization    = "organization"
	EntityCompany         = "company"
	EntityLocationOnBoard = "location_on_board"
	EntityFaultCode       = "fault_code"
	EntityErrorCode       = "error_code"
)

// Entity is a term recognised in the user's query by the entity extractor
type Entity struct {
	Term          string  `json:"term"`
	Type          string  `json:"type"`
	CanonicalForm string  `json:"canonicalForm,omitempty"`
	Weight        float64 `json:"weight"`
}

// Is reports whether the entity type matches any of types, ignoring case
func (e Entity) Is(types ...string) bool {
	for _, t := range types {
		if strings.EqualFold(strings.TrimSpace(e.Type), t) {
			return true
		}
	}
	return false
}

// Value returns the canonical form when set, otherwise the raw term
func (e Entity) Value() string {
	if v := strings.TrimSpace(e.CanonicalForm); v != "" {
		return v
	}
	return strings.TrimSpace(e.Term)
}
