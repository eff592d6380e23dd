package domain

import "time"

// SourceKind identifies which back-end a result came from
type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceEmail    SourceKind = "email"
)

// Valid reports whether k is a known source kind
func (k SourceKind) Valid() bool {
	return k == SourceDocument || k == SourceEmail
}

// Band sizes for staged disclosure
const (
	PrimaryCap   = 5
	SecondaryCap = 5
	TertiaryCap  = 5

	// MaterializedCap is the number of results a ResultSet can carry
	MaterializedCap = PrimaryCap + SecondaryCap + TertiaryCap
)

// Locator points to where inside the source the match lives
type Locator struct {
	Page       *int       `json:"page,omitempty"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// Links holds the navigation targets of a result.
// Primary is the preferred link, Alternates are ordered fallbacks.
type Links struct {
	Primary    string   `json:"primary"`
	Alternates []string `json:"alternates"`
}

// Result is the canonical, source-independent search hit
type Result struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"displayName"`
	Confidence   float64        `json:"confidence"`
	Preview      string         `json:"preview,omitempty"`
	Locator      Locator        `json:"locator"`
	Links        Links          `json:"links"`
	SourceKind   SourceKind     `json:"sourceKind"`
	SourceFields map[string]any `json:"sourceFields,omitempty"`
	HandoverHint *HandoverDraft `json:"handoverHint"`
}

// HiddenResults counts results that ranked below the tertiary band
type HiddenResults struct {
	Count int `json:"count"`
}

// ResultSummary describes a ResultSet as a whole
type ResultSummary struct {
	Found           int     `json:"found"`
	Shown           int     `json:"shown"`
	Hidden          int     `json:"hidden"`
	QueryConfidence float64 `json:"queryConfidence"`
}

// ResultSet is the tiered output of the cascader
type ResultSet struct {
	Primary   []Result      `json:"primary"`
	Secondary []Result      `json:"secondary"`
	Tertiary  []Result      `json:"tertiary"`
	Hidden    HiddenResults `json:"hidden"`
	Summary   ResultSummary `json:"summary"`
}

// NewResultSet returns an empty set with non-nil bands
func NewResultSet() ResultSet {
	return ResultSet{
		Primary:   []Result{},
		Secondary: []Result{},
		Tertiary:  []Result{},
	}
}

// Shown returns the materialized results in band order
func (rs *ResultSet) Shown() []Result {
	shown := make([]Result, 0, len(rs.Primary)+len(rs.Secondary)+len(rs.Tertiary))
	shown = append(shown, rs.Primary...)
	shown = append(shown, rs.Secondary...)
	shown = append(shown, rs.Tertiary...)
	return shown
}

// Top returns the best-ranked result, or nil when the set is empty
func (rs *ResultSet) Top() *Result {
	for _, band := range [][]Result{rs.Primary, rs.Secondary, rs.Tertiary} {
		if len(band) > 0 {
			return &band[0]
		}
	}
	return nil
}
