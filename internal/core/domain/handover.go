package domain

import (
	"fmt"
	"strings"
	"time"
)

// Handover field names as reported in AutoFilledFields
const (
	FieldSystem          = "system"
	FieldFaultCode       = "faultCode"
	FieldSymptoms        = "symptoms"
	FieldActionsTaken    = "actionsTaken"
	FieldDurationMinutes = "durationMinutes"
	FieldLinkedDocument  = "linkedDocument"

	// TotalHandoverFields is the number of user-facing handover fields
	TotalHandoverFields = 6
)

// PartialHandoverDraft is the field extractor's output, before a document is linked
type PartialHandoverDraft struct {
	System           string   `json:"system"`
	FaultCode        string   `json:"faultCode"`
	Symptoms         string   `json:"symptoms"`
	ActionsTaken     string   `json:"actionsTaken"`
	DurationMinutes  *int     `json:"durationMinutes"`
	AutoFilledFields []string `json:"autoFilledFields"`
	Confidence       float64  `json:"confidence"`
}

// HandoverDraft is a pre-filled handover ready for the user to edit
type HandoverDraft struct {
	System           string   `json:"system"`
	FaultCode        string   `json:"faultCode"`
	Symptoms         string   `json:"symptoms"`
	ActionsTaken     string   `json:"actionsTaken"`
	DurationMinutes  *int     `json:"durationMinutes"`
	LinkedDocument   string   `json:"linkedDocument"`
	AutoFilledFields []string `json:"autoFilledFields"`
	Confidence       float64  `json:"confidence"`
}

// Validate checks the user-editable fields
func (d HandoverDraft) Validate() error {
	if d.DurationMinutes != nil && *d.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidInput)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be within [0,1]", ErrInvalidInput)
	}
	return nil
}

// HandoverMetadata summarises how a draft was produced
type HandoverMetadata struct {
	AutoFilledFields []string   `json:"autoFilledFields"`
	AutoFilledCount  int        `json:"autoFilledCount"`
	TotalFields      int        `json:"totalFields"`
	Confidence       float64    `json:"confidence"`
	LinkedResultID   string     `json:"linkedResultId,omitempty"`
	LinkedSourceKind SourceKind `json:"linkedSourceKind,omitempty"`
}

// HandoverKey is the identity of a persisted handover
type HandoverKey struct {
	UserID     string `json:"userId"`
	SolutionID string `json:"solutionId"`
	YachtID    string `json:"yachtId"`
}

// Normalize trims every identity component
func (k HandoverKey) Normalize() HandoverKey {
	return HandoverKey{
		UserID:     strings.TrimSpace(k.UserID),
		SolutionID: strings.TrimSpace(k.SolutionID),
		YachtID:    strings.TrimSpace(k.YachtID),
	}
}

// Validate requires every identity component
func (k HandoverKey) Validate() error {
	if strings.TrimSpace(k.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(k.SolutionID) == "" {
		return fmt.Errorf("%w: solutionId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(k.YachtID) == "" {
		return fmt.Errorf("%w: yachtId is required", ErrInvalidInput)
	}
	return nil
}

// HandoverStatus is the stored status of a handover
type HandoverStatus string

const (
	HandoverStatusDraft HandoverStatus = "draft"
	HandoverStatusSaved HandoverStatus = "saved"
)

// Valid reports whether s is a known status
func (s HandoverStatus) Valid() bool {
	return s == HandoverStatusDraft || s == HandoverStatusSaved
}

// HandoverRecord is a persisted handover. One row exists per HandoverKey;
// later saves overwrite it in place.
type HandoverRecord struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	YachtID          string         `json:"yachtId"`
	SolutionID       string         `json:"solutionId"`
	System           string         `json:"system"`
	FaultCode        string         `json:"faultCode"`
	Symptoms         string         `json:"symptoms"`
	ActionsTaken     string         `json:"actionsTaken"`
	DurationMinutes  *int           `json:"durationMinutes"`
	LinkedDocument   string         `json:"linkedDocument"`
	AutoFilledFields []string       `json:"autoFilledFields"`
	Confidence       float64        `json:"confidence"`
	Status           HandoverStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// NewHandoverRecord builds a record from a key and a draft. The key is
// stored trimmed.
func NewHandoverRecord(key HandoverKey, draft HandoverDraft, status HandoverStatus) *HandoverRecord {
	key = key.Normalize()
	autoFilled := draft.AutoFilledFields
	if autoFilled == nil {
		autoFilled = []string{}
	}
	return &HandoverRecord{
		UserID:           key.UserID,
		YachtID:          key.YachtID,
		SolutionID:       key.SolutionID,
		System:           draft.System,
		FaultCode:        draft.FaultCode,
		Symptoms:         draft.Symptoms,
		ActionsTaken:     draft.ActionsTaken,
		DurationMinutes:  draft.DurationMinutes,
		LinkedDocument:   draft.LinkedDocument,
		AutoFilledFields: autoFilled,
		Confidence:       draft.Confidence,
		Status:           status,
	}
}

// Key returns the identity of the record
func (r *HandoverRecord) Key() HandoverKey {
	return HandoverKey{UserID: r.UserID, SolutionID: r.SolutionID, YachtID: r.YachtID}
}

// Draft returns the editable fields of the record
func (r *HandoverRecord) Draft() HandoverDraft {
	return HandoverDraft{
		System:           r.System,
		FaultCode:        r.FaultCode,
		Symptoms:         r.Symptoms,
		ActionsTaken:     r.ActionsTaken,
		DurationMinutes:  r.DurationMinutes,
		LinkedDocument:   r.LinkedDocument,
		AutoFilledFields: r.AutoFilledFields,
		Confidence:       r.Confidence,
	}
}

// EditState is the client-side lifecycle of a handover form
type EditState int

const (
	EditStateUnsaved EditState = iota
	EditStateSaved
	EditStateEditing
)

func (s EditState) String() string {
	switch s {
	case EditStateUnsaved:
		return "unsaved"
	case EditStateSaved:
		return "saved"
	case EditStateEditing:
		return "editing"
	default:
		return fmt.Sprintf("EditState(%d)", int(s))
	}
}

// ParseEditState parses the lower-case name of a state. An empty string
// is treated as unsaved.
func ParseEditState(s string) (EditState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unsaved":
		return EditStateUnsaved, nil
	case "saved":
		return EditStateSaved, nil
	case "editing":
		return EditStateEditing, nil
	default:
		return EditStateUnsaved, fmt.Errorf("%w: unknown edit state %q", ErrInvalidInput, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *EditState) UnmarshalText(text []byte) error {
	parsed, err := ParseEditState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Save returns the state after a successful save. Saving is allowed from
// every state, so re-saving a saved handover is a no-op transition.
func (s EditState) Save() (EditState, error) {
	switch s {
	case EditStateUnsaved, EditStateSaved, EditStateEditing:
		return EditStateSaved, nil
	default:
		return s, fmt.Errorf("%w: save from %s", ErrInvalidTransition, s)
	}
}

// Edit returns the state after the user unlocks a saved handover
func (s EditState) Edit() (EditState, error) {
	if s != EditStateSaved {
		return s, fmt.Errorf("%w: edit from %s", ErrInvalidTransition, s)
	}
	return EditStateEditing, nil
}
