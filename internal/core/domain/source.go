package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceRecord is a raw hit from one of the search back-ends.
// Exactly one of Document or Email is set, matching Kind.
type SourceRecord struct {
	Kind     SourceKind
	Document *DocumentRecord
	Email    *EmailRecord
}

// DocumentSourceRecord wraps a document hit
func DocumentSourceRecord(d *DocumentRecord) SourceRecord {
	return SourceRecord{Kind: SourceDocument, Document: d}
}

// EmailSourceRecord wraps an email hit
func EmailSourceRecord(e *EmailRecord) SourceRecord {
	return SourceRecord{Kind: SourceEmail, Email: e}
}

// DocumentRecord is a hit from the document archive search.
// Score fields are pointers so a missing value is distinguishable from zero.
type DocumentRecord struct {
	ID             string   `json:"id"`
	SolutionID     string   `json:"solution_id,omitempty"`
	Title          string   `json:"title,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Path           string   `json:"path,omitempty"`
	Page           *int     `json:"page,omitempty"`
	MatchRatio     *float64 `json:"match_ratio,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	Snippet        string   `json:"snippet,omitempty"`
	Content        string   `json:"content,omitempty"`
	MimeType       string   `json:"mime_type,omitempty"`
	EntityMatches  []string `json:"entity_matches,omitempty"`
}

// Identifier returns the record id, falling back to the solution id
func (d *DocumentRecord) Identifier() string {
	if id := strings.TrimSpace(d.ID); id != "" {
		return id
	}
	return strings.TrimSpace(d.SolutionID)
}

// EmailAttachment describes a file attached to an email
type EmailAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// EmailRecord is a hit from the mailbox search. Field names follow the
// Graph message resource, with the search scores added alongside.
type EmailRecord struct {
	ID               string            `json:"id"`
	Subject          string            `json:"subject,omitempty"`
	From             EmailSender       `json:"from"`
	ReceivedDateTime string            `json:"receivedDateTime,omitempty"`
	BodyPreview      string            `json:"bodyPreview,omitempty"`
	IsRead           bool              `json:"isRead,omitempty"`
	HasAttachments   bool              `json:"hasAttachments,omitempty"`
	Attachments      []EmailAttachment `json:"attachments,omitempty"`
	Importance       string            `json:"importance,omitempty"`
	ConversationID   string            `json:"conversationId,omitempty"`
	BM25Score        *float64          `json:"bm25_score,omitempty"`
	EntityBoost      *float64          `json:"entity_boost,omitempty"`
	RelevanceScore   *float64          `json:"relevance_score,omitempty"`
	MatchedEntities  []string          `json:"matched_entities,omitempty"`
}

// EmailSender is the sender of an email. The search API sends either a
// preformatted string or a Graph style {"emailAddress": {...}} object.
type EmailSender struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// String renders the sender as "Name <address>"
func (s EmailSender) String() string {
	switch {
	case s.Name != "" && s.Address != "":
		return fmt.Sprintf("%s <%s>", s.Name, s.Address)
	case s.Address != "":
		return s.Address
	default:
		return s.Name
	}
}

// IsZero reports whether the sender is empty
func (s EmailSender) IsZero() bool {
	return s.Name == "" && s.Address == ""
}

// UnmarshalJSON accepts a string, a flat {name, address} object or a Graph
// {"emailAddress": {name, address}} object.
func (s *EmailSender) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = EmailSender{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = parseSenderString(text)
		return nil
	}

	var obj struct {
		Name         string `json:"name"`
		Address      string `json:"address"`
		EmailAddress *struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode sender: %w", err)
	}
	if obj.EmailAddress != nil {
		*s = EmailSender{Name: obj.EmailAddress.Name, Address: obj.EmailAddress.Address}
		return nil
	}
	*s = EmailSender{Name: obj.Name, Address: obj.Address}
	return nil
}

// MarshalJSON writes the sender in Graph shape
func (s EmailSender) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"emailAddress": map[string]string{
			"name":    s.Name,
			"address": s.Address,
		},
	})
}

// parseSenderString splits "Name <addr>" into its parts
func parseSenderString(text string) EmailSender {
	text = strings.TrimSpace(text)
	open := strings.LastIndex(text, "<")
	if open != -1 && strings.HasSuffix(text, ">") {
		return EmailSender{
			Name:    strings.Trim(strings.TrimSpace(text[:open]), `"`),
			Address: strings.TrimSpace(text[open+1 : len(text)-1]),
		}
	}
	if strings.Contains(text, "@") {
		return EmailSender{Address: text}
	}
	return EmailSender{Name: text}
}
