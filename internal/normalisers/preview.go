package normalisers

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CleanPreview strips HTML, collapses whitespace and truncates to limit
// runes, ending truncated text with "...".
func CleanPreview(content string, limit int) string {
	text := strings.Join(strings.Fields(stripHTML(content)), " ")
	if limit <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return strings.TrimRight(string(runes[:limit-3]), " ") + "..."
}

// stripHTML returns the visible text of an HTML fragment. Plain text passes
// through with entities decoded.
func stripHTML(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("script, style, head").Remove()

	// Block elements would otherwise glue neighbouring words together
	doc.Find("br, p, div, li, tr, td, th, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return doc.Text()
}

// receivedAtLayouts are tried in order when parsing an email timestamp
var receivedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseReceivedAt parses the timestamps sent by the email back-ends. Values
// without a zone are taken as UTC. Unparseable values yield nil.
func ParseReceivedAt(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range receivedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
