package normalisers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// EncodeID percent-encodes a source id for use as a single path segment or
// query value. Unlike url.PathEscape it also escapes '=', '&' and '+', which
// mail ids routinely contain; spaces become %20 so url.PathUnescape reverses it.
func EncodeID(id string) string {
	return strings.ReplaceAll(url.QueryEscape(id), "+", "%20")
}

// DecodeID reverses EncodeID.
func DecodeID(encoded string) (string, error) {
	return url.PathUnescape(encoded)
}

// LinkBuilder builds result links from the configured base addresses.
type LinkBuilder struct {
	settings domain.LinkSettings
}

// NewLinkBuilder creates a LinkBuilder.
func NewLinkBuilder(settings domain.LinkSettings) *LinkBuilder {
	return &LinkBuilder{settings: settings}
}

// DocumentLinks returns the API link as primary and, when the file path is
// known, a file link as alternate.
func (b *LinkBuilder) DocumentLinks(id string, page *int, path string) domain.Links {
	api := joinURL(b.settings.DocumentsBaseURL, "/api/v1/documents/"+EncodeID(id))
	if page != nil {
		api += "?page=" + strconv.Itoa(*page)
	}

	links := domain.Links{Primary: api, Alternates: []string{}}
	if path = strings.TrimSpace(path); path != "" {
		links.Alternates = append(links.Alternates, fileLink(path))
	}
	return links
}

// EmailLinks returns the web mail deeplink as primary, with the API link
// and the desktop client link as alternates.
func (b *LinkBuilder) EmailLinks(id string) domain.Links {
	enc := EncodeID(id)
	return domain.Links{
		Primary: joinURL(b.settings.OutlookWebURL, "/"+enc),
		Alternates: []string{
			joinURL(b.settings.EmailsBaseURL, "/api/v1/emails/"+enc),
			b.settings.DesktopScheme + "://emails/open?id=" + enc,
		},
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func fileLink(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
