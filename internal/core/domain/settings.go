package domain

import "fmt"

// ScoringSettings holds the tunable coefficients used to make raw back-end
// scores comparable. Only the bounded, monotonic shape of the mapping is
// fixed; the numbers are configuration.
type ScoringSettings struct {
	// DocumentBM25Divisor rescales a raw document score when no ratio is present
	DocumentBM25Divisor float64 `json:"document_bm25_divisor" mapstructure:"document_bm25_divisor"`

	// EmailBM25Divisor rescales a raw email BM25 score before the entity boost is added
	EmailBM25Divisor float64 `json:"email_bm25_divisor" mapstructure:"email_bm25_divisor"`

	// NoiseFloor sinks bands whose best result scores below it (0 disables)
	NoiseFloor float64 `json:"noise_floor" mapstructure:"noise_floor"`

	// PreviewLength is the maximum preview length in runes
	PreviewLength int `json:"preview_length" mapstructure:"preview_length"`
}

// DefaultScoringSettings returns the coefficients used in production
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		DocumentBM25Divisor: 10,
		EmailBM25Divisor:    15,
		NoiseFloor:          0.05,
		PreviewLength:       280,
	}
}

// Validate checks that the settings keep confidence well defined
func (s ScoringSettings) Validate() error {
	if s.DocumentBM25Divisor <= 0 {
		return fmt.Errorf("%w: document_bm25_divisor must be positive", ErrInvalidInput)
	}
	if s.EmailBM25Divisor <= 0 {
		return fmt.Errorf("%w: email_bm25_divisor must be positive", ErrInvalidInput)
	}
	if s.NoiseFloor < 0 || s.NoiseFloor > 1 {
		return fmt.Errorf("%w: noise_floor must be within [0,1]", ErrInvalidInput)
	}
	if s.PreviewLength <= 0 {
		return fmt.Errorf("%w: preview_length must be positive", ErrInvalidInput)
	}
	return nil
}

// LinkSettings holds the base addresses used to build result links
type LinkSettings struct {
	// DocumentsBaseURL is the document API host, e.g. http://localhost:8000
	DocumentsBaseURL string `json:"documents_base_url" mapstructure:"documents_base_url"`

	// EmailsBaseURL is the email API host
	EmailsBaseURL string `json:"emails_base_url" mapstructure:"emails_base_url"`

	// OutlookWebURL is the deeplink endpoint of the web mail client
	OutlookWebURL string `json:"outlook_web_url" mapstructure:"outlook_web_url"`

	// DesktopScheme is the protocol handler of the desktop mail client
	DesktopScheme string `json:"desktop_scheme" mapstructure:"desktop_scheme"`
}

// DefaultLinkSettings returns link settings for a local installation
func DefaultLinkSettings() LinkSettings {
	return LinkSettings{
		DocumentsBaseURL: "http://localhost:8000",
		EmailsBaseURL:    "http://localhost:5000",
		OutlookWebURL:    "https://outlook.office.com/mail/deeplink/read",
		DesktopScheme:    "ms-outlook",
	}
}
