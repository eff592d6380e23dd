package domain

import (
	"errors"
	"testing"
)

func TestDefaultScoringSettings(t *testing.T) {
	s := DefaultScoringSettings()

	if s.DocumentBM25Divisor != 10 {
		t.Errorf("expected DocumentBM25Divisor 10, got %v", s.DocumentBM25Divisor)
	}
	if s.EmailBM25Divisor != 15 {
		t.Errorf("expected EmailBM25Divisor 15, got %v", s.EmailBM25Divisor)
	}
	if s.NoiseFloor != 0.05 {
		t.Errorf("expected NoiseFloor 0.05, got %v", s.NoiseFloor)
	}
	if s.PreviewLength != 280 {
		t.Errorf("expected PreviewLength 280, got %d", s.PreviewLength)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestScoringSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScoringSettings)
	}{
		{"zero document divisor", func(s *ScoringSettings) { s.DocumentBM25Divisor = 0 }},
		{"negative email divisor", func(s *ScoringSettings) { s.EmailBM25Divisor = -1 }},
		{"noise floor above one", func(s *ScoringSettings) { s.NoiseFloor = 1.5 }},
		{"zero preview", func(s *ScoringSettings) { s.PreviewLength = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScoringSettings()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestScoringSettings_NoiseFloorDisabled(t *testing.T) {
	s := DefaultScoringSettings()
	s.NoiseFloor = 0
	if err := s.Validate(); err != nil {
		t.Errorf("a zero noise floor should be allowed: %v", err)
	}
}

func TestDefaultLinkSettings(t *testing.T) {
	l := DefaultLinkSettings()
	if l.OutlookWebURL != "https://outlook.office.com/mail/deeplink/read" {
		t.Errorf("unexpected outlook url %q", l.OutlookWebURL)
	}
	if l.DesktopScheme != "ms-outlook" {
		t.Errorf("unexpected desktop scheme %q", l.DesktopScheme)
	}
}
