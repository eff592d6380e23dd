package normalisers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Coolant   leak\n\non port side ", "Coolant leak on port side"},
		{"html", "<p>Hello&nbsp;<b>world</b></p><script>alert(1)</script>", "Hello world"},
		{"blocks", "<div>line one</div><div>line two</div>", "line one line two"},
		{"entities", "Temp &gt; 90 &amp; rising", "Temp > 90 & rising"},
		{"style", "<style>p{color:red}</style><p>ok</p>", "ok"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPreview(tt.in, 280))
		})
	}
}

func TestCleanPreview_Truncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := CleanPreview(long, 280)

	assert.Equal(t, 280, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))

	short := CleanPreview("abc", 280)
	assert.Equal(t, "abc", short)
}

func TestParseReceivedAt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01T10:15:00Z", "2024-03-01T10:15:00Z"},
		{"2024-03-01T10:15:00.1234567Z", "2024-03-01T10:15:00.1234567Z"},
		{"2024-03-01T12:15:00+02:00", "2024-03-01T10:15:00Z"},
		{"2024-03-01T10:15:00", "2024-03-01T10:15:00Z"},
		{"2024-03-01 10:15:00", "2024-03-01T10:15:00Z"},
		{"2024-03-01", "2024-03-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseReceivedAt(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02T15:04:05.9999999Z07:00"))
		})
	}

	assert.Nil(t, ParseReceivedAt(""))
	assert.Nil(t, ParseReceivedAt("yesterday"))
}
