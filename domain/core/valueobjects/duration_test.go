package valueobjects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"bare seconds", "140", 140 * time.Second},
		{"seconds suffix", "140s", 140 * time.Second},
		{"seconds word", "140 seconds", 140 * time.Second},
		{"minutes", "45m", 45 * time.Minute},
		{"minutes word", "45 minutes", 45 * time.Minute},
		{"hours", "2h", 2 * time.Hour},
		{"hours word", "2 hours", 2 * time.Hour},
		{"days", "3d", 72 * time.Hour},
		{"days word", "3 days", 72 * time.Hour},
		{"h:m colon form", "1:30", time.Hour + 30*time.Minute},
		{"h:m:s colon form", "1:30:45", time.Hour + 30*time.Minute + 45*time.Second},
		{"uppercase", "2H", 2 * time.Hour},
		{"surrounding whitespace", "  90s  ", 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFlexibleDuration(tt.raw)
			require.NotNil(t, got, "expected %q to parse", tt.raw)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseFlexibleDuration_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "soon", "a while", "1.5h", "-20s", "1:2:3:4"} {
		assert.Nil(t, ParseFlexibleDuration(raw), "expected %q not to parse", raw)
	}
}

func TestFormatDuration_RoundTrips(t *testing.T) {
	for _, d := range []time.Duration{0, time.Second, 90 * time.Second, 2 * time.Hour, 72 * time.Hour} {
		parsed := ParseFlexibleDuration(FormatDuration(d))
		require.NotNil(t, parsed)
		assert.Equal(t, d, *parsed)
	}
}
