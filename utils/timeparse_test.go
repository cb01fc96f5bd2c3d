package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUTC(t *testing.T) {
	want := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	cases := map[string]string{
		"explicit zulu":      "2025-06-01T18:00:00Z",
		"no zone designator": "2025-06-01T18:00:00",
		"space separator":    "2025-06-01 18:00:00",
		"padded":             "  2025-06-01T18:00:00Z  ",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseUTC(input)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}
}

func TestParseUTC_OffsetNormalizedToUTC(t *testing.T) {
	got, err := ParseUTC("2025-06-01T22:00:00+04:00")
	require.NoError(t, err)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)))
}

func TestParseUTC_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "not-a-date", "2025-13-01T00:00:00Z"} {
		_, err := ParseUTC(input)
		assert.Error(t, err, "expected %q to be rejected", input)
	}
}
