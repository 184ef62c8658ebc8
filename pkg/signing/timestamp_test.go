package signing_test

import (
	"testing"
	"time"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	// given:
	ts := time.Date(2024, time.January, 1, 2, 3, 4, 500, time.FixedZone("CET", 3600))

	// when:
	formatted := signing.FormatTimestamp(ts)

	// then:
	assert.Equal(t, "2024-01-01T01:03:04Z", formatted)
}

func TestParseTimestamp(t *testing.T) {
	testCases := map[string]struct {
		value    string
		expected time.Time
	}{
		"utc": {
			value:    "2024-01-01T00:00:00Z",
			expected: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		"lowercase with spaces": {
			value:    " 2024-01-01t00:00:00z ",
			expected: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		"with fraction": {
			value:    "2024-01-01T00:00:00.250Z",
			expected: time.Date(2024, time.January, 1, 0, 0, 0, 250_000_000, time.UTC),
		},
		"with offset": {
			value:    "2024-01-01T02:00:00+02:00",
			expected: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			// when:
			ts, err := signing.ParseTimestamp(test.value)

			// then:
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(ts), "expected %s, got %s", test.expected, ts)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := signing.ParseTimestamp("yesterday")
		require.ErrorIs(t, err, signing.ErrValidation)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := signing.ParseTimestamp("  ")
		require.ErrorIs(t, err, signing.ErrValidation)
	})
}
