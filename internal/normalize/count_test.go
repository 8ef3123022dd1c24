package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"plain int", 42, 42},
		{"json float", float64(343531), 343531},
		{"negative clamped", -5, 0},
		{"nil", nil, 0},
		{"millions with unit word", "34.2M followers", 34_200_000},
		{"thousands separator", "1,263 posts", 1263},
		{"k suffix", "123.4k", 123_400},
		{"comma decimal with locale suffix", "34,2 млн подписчиков", 34_200_000},
		{"locale thousands", "123 тыс", 123_000},
		{"wrapped value map", map[string]any{"value": "123K", "text": "123K"}, 123_000},
		{"wrapped int map", map[string]any{"value": float64(77)}, 77},
		{"digits inside prose", "around 500 photos", 500},
		{"garbage", "n/a", 0},
		{"empty string", "", 0},
		{"unsupported type", []string{"1"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCount(tt.in))
		})
	}
}

func TestFormatCountRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n         int
		formatted string
		reparsed  int
	}{
		{0, "0", 0},
		{999, "999", 999},
		{1000, "1.0K", 1000},
		{1263, "1.3K", 1300},
		{34_200_000, "34.2M", 34_200_000},
		{1_000_000, "1.0M", 1_000_000},
	}
	for _, tt := range tests {
		got := FormatCount(tt.n)
		require.Equal(t, tt.formatted, got)
		require.Equal(t, tt.reparsed, ParseCount(got))
	}
}
