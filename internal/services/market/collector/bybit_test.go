package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertIntervalToBybit(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1m", "1", false},
		{"15m", "15", false},
		{"1h", "60", false},
		{"4h", "240", false},
		{"1d", "D", false},
		{"1w", "W", false},
		{"1x", "", true},
		{"h", "", true},
	}

	for _, tc := range cases {
		got, err := convertIntervalToBybit(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "interval %s", tc.in)
			continue
		}
		require.NoError(t, err, "interval %s", tc.in)
		assert.Equal(t, tc.want, got, "interval %s", tc.in)
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("1717243200000")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1717243200000), ts)

	_, err = parseTimestamp("")
	assert.Error(t, err)
}

func TestParseCandle(t *testing.T) {
	candle, err := parseCandle("100.5", "101", "99.9", "100.7", "12.34")
	require.NoError(t, err)
	assert.Equal(t, "100.7", candle.Close.String())
	assert.Equal(t, "12.34", candle.Volume.String())

	_, err = parseCandle("oops", "101", "99.9", "100.7", "12.34")
	assert.Error(t, err)
}
