package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
	}{
		{"full explicit", "bytes=0-99", 100, 0, 99},
		{"partial", "bytes=10-19", 100, 10, 19},
		{"open ended", "bytes=90-", 100, 90, 99},
		{"suffix", "bytes=-10", 100, 90, 99},
		{"suffix longer than body", "bytes=-500", 100, 0, 99},
		{"end clamped to size", "bytes=50-200", 100, 50, 99},
		{"multiple ranges takes first", "bytes=0-9,20-29", 100, 0, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseRange(tt.header, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.start)
			assert.Equal(t, tt.wantEnd, r.end)
		})
	}
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	_, err := parseRange("bytes=100-", 100)
	assert.ErrorIs(t, err, errUnsatisfiableRange)

	_, err = parseRange("bytes=-5", 0)
	assert.ErrorIs(t, err, errUnsatisfiableRange)
}

func TestParseRangeMalformed(t *testing.T) {
	for _, header := range []string{
		"items=0-10",
		"bytes=abc-def",
		"bytes=10",
		"bytes=20-10",
		"bytes=-0",
	} {
		_, err := parseRange(header, 100)
		require.Error(t, err, header)
		assert.NotErrorIs(t, err, errUnsatisfiableRange, header)
	}
}

func TestByteRangeHeaders(t *testing.T) {
	r := byteRange{start: 10, end: 19}
	assert.Equal(t, int64(10), r.length())
	assert.Equal(t, "bytes 10-19/100", r.contentRange(100))
}
