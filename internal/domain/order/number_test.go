package order

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumber(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	n := NewNumber(now)
	assert.Regexp(t, `^ORD-\d+-[0-9A-F]{4}$`, n)

	parts := strings.Split(n, "-")
	require.Len(t, parts, 3)
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), ts)
}

func TestNewNumber_SuffixVaries(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for range 50 {
		seen[NewNumber(now)] = struct{}{}
	}
	// Same timestamp, random suffix: collisions are possible but all 50
	// identical would mean the suffix is not random at all.
	assert.Greater(t, len(seen), 1)
}
