package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(55 * time.Minute)
	require.Equal(t, start.Add(55*time.Minute), clock.Now())

	clock.Set(start)
	require.Equal(t, start, clock.Now())
}

func TestStandardImplIsUTC(t *testing.T) {
	now := NewStandardImpl().Now()
	require.Equal(t, time.UTC, now.Location())
}

func TestValidateSpec(t *testing.T) {
	require.NoError(t, ValidateSpec("*/30 * * * *"))
	require.NoError(t, ValidateSpec("@hourly"))
	require.Error(t, ValidateSpec("every half hour"))
	require.Error(t, ValidateSpec("* * * * * *"))
}

func TestCronLoggerPairs(t *testing.T) {
	require.Equal(t, []any{"entry=1", "next=soon"}, pairs([]any{"entry", 1, "next", "soon", "dangling"}))
}
