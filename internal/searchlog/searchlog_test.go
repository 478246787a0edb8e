package searchlog

import (
	"os"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	line := Entry{
		User:               "user-1",
		Query:              "ford f150 headlight",
		MarketplaceURL:     "https://api.ebay.com/buy/browse/v1/item_summary/search?q=x",
		MarketplaceResults: 12,
	}.Format(at)
	require.Equal(
		t,
		`[2024-06-01T12:30:00.000Z] | user=user-1 | query="ford f150 headlight" | ebay_url=https://api.ebay.com/buy/browse/v1/item_summary/search?q=x | craigslist_url=N/A | ebay_results=12 | craigslist_results=0`,
		line,
	)

	line = Entry{Query: "mirror"}.Format(at)
	require.True(t, strings.Contains(line, "user=anonymous"))
}

func TestFormatSingleLine(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	line := Entry{
		User:  "user-1\n[2024-06-01T00:00:00.000Z] | user=admin",
		Query: "brake\"\n[2024-06-01T00:00:00.000Z] | user=admin | query=\"x",
	}.Format(at)
	require.NotContains(t, line, "\n")
	require.NotContains(t, line, "\r")
	require.Contains(t, line, `user=user-1 [2024-06-01T00:00:00.000Z]`)
	require.Contains(t, line, `query="brake\"\n[2024-06-01T00:00:00.000Z] | user=admin | query=\"x"`)
}

func TestLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "search.log")
	clock := chrono.NewManualClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	tel := telemetry.NewRecorder()
	logger := New(path, clock, tel)

	logger.Log(Entry{Query: "a"})
	clock.Advance(time.Second)
	logger.Log(Entry{Query: "b", ClassifiedsResults: 3})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "[2024-06-01T00:00:01.000Z]"))
	require.True(t, strings.HasSuffix(lines[1], "craigslist_results=3"))
	require.Empty(t, tel.Broken(report_searchlog_write))
}

func TestLogFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	// a directory in place of the file makes the open fail
	path := filepath.Join(dir, "search.log")
	require.NoError(t, os.Mkdir(path, 0755))

	tel := telemetry.NewRecorder()
	New(path, chrono.NewStandardImpl(), tel).Log(Entry{Query: "a"})
	require.Len(t, tel.Broken(report_searchlog_write), 1)
}
