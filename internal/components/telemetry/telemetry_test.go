package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	scoped := NewScopedAPI("ebay", rec)

	scoped.ReportBroken("client.search", errors.New("boom"))
	scoped.ReportWarning("client.search", "slow")
	scoped.ReportCount("client.items", 3)
	scoped.ReportDebug("token refreshed")

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "ebay.client.search", broken[0].ID)
	require.EqualError(t, broken[0].Params[0].(error), "boom")

	require.Len(t, rec.Reports("warning"), 1)
	counts := rec.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, "ebay.client.items", counts[0].ID)
	require.Equal(t, int64(3), counts[0].Count)
	require.Equal(t, "ebay: token refreshed", rec.Reports("debug")[0].ID)

	require.Len(t, rec.Broken("client.search"), 1)
	require.Empty(t, rec.Broken("craigslist"))
	require.Len(t, rec.Reports(""), 4)
}

func TestNestedScopes(t *testing.T) {
	rec := NewRecorder()
	nested := NewScopedAPI("relevance", NewScopedAPI("server", rec))

	nested.ReportBroken("filter")
	require.Equal(t, "server.relevance.filter", rec.Reports("broken")[0].ID)
}

func TestMeteredAPIForwards(t *testing.T) {
	rec := NewRecorder()
	metered, err := NewMeteredAPI(rec)
	require.NoError(t, err)

	metered.ReportBroken("store.persist", errors.New("disk full"))
	metered.ReportWarning("craigslist.region-search", "sfbay")
	metered.ReportCount("search.aggregate.count", 12)
	metered.ReportCount("search.aggregate.count", 7)
	metered.ReportDebug("hello")

	require.Len(t, rec.Broken("store.persist"), 1)
	require.Len(t, rec.Reports("warning"), 1)
	require.Len(t, rec.Reports("count"), 2)
	require.Len(t, rec.Reports("debug"), 1)
}
