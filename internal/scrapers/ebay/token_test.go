package ebay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type tokenServer struct {
	exchanges atomic.Int32
	fail      atomic.Bool
	server    *httptest.Server
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identity/v1/oauth2/token" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("authorization") != "Basic YXBwOmNlcnQ=" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if ts.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"server_error"}`)
			return
		}
		n := ts.exchanges.Add(1)
		w.Header().Set("content-type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":7200,"token_type":"Application Access Token"}`, n)
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func TestBaseURLFor(t *testing.T) {
	require.Equal(t, SandboxBaseURL, BaseURLFor("Someone-parts-SBX-1234"))
	require.Equal(t, ProductionBaseURL, BaseURLFor("Someone-parts-PRD-1234"))
}

func TestCredentialCacheReuse(t *testing.T) {
	ts := newTokenServer(t)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := chrono.NewManualClock(start)

	cache := NewCredentialCache(CredentialOptions{
		BaseURL: ts.server.URL,
		AppId:   "app",
		CertId:  "cert",
	}, clock, telemetry.NewRecorder())

	ctx := context.Background()
	token, err := cache.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)

	// 7200s expiry less the five minute margin is 6900s
	clock.Set(start.Add(6899 * time.Second))
	token, err = cache.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.EqualValues(t, 1, ts.exchanges.Load())

	clock.Set(start.Add(6900 * time.Second))
	token, err = cache.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-2", token)
	require.EqualValues(t, 2, ts.exchanges.Load())
}

func TestCredentialCacheShortLived(t *testing.T) {
	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := exchanges.Add(1)
		fmt.Fprintf(w, `{"access_token":"short-%d","expires_in":3600}`, n)
	}))
	defer server.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := chrono.NewManualClock(start)
	cache := NewCredentialCache(CredentialOptions{BaseURL: server.URL, AppId: "a", CertId: "b"}, clock, telemetry.NewRecorder())

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	clock.Set(start.Add(3299 * time.Second))
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "short-1", token)

	clock.Set(start.Add(3300 * time.Second))
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "short-2", token)
}

func TestCredentialCacheFailure(t *testing.T) {
	ts := newTokenServer(t)
	clock := chrono.NewManualClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	tel := telemetry.NewRecorder()

	cache := NewCredentialCache(CredentialOptions{
		BaseURL: ts.server.URL,
		AppId:   "app",
		CertId:  "cert",
	}, clock, tel)

	ts.fail.Store(true)
	_, err := cache.Token(context.Background())
	var authErr *search.AuthError
	require.True(t, errors.As(err, &authErr))
	require.NotEmpty(t, tel.Broken(report_credentials_exchange))

	// a failed exchange does not poison the cache, the next call tries again
	ts.fail.Store(false)
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
}

func TestCredentialCacheMissingCredentials(t *testing.T) {
	ts := newTokenServer(t)
	cache := NewCredentialCache(CredentialOptions{BaseURL: ts.server.URL}, chrono.NewStandardImpl(), telemetry.NewRecorder())

	_, err := cache.Token(context.Background())
	var authErr *search.AuthError
	require.True(t, errors.As(err, &authErr))
	require.EqualValues(t, 0, ts.exchanges.Load())
}

func TestCredentialCacheInvalidate(t *testing.T) {
	ts := newTokenServer(t)
	cache := NewCredentialCache(CredentialOptions{
		BaseURL: ts.server.URL,
		AppId:   "app",
		CertId:  "cert",
	}, chrono.NewStandardImpl(), telemetry.NewRecorder())

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", token)

	cache.Invalidate()
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-2", token)
}
