package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"partsfinder-backend/internal/components/telemetry"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

func agentServer(t *testing.T) (*httptest.Server, chan seenRequest) {
	seen := make(chan seenRequest, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- seenRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("authorization"),
			body:   string(body),
		}

		w.Header().Set("content-type", "application/json")
		switch r.URL.Path {
		case "/health":
			fmt.Fprint(w, `{"status":"ok","isRunning":true}`)
		case "/trigger":
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"started":true}`)
		case "/stop":
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error":"not running"}`)
		default:
			fmt.Fprint(w, `{}`)
		}
	}))
	t.Cleanup(server.Close)
	return server, seen
}

func newMux(client Client) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(client).Register(mux, "/api/agent")
	return mux
}

func TestRelay(t *testing.T) {
	server, seen := agentServer(t)
	client := NewClient(Config{BaseURL: server.URL + "/", Token: "secret"}, telemetry.NewRecorder())
	mux := newMux(client)

	req := httptest.NewRequest(http.MethodPost, "/api/agent/trigger?dry_run=true", nil)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	require.Equal(t, http.StatusAccepted, res.Code)
	require.JSONEq(t, `{"started":true}`, res.Body.String())
	got := <-seen
	require.Equal(t, "POST", got.method)
	require.Equal(t, "/trigger", got.path)
	require.Equal(t, "dry_run=true", got.query)
	require.Equal(t, "Bearer secret", got.auth)

	req = httptest.NewRequest(http.MethodPost, "/api/agent/grade", strings.NewReader(`{"listing":"x"}`))
	res = httptest.NewRecorder()
	mux.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	got = <-seen
	require.Equal(t, `{"listing":"x"}`, got.body)

	// upstream errors are relayed untouched
	req = httptest.NewRequest(http.MethodPost, "/api/agent/stop", nil)
	res = httptest.NewRecorder()
	mux.ServeHTTP(res, req)
	require.Equal(t, http.StatusConflict, res.Code)
	require.JSONEq(t, `{"error":"not running"}`, res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/agent/trigger", nil)
	res = httptest.NewRecorder()
	mux.ServeHTTP(res, req)
	require.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestRelayUnconfigured(t *testing.T) {
	mux := newMux(NewClient(Config{}, telemetry.NewRecorder()))

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/agent/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestRelayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseUrl := server.URL
	server.Close()

	tel := telemetry.NewRecorder()
	mux := newMux(NewClient(Config{BaseURL: baseUrl}, tel))

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/agent/stats", nil))
	require.Equal(t, http.StatusBadGateway, res.Code)
	require.Len(t, tel.Broken(report_agent_forward), 1)
}

func TestHealth(t *testing.T) {
	server, _ := agentServer(t)
	client := NewClient(Config{BaseURL: server.URL}, telemetry.NewRecorder())

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, Health{Status: "ok", IsRunning: true}, health)

	res, err := client.Trigger(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, res.StatusCode)
}
