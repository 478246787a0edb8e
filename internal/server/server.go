// Package server exposes search, preferences, actions, the deletion webhook and the
// agent relay over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"partsfinder-backend/internal/agent"
	"partsfinder-backend/internal/assert"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/notifications"
	"partsfinder-backend/internal/relevance"
	"partsfinder-backend/internal/search"
	"partsfinder-backend/internal/searchlog"
	"partsfinder-backend/internal/store"
	"time"

	"go.mau.fi/util/exhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	report_server_search      = "server.search"
	report_server_preferences = "server.preferences"
	report_server_actions     = "server.actions"

	maxBodySize = 1 << 20
)

// Aggregator is search.Aggregator.
//
// note: fault injection point
type Aggregator interface {
	Aggregate(ctx context.Context, query string, prefs search.Preferences) search.Aggregation
}

// Storage is the part of store.Store the handlers use.
//
// note: fault injection point
type Storage interface {
	GetPreferences(ctx context.Context, userId string) (json.RawMessage, error)
	SetPreferences(ctx context.Context, userId string, raw json.RawMessage) error
	SetAction(ctx context.Context, userId, link string, action store.Action) error
	ClearAction(ctx context.Context, userId, link string) error
	ListActions(ctx context.Context, userId string, action store.Action) ([]store.ActionListing, error)
}

type Submitter interface {
	Submit(listings []search.Listing)
}

type SearchLogger interface {
	Log(entry searchlog.Entry)
}

type Options struct {
	Aggregator Aggregator
	Storage    Storage
	// Filter defaults to relevance.Identity.
	Filter    relevance.Filter
	Persister Submitter
	SearchLog SearchLogger
	// Deletion and Agent routes are only registered when set.
	Deletion *notifications.Handler
	Agent    *agent.Handler
}

type Server struct {
	aggregator Aggregator
	storage    Storage
	filter     relevance.Filter
	persister  Submitter
	searchLog  SearchLogger
	deletion   *notifications.Handler
	agent      *agent.Handler

	time chrono.API
	tel  telemetry.API
}

func New(opts Options, time chrono.API, tel telemetry.API) Server {
	assert.NotNil(opts.Aggregator, "aggregator")
	assert.NotNil(opts.Storage, "storage")
	assert.NotNil(opts.Persister, "persister")
	assert.NotNil(opts.SearchLog, "search log")

	filter := opts.Filter
	if filter == nil {
		filter = relevance.Identity{}
	}

	return Server{
		aggregator: opts.Aggregator,
		storage:    opts.Storage,
		filter:     filter,
		persister:  opts.Persister,
		searchLog:  opts.SearchLog,
		deletion:   opts.Deletion,
		agent:      opts.Agent,
		time:       time,
		tel:        telemetry.NewScopedAPI("server", tel),
	}
}

// Routes returns the mux with every route registered.
func (s Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)

	mux.HandleFunc("GET /api/preferences/{userId}", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences/{userId}", s.handleSetPreferences)

	mux.HandleFunc("GET /api/actions/{userId}", s.handleListActions)
	mux.HandleFunc("PUT /api/actions/{userId}", s.handleSetAction)
	mux.HandleFunc("DELETE /api/actions/{userId}", s.handleClearAction)

	if s.deletion != nil {
		mux.HandleFunc("GET /api/ebay-deletion", s.deletion.HandleChallenge)
		mux.HandleFunc("POST /api/ebay-deletion", s.deletion.HandleNotification)
	}
	if s.agent != nil {
		s.agent.Register(mux, "/api/agent")
	}
	return mux
}

// Handler is Routes wrapped with otel http instrumentation.
func (s Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Routes(), "partsfinder")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	exhttp.WriteJSONResponse(w, status, map[string]string{"error": msg})
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.time.Now().UTC().Format(time.RFC3339),
	})
}
