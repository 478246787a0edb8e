package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"partsfinder-backend/internal/relevance"
	"partsfinder-backend/internal/search"
	"partsfinder-backend/internal/searchlog"
	"partsfinder-backend/internal/store"
	"strings"

	"go.mau.fi/util/exhttp"
)

type SourceSummary struct {
	Count  int           `json:"count"`
	Status search.Status `json:"status"`
	URL    string        `json:"url,omitempty"`
}

type SearchResponse struct {
	Results  []search.Listing                    `json:"results"`
	Query    string                              `json:"query"`
	Sources  map[search.SourceName]SourceSummary `json:"sources"`
	Filtered *relevance.Counts                   `json:"filtered,omitempty"`
}

// loadPreferences returns the stored preferences of a user, defaults when the user
// is anonymous or has no profile.
func (s Server) loadPreferences(ctx context.Context, userId string) (search.Preferences, error) {
	if userId == "" {
		return search.Preferences{}, nil
	}
	raw, err := s.storage.GetPreferences(ctx, userId)
	if errors.Is(err, store.ErrNotFound) {
		return search.Preferences{}, nil
	}
	if err != nil {
		return search.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	prefs, err := search.ParsePreferences(raw)
	if err != nil {
		return search.Preferences{}, fmt.Errorf("parse preferences: %w", err)
	}
	return prefs, nil
}

// Search runs one full search: preferences, aggregation, relevance filtering, then
// background persistence and the search log.
func (s Server) Search(ctx context.Context, query, userId string) (SearchResponse, error) {
	prefs, err := s.loadPreferences(ctx, userId)
	if err != nil {
		return SearchResponse{}, err
	}

	aggregation := s.aggregator.Aggregate(ctx, query, prefs)
	outcome := relevance.Apply(ctx, s.tel, s.filter, aggregation.Results, query)

	results := outcome.Results
	if results == nil {
		results = []search.Listing{}
	}

	res := SearchResponse{
		Results:  results,
		Query:    query,
		Sources:  make(map[search.SourceName]SourceSummary, len(aggregation.Sources)),
		Filtered: outcome.Filtered,
	}
	for name, report := range aggregation.Sources {
		res.Sources[name] = SourceSummary{
			Count:  report.Count,
			Status: report.Status,
			URL:    report.URL,
		}
	}

	s.persister.Submit(results)

	marketplace := aggregation.Sources[search.SourceMarketplace]
	classifieds := aggregation.Sources[search.SourceClassifieds]
	s.searchLog.Log(searchlog.Entry{
		User:               userId,
		Query:              query,
		MarketplaceURL:     marketplace.URL,
		ClassifiedsURL:     classifieds.URL,
		MarketplaceResults: marketplace.Count,
		ClassifiedsResults: classifieds.Count,
	})

	return res, nil
}

func (s Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	userId := strings.TrimSpace(r.URL.Query().Get("user_id"))

	res, err := s.Search(r.Context(), query, userId)
	if err != nil {
		s.tel.ReportBroken(report_server_search, err, query, userId)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, res)
}
