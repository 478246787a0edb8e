// Package relevance prunes aggregated listings that are off topic for a query.
package relevance

import (
	"context"
	"errors"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
)

const report_relevance_filter = "relevance.filter"

// Counts describe how much a filter pruned.
type Counts struct {
	Original int `json:"original"`
	Kept     int `json:"kept"`
}

// Outcome is the result of a filter, Filtered is nil when nothing was filtered.
type Outcome struct {
	Results  []search.Listing
	Filtered *Counts
}

// Filter decides which listings are relevant to a query. Implementations must
// preserve the relative order of the listings they keep.
//
// note: fault injection point
type Filter interface {
	Filter(ctx context.Context, listings []search.Listing, query string) (Outcome, error)
}

// Identity keeps every listing.
type Identity struct{}

func (Identity) Filter(ctx context.Context, listings []search.Listing, query string) (Outcome, error) {
	return Outcome{Results: listings}, nil
}

// Apply runs f and falls back to the unfiltered listings on any failure. An empty
// input never reaches the filter.
func Apply(ctx context.Context, tel telemetry.API, f Filter, listings []search.Listing, query string) Outcome {
	if f == nil || len(listings) == 0 {
		return Outcome{Results: listings}
	}

	outcome, err := f.Filter(ctx, listings, query)
	if err != nil {
		var filterErr *search.FilterError
		if !errors.As(err, &filterErr) {
			err = &search.FilterError{Err: err}
		}
		tel.ReportBroken(report_relevance_filter, err, query)
		return Outcome{Results: listings}
	}
	return outcome
}
