package search

import (
	"context"
	"fmt"
	"partsfinder-backend/internal/assert"
	"partsfinder-backend/internal/components/telemetry"
	"slices"
	"sync"
	"time"
)

const (
	report_aggregate_source = "aggregate.source"
	report_aggregate_count  = "aggregate.count"
)

// Source is one upstream marketplace the aggregator can query.
type Source interface {
	Name() SourceName
	Search(ctx context.Context, query string, prefs Preferences) (Result, error)
}

// Status is the settled state of one source within an aggregate call.
type Status string

const (
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
	StatusSkipped   Status = "skipped"
)

// SourceReport describes how one source fared.
type SourceReport struct {
	Count  int    `json:"count"`
	Status Status `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Aggregation is the merged, ordered output of every source.
type Aggregation struct {
	Results []Listing
	Sources map[SourceName]SourceReport
}

// Aggregator fans a query out to every source and merges what comes back.
type Aggregator struct {
	sources []Source
	timeout time.Duration
	tel     telemetry.API
}

const DefaultSourceTimeout = 30 * time.Second

// NewAggregator creates an aggregator over sources, results are concatenated in the order
// sources are given. A timeout <= 0 uses DefaultSourceTimeout.
func NewAggregator(tel telemetry.API, timeout time.Duration, sources ...Source) Aggregator {
	assert.NotNil(tel, "telemetry")
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return Aggregator{
		sources: sources,
		timeout: timeout,
		tel:     telemetry.NewScopedAPI("search", tel),
	}
}

// Aggregate queries every enabled source concurrently. A failing source never fails the
// call, it contributes no items and is marked rejected.
func (a Aggregator) Aggregate(ctx context.Context, query string, prefs Preferences) Aggregation {
	tasks := make([]func(context.Context) (Result, error), len(a.sources))
	for i, source := range a.sources {
		if !prefs.SourceEnabled(source.Name()) {
			continue
		}
		tasks[i] = func(ctx context.Context) (Result, error) {
			return source.Search(ctx, query, prefs)
		}
	}

	settled := settleAll(ctx, a.timeout, tasks)

	out := Aggregation{
		Sources: make(map[SourceName]SourceReport, len(a.sources)),
	}
	for i, source := range a.sources {
		outcome := settled[i]
		switch {
		case tasks[i] == nil:
			out.Sources[source.Name()] = SourceReport{Status: StatusSkipped}
		case outcome.err != nil:
			a.tel.ReportBroken(report_aggregate_source, outcome.err, string(source.Name()), query)
			out.Sources[source.Name()] = SourceReport{
				Status: StatusRejected,
				URL:    outcome.result.RequestURL,
				Error:  outcome.err.Error(),
			}
		default:
			items := KeepValid(outcome.result.Items)
			out.Results = append(out.Results, items...)
			out.Sources[source.Name()] = SourceReport{
				Count:  len(items),
				Status: StatusFulfilled,
				URL:    outcome.result.RequestURL,
			}
		}
	}

	SortByRecency(out.Results)
	a.tel.ReportCount(report_aggregate_count, int64(len(out.Results)))

	return out
}

type settled struct {
	result Result
	err    error
}

// settleAll runs every non-nil task in its own goroutine, each with its own timeout,
// and waits for all of them. Nil tasks are left as zero values.
func settleAll(ctx context.Context, timeout time.Duration, tasks []func(context.Context) (Result, error)) []settled {
	out := make([]settled, len(tasks))
	wg := sync.WaitGroup{}

	for i, task := range tasks {
		if task == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i] = settled{err: fmt.Errorf("panic: %v", r)}
				}
			}()

			taskCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := task(taskCtx)
			out[i] = settled{result: result, err: err}
		}()
	}

	wg.Wait()
	return out
}

// SortByRecency orders listings newest first. Dated listings come before undated ones
// and undated listings keep their relative order.
func SortByRecency(listings []Listing) {
	slices.SortStableFunc(listings, func(a, b Listing) int {
		switch {
		case a.ListingDate != nil && b.ListingDate != nil:
			return b.ListingDate.Compare(*a.ListingDate)
		case a.ListingDate != nil:
			return -1
		case b.ListingDate != nil:
			return 1
		}
		return 0
	})
}
