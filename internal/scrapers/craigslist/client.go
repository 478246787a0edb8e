// Package craigslist searches the auto parts section of craigslist regions by
// scraping the static search results page.
package craigslist

import (
	"context"
	"errors"
	"fmt"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_region_search = "region.search"
	report_region_urls   = "region.urls"

	// MaxPerRegion caps how many listings a single region contributes.
	MaxPerRegion = 25

	regionTimeout = 20 * time.Second
	userAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type ClientOptions struct {
	// Origin maps a region to the origin its pages are fetched from, defaults to DefaultOrigin.
	Origin func(region string) string
	// Timeout bounds each region request, defaults to 20 seconds.
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	origin  func(region string) string
	timeout time.Duration
	tel     telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) Client {
	tel = telemetry.NewScopedAPI("craigslist", tel)

	origin := opts.Origin
	if origin == nil {
		origin = DefaultOrigin
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = regionTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html")
	telemetry.InstrumentResty(client, tel)

	return Client{
		http:    client,
		origin:  origin,
		timeout: timeout,
		tel:     tel,
	}
}

type regionResult struct {
	url   string
	items []search.Listing
	err   error
}

// Search queries every region selected by opts concurrently. Failing regions are
// reported and left out, the call only fails when every region fails.
func (c Client) Search(ctx context.Context, query string, opts Options) (search.Result, error) {
	regions := opts.regions()
	results := make([]regionResult, len(regions))

	wg := sync.WaitGroup{}
	for i, region := range regions {
		if !ValidRegion(region) {
			results[i].err = fmt.Errorf("%w '%s'", ErrInvalidRegion, region)
			continue
		}
		results[i].url = searchURL(c.origin(region), query, opts)

		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.searchRegion(ctx, region, results[i].url)
			results[i].items = items
			results[i].err = err
		}()
	}
	wg.Wait()

	out := search.Result{RequestURL: results[0].url}
	if len(results) > 1 {
		others := make([]string, 0, len(results)-1)
		for _, r := range results[1:] {
			others = append(others, r.url)
		}
		c.tel.ReportDebug(report_region_urls, others)
	}

	var errs []error
	for i, r := range results {
		if r.err != nil {
			c.tel.ReportBroken(report_region_search, r.err, regions[i])
			errs = append(errs, fmt.Errorf("%s: %w", regions[i], r.err))
			continue
		}
		out.Items = append(out.Items, r.items...)
	}
	if len(errs) == len(results) {
		return out, &search.SearchError{
			Source: search.SourceClassifieds,
			Err:    errors.Join(errs...),
		}
	}

	return out, nil
}

func (c Client) searchRegion(ctx context.Context, region string, requestUrl string) ([]search.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		Get(requestUrl)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("status %d", res.StatusCode())
	}

	doc, err := parseDocument(res.Body())
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := parseResultsPage(doc, c.origin(region))
	enrich(rows, parseStructuredData(doc))

	items := make([]search.Listing, 0, min(len(rows), MaxPerRegion))
	for _, r := range rows {
		listing := normalizeRow(r, region)
		if !listing.Valid() {
			continue
		}
		items = append(items, listing)
		if len(items) == MaxPerRegion {
			break
		}
	}
	c.tel.ReportDebug("region complete", region, len(rows), len(items))

	return items, nil
}
