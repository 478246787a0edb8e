package craigslist

import (
	"fmt"
	"partsfinder-backend/internal/search"
	"regexp"
	"strings"
)

var (
	priceRegex      = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	externalIdRegex = regexp.MustCompile(`/(\d+)\.html$`)
)

func parseAmountCents(amount string) (int64, bool) {
	return search.ParseCents(amount)
}

func formatDollars(cents int64) string {
	return search.FormatCents(cents, "USD")
}

// ParsePriceCents reads the first dollar amount in a price label, ex. "$1,250" is
// 125000. Labels without a "$" amount ("Free", "") yield nil.
func ParsePriceCents(text string) *int64 {
	match := priceRegex.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	cents, ok := parseAmountCents(match[1])
	if !ok {
		return nil
	}
	return &cents
}

// ExternalID is the numeric posting id at the end of a listing link.
func ExternalID(link string) *string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	match := externalIdRegex.FindStringSubmatch(link)
	if match == nil {
		return nil
	}
	return &match[1]
}

// normalizeRow maps one parsed row into the canonical listing. Classifieds rows never
// carry a listing date, a missing location falls back to the region.
func normalizeRow(r row, region string) search.Listing {
	location := r.Location
	if location == "" {
		location = fmt.Sprintf("%s area", region)
	}
	return search.Listing{
		Title:      r.Title,
		Price:      search.StringPtr(r.Price),
		PriceCents: ParsePriceCents(r.Price),
		Link:       r.Href,
		Image:      search.StringPtr(r.Image),
		Source:     search.SourceClassifieds,
		ExternalID: ExternalID(r.Href),
		Location:   &location,
	}
}
