// Package search holds the canonical listing shape shared by every upstream source
// and the aggregator that merges them.
package search

import (
	"time"
)

// SourceName tags which upstream a listing came from.
type SourceName string

const (
	SourceMarketplace SourceName = "marketplace"
	SourceClassifieds SourceName = "classifieds"
)

// Listing is the canonical listing produced by every source client.
// Nil pointer fields are serialized as JSON null.
type Listing struct {
	Title       string     `json:"title"`
	Price       *string    `json:"price"`
	PriceCents  *int64     `json:"price_cents"`
	Link        string     `json:"link"`
	Image       *string    `json:"image"`
	Source      SourceName `json:"source"`
	ExternalID  *string    `json:"external_id"`
	Condition   *string    `json:"condition"`
	ListingDate *time.Time `json:"listing_date"`
	Location    *string    `json:"location"`
	SellerName  *string    `json:"seller_name"`
}

// Valid reports whether the listing has the fields every listing must have.
func (l Listing) Valid() bool {
	return l.Title != "" && l.Link != "" && l.Source != ""
}

// SameItem reports whether two listings refer to the same real world item.
func (l Listing) SameItem(other Listing) bool {
	return l.Link == other.Link
}

// Result is what a single source returns for one query.
type Result struct {
	Items []Listing
	// RequestURL is the fully constructed upstream URL, kept for debugging.
	RequestURL string
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// KeepValid drops every listing that is not Valid, preserving order.
func KeepValid(listings []Listing) []Listing {
	out := listings[:0:0]
	for _, l := range listings {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}
