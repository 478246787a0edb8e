package ebay

import (
	"encoding/json"
	"partsfinder-backend/internal/search"
	"strings"
	"time"
)

// parseSearchResponse decodes a search response body, a body without
// itemSummaries yields no items.
func parseSearchResponse(body []byte) ([]itemSummary, error) {
	var res searchResponse
	err := json.Unmarshal(body, &res)
	if err != nil {
		return nil, err
	}
	return res.ItemSummaries, nil
}

// normalizeItem maps one api item into the canonical listing.
func normalizeItem(item itemSummary) search.Listing {
	listing := search.Listing{
		Title:      strings.TrimSpace(item.Title),
		Link:       item.ItemWebUrl,
		Source:     search.SourceMarketplace,
		ExternalID: search.StringPtr(item.ItemId),
		Condition:  search.StringPtr(item.Condition),
	}

	if item.Price != nil {
		cents, ok := search.ParseCents(item.Price.Value)
		if ok {
			display := search.FormatCents(cents, item.Price.Currency)
			listing.PriceCents = &cents
			listing.Price = &display
		}
	}

	if item.Image != nil {
		listing.Image = search.StringPtr(item.Image.ImageUrl)
	}

	if item.ItemLocation != nil {
		var parts []string
		if item.ItemLocation.City != "" {
			parts = append(parts, item.ItemLocation.City)
		}
		if item.ItemLocation.StateOrProvince != "" {
			parts = append(parts, item.ItemLocation.StateOrProvince)
		}
		listing.Location = search.StringPtr(strings.Join(parts, ", "))
	}

	if item.ItemCreationDate != "" {
		created, err := time.Parse(time.RFC3339, item.ItemCreationDate)
		if err == nil {
			created = created.UTC()
			listing.ListingDate = &created
		}
	}

	if item.Seller != nil {
		listing.SellerName = search.StringPtr(item.Seller.Username)
	}

	return listing
}
