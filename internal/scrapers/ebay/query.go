package ebay

import (
	"fmt"
	"net/url"
	"partsfinder-backend/internal/search"
	"strconv"
	"strings"
)

// buildQuery appends a negated phrase for every excluded keyword.
func buildQuery(base string, excluded []string) string {
	if len(excluded) == 0 {
		return base
	}
	exclusions := make([]string, 0, len(excluded))
	for _, kw := range excluded {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		exclusions = append(exclusions, fmt.Sprintf(`-"%s"`, kw))
	}
	if len(exclusions) == 0 {
		return base
	}
	return base + " " + strings.Join(exclusions, " ")
}

// buildFilter renders the browse api `filter` parameter, empty means no filter.
func buildFilter(prefs search.Resolved) string {
	var filters []string
	if len(prefs.ConditionIDs) > 0 {
		filters = append(filters, fmt.Sprintf("conditionIds:{%s}", strings.Join(prefs.ConditionIDs, "|")))
	}
	if len(prefs.BuyingOptions) > 0 {
		filters = append(filters, fmt.Sprintf("buyingOptions:{%s}", strings.Join(prefs.BuyingOptions, "|")))
	}
	if prefs.MaxPrice != "" {
		filters = append(filters, fmt.Sprintf("price:[..%s],priceCurrency:USD", prefs.MaxPrice))
	}
	return strings.Join(filters, ",")
}

// buildCompatibilityFilter only includes the vehicle fields that were supplied.
func buildCompatibilityFilter(prefs search.Resolved) string {
	var parts []string
	if prefs.VehicleYear != "" {
		parts = append(parts, "Year:"+prefs.VehicleYear)
	}
	if prefs.VehicleMake != "" {
		parts = append(parts, "Make:"+prefs.VehicleMake)
	}
	if prefs.VehicleModel != "" {
		parts = append(parts, "Model:"+prefs.VehicleModel)
	}
	return strings.Join(parts, ",")
}

// buildAspectFilter needs a category, aspects are scoped to one.
func buildAspectFilter(prefs search.Resolved) string {
	if prefs.CategoryID == "" {
		return ""
	}
	var aspects []string
	if prefs.BrandTypeOEM {
		aspects = append(aspects, "Brand Type:{Genuine OEM}")
	}
	if prefs.OriginUS {
		aspects = append(aspects, "Country/Region of Manufacture:{United States}")
	}
	if len(aspects) == 0 {
		return ""
	}
	return fmt.Sprintf("categoryId:%s,%s", prefs.CategoryID, strings.Join(aspects, ","))
}

func buildSearchParams(query string, prefs search.Resolved, limit int) url.Values {
	params := url.Values{}
	params.Set("q", buildQuery(query, prefs.ExcludedKeywords))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", prefs.Sort)

	if prefs.CategoryID != "" {
		params.Set("category_ids", prefs.CategoryID)
	}
	if filter := buildFilter(prefs); filter != "" {
		params.Set("filter", filter)
	}
	if compatibility := buildCompatibilityFilter(prefs); compatibility != "" {
		params.Set("compatibility_filter", compatibility)
	}
	if aspects := buildAspectFilter(prefs); aspects != "" {
		params.Set("aspect_filter", aspects)
	}
	return params
}
