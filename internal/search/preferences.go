package search

import (
	"bytes"
	"encoding/json"
)

// FlexString is a string that also accepts a bare JSON number, stored preferences
// are free-form and have held both `"500"` and `500`.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Preferences are a user's stored search preferences. Every field is optional,
// a nil pointer or nil slice means "use the default" while an explicit empty
// value disables that part of the search.
type Preferences struct {
	CategoryID       *FlexString `json:"category_id,omitempty"`
	ConditionIDs     []string    `json:"condition_ids"`
	ExcludedKeywords []string    `json:"excluded_keywords"`
	BuyingOptions    []string    `json:"buying_options"`
	VehicleYear      FlexString  `json:"vehicle_year,omitempty"`
	VehicleMake      string      `json:"vehicle_make,omitempty"`
	VehicleModel     string      `json:"vehicle_model,omitempty"`
	Sort             string      `json:"sort,omitempty"`
	MaxPrice         *FlexString `json:"max_price,omitempty"`
	BrandTypeOEM     *bool       `json:"brand_type_oem,omitempty"`
	OriginUS         *bool       `json:"origin_us,omitempty"`

	CraigslistEnabled *bool    `json:"craigslist_enabled,omitempty"`
	CraigslistCity    string   `json:"craigslist_city,omitempty"`
	CraigslistLat     *float64 `json:"craigslist_lat,omitempty"`
	CraigslistLon     *float64 `json:"craigslist_lon,omitempty"`
	CraigslistRadius  *float64 `json:"craigslist_radius,omitempty"`
}

// ParsePreferences decodes stored preferences, an empty document yields the zero value.
func ParsePreferences(raw []byte) (Preferences, error) {
	var prefs Preferences
	if len(bytes.TrimSpace(raw)) == 0 {
		return prefs, nil
	}
	err := json.Unmarshal(raw, &prefs)
	return prefs, err
}

const (
	DefaultCategoryID       = "33710"
	DefaultSort             = "newlyListed"
	DefaultMaxPrice         = "500"
	DefaultClassifiedRadius = 100
)

var (
	DefaultConditionIDs     = []string{"3000"}
	DefaultExcludedKeywords = []string{"parting out", "whole car", "complete vehicle"}
	DefaultBuyingOptions    = []string{"FIXED_PRICE", "BEST_OFFER", "AUCTION"}
)

// Resolved are preferences with every default applied.
type Resolved struct {
	CategoryID       string
	ConditionIDs     []string
	ExcludedKeywords []string
	BuyingOptions    []string
	VehicleYear      string
	VehicleMake      string
	VehicleModel     string
	Sort             string
	MaxPrice         string
	BrandTypeOEM     bool
	OriginUS         bool

	ClassifiedsEnabled bool
	ClassifiedsCity    string
	ClassifiedsLat     *float64
	ClassifiedsLon     *float64
	ClassifiedsRadius  float64
}

func orDefault(values []string, fallback []string) []string {
	if values == nil {
		return append([]string(nil), fallback...)
	}
	return values
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// WithDefaults merges the preferences over the documented defaults.
func (p Preferences) WithDefaults() Resolved {
	r := Resolved{
		CategoryID:       DefaultCategoryID,
		ConditionIDs:     orDefault(p.ConditionIDs, DefaultConditionIDs),
		ExcludedKeywords: orDefault(p.ExcludedKeywords, DefaultExcludedKeywords),
		BuyingOptions:    orDefault(p.BuyingOptions, DefaultBuyingOptions),
		VehicleYear:      string(p.VehicleYear),
		VehicleMake:      p.VehicleMake,
		VehicleModel:     p.VehicleModel,
		Sort:             p.Sort,
		MaxPrice:         DefaultMaxPrice,
		BrandTypeOEM:     boolOr(p.BrandTypeOEM, true),
		OriginUS:         boolOr(p.OriginUS, true),

		ClassifiedsEnabled: boolOr(p.CraigslistEnabled, true),
		ClassifiedsCity:    p.CraigslistCity,
		ClassifiedsLat:     p.CraigslistLat,
		ClassifiedsLon:     p.CraigslistLon,
		ClassifiedsRadius:  DefaultClassifiedRadius,
	}
	if p.CategoryID != nil {
		r.CategoryID = string(*p.CategoryID)
	}
	if p.MaxPrice != nil {
		r.MaxPrice = string(*p.MaxPrice)
	}
	if r.Sort == "" {
		r.Sort = DefaultSort
	}
	if p.CraigslistRadius != nil && *p.CraigslistRadius > 0 {
		r.ClassifiedsRadius = *p.CraigslistRadius
	}
	return r
}

// SourceEnabled reports whether the named source should be queried at all.
func (p Preferences) SourceEnabled(name SourceName) bool {
	if name == SourceClassifieds {
		return boolOr(p.CraigslistEnabled, true)
	}
	return true
}
