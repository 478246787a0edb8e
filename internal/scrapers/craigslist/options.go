package craigslist

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// ErrInvalidRegion is returned for a region that is not a bare craigslist subdomain.
var ErrInvalidRegion = errors.New("invalid region")

var regionRegex = regexp.MustCompile(`^[a-z0-9-]{1,63}$`)

// ValidRegion reports whether region can only ever name a craigslist.org subdomain.
func ValidRegion(region string) bool {
	return regionRegex.MatchString(region)
}

// DefaultRegions are the metro areas searched when no city is configured.
var DefaultRegions = []string{
	"sfbay",
	"newyork",
	"losangeles",
	"chicago",
	"seattle",
	"boston",
	"atlanta",
	"phoenix",
}

// Options narrow a search to one region. The zero value searches DefaultRegions.
type Options struct {
	// City is a craigslist subdomain, ex. "sfbay".
	City string
	// Latitude and Longitude only apply when City is set.
	Latitude  *float64
	Longitude *float64
	// Radius is the search distance in miles around Latitude/Longitude.
	Radius float64
}

func (o Options) regions() []string {
	if o.City != "" {
		return []string{o.City}
	}
	return DefaultRegions
}

func (o Options) geo() bool {
	return o.City != "" && o.Latitude != nil && o.Longitude != nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DefaultOrigin is the origin of a region's site.
func DefaultOrigin(region string) string {
	return fmt.Sprintf("https://%s.craigslist.org", region)
}

func searchURL(origin string, query string, opts Options) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("sort", "rel")
	if opts.geo() {
		params.Set("lat", formatFloat(*opts.Latitude))
		params.Set("lon", formatFloat(*opts.Longitude))
		if opts.Radius > 0 {
			params.Set("search_distance", formatFloat(opts.Radius))
		}
	}
	return fmt.Sprintf("%s/search/pta?%s", origin, params.Encode())
}
