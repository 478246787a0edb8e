package craigslist

import (
	"context"
	"partsfinder-backend/internal/search"
)

// Source adapts a Client to search.Source using the classifieds fields of the
// user's preferences.
type Source struct {
	Client Client
}

func (s Source) Name() search.SourceName {
	return search.SourceClassifieds
}

func (s Source) Search(ctx context.Context, query string, prefs search.Preferences) (search.Result, error) {
	return s.Client.Search(ctx, query, OptionsFrom(prefs.WithDefaults()))
}

// OptionsFrom picks the region options out of resolved preferences.
func OptionsFrom(prefs search.Resolved) Options {
	return Options{
		City:      prefs.ClassifiedsCity,
		Latitude:  prefs.ClassifiedsLat,
		Longitude: prefs.ClassifiedsLon,
		Radius:    prefs.ClassifiedsRadius,
	}
}
