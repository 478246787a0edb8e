package ebay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token       string
	err         error
	invalidated atomic.Int32
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

func (s *staticTokens) Invalidate() {
	s.invalidated.Add(1)
}

const searchFixture = `{
  "total": 3,
  "itemSummaries": [
    {
      "itemId": "v1|1234|0",
      "title": "  OEM Honda Civic Brake Caliper  ",
      "itemWebUrl": "https://www.ebay.com/itm/1234",
      "price": {"value": "45.99", "currency": "USD"},
      "image": {"imageUrl": "https://i.ebayimg.com/1234.jpg"},
      "condition": "Used",
      "itemCreationDate": "2024-05-01T10:00:00.000Z",
      "itemLocation": {"city": "Fresno", "stateOrProvince": "CA", "country": "US"},
      "seller": {"username": "partsguy"}
    },
    {
      "itemId": "v1|5678|0",
      "title": "Caliper bracket",
      "itemWebUrl": "https://www.ebay.com/itm/5678",
      "price": {"value": "1250.00", "currency": "USD"}
    },
    {
      "itemId": "v1|0000|0",
      "title": "",
      "itemWebUrl": "https://www.ebay.com/itm/0000"
    }
  ]
}`

func newSearchServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestSearch(t *testing.T) {
	var seen atomic.Pointer[http.Request]
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Clone(context.Background()))
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, searchFixture)
	})

	tokens := &staticTokens{token: "abc"}
	client := NewClient(ClientOptions{BaseURL: server.URL}, tokens, telemetry.NewRecorder())
	require.Equal(t, search.SourceMarketplace, client.Name())

	result, err := client.Search(context.Background(), "caliper", search.Preferences{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.RequestURL, server.URL+"/buy/browse/v1/item_summary/search?"))

	req := seen.Load()
	require.NotNil(t, req)
	require.Equal(t, "Bearer abc", req.Header.Get("authorization"))
	require.Equal(t, "EBAY_US", req.Header.Get("x-ebay-c-marketplace-id"))
	require.Equal(t, "25", req.URL.Query().Get("limit"))

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	firstCents := int64(4599)
	secondCents := int64(125000)
	expected := []search.Listing{
		{
			Title:       "OEM Honda Civic Brake Caliper",
			Price:       search.StringPtr("$45.99"),
			PriceCents:  &firstCents,
			Link:        "https://www.ebay.com/itm/1234",
			Image:       search.StringPtr("https://i.ebayimg.com/1234.jpg"),
			Source:      search.SourceMarketplace,
			ExternalID:  search.StringPtr("v1|1234|0"),
			Condition:   search.StringPtr("Used"),
			ListingDate: &created,
			Location:    search.StringPtr("Fresno, CA"),
			SellerName:  search.StringPtr("partsguy"),
		},
		{
			Title:      "Caliper bracket",
			Price:      search.StringPtr("$1250"),
			PriceCents: &secondCents,
			Link:       "https://www.ebay.com/itm/5678",
			Source:     search.SourceMarketplace,
			ExternalID: search.StringPtr("v1|5678|0"),
		},
	}
	if diff := cmp.Diff(expected, result.Items); diff != "" {
		t.Fatal(diff)
	}
}

func TestSearchNoItems(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 0}`)
	})
	client := NewClient(ClientOptions{BaseURL: server.URL}, &staticTokens{token: "abc"}, telemetry.NewRecorder())

	result, err := client.Search(context.Background(), "nothing", search.Preferences{})
	require.NoError(t, err)
	require.Empty(t, result.Items)
}

func TestSearchErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"errors":[]}`)
		})
		tel := telemetry.NewRecorder()
		client := NewClient(ClientOptions{BaseURL: server.URL}, &staticTokens{token: "abc"}, tel)

		result, err := client.Search(context.Background(), "door", search.Preferences{})
		var searchErr *search.SearchError
		require.True(t, errors.As(err, &searchErr))
		require.Equal(t, http.StatusBadGateway, searchErr.StatusCode)
		require.NotEmpty(t, result.RequestURL)
		require.NotEmpty(t, tel.Broken(report_client_search))
	})

	t.Run("unauthorized invalidates", func(t *testing.T) {
		server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		tokens := &staticTokens{token: "stale"}
		client := NewClient(ClientOptions{BaseURL: server.URL}, tokens, telemetry.NewRecorder())

		_, err := client.Search(context.Background(), "door", search.Preferences{})
		var searchErr *search.SearchError
		require.True(t, errors.As(err, &searchErr))
		require.EqualValues(t, 1, tokens.invalidated.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>`)
		})
		client := NewClient(ClientOptions{BaseURL: server.URL}, &staticTokens{token: "abc"}, telemetry.NewRecorder())

		_, err := client.Search(context.Background(), "door", search.Preferences{})
		var searchErr *search.SearchError
		require.True(t, errors.As(err, &searchErr))
	})

	t.Run("auth", func(t *testing.T) {
		var calls atomic.Int32
		server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		tokens := &staticTokens{err: &search.AuthError{Err: errors.New("denied")}}
		client := NewClient(ClientOptions{BaseURL: server.URL}, tokens, telemetry.NewRecorder())

		_, err := client.Search(context.Background(), "door", search.Preferences{})
		var authErr *search.AuthError
		require.True(t, errors.As(err, &authErr))
		require.EqualValues(t, 0, calls.Load())
	})
}

func TestGetPublicKey(t *testing.T) {
	const pem = "-----BEGIN PUBLIC KEY-----\nMFkw\n-----END PUBLIC KEY-----"
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/commerce/notification/v1/public_key/kid-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"key": %q, "algorithm": "ECDSA", "digest": "SHA1"}`, pem)
	})
	client := NewClient(ClientOptions{BaseURL: server.URL}, &staticTokens{token: "abc"}, telemetry.NewRecorder())

	key, err := client.GetPublicKey(context.Background(), "kid-1")
	require.NoError(t, err)
	require.Equal(t, PublicKey{PEM: pem, Algorithm: "ECDSA", Digest: "SHA1"}, key)

	_, err = client.GetPublicKey(context.Background(), "missing")
	require.Error(t, err)
}

func TestNormalizeItemUnparseablePrice(t *testing.T) {
	listing := normalizeItem(itemSummary{
		ItemId:     "1",
		Title:      "Fender",
		ItemWebUrl: "https://www.ebay.com/itm/1",
		Price:      &amount{Value: "call", Currency: "USD"},
	})
	require.Nil(t, listing.Price)
	require.Nil(t, listing.PriceCents)
	require.Nil(t, listing.Location)
}
