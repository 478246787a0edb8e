package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"partsfinder-backend/internal/assert"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_search     = "client.search"
	report_client_public_key = "client.public-key"

	marketplaceId  = "EBAY_US"
	requestTimeout = 20 * time.Second
	DefaultLimit   = 25
)

type ClientOptions struct {
	// BaseURL is the api origin, ProductionBaseURL or SandboxBaseURL.
	BaseURL string
	// Limit defaults to DefaultLimit.
	Limit int
}

// Client searches the browse api, it implements search.Source.
type Client struct {
	http    *resty.Client
	baseUrl string
	limit   int
	tokens  TokenSource
	tel     telemetry.API
}

func NewClient(opts ClientOptions, tokens TokenSource, tel telemetry.API) Client {
	assert.NotNil(tokens, "tokens")
	assert.NotEmptyStr(opts.BaseURL, "base url")

	tel = telemetry.NewScopedAPI("ebay", tel)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	client := resty.New()
	client.SetTimeout(requestTimeout)
	client.SetHeader("accept", "application/json")
	telemetry.InstrumentResty(client, tel)

	return Client{
		http:    client,
		baseUrl: strings.TrimRight(opts.BaseURL, "/"),
		limit:   limit,
		tokens:  tokens,
		tel:     tel,
	}
}

func (c Client) Name() search.SourceName {
	return search.SourceMarketplace
}

// SearchURL renders the request url Search would send for the given query.
func (c Client) SearchURL(query string, prefs search.Preferences) string {
	params := buildSearchParams(query, prefs.WithDefaults(), c.limit)
	return fmt.Sprintf("%s/buy/browse/v1/item_summary/search?%s", c.baseUrl, params.Encode())
}

// Search runs one browse api search. Credential failures return a *search.AuthError,
// everything else that goes wrong returns a *search.SearchError. The request url is
// returned even when the search fails.
func (c Client) Search(ctx context.Context, query string, prefs search.Preferences) (search.Result, error) {
	requestUrl := c.SearchURL(query, prefs)
	result := search.Result{RequestURL: requestUrl}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return result, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("x-ebay-c-marketplace-id", marketplaceId).
		Get(requestUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_search, fmt.Errorf("fetch: %w", err), requestUrl)
		return result, &search.SearchError{Source: search.SourceMarketplace, Err: err}
	}
	if res.StatusCode() == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected response: %s", truncate(res.String()))
		c.tel.ReportBroken(report_client_search, err, res.StatusCode(), requestUrl)
		return result, &search.SearchError{
			Source:     search.SourceMarketplace,
			StatusCode: res.StatusCode(),
			Err:        err,
		}
	}

	items, err := parseSearchResponse(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_search, fmt.Errorf("decode: %w", err), requestUrl)
		return result, &search.SearchError{
			Source:     search.SourceMarketplace,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("decode: %w", err),
		}
	}

	result.Items = make([]search.Listing, 0, len(items))
	for _, item := range items {
		listing := normalizeItem(item)
		if !listing.Valid() {
			c.tel.ReportWarning(report_client_search, "dropped invalid item", item.ItemId)
			continue
		}
		result.Items = append(result.Items, listing)
	}
	c.tel.ReportDebug("search complete", requestUrl, len(result.Items))

	return result, nil
}

// PublicKey is a notification signing key.
type PublicKey struct {
	// PEM is the PEM encoded public key.
	PEM       string
	Algorithm string
	Digest    string
}

// GetPublicKey fetches the key used to sign marketplace notifications.
func (c Client) GetPublicKey(ctx context.Context, kid string) (PublicKey, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return PublicKey{}, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(fmt.Sprintf("%s/commerce/notification/v1/public_key/%s", c.baseUrl, url.PathEscape(kid)))
	if err != nil {
		c.tel.ReportBroken(report_client_public_key, err, kid)
		return PublicKey{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("status %d: %s", res.StatusCode(), truncate(res.String()))
		c.tel.ReportBroken(report_client_public_key, err, kid)
		return PublicKey{}, err
	}

	var body publicKeyResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode public key: %w", err)
	}
	pem, err := decodeKey(body.Key)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{PEM: pem, Algorithm: body.Algorithm, Digest: body.Digest}, nil
}

// decodeKey accepts either a PEM document or a base64 encoded PEM document.
func decodeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("decode public key: empty key")
	}
	if strings.HasPrefix(key, "-----BEGIN") {
		return key, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	return string(decoded), nil
}
