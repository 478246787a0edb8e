package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"partsfinder-backend/pkg/oauth"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_credentials_exchange = "credentials.exchange"

	SandboxBaseURL    = "https://api.sandbox.ebay.com"
	ProductionBaseURL = "https://api.ebay.com"

	DefaultScope = "https://api.ebay.com/oauth/api_scope"

	// tokens are treated as expired this long before the upstream says they are
	expiryMargin = 5 * time.Minute
)

// BaseURLFor picks the sandbox environment for sandbox application ids.
func BaseURLFor(appId string) string {
	if strings.Contains(appId, "SBX") {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// TokenSource hands out bearer tokens for the browse and notification APIs.
//
// note: fault injection point
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached token so that the next call exchanges again.
	Invalidate()
}

type CredentialOptions struct {
	// BaseURL defaults to BaseURLFor(AppId).
	BaseURL string
	AppId   string
	CertId  string
	// Scope defaults to DefaultScope.
	Scope string
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// CredentialCache caches an application token from the client credentials grant.
//
// Concurrent callers that miss the cache may each run an exchange, the last one to
// finish wins. Exchanges are cheap and rare so this is preferred over a lock.
type CredentialCache struct {
	http     *resty.Client
	tokenUrl string
	appId    string
	certId   string
	scope    string

	time chrono.API
	tel  telemetry.API

	cached atomic.Pointer[cachedToken]
}

func NewCredentialCache(opts CredentialOptions, time chrono.API, tel telemetry.API) *CredentialCache {
	tel = telemetry.NewScopedAPI("ebay", tel)

	baseUrl := opts.BaseURL
	if baseUrl == "" {
		baseUrl = BaseURLFor(opts.AppId)
	}
	scope := opts.Scope
	if scope == "" {
		scope = DefaultScope
	}

	client := resty.New()
	client.SetTimeout(requestTimeout)
	telemetry.InstrumentResty(client, tel)

	return &CredentialCache{
		http:     client,
		tokenUrl: strings.TrimRight(baseUrl, "/") + "/identity/v1/oauth2/token",
		appId:    opts.AppId,
		certId:   opts.CertId,
		scope:    scope,
		time:     time,
		tel:      tel,
	}
}

// Token returns the cached token, or exchanges credentials for a new one when there is
// no token or it is within five minutes of expiring. A failed exchange leaves the cache
// untouched and returns a *search.AuthError, it is not retried.
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	now := c.time.Now()
	current := c.cached.Load()
	if current != nil && now.Before(current.expiresAt) {
		return current.token, nil
	}

	token, err := c.exchange(ctx)
	if err != nil {
		c.tel.ReportBroken(report_credentials_exchange, err)
		return "", &search.AuthError{Err: err}
	}

	c.cached.Store(&cachedToken{
		token:     token.AccessToken,
		expiresAt: now.Add(time.Duration(token.ExpiresIn)*time.Second - expiryMargin),
	})
	return token.AccessToken, nil
}

func (c *CredentialCache) Invalidate() {
	c.cached.Store(nil)
}

func (c *CredentialCache) exchange(ctx context.Context) (oauth.Token, error) {
	if c.appId == "" || c.certId == "" {
		return oauth.Token{}, errors.New("missing application credentials")
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("authorization", oauth.BasicCredentials(c.appId, c.certId)).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetBody(oauth.ClientCredentialsForm(c.scope).Encode()).
		Post(c.tokenUrl)
	if err != nil {
		return oauth.Token{}, fmt.Errorf("post token: %w", err)
	}
	if res.IsError() {
		return oauth.Token{}, fmt.Errorf("post token: status %d: %s", res.StatusCode(), truncate(res.String()))
	}

	var token oauth.Token
	err = json.Unmarshal(res.Body(), &token)
	if err != nil {
		return oauth.Token{}, fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return oauth.Token{}, errors.New("decode token: empty access_token")
	}
	return token, nil
}

func truncate(s string) string {
	const limit = 256
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
