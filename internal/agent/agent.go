// Package agent relays requests to the external grading agent.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"partsfinder-backend/internal/components/telemetry"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_agent_forward = "agent.forward"

	requestTimeout = 30 * time.Second
)

var ErrNotConfigured = errors.New("agent is not configured")

type Config struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// Response is an upstream reply relayed as is.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Client struct {
	http    *resty.Client
	baseUrl string
	tel     telemetry.API
}

func NewClient(config Config, tel telemetry.API) Client {
	tel = telemetry.NewScopedAPI("agent", tel)

	client := resty.New()
	client.SetTimeout(requestTimeout)
	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}
	telemetry.InstrumentResty(client, tel)

	return Client{
		http:    client,
		baseUrl: strings.TrimRight(config.BaseURL, "/"),
		tel:     tel,
	}
}

func (c Client) Configured() bool {
	return c.baseUrl != ""
}

// Forward sends one request to the agent. Any upstream status is a successful
// Forward, only transport failures return an error.
func (c Client) Forward(ctx context.Context, method, path string, query url.Values, body []byte) (Response, error) {
	if !c.Configured() {
		return Response{}, ErrNotConfigured
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query)
	if len(body) > 0 {
		req.SetHeader("content-type", "application/json")
		req.SetBody(body)
	}

	res, err := req.Execute(method, c.baseUrl+path)
	if err != nil {
		c.tel.ReportBroken(report_agent_forward, err, method, path)
		return Response{}, fmt.Errorf("forward %s %s: %w", method, path, err)
	}
	return Response{
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("content-type"),
		Body:        res.Body(),
	}, nil
}

// Health is the agent's health report.
type Health struct {
	Status    string `json:"status"`
	IsRunning bool   `json:"isRunning"`
}

func (c Client) Health(ctx context.Context) (Health, error) {
	res, err := c.Forward(ctx, "GET", "/health", nil, nil)
	if err != nil {
		return Health{}, err
	}
	if res.StatusCode >= 300 {
		return Health{}, fmt.Errorf("health: status %d", res.StatusCode)
	}
	var health Health
	err = json.Unmarshal(res.Body, &health)
	if err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	return health, nil
}

// Trigger starts a grading run.
func (c Client) Trigger(ctx context.Context, dryRun bool) (Response, error) {
	query := url.Values{}
	query.Set("dry_run", fmt.Sprint(dryRun))
	return c.Forward(ctx, "POST", "/trigger", query, nil)
}
