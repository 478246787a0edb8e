package relevance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	report_llm_request = "llm.request"
	report_llm_kept    = "llm.kept"

	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = `You review auto parts search results for a buyer.
Given a search query and a numbered list of listings, decide which listings are the part the buyer is looking for.
Drop accessories, unrelated parts, whole vehicles and listings for a different vehicle than the query names.
Respond with only a JSON object of the form {"keep":[0,2,5]} listing the numbers of the listings to keep.`

type LLMOptions struct {
	APIKey string
	// BaseURL points at any OpenAI compatible endpoint, empty uses the default.
	BaseURL string
	// Model defaults to DefaultModel.
	Model string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

// LLMFilter asks a chat completion model which listings are relevant.
type LLMFilter struct {
	client  openai.Client
	model   string
	timeout time.Duration
	tel     telemetry.API
}

func NewLLMFilter(opts LLMOptions, tel telemetry.API) LLMFilter {
	tel = telemetry.NewScopedAPI("relevance", tel)

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			start := time.Now()
			res, err := next(req)
			if err != nil {
				tel.ReportWarning(report_llm_request, err, req.URL.String())
				return res, err
			}
			tel.ReportDebug("llm request", req.URL.String(), res.StatusCode, time.Since(start).String())
			return res, err
		}),
	}
	if opts.BaseURL != "" {
		baseUrl := opts.BaseURL
		if !strings.HasSuffix(baseUrl, "/") {
			baseUrl += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(baseUrl))
	}

	return LLMFilter{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		timeout: timeout,
		tel:     tel,
	}
}

func describe(listings []search.Listing) string {
	var b strings.Builder
	for i, l := range listings {
		fmt.Fprintf(&b, "%d. %s", i, l.Title)
		if l.Price != nil {
			fmt.Fprintf(&b, " | %s", *l.Price)
		}
		if l.Condition != nil {
			fmt.Fprintf(&b, " | %s", *l.Condition)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type keepResponse struct {
	Keep []int `json:"keep"`
}

// parseKeep reads the JSON object out of a model reply, tolerating prose or code
// fences around it.
func parseKeep(content string) ([]int, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, errors.New("no json object in response")
	}
	var res keepResponse
	err := json.Unmarshal([]byte(content[start:end+1]), &res)
	if err != nil {
		return nil, fmt.Errorf("decode keep: %w", err)
	}
	if res.Keep == nil {
		return nil, errors.New("response is missing keep")
	}
	return res.Keep, nil
}

// selectIndices keeps the listings at the given indices in input order, out of
// range and duplicate indices are ignored.
func selectIndices(listings []search.Listing, indices []int) []search.Listing {
	keep := make([]bool, len(listings))
	for _, i := range indices {
		if i >= 0 && i < len(listings) {
			keep[i] = true
		}
	}
	out := make([]search.Listing, 0, len(indices))
	for i, l := range listings {
		if keep[i] {
			out = append(out, l)
		}
	}
	return out
}

func (f LLMFilter) Filter(ctx context.Context, listings []search.Listing, query string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Query: %s\n\nListings:\n%s", query, describe(listings))
	res, err := f.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return Outcome{}, &search.FilterError{Err: err}
	}
	if len(res.Choices) == 0 {
		return Outcome{}, &search.FilterError{Err: errors.New("no choices in response")}
	}

	indices, err := parseKeep(res.Choices[0].Message.Content)
	if err != nil {
		return Outcome{}, &search.FilterError{Err: err}
	}

	kept := selectIndices(listings, indices)
	f.tel.ReportCount(report_llm_kept, int64(len(kept)))

	return Outcome{
		Results: kept,
		Filtered: &Counts{
			Original: len(listings),
			Kept:     len(kept),
		},
	}, nil
}
