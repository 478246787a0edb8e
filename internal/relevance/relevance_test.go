package relevance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func listings(titles ...string) []search.Listing {
	out := make([]search.Listing, len(titles))
	for i, title := range titles {
		out[i] = search.Listing{
			Title:  title,
			Link:   "https://example.com/" + title,
			Source: search.SourceMarketplace,
		}
	}
	return out
}

func titles(listings []search.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Title
	}
	return out
}

type failingFilter struct {
	calls atomic.Int32
}

func (f *failingFilter) Filter(ctx context.Context, listings []search.Listing, query string) (Outcome, error) {
	f.calls.Add(1)
	return Outcome{}, errors.New("unreachable")
}

func TestIdentity(t *testing.T) {
	input := listings("a", "b")
	outcome, err := Identity{}.Filter(context.Background(), input, "q")
	require.NoError(t, err)
	require.Equal(t, input, outcome.Results)
	require.Nil(t, outcome.Filtered)
}

func TestApplyFallback(t *testing.T) {
	tel := telemetry.NewRecorder()
	filter := &failingFilter{}
	input := listings("a", "b", "c")

	outcome := Apply(context.Background(), tel, filter, input, "q")
	require.Equal(t, input, outcome.Results)
	require.Nil(t, outcome.Filtered)

	broken := tel.Broken(report_relevance_filter)
	require.Len(t, broken, 1)
	var filterErr *search.FilterError
	require.True(t, errors.As(broken[0].Params[0].(error), &filterErr))
}

func TestApplyEmpty(t *testing.T) {
	filter := &failingFilter{}
	outcome := Apply(context.Background(), telemetry.NewRecorder(), filter, nil, "q")
	require.Empty(t, outcome.Results)
	require.EqualValues(t, 0, filter.calls.Load())
}

func TestParseKeep(t *testing.T) {
	testCases := []struct {
		content string
		expect  []int
		err     bool
	}{
		{content: `{"keep":[0,2]}`, expect: []int{0, 2}},
		{content: "```json\n{\"keep\": [1]}\n```", expect: []int{1}},
		{content: `{"keep":[]}`, expect: []int{}},
		{content: `no idea`, err: true},
		{content: `{"drop":[1]}`, err: true},
	}

	for _, test := range testCases {
		res, err := parseKeep(test.content)
		if test.err {
			require.Error(t, err, test.content)
			continue
		}
		require.NoError(t, err, test.content)
		require.Equal(t, test.expect, res)
	}
}

func TestSelectIndices(t *testing.T) {
	input := listings("a", "b", "c", "d")
	require.Equal(t, []string{"b", "d"}, titles(selectIndices(input, []int{3, 1, 1, 9, -1})))
	require.Empty(t, selectIndices(input, nil))
}

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *atomic.Pointer[string]) {
	var prompt atomic.Pointer[string]
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		raw := string(body)
		prompt.Store(&raw)

		w.Header().Set("content-type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		encoded, _ := json.Marshal(content)
		fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1717000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": %s}
			}]
		}`, encoded)
	}))
	t.Cleanup(server.Close)
	return server, &prompt
}

func TestLLMFilter(t *testing.T) {
	server, prompt := chatServer(t, http.StatusOK, `{"keep":[2,0,7]}`)
	filter := NewLLMFilter(LLMOptions{APIKey: "test", BaseURL: server.URL}, telemetry.NewRecorder())

	input := listings("f150 headlight", "floor mats", "f150 headlight lens")
	outcome, err := filter.Filter(context.Background(), input, "ford f150 headlight")
	require.NoError(t, err)
	require.Equal(t, []string{"f150 headlight", "f150 headlight lens"}, titles(outcome.Results))
	require.Equal(t, &Counts{Original: 3, Kept: 2}, outcome.Filtered)

	sent := *prompt.Load()
	require.True(t, strings.Contains(sent, "ford f150 headlight"))
	require.True(t, strings.Contains(sent, "1. floor mats"))
}

func TestLLMFilterFailure(t *testing.T) {
	server, _ := chatServer(t, http.StatusInternalServerError, "")
	filter := NewLLMFilter(LLMOptions{APIKey: "test", BaseURL: server.URL}, telemetry.NewRecorder())

	_, err := filter.Filter(context.Background(), listings("a"), "q")
	var filterErr *search.FilterError
	require.True(t, errors.As(err, &filterErr))

	tel := telemetry.NewRecorder()
	input := listings("a", "b")
	outcome := Apply(context.Background(), tel, filter, input, "q")
	require.Equal(t, input, outcome.Results)
	require.Len(t, tel.Broken(report_relevance_filter), 1)
}
