package agent

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"go.mau.fi/util/exhttp"
)

const maxBodySize = 1 << 20

// Handler exposes the agent endpoints, each route relays to the same path on the agent.
type Handler struct {
	client Client
}

func NewHandler(client Client) Handler {
	return Handler{client: client}
}

// Register mounts the relay routes under prefix, ex. "/api/agent".
func (h Handler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/health", h.relay("/health"))
	mux.HandleFunc("POST "+prefix+"/trigger", h.relay("/trigger"))
	mux.HandleFunc("POST "+prefix+"/grade", h.relay("/grade"))
	mux.HandleFunc("POST "+prefix+"/stop", h.relay("/stop"))
	mux.HandleFunc("GET "+prefix+"/stats", h.relay("/stats"))
}

func (h Handler) relay(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.client.Configured() {
			exhttp.WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "Agent is not configured"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			exhttp.WriteJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "Unreadable body"})
			return
		}

		query := url.Values{}
		if r.URL.RawQuery != "" {
			query = r.URL.Query()
		}

		res, err := h.client.Forward(r.Context(), r.Method, path, query, body)
		if errors.Is(err, ErrNotConfigured) {
			exhttp.WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "Agent is not configured"})
			return
		}
		if err != nil {
			exhttp.WriteJSONResponse(w, http.StatusBadGateway, map[string]string{"error": "Agent is unreachable"})
			return
		}

		if res.ContentType != "" {
			w.Header().Set("content-type", res.ContentType)
		}
		w.WriteHeader(res.StatusCode)
		w.Write(res.Body)
	}
}
