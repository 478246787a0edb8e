package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"partsfinder-backend/internal/store"

	"go.mau.fi/util/exhttp"
)

type setActionRequest struct {
	URL    string       `json:"url"`
	Action store.Action `json:"action"`
}

func (s Server) handleSetAction(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")

	var req setActionRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Body must be valid JSON")
		return
	}
	if req.URL == "" || !req.Action.Valid() {
		writeError(w, http.StatusBadRequest, "Body must have a url and an action of 'star' or 'hide'")
		return
	}

	err = s.storage.SetAction(r.Context(), userId, req.URL, req.Action)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_server_actions, err, userId)
		writeError(w, http.StatusInternalServerError, "Failed to save action")
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, req)
}

func (s Server) handleClearAction(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")
	link := r.URL.Query().Get("url")
	if link == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'url' is required")
		return
	}

	err := s.storage.ClearAction(r.Context(), userId, link)
	if err != nil {
		s.tel.ReportBroken(report_server_actions, err, userId)
		writeError(w, http.StatusInternalServerError, "Failed to clear action")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")
	action := store.Action(r.URL.Query().Get("action"))
	if action == "" {
		action = store.ActionStar
	}
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, "Query parameter 'action' must be 'star' or 'hide'")
		return
	}

	listings, err := s.storage.ListActions(r.Context(), userId, action)
	if err != nil {
		s.tel.ReportBroken(report_server_actions, err, userId)
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}
	if listings == nil {
		listings = []store.ActionListing{}
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"results": listings})
}
