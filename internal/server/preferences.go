package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"partsfinder-backend/internal/store"
)

func (s Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")

	raw, err := s.storage.GetPreferences(r.Context(), userId)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_server_preferences, err, userId)
		writeError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}
	if raw == nil {
		raw = json.RawMessage("{}")
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (s Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Body must be valid JSON")
		return
	}

	err = s.storage.SetPreferences(r.Context(), userId, json.RawMessage(body))
	if err != nil {
		s.tel.ReportBroken(report_server_preferences, err, userId)
		writeError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
