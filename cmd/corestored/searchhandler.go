package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/salestracker/shodhan/pkg/artifacts"
)

// searchRequest is the body accepted by the demo /api/search endpoint.
type searchRequest struct {
	Query  string                  `json:"query"`
	Parent *artifacts.SearchResult `json:"parent,omitempty"`
	UserID string                  `json:"userId,omitempty"`
}

// searcher is the subset of orchestrator.Orchestrator this handler needs.
type searcher interface {
	Search(ctx context.Context, query string, parent *artifacts.SearchResult, userID, fingerprintID string) artifacts.SearchResult
}

// fingerprintSource supplies the page-local fingerprint included in every
// sync payload.
type fingerprintSource interface {
	Get(ctx context.Context) string
}

// searchHandler exposes Orchestrator.Search as an HTTP endpoint so this
// binary is independently drivable instead of only a wiring exercise.
type searchHandler struct {
	orch        searcher
	fingerprint fingerprintSource
}

func (h *searchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	fingerprintID := h.fingerprint.Get(r.Context())
	result := h.orch.Search(r.Context(), req.Query, req.Parent, req.UserID, fingerprintID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
