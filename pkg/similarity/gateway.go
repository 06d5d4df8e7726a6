// Package similarity implements the two-tier Similarity Cache Gateway: an
// exact-hash lookup backed by a content-addressed query hash, and a
// semantic/vector tier reached by polling an async similarity-search
// ingress until it reports a result or gives up.
package similarity

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/httpfetch"
	"github.com/salestracker/shodhan/pkg/metrics"
)

const (
	// maxPollAttempts bounds the similarity-tier poll loop: five round
	// trips with 1s·2^n waits between them (1s, 2s, 4s, 8s), so at most
	// 1+2+4+8 = 15s of waiting.
	maxPollAttempts = 5
	pollBaseDelay   = 1 * time.Second
	maxResults      = 5

	cachedConfidence = 90
	cachedCategory   = "Cached"
)

var (
	// ErrIngressRejected is returned when the webhook submission itself is
	// rejected (CACHE-500/WEBHOOK-500 in spec.md's error taxonomy).
	ErrIngressRejected = errors.New("similarity: ingress rejected submission")
)

// submission is the body POSTed to the similarity query endpoint.
type submission struct {
	QueryHash string `json:"queryHash"`
	Query     string `json:"query"`
	UserID    string `json:"userId,omitempty"`
}

// pollResponse is the shape returned by the similarity ingress while a
// submission is still resolving, or once it has resolved.
type pollResponse struct {
	Status string     `json:"status"` // "pending" | "ready" | "empty"
	Rows   []cacheRow `json:"rows"`
}

type cacheRow struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

// Gateway queries the similarity cache ingress on the caller's behalf,
// hiding the submit/poll protocol and the backoff schedule behind a single
// Lookup call.
type Gateway struct {
	fetcher  *httpfetch.Fetcher
	queryURL string
	apiKey   string
}

// New builds a Gateway pointed at the given similarity-query endpoint.
func New(fetcher *httpfetch.Fetcher, queryURL, apiKey string) *Gateway {
	return &Gateway{fetcher: fetcher, queryURL: queryURL, apiKey: apiKey}
}

// QueryHash returns the content-identifying hash spec.md's exact-match tier
// keys cache entries on.
func QueryHash(query string) string {
	sum := sha512.Sum512([]byte(query))

	return hex.EncodeToString(sum[:])
}

// Lookup submits query to the similarity ingress and polls with bounded
// exponential backoff until a result is ready, the ingress reports no
// match, or the attempt budget is exhausted. A miss or any tier failure is
// reported as (nil, false) — never an error — matching spec.md's rule that
// cache misses collapse into a normal LLM round trip.
func (g *Gateway) Lookup(ctx context.Context, query, userID string) ([]artifacts.SearchResult, bool) {
	hash := QueryHash(query)

	body, err := json.Marshal(submission{QueryHash: hash, Query: query, UserID: userID})
	if err != nil {
		slog.ErrorContext(ctx, "similarity: failed to marshal submission", "error", err)

		return nil, false
	}

	headers := map[string]string{}
	if g.apiKey != "" {
		headers["Authorization"] = "Bearer " + g.apiKey
	}

	resp, err := g.pollUntilReady(ctx, body, headers)
	if err != nil {
		slog.WarnContext(ctx, "similarity: lookup did not resolve", "error", err)

		return nil, false
	}

	if resp == nil || resp.Status != "ready" || len(resp.Rows) == 0 {
		return nil, false
	}

	rows := resp.Rows
	if len(rows) > maxResults {
		rows = rows[:maxResults]
	}

	results := make([]artifacts.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, artifacts.SearchResult{
			ID:         "cached-" + row.ID,
			Title:      row.Title,
			Content:    row.Content,
			Sources:    row.Sources,
			Confidence: cachedConfidence,
			Category:   cachedCategory,
			IsCached:   true,
		})
	}

	metrics.CacheTierHitsTotal.WithLabelValues("semantic").Inc()

	return results, true
}

// pollUntilReady runs the submit-then-poll cycle through a bounded
// exponential-backoff schedule, grounded on valkeycache's use of
// cenkalti/backoff/v5's generic Retry.
func (g *Gateway) pollUntilReady(ctx context.Context, body []byte, headers map[string]string) (*pollResponse, error) {
	attempt := 0

	operation := func() (*pollResponse, error) {
		resp, err := g.submitOrPoll(ctx, body, headers)
		if err != nil {
			return nil, err
		}

		if resp.Status == "pending" {
			attempt++

			return nil, fmt.Errorf("similarity: still pending after attempt %d", attempt)
		}

		return resp, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBoundedExponential()),
		backoff.WithMaxTries(maxPollAttempts),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// submitOrPoll performs one HTTP round trip against the similarity
// ingress. The ingress is treated as idempotent on (queryHash): repeated
// submissions with the same hash just re-return current status.
func (g *Gateway) submitOrPoll(ctx context.Context, body []byte, headers map[string]string) (*pollResponse, error) {
	var hdrOpts []httpfetch.FetchOption
	if len(headers) > 0 {
		hdrOpts = append(hdrOpts, httpfetch.WithHeaders(headers))
	}

	respBody, status, err := g.fetcher.PostJSON(ctx, g.queryURL, body, hdrOpts...)
	if err != nil {
		if status == http.StatusNotFound {
			return &pollResponse{Status: "empty"}, nil
		}

		return nil, errors.Join(ErrIngressRejected, err)
	}
	defer respBody.Close()

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return nil, fmt.Errorf("similarity: failed to read response: %w", err)
	}

	var parsed pollResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("similarity: failed to decode response: %w", err)
	}

	return &parsed, nil
}

// boundedExponential implements backoff.BackOff with the fixed doubling
// schedule 1s, 2s, 4s, ... instead of jittered growth, since the schedule
// itself — not just its shape — is part of the contract under test. With
// maxPollAttempts tries, only the first four delays (1s to 8s) are used.
type boundedExponential struct {
	attempt int
}

func newBoundedExponential() *boundedExponential {
	return &boundedExponential{}
}

// Reset restarts the schedule at 1s.
func (b *boundedExponential) Reset() {
	b.attempt = 0
}

func (b *boundedExponential) NextBackOff() time.Duration {
	d := pollBaseDelay * time.Duration(1<<uint(b.attempt))
	b.attempt++

	return d
}
