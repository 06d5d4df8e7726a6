package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/salestracker/shodhan/pkg/httpfetch"
)

// llmDeadline is the hard deadline enforced on every LLM edge-function
// call via context cancellation.
const llmDeadline = 60 * time.Second

type llmRequest struct {
	Query        string `json:"query"`
	SystemPrompt string `json:"systemPrompt"`
}

type llmResponse struct {
	Content string `json:"content"`
}

// LLMClient posts a query + system prompt to the LLM edge function and
// returns its raw content, splitting on "Sources:" left to the caller.
type LLMClient struct {
	fetcher  *httpfetch.Fetcher
	endpoint string
}

// NewLLMClient builds an LLMClient pointed at the given edge function URL.
func NewLLMClient(fetcher *httpfetch.Fetcher, endpoint string) *LLMClient {
	return &LLMClient{fetcher: fetcher, endpoint: endpoint}
}

// Complete issues the LLM call under a 60s hard deadline. Cancellation
// (deadline or caller-supplied ctx) propagates into the in-flight request.
func (c *LLMClient) Complete(ctx context.Context, query, systemPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, llmDeadline)
	defer cancel()

	body, err := json.Marshal(llmRequest{Query: query, SystemPrompt: systemPrompt})
	if err != nil {
		return "", fmt.Errorf("orchestrator: failed to marshal LLM request: %w", err)
	}

	respBody, _, err := c.fetcher.PostJSON(ctx, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("orchestrator: LLM call failed: %w", err)
	}
	defer respBody.Close()

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return "", fmt.Errorf("orchestrator: failed to read LLM response: %w", err)
	}

	var parsed llmResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("orchestrator: failed to decode LLM response: %w", err)
	}

	return parsed.Content, nil
}
