// Package httpfetch is a thin, option-configurable HTTP client used by every
// outbound collaborator the core talks to (the webhook, the LLM edge
// function, the similarity ingress, the remote vector store). It follows
// the same shape across all of them so error handling and header injection
// stay uniform.
package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

var (
	ErrFailedToBuildRequest = errors.New("httpfetch: failed to build request")
	ErrFailedToFetch        = errors.New("httpfetch: failed to fetch")
	ErrUnexpectedResult     = errors.New("httpfetch: unexpected status code")
	ErrMissingBody          = errors.New("httpfetch: missing response body")
)

// RequestOptions holds options for the HTTP request.
type RequestOptions struct {
	Headers map[string]string
}

// ResponseOptions holds options for handling the HTTP response.
type ResponseOptions struct {
	// IsSuccess reports whether a given status code counts as success. If
	// nil, only 2xx codes are treated as success.
	IsSuccess func(statusCode int) bool
}

// FetchOptions holds options for a fetch operation.
type FetchOptions struct {
	Request  RequestOptions
	Response ResponseOptions
}

// FetchOption mutates FetchOptions.
type FetchOption func(*FetchOptions)

// WithHeaders merges headers into the request's header set. Later
// WithHeaders calls (or options appended after an earlier one, as PostJSON
// does with Content-Type) only override the specific keys they name,
// rather than replacing the whole header map.
func WithHeaders(headers map[string]string) FetchOption {
	return func(o *FetchOptions) {
		if o.Request.Headers == nil {
			o.Request.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.Request.Headers[k] = v
		}
	}
}

// WithSuccessPredicate overrides which status codes count as success.
func WithSuccessPredicate(isSuccess func(int) bool) FetchOption {
	return func(o *FetchOptions) {
		o.Response.IsSuccess = isSuccess
	}
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}

// Fetcher issues GET/POST requests against a fixed HTTP client, applying a
// uniform option pipeline for headers and success-status classification.
type Fetcher struct {
	httpClient *http.Client
}

// New creates a Fetcher around the given client. Pass http.DefaultClient's
// equivalent (a *http.Client with a sane Timeout) in production.
func New(httpClient *http.Client) *Fetcher {
	return &Fetcher{httpClient: httpClient}
}

func (f *Fetcher) do(ctx context.Context, method, url string, body []byte, opts ...FetchOption) (io.ReadCloser, int, error) {
	options := &FetchOptions{
		Request:  RequestOptions{Headers: nil},
		Response: ResponseOptions{IsSuccess: is2xx},
	}
	for _, opt := range opts {
		opt(options)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		slog.ErrorContext(ctx, "httpfetch: unable to build request", "error", err, "url", url)

		return nil, 0, errors.Join(ErrFailedToBuildRequest, err)
	}

	for k, v := range options.Request.Headers {
		req.Header.Add(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "httpfetch: unable to fetch", "error", err, "url", url)

		return nil, 0, errors.Join(ErrFailedToFetch, err)
	}

	isSuccess := options.Response.IsSuccess
	if isSuccess == nil {
		isSuccess = is2xx
	}

	if !isSuccess(resp.StatusCode) {
		slog.ErrorContext(ctx, "httpfetch: bad status code", "status", resp.StatusCode, "url", url)
		resp.Body.Close()

		return nil, resp.StatusCode, errors.Join(ErrUnexpectedResult, fmt.Errorf("status code: %d", resp.StatusCode))
	}

	if resp.Body == nil {
		slog.ErrorContext(ctx, "httpfetch: missing body", "url", url)

		return nil, resp.StatusCode, ErrMissingBody
	}

	return resp.Body, resp.StatusCode, nil
}

// Get performs an HTTP GET. The caller must close the returned body.
func (f *Fetcher) Get(ctx context.Context, url string, opts ...FetchOption) (io.ReadCloser, error) {
	body, _, err := f.do(ctx, http.MethodGet, url, nil, opts...)

	return body, err
}

// PostJSON performs an HTTP POST with payload (already-encoded JSON bytes)
// as the request body and "Content-Type: application/json" set
// automatically. The caller must close the returned body.
func (f *Fetcher) PostJSON(ctx context.Context, url string, payload []byte, opts ...FetchOption) (io.ReadCloser, int, error) {
	opts = append([]FetchOption{WithHeaders(map[string]string{"Content-Type": "application/json"})}, opts...)

	return f.do(ctx, http.MethodPost, url, payload, opts...)
}
