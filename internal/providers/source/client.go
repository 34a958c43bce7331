package source

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// baseClient is the shared HTTP plumbing for source adapters. The timeout is
// the adapter's only defense against a hung backend; adapters never retry,
// retry pressure is bounded upstream by caching whatever was merged.
type baseClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newBaseClient(baseURL, apiKey string, timeout time.Duration) baseClient {
	return baseClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (b *baseClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resp, nil
}
