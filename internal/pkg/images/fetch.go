package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	fetchTimeout = 30 * time.Second
	// Hard cap on remote downloads so a hostile server cannot exhaust
	// memory before validation runs.
	maxFetchSize = 50 * 1024 * 1024
)

// Fetcher downloads remote images over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher wraps the given client; nil gets a default client with a
// request timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{client: client}
}

// Fetch downloads the bytes at rawURL. Transport failures and non-2xx
// responses come back as RemoteFetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RemoteFetchError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RemoteFetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteFetchError{URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, &RemoteFetchError{URL: rawURL, Err: err}
	}

	return data, nil
}
