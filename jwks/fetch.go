package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DiscoveryPath is appended to the authority base URL
	DiscoveryPath = "/.well-known/jwks.json"

	defaultHTTPTimeout = 10 * time.Second
	maxBodySize        = 1 << 20
)

// DiscoveryURL builds the JWKS URL for an authority base URL
func DiscoveryURL(authority string) string {
	return strings.TrimRight(authority, "/") + DiscoveryPath
}

// Fetcher retrieves key sets from an authority's discovery endpoint
type Fetcher struct {
	url        string
	httpClient *http.Client
}

// NewFetcher creates a fetcher for the given authority. A nil client gets a
// default one with a 10s timeout.
func NewFetcher(authority string, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Fetcher{
		url:        DiscoveryURL(authority),
		httpClient: httpClient,
	}
}

// URL returns the discovery URL this fetcher reads from
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads and parses the key set. Any transport failure, non-2xx
// status or malformed document is reported as ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status code %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrFetch, err)
	}

	return ParseKeySet(body)
}
