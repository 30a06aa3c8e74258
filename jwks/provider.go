package jwks

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds configuration for a Provider
type Config struct {
	Authority   string
	HTTPTimeout time.Duration

	// RefreshInterval enables periodic re-fetching of the key set.
	// Zero keeps the key set fetched at startup for the process lifetime.
	RefreshInterval time.Duration

	// HTTPClient overrides the client built from HTTPTimeout
	HTTPClient *http.Client
}

// Provider hands out the current key set. Readers get a snapshot that is
// never mutated; a refresh replaces the whole snapshot atomically.
type Provider struct {
	fetcher  *Fetcher
	interval time.Duration
	logger   *zap.Logger

	current atomic.Pointer[KeySet]
}

// NewProvider fetches the key set once and returns a provider serving it.
// A fetch failure is returned to the caller, which must not start serving.
func NewProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.Authority == "" {
		return nil, errors.New("jwks: authority is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout == 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	// starts from an empty snapshot so Current is never nil
	p := NewStaticProvider(nil)
	p.fetcher = NewFetcher(cfg.Authority, client)
	p.interval = cfg.RefreshInterval
	p.logger = logger

	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// NewStaticProvider serves a fixed key set that is never refreshed
func NewStaticProvider(set *KeySet) *Provider {
	p := &Provider{logger: zap.NewNop()}
	if set == nil {
		set = NewKeySet(nil)
	}
	p.current.Store(set)
	return p
}

// Current returns the active key set snapshot
func (p *Provider) Current() *KeySet {
	return p.current.Load()
}

// KeyCount returns the number of keys in the active snapshot
func (p *Provider) KeyCount() int {
	return p.Current().Len()
}

// Refresh fetches the key set and swaps it in. On failure the previous
// snapshot stays active.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.fetcher == nil {
		return nil
	}

	set, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Warn("jwks fetch failed",
			zap.String("url", p.fetcher.URL()),
			zap.Error(err))
		return err
	}

	p.current.Store(set)
	p.logger.Info("jwks loaded",
		zap.String("url", p.fetcher.URL()),
		zap.Int("keys", set.Len()),
		zap.Strings("kids", set.KeyIDs()))

	return nil
}

// Run refreshes the key set every RefreshInterval until ctx is done.
// It returns immediately when refresh is disabled.
func (p *Provider) Run(ctx context.Context) {
	if p.fetcher == nil || p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged by Refresh and keep the previous snapshot
			_ = p.Refresh(ctx)
		}
	}
}

// RefreshEnabled reports whether Run does periodic work
func (p *Provider) RefreshEnabled() bool {
	return p.fetcher != nil && p.interval > 0
}
