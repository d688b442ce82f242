package collector

import (
	"context"
	"fmt"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/domain"
)

// New selects the searcher implementation for the configured mode. The
// governor is constructed here so all calls of one process share a single
// call-history window.
func New(ctx context.Context, cfg *config.Config) (domain.Searcher, error) {
	switch cfg.Reddit.Mode {
	case "", "api":
		gov := NewGovernor(cfg.RateLimit.CallsPerMinute)
		return NewClient(ctx, cfg.Reddit, cfg.RateLimit, gov, cfg.Detection.AuthorLookup)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown reddit mode: %s (use 'api' or 'mock')", cfg.Reddit.Mode)
	}
}
