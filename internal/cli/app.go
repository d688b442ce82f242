package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/promowatch/reddit-collector/internal/collector"
	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/detector"
	"github.com/promowatch/reddit-collector/internal/scraper"
	"github.com/promowatch/reddit-collector/internal/storage"
)

// buildScraper is the composition root: configuration in, a fully wired
// orchestrator out. Lifecycle of the returned store belongs to the caller.
func buildScraper(ctx context.Context, cfg *config.Config) (*scraper.Scraper, *storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Path, cfg.Storage.MaxOpenConns)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	client, err := collector.New(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initializing client: %w", err)
	}

	det, err := detector.New(cfg.Detection)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initializing detector: %w", err)
	}

	return scraper.New(client, det, store, cfg.Search), store, nil
}

func printResult(w io.Writer, res *scraper.Result) {
	fmt.Fprintf(w, "run %d: found %d, collected %d, promotional %d, elapsed %s\n",
		res.RunID, res.TotalFound, res.TotalProcessed, res.PromotionalCount, res.Elapsed.Round(time.Millisecond))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}
