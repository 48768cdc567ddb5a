package market

import (
	"context"
	"sync"

	"github.com/floompnews/floompnews/core"
	"github.com/floompnews/floompnews/score"
	"github.com/samber/lo"
)

// Fetcher builds a per-cycle market snapshot: each unique symbol is
// fetched exactly once, concurrently. A failed symbol is logged and
// omitted from the snapshot; the scorer treats it as unavailable data.
type Fetcher struct {
	source   core.MarketData
	lookback int
	log      core.Logger
}

// NewFetcher creates a snapshot fetcher over a market data source.
func NewFetcher(source core.MarketData, lookback int, log core.Logger) *Fetcher {
	return &Fetcher{
		source:   source,
		lookback: lookback,
		log:      log,
	}
}

// Snapshot fetches the history for every unique symbol in the list.
func (f *Fetcher) Snapshot(ctx context.Context, symbols []string) score.Snapshot {
	unique := lo.Uniq(symbols)
	snapshot := make(score.Snapshot, len(unique))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, symbol := range unique {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			candles, err := f.source.History(ctx, symbol, f.lookback)
			if err != nil {
				f.log.WithError(err).WithField("symbol", symbol).
					Warn("market history unavailable, scoring without impact")
				return
			}

			mu.Lock()
			snapshot[symbol] = candles
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return snapshot
}
