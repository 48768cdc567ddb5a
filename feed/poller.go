package feed

import (
	"context"
	"sync"
	"time"

	"github.com/floompnews/floompnews/core"
)

// Poller fans one poll cycle out across all configured sources, one
// goroutine per source. A failing or slow source is reported and
// skipped; it never blocks or aborts the rest of the cycle.
type Poller struct {
	sources []core.Source
	timeout time.Duration
	log     core.Logger
}

// NewPoller creates a Poller. The timeout bounds each individual source
// poll.
func NewPoller(sources []core.Source, timeout time.Duration, log core.Logger) *Poller {
	return &Poller{
		sources: sources,
		timeout: timeout,
		log:     log,
	}
}

// PollAll polls every source concurrently and merges the results. No
// ordering guarantee across sources.
func (p *Poller) PollAll(ctx context.Context) []core.NewsItem {
	results := make(chan []core.NewsItem, len(p.sources))

	var wg sync.WaitGroup
	for _, source := range p.sources {
		wg.Add(1)
		go func(source core.Source) {
			defer wg.Done()

			pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			items, err := source.Poll(pollCtx)
			if err != nil {
				p.log.WithError(err).WithField("source", source.Name()).
					Warn("source unavailable this cycle")
				return
			}

			p.log.WithField("source", source.Name()).
				Debugf("fetched %d items", len(items))
			results <- items
		}(source)
	}
	wg.Wait()
	close(results)

	var merged []core.NewsItem
	for items := range results {
		merged = append(merged, items...)
	}
	return merged
}
