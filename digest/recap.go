package digest

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/floompnews/floompnews/core"
)

// Aggregator taps the post-scorer stream and keeps a rolling window of
// items for the end-of-day recap. Independent of per-subscriber
// scheduling.
type Aggregator struct {
	mu     sync.Mutex
	items  []core.ScoredItem
	window time.Duration
	clock  func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock overrides the time source, used in tests.
func WithClock(clock func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.clock = clock
	}
}

// NewAggregator creates an Aggregator with a 24h rolling window.
func NewAggregator(options ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		window: 24 * time.Hour,
		clock:  time.Now,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Observe adds scored items to the rolling window and drops items that
// have aged out.
func (a *Aggregator) Observe(items ...core.ScoredItem) {
	cutoff := a.clock().Add(-a.window)

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.items[:0]
	for _, item := range a.items {
		if !item.Item.SeenAt().Before(cutoff) {
			kept = append(kept, item)
		}
	}
	a.items = append(kept, items...)
}

// Window returns a copy of the items currently inside the rolling
// window.
func (a *Aggregator) Window() []core.ScoredItem {
	cutoff := a.clock().Add(-a.window)

	a.mu.Lock()
	defer a.mu.Unlock()

	items := make([]core.ScoredItem, 0, len(a.items))
	for _, item := range a.items {
		if !item.Item.SeenAt().Before(cutoff) {
			items = append(items, item)
		}
	}
	return items
}

// TopK selects the highest-impact items: ties broken by sentiment
// magnitude, then recency.
func TopK(items []core.ScoredItem, k int) []core.ScoredItem {
	sorted := make([]core.ScoredItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score.Impact != b.Score.Impact {
			return a.Score.Impact > b.Score.Impact
		}
		if sa, sb := math.Abs(a.Score.Sentiment), math.Abs(b.Score.Sentiment); sa != sb {
			return sa > sb
		}
		return a.Item.SeenAt().After(b.Item.SeenAt())
	})

	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// Recap composes the end-of-day summary from the current window,
// reusing the digest renderer.
func (a *Aggregator) Recap(composer *Composer, topK int) []string {
	items := TopK(a.Window(), topK)
	if len(items) == 0 {
		return []string{"📰 No news collected today. Check back later!"}
	}

	header := fmt.Sprintf("📰 *Daily Recap* (top %d stories)", len(items))
	return composer.ComposeWithHeader(header, items)
}
