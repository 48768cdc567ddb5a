package digest

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/floompnews/floompnews/core"
	"github.com/stretchr/testify/require"
)

func TestSentimentGlyph_Buckets(t *testing.T) {
	require.Equal(t, "📈", SentimentGlyph(0.5))
	require.Equal(t, "📉", SentimentGlyph(-0.5))
	require.Equal(t, "➡️", SentimentGlyph(0.1))
	require.Equal(t, "➡️", SentimentGlyph(-0.2))
	require.Equal(t, "➡️", SentimentGlyph(0.2))
}

func TestComposer_RendersItem(t *testing.T) {
	composer := NewComposer()
	job := core.DeliveryJob{
		ChatID: 1,
		Items: []core.ScoredItem{{
			Item: core.NewsItem{
				Title:   "Bitcoin breaks out",
				Summary: "A short summary.",
				URL:     "https://example.com/a",
			},
			Score: core.Score{
				Sentiment: 0.6,
				Impact:    0.8,
				Signals: map[string]float64{
					core.SignalRSI:            75,
					core.SignalMACD:           1.2,
					core.SignalPriceChange24h: 6.3,
				},
			},
		}},
	}

	messages := composer.Compose(job)
	require.Len(t, messages, 1)

	payload := messages[0]
	require.Contains(t, payload, "📈 *Bitcoin breaks out*")
	require.Contains(t, payload, "A short summary.")
	require.Contains(t, payload, "overbought")
	require.Contains(t, payload, "bullish momentum")
	require.Contains(t, payload, "Significant price movement")
	require.Contains(t, payload, "[Read full article](https://example.com/a)")
}

func TestComposer_MarketDataUnavailable(t *testing.T) {
	composer := NewComposer()
	job := core.DeliveryJob{
		Items: []core.ScoredItem{{
			Item: core.NewsItem{Title: "No data"},
			Score: core.Score{
				Signals: map[string]float64{core.SignalUnavailable: 1},
			},
		}},
	}

	messages := composer.Compose(job)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "Market data unavailable")
}

func TestComposer_ChunksLongDigests(t *testing.T) {
	composer := NewComposer()

	items := make([]core.ScoredItem, 50)
	for i := range items {
		items[i] = core.ScoredItem{
			Item: core.NewsItem{
				Title:   strings.Repeat("long headline ", 20),
				Summary: strings.Repeat("summary text ", 30),
			},
			Score: core.Score{Signals: map[string]float64{core.SignalUnavailable: 1}},
		}
	}

	messages := composer.Compose(core.DeliveryJob{Items: items})
	require.Greater(t, len(messages), 1)
	for _, message := range messages {
		require.LessOrEqual(t, len(message), maxMessageLen)
	}
}

func TestTopK_Ordering(t *testing.T) {
	now := time.Now()
	items := []core.ScoredItem{
		{Item: core.NewsItem{Title: "low"}, Score: core.Score{Impact: 0.1}},
		{Item: core.NewsItem{Title: "high"}, Score: core.Score{Impact: 0.9}},
		{Item: core.NewsItem{Title: "tie-weak", PublishedAt: now}, Score: core.Score{Impact: 0.5, Sentiment: 0.1}},
		{Item: core.NewsItem{Title: "tie-strong", PublishedAt: now}, Score: core.Score{Impact: 0.5, Sentiment: -0.8}},
	}

	top := TopK(items, 3)
	require.Equal(t, "high", top[0].Item.Title)
	require.Equal(t, "tie-strong", top[1].Item.Title)
	require.Equal(t, "tie-weak", top[2].Item.Title)
}

func TestAggregator_RollingWindow(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	aggregator := NewAggregator(WithClock(func() time.Time { return now }))

	aggregator.Observe(
		core.ScoredItem{Item: core.NewsItem{Title: "fresh", PublishedAt: now.Add(-time.Hour)}},
		core.ScoredItem{Item: core.NewsItem{Title: "stale", PublishedAt: now.Add(-30 * time.Hour)}},
	)

	window := aggregator.Window()
	require.Len(t, window, 1)
	require.Equal(t, "fresh", window[0].Item.Title)
}

func TestAggregator_KeepsScrapedItems(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	aggregator := NewAggregator(WithClock(func() time.Time { return now }))

	// Scraped listings carry no publish time; the fetch time keeps them
	// inside the rolling window.
	aggregator.Observe(core.ScoredItem{
		Item:  core.NewsItem{Title: "scraped story", FetchedAt: now.Add(-time.Hour)},
		Score: core.Score{Impact: 0.9},
	})

	window := aggregator.Window()
	require.Len(t, window, 1)
	require.Equal(t, "scraped story", window[0].Item.Title)

	messages := aggregator.Recap(NewComposer(), 10)
	require.Contains(t, messages[0], "scraped story")
}

func TestComposer_TruncatesOnRuneBoundary(t *testing.T) {
	composer := NewComposer()

	// 3-byte runes never divide 4096 evenly, so a naive byte cut would
	// split one of them.
	oversized := strings.Repeat("█", maxMessageLen)
	messages := composer.chunk([]string{oversized})
	require.Len(t, messages, 1)
	require.LessOrEqual(t, len(messages[0]), maxMessageLen)
	require.True(t, utf8.ValidString(messages[0]))
}

func TestAggregator_EmptyRecap(t *testing.T) {
	aggregator := NewAggregator()
	messages := aggregator.Recap(NewComposer(), 10)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "No news collected")
}
