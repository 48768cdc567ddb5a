package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/floompnews/floompnews/core"
	"github.com/floompnews/floompnews/logger/zerolog"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	items []core.NewsItem
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Poll(ctx context.Context) ([]core.NewsItem, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, &core.SourceError{Source: s.name, Err: ctx.Err()}
		case <-time.After(s.delay):
		}
	}
	return s.items, s.err
}

func TestPoller_MergesSources(t *testing.T) {
	poller := NewPoller([]core.Source{
		&stubSource{name: "a", items: []core.NewsItem{{ID: "1"}, {ID: "2"}}},
		&stubSource{name: "b", items: []core.NewsItem{{ID: "3"}}},
	}, time.Second, zerolog.Nop())

	items := poller.PollAll(context.Background())
	require.Len(t, items, 3)
}

func TestPoller_FailureIsolation(t *testing.T) {
	poller := NewPoller([]core.Source{
		&stubSource{name: "broken", err: &core.SourceError{Source: "broken", Err: errors.New("timeout")}},
		&stubSource{name: "fine", items: []core.NewsItem{{ID: "1"}}},
	}, time.Second, zerolog.Nop())

	items := poller.PollAll(context.Background())
	require.Len(t, items, 1)
	require.Equal(t, "1", items[0].ID)
}

func TestPoller_TimeoutAbandonsSlowSource(t *testing.T) {
	poller := NewPoller([]core.Source{
		&stubSource{name: "slow", delay: 5 * time.Second, items: []core.NewsItem{{ID: "never"}}},
		&stubSource{name: "fast", items: []core.NewsItem{{ID: "1"}}},
	}, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	items := poller.PollAll(context.Background())

	require.Less(t, time.Since(start), time.Second)
	require.Len(t, items, 1)
}

func TestScraper_Extract(t *testing.T) {
	html := `
	<html><body>
	<article class="article-card">
		<h3 class="article-card__title">First story</h3>
		<a class="article-card__link" href="/post/1">read</a>
		<p class="article-card__description">Short description.</p>
	</article>
	<article class="article-card">
		<h3 class="article-card__title">Second story</h3>
		<a class="article-card__link" href="https://example.com/post/2">read</a>
	</article>
	<article class="article-card">
		<h3 class="article-card__title"></h3>
		<a class="article-card__link" href="/post/3">read</a>
	</article>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	scraper := NewTheBlock("bitcoin")
	items := scraper.extract(doc)

	require.Len(t, items, 2)
	require.Equal(t, "First story", items[0].Title)
	require.Equal(t, "https://www.theblock.co/post/1", items[0].URL)
	require.Equal(t, "Short description.", items[0].Summary)
	require.Equal(t, "https://example.com/post/2", items[1].URL)
	require.NotEmpty(t, items[0].ID)

	// No publish time on listing pages; the fetch time stands in for
	// recency so these items survive rolling windows.
	require.True(t, items[0].PublishedAt.IsZero())
	require.False(t, items[0].FetchedAt.IsZero())
	require.Equal(t, items[0].FetchedAt, items[0].SeenAt())
}

func TestStripMarkup(t *testing.T) {
	require.Equal(t, "Plain text here.",
		stripMarkup("<p>Plain <b>text</b> here.</p>"))
}
