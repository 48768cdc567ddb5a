// Package feed contains the source adapters that normalize external
// feeds into NewsItems, and the poller that fans out across them.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/floompnews/floompnews/core"
	"github.com/mmcdole/gofeed"
)

// defaultItemLimit bounds how many entries one poll takes from a single
// feed.
const defaultItemLimit = 10

// RSS adapts one RSS/Atom endpoint into a core.Source.
type RSS struct {
	name   string
	url    string
	limit  int
	parser *gofeed.Parser
}

// NewRSS creates an RSS source adapter for the given endpoint.
func NewRSS(name, url string) *RSS {
	return &RSS{
		name:   name,
		url:    url,
		limit:  defaultItemLimit,
		parser: gofeed.NewParser(),
	}
}

// Name implements core.Source.
func (r *RSS) Name() string { return r.name }

// Poll implements core.Source. Items come back in feed order, which is
// newest-first for the sources we consume.
func (r *RSS) Poll(ctx context.Context) ([]core.NewsItem, error) {
	parsed, err := r.parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		return nil, &core.SourceError{Source: r.name, Err: err}
	}

	fetchedAt := time.Now().UTC()
	items := make([]core.NewsItem, 0, r.limit)
	for _, entry := range parsed.Items {
		if len(items) == r.limit {
			break
		}
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		item := core.NewsItem{
			Source:    r.name,
			Title:     strings.TrimSpace(entry.Title),
			Summary:   stripMarkup(entry.Description),
			URL:       entry.Link,
			FetchedAt: fetchedAt,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		}
		item.ID = core.Fingerprint(item.Source, item.Title, item.PublishedAt)

		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, &core.SourceError{
			Source: r.name,
			Err:    fmt.Errorf("no entries in feed"),
		}
	}
	return items, nil
}

// stripMarkup flattens the HTML fragments some feeds put into their
// descriptions into plain text.
func stripMarkup(s string) string {
	var (
		sb    strings.Builder
		inTag bool
	)
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
