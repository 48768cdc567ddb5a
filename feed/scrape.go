package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/floompnews/floompnews/core"
)

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Selectors describe how to pull article cards out of a listing page.
type Selectors struct {
	Article    string
	Title      string
	Link       string
	Summary    string
	LinkPrefix string // prepended to relative hrefs
}

// Scraper adapts an HTML listing page into a core.Source for outlets
// that publish no usable feed.
type Scraper struct {
	name      string
	url       string
	selectors Selectors
	limit     int
	client    *http.Client
}

// NewScraper creates a scraping source adapter.
func NewScraper(name, url string, selectors Selectors) *Scraper {
	return &Scraper{
		name:      name,
		url:       url,
		selectors: selectors,
		limit:     defaultItemLimit,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTheBlock scrapes a topic listing on The Block.
func NewTheBlock(topic string) *Scraper {
	return NewScraper(
		"theblock",
		fmt.Sprintf("https://www.theblock.co/topic/%s", topic),
		Selectors{
			Article:    "article.article-card",
			Title:      "h3.article-card__title",
			Link:       "a.article-card__link",
			Summary:    "p.article-card__description",
			LinkPrefix: "https://www.theblock.co",
		},
	)
}

// NewDecrypt scrapes a topic listing on Decrypt.
func NewDecrypt(topic string) *Scraper {
	return NewScraper(
		"decrypt",
		fmt.Sprintf("https://decrypt.co/topic/%s", topic),
		Selectors{
			Article: "article.post-card",
			Title:   "h3.post-card__title",
			Link:    "a.post-card__link",
			Summary: "p.post-card__excerpt",
		},
	)
}

// NewCryptoSlate scrapes a category listing on CryptoSlate.
func NewCryptoSlate(topic string) *Scraper {
	return NewScraper(
		"cryptoslate",
		fmt.Sprintf("https://cryptoslate.com/category/%s/", topic),
		Selectors{
			Article: "article.post",
			Title:   "h2.post-title",
			Link:    "a.post-title-link",
			Summary: "div.post-excerpt",
		},
	)
}

// Name implements core.Source.
func (s *Scraper) Name() string { return s.name }

// Poll implements core.Source. Listing pages carry no publish time, so
// items get a zero PublishedAt and rely on the title-based fingerprint
// for identity.
func (s *Scraper) Poll(ctx context.Context) ([]core.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &core.SourceError{Source: s.name, Err: err}
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &core.SourceError{Source: s.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.SourceError{
			Source: s.name,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &core.SourceError{Source: s.name, Err: err}
	}

	return s.extract(doc), nil
}

func (s *Scraper) extract(doc *goquery.Document) []core.NewsItem {
	var items []core.NewsItem

	fetchedAt := time.Now().UTC()
	doc.Find(s.selectors.Article).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		title := strings.TrimSpace(card.Find(s.selectors.Title).Text())
		href, ok := card.Find(s.selectors.Link).Attr("href")
		if title == "" || !ok {
			return true
		}

		if s.selectors.LinkPrefix != "" && strings.HasPrefix(href, "/") {
			href = s.selectors.LinkPrefix + href
		}

		item := core.NewsItem{
			Source:    s.name,
			Title:     title,
			Summary:   strings.TrimSpace(card.Find(s.selectors.Summary).Text()),
			URL:       href,
			FetchedAt: fetchedAt,
		}
		// Fingerprint on the zero publish time so re-fetching the same
		// listing yields the same identity.
		item.ID = core.Fingerprint(item.Source, item.Title, item.PublishedAt)

		items = append(items, item)
		return len(items) < s.limit
	})

	return items
}
