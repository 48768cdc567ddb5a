package core

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Topic is a fixed classification label for news items.
type Topic string

const (
	TopicBitcoin       Topic = "bitcoin"
	TopicEthereum      Topic = "ethereum"
	TopicDeFi          Topic = "defi"
	TopicNFT           Topic = "nft"
	TopicRegulation    Topic = "regulation"
	TopicMarkets       Topic = "markets"
	TopicTechnology    Topic = "technology"
	TopicUncategorized Topic = "uncategorized"
)

// Topics lists all user-selectable topics in presentation order.
// TopicUncategorized is assigned by the pipeline, never selected.
var Topics = []Topic{
	TopicBitcoin,
	TopicEthereum,
	TopicDeFi,
	TopicNFT,
	TopicRegulation,
	TopicMarkets,
	TopicTechnology,
}

// ParseTopic validates a user-provided topic name.
func ParseTopic(s string) (Topic, error) {
	topic := Topic(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Topics {
		if topic == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTopic, s)
}

// NewsItem is a normalized news article. Immutable once created, except
// for Tags which the classifier assigns exactly once.
type NewsItem struct {
	ID          string
	Source      string
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	FetchedAt   time.Time
	Symbols     []string
	Tags        []Topic
}

// SeenAt returns the best available timestamp for recency ordering and
// rolling windows: the fetch time when recorded, otherwise the publish
// time. Scraped listing pages carry no publish time, so their items
// would otherwise age out of every window instantly.
func (n NewsItem) SeenAt() time.Time {
	if !n.FetchedAt.IsZero() {
		return n.FetchedAt
	}
	return n.PublishedAt
}

// HasTag reports whether the item carries the given topic tag.
func (n NewsItem) HasTag(topic Topic) bool {
	for _, t := range n.Tags {
		if t == topic {
			return true
		}
	}
	return false
}

// Fingerprint derives the item identity from its source, normalized
// title and publish time rounded to the minute, so a re-publication with
// trivial text changes maps to the same ID.
func Fingerprint(source, title string, publishedAt time.Time) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	minute := publishedAt.UTC().Truncate(time.Minute).Format(time.RFC3339)

	sum := sha1.Sum([]byte(source + "|" + normalized + "|" + minute))
	return hex.EncodeToString(sum[:])
}

// Well-known signal names recorded by the scorer.
const (
	SignalRSI               = "rsi"
	SignalMACD              = "macd"
	SignalBollingerPosition = "bollinger_position"
	SignalPriceChange24h    = "price_change_24h"
	SignalUnavailable       = "indicator_unavailable"
)

// Score holds the sentiment polarity and market-impact indicator of a
// news item. Attached exactly once; scoring the same (item, snapshot)
// pair always yields the same Score.
type Score struct {
	Sentiment float64            `json:"sentiment"`
	Impact    float64            `json:"impact"`
	Signals   map[string]float64 `json:"signals"`
}

// Unavailable reports whether market data was missing when the item was
// scored.
func (s Score) Unavailable() bool {
	_, ok := s.Signals[SignalUnavailable]
	return ok
}

// ScoredItem pairs a news item with its score.
type ScoredItem struct {
	Item  NewsItem
	Score Score
}
