// Package digest renders scored news items into delivery payloads and
// compiles the rolling daily recap.
package digest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/floompnews/floompnews/core"
)

// maxMessageLen is the Telegram message size ceiling. Digests above it
// are split into a bounded sequence of messages.
const maxMessageLen = 4096

// Sentiment presentation buckets.
const (
	bullishThreshold = 0.2
	bearishThreshold = -0.2
)

// Composer renders delivery jobs into human-readable messages.
type Composer struct {
	limit int
}

// NewComposer creates a Composer with the default transport size limit.
func NewComposer() *Composer {
	return &Composer{limit: maxMessageLen}
}

// Compose renders a delivery job into one or more messages, each within
// the transport size limit. Pure transformation; the job is not
// modified.
func (c *Composer) Compose(job core.DeliveryJob) []string {
	entries := make([]string, 0, len(job.Items))
	for _, item := range job.Items {
		entries = append(entries, renderItem(item))
	}
	return c.chunk(entries)
}

// ComposeWithHeader renders entries under a leading header line.
func (c *Composer) ComposeWithHeader(header string, items []core.ScoredItem) []string {
	entries := make([]string, 0, len(items)+1)
	entries = append(entries, header)
	for _, item := range items {
		entries = append(entries, renderItem(item))
	}
	return c.chunk(entries)
}

// chunk joins entries into messages no larger than the limit. A single
// oversized entry is truncated rather than dropped.
func (c *Composer) chunk(entries []string) []string {
	var (
		messages []string
		current  strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			messages = append(messages, current.String())
			current.Reset()
		}
	}

	for _, entry := range entries {
		if len(entry) > c.limit {
			entry = truncate(entry, c.limit)
		}
		if current.Len() > 0 && current.Len()+len(entry)+2 > c.limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(entry)
	}
	flush()

	return messages
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// renderItem formats one scored item: sentiment glyph, title, summary,
// market impact block and article link.
func renderItem(item core.ScoredItem) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s *%s*\n", SentimentGlyph(item.Score.Sentiment), item.Item.Title)

	if item.Item.Summary != "" {
		fmt.Fprintf(&sb, "📝 %s\n", item.Item.Summary)
	}

	sb.WriteString(renderImpact(item.Score))

	if item.Item.URL != "" {
		fmt.Fprintf(&sb, "🔗 [Read full article](%s)", item.Item.URL)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderImpact formats the market impact block from the score signals.
func renderImpact(score core.Score) string {
	if score.Unavailable() {
		return "📊 Market data unavailable\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Impact: %s %.2f\n", impactBar(score.Impact), score.Impact)

	if rsi, ok := score.Signals[core.SignalRSI]; ok {
		switch {
		case rsi > 70:
			fmt.Fprintf(&sb, "• RSI %.0f — overbought\n", rsi)
		case rsi < 30:
			fmt.Fprintf(&sb, "• RSI %.0f — oversold\n", rsi)
		}
	}

	if macd, ok := score.Signals[core.SignalMACD]; ok {
		if macd > 0 {
			sb.WriteString("• MACD indicates bullish momentum\n")
		} else if macd < 0 {
			sb.WriteString("• MACD indicates bearish momentum\n")
		}
	}

	if change, ok := score.Signals[core.SignalPriceChange24h]; ok {
		if change > 5 || change < -5 {
			fmt.Fprintf(&sb, "• Significant price movement (%.2f%%) in last 24h\n", change)
		}
	}

	return sb.String()
}

// SentimentGlyph maps a sentiment value to its presentation emoji:
// bullish above 0.2, bearish below -0.2, neutral in between.
func SentimentGlyph(sentiment float64) string {
	switch {
	case sentiment > bullishThreshold:
		return "📈"
	case sentiment < bearishThreshold:
		return "📉"
	default:
		return "➡️"
	}
}

// impactBar renders the impact scalar as a five-step bar.
func impactBar(impact float64) string {
	filled := int(impact*5 + 0.5)
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 5-filled)
}
