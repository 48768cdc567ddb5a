// Package classify assigns topic tags and asset symbols to news items
// using a configurable keyword table. Classification is a pure function
// of the item text: same input, same tags, regardless of call order.
package classify

import (
	"strings"
	"unicode"

	"github.com/StudioSol/set"
	"github.com/floompnews/floompnews/core"
)

// Classifier tags news items against an immutable rule table.
type Classifier struct {
	rules        RuleTable
	topicSymbols map[core.Topic]string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTopicSymbols overrides the topic to asset-symbol mapping.
func WithTopicSymbols(symbols map[core.Topic]string) Option {
	return func(c *Classifier) {
		c.topicSymbols = symbols
	}
}

// New creates a Classifier. A nil table selects the built-in rules.
func New(rules RuleTable, options ...Option) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}

	c := &Classifier{
		rules:        rules,
		topicSymbols: DefaultTopicSymbols(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Classify returns the topic tags matching the item text. An item
// matching no rule yields the single tag TopicUncategorized so it is
// never silently dropped before scoring.
func (c *Classifier) Classify(item core.NewsItem) []core.Topic {
	text := normalize(item.Title + " " + item.Summary)
	words := wordSet(text)

	var tags []core.Topic
	for _, topic := range core.Topics {
		if c.matches(c.rules[topic], text, words) {
			tags = append(tags, topic)
		}
	}

	if len(tags) == 0 {
		return []core.Topic{core.TopicUncategorized}
	}
	return tags
}

// Symbols extracts the asset symbols relevant to a tagged item: explicit
// ticker mentions first, then the symbol mapped to each assigned topic.
func (c *Classifier) Symbols(item core.NewsItem, tags []core.Topic) []string {
	found := set.NewLinkedHashSetString()

	for word := range wordSet(normalize(item.Title + " " + item.Summary)) {
		if symbol, ok := tickerSymbols[word]; ok {
			found.Add(symbol)
		}
	}

	for _, topic := range tags {
		if symbol, ok := c.topicSymbols[topic]; ok {
			found.Add(symbol)
		}
	}

	symbols := make([]string, 0, found.Length())
	for symbol := range found.Iter() {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// matches checks every keyword of one topic: single words against the
// token set, phrases against the whole normalized text.
func (c *Classifier) matches(keywords []string, text string, words map[string]struct{}) bool {
	for _, keyword := range keywords {
		if strings.ContainsAny(keyword, " -") {
			if strings.Contains(text, keyword) {
				return true
			}
			continue
		}
		if _, ok := words[keyword]; ok {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.ToLower(text)
}

func wordSet(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		words[word] = struct{}{}
	}
	return words
}
