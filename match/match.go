// Package match selects the subset of scored items relevant to one
// subscriber. Matching is pure: no side effects on subscriber state,
// and the relative order of the input is preserved.
package match

import (
	"github.com/floompnews/floompnews/core"
	"github.com/samber/lo"
)

// Match returns the ordered subsequence of items whose tag set
// intersects the subscriber's topic set. An empty topic set means the
// subscriber follows all topics.
func Match(subscriber *core.Subscriber, items []core.ScoredItem) []core.ScoredItem {
	return lo.Filter(items, func(item core.ScoredItem, _ int) bool {
		return subscriber.Follows(item.Item)
	})
}
