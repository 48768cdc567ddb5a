package match

import (
	"testing"
	"time"

	"github.com/floompnews/floompnews/core"
	"github.com/stretchr/testify/require"
)

func scored(title string, published time.Time, tags ...core.Topic) core.ScoredItem {
	return core.ScoredItem{
		Item: core.NewsItem{
			Title:       title,
			PublishedAt: published,
			Tags:        tags,
		},
	}
}

func TestMatch_TopicIntersection(t *testing.T) {
	now := time.Now()
	subscriber := &core.Subscriber{ChatID: 1, Topics: []core.Topic{core.TopicBitcoin}}

	items := []core.ScoredItem{
		scored("eth only", now, core.TopicEthereum),
		scored("btc and regulation", now, core.TopicBitcoin, core.TopicRegulation),
	}

	matched := Match(subscriber, items)
	require.Len(t, matched, 1)
	require.Equal(t, "btc and regulation", matched[0].Item.Title)
}

func TestMatch_EmptyTopicsMeansAll(t *testing.T) {
	now := time.Now()
	subscriber := &core.Subscriber{ChatID: 1}

	items := []core.ScoredItem{
		scored("a", now, core.TopicEthereum),
		scored("b", now, core.TopicUncategorized),
	}

	require.Len(t, Match(subscriber, items), 2)
}

func TestMatch_PreservesOrder(t *testing.T) {
	now := time.Now()
	subscriber := &core.Subscriber{ChatID: 1, Topics: []core.Topic{core.TopicMarkets}}

	items := []core.ScoredItem{
		scored("newest", now, core.TopicMarkets),
		scored("skip", now.Add(-time.Minute), core.TopicNFT),
		scored("older", now.Add(-2*time.Minute), core.TopicMarkets),
		scored("oldest", now.Add(-3*time.Minute), core.TopicMarkets),
	}

	matched := Match(subscriber, items)
	require.Equal(t, []string{"newest", "older", "oldest"}, []string{
		matched[0].Item.Title, matched[1].Item.Title, matched[2].Item.Title,
	})
}
