// Package score computes the sentiment polarity and market-impact
// indicator of news items. Scoring is side-effect free: identical
// (item, snapshot) pairs always produce identical scores.
package score

import (
	"github.com/floompnews/floompnews/core"
)

// Snapshot is the market history fetched once per cycle, keyed by asset
// symbol.
type Snapshot map[string][]core.Candle

// Scorer scores news items against a market snapshot.
type Scorer struct {
	weights Weights
	log     core.Logger
}

// NewScorer creates a Scorer with the given indicator weights.
func NewScorer(weights Weights, log core.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		log:     log,
	}
}

// Score computes the Score of one item. Sentiment comes from the title
// and summary text; impact from the history of the item's first symbol
// present in the snapshot. Missing market data never drops the item:
// impact falls back to neutral and the condition is recorded in the
// signals.
func (s *Scorer) Score(item core.NewsItem, snapshot Snapshot) core.Score {
	sentiment := Sentiment(item.Title + " " + item.Summary)

	for _, symbol := range item.Symbols {
		candles, ok := snapshot[symbol]
		if !ok {
			continue
		}

		impact, signals, err := Impact(candles, s.weights)
		if err != nil {
			s.log.WithField("symbol", symbol).
				Debug("insufficient market history, trying next symbol")
			continue
		}

		return core.Score{
			Sentiment: sentiment,
			Impact:    impact,
			Signals:   signals,
		}
	}

	return core.Score{
		Sentiment: sentiment,
		Impact:    0,
		Signals:   map[string]float64{core.SignalUnavailable: 1},
	}
}
