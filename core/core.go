// Package core defines the domain model and the ports the news pipeline
// depends on. Every adapter (feeds, market data, storage, messaging)
// implements one of these interfaces.
package core

import (
	"context"
	"time"
)

// Source normalizes one external feed into NewsItems. A Poll call is
// finite and restartable; a failing source reports a *SourceError and
// must never abort the surrounding poll cycle.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([]NewsItem, error)
}

// MarketData provides a short price/volume history for an asset symbol,
// newest candle last.
type MarketData interface {
	History(ctx context.Context, symbol string, lookback int) ([]Candle, error)
}

// Gateway is the opaque messaging sink digests are delivered through.
// Retry responsibility lives in the dispatcher, not here.
type Gateway interface {
	Send(chatID int64, payload string) error
}

// SubscriberStorage persists subscriber preference records with
// last-write-wins semantics.
type SubscriberStorage interface {
	Get(chatID int64) (*Subscriber, error)
	Put(subscriber *Subscriber) error
	All() ([]*Subscriber, error)
}

// Candle is one point of a market history series.
type Candle struct {
	Time   time.Time
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume float64
}
