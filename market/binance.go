// Package market provides the price/volume history used by the scorer,
// backed by Binance klines, with a per-cycle snapshot cache so the same
// symbol is never fetched twice in one processing cycle.
package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/floompnews/floompnews/core"
	"github.com/jpillora/backoff"
)

const defaultTimeframe = "1h"

// Binance implements core.MarketData using the spot klines endpoint.
type Binance struct {
	client    *binance.Client
	timeframe string
	retries   int
	log       core.Logger
}

// Option is a function that configures a Binance instance.
type Option func(*Binance)

// WithCredentials sets API credentials. Klines are public data, so
// credentials are optional.
func WithCredentials(key, secret string) Option {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

// WithTimeframe overrides the candle interval (default 1h).
func WithTimeframe(timeframe string) Option {
	return func(b *Binance) {
		b.timeframe = timeframe
	}
}

// WithTestNet enables the Binance testnet.
func WithTestNet() Option {
	return func(_ *Binance) {
		binance.UseTestnet = true
	}
}

// NewBinance creates the market data adapter.
func NewBinance(log core.Logger, options ...Option) *Binance {
	b := &Binance{
		client:    binance.NewClient("", ""),
		timeframe: defaultTimeframe,
		retries:   3,
		log:       log,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// History implements core.MarketData. Returns up to lookback complete
// candles, oldest first, discarding the still-open last candle.
func (b *Binance) History(ctx context.Context, symbol string, lookback int) ([]core.Candle, error) {
	bo := &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 2 * time.Second,
	}

	var lastErr error
	for attempt := 0; attempt < b.retries; attempt++ {
		data, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(b.timeframe).
			Limit(lookback + 1). // +1 to discard the last incomplete candle
			Do(ctx)

		if err == nil {
			return convertKlines(data), nil
		}

		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(bo.Duration()):
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", core.ErrMarketDataUnavailable, symbol, lastErr)
}

func convertKlines(data []*binance.Kline) []core.Candle {
	if len(data) == 0 {
		return nil
	}

	candles := make([]core.Candle, 0, len(data)-1)
	for i, k := range data {
		// Skip the last candle as it is incomplete.
		if i == len(data)-1 {
			break
		}
		candles = append(candles, convertKlineToCandle(*k))
	}
	return candles
}

// convertKlineToCandle converts a Binance kline to a core.Candle.
func convertKlineToCandle(k binance.Kline) core.Candle {
	candle := core.Candle{
		Time: time.Unix(0, k.OpenTime*int64(time.Millisecond)),
	}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}
