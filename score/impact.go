package score

import (
	"math"

	"github.com/floompnews/floompnews/core"
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Indicator periods, matching the standard parameterizations.
const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	bollingerBands = 20
	bollingerDev   = 2.0

	// minCandles is the warmup needed before every indicator has a
	// defined value: the MACD signal line is the slowest to settle.
	minCandles = macdSlow + macdSignal + 1
)

// Weights control how the three indicator components combine into the
// impact scalar. They are normalized before use, so only their ratio
// matters.
type Weights struct {
	RSI       float64 `mapstructure:"rsi"`
	MACD      float64 `mapstructure:"macd"`
	Bollinger float64 `mapstructure:"bollinger"`
}

// DefaultWeights returns the equal-weighted combination.
func DefaultWeights() Weights {
	return Weights{RSI: 1, MACD: 1, Bollinger: 1}
}

func (w Weights) normalized() Weights {
	total := w.RSI + w.MACD + w.Bollinger
	if total <= 0 {
		return DefaultWeights().normalized()
	}
	return Weights{
		RSI:       w.RSI / total,
		MACD:      w.MACD / total,
		Bollinger: w.Bollinger / total,
	}
}

// Impact computes the market-impact scalar in [0, 1] for a price series,
// combining the normalized distance from neutral of RSI(14),
// MACD(12/26/9) and Bollinger(20, 2σ) position. It also returns the raw
// indicator signals for presentation. Series shorter than the indicator
// warmup yield core.ErrMarketDataUnavailable.
func Impact(candles []core.Candle, weights Weights) (float64, map[string]float64, error) {
	if len(candles) < minCandles {
		return 0, nil, core.ErrMarketDataUnavailable
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	_, _, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	upper, middle, _ := talib.BBands(closes, bollingerBands, bollingerDev, bollingerDev, talib.SMA)

	last := len(closes) - 1
	lastRSI := rsi[last]
	lastHist := hist[last]
	lastClose := closes[last]

	// RSI distance from the 50 midpoint, scaled to [0, 1].
	rsiComponent := clip(math.Abs(lastRSI-50)/50, 0, 1)

	// MACD histogram magnitude relative to recent price dispersion.
	dispersion := stat.StdDev(closes[len(closes)-bollingerBands:], nil)
	var macdComponent float64
	if dispersion > 0 {
		macdComponent = clip(math.Abs(lastHist)/dispersion, 0, 1)
	}

	// Position of the close inside the bands: 0 at the middle band,
	// ±1 at the outer bands.
	var position float64
	if width := upper[last] - middle[last]; width > 0 {
		position = clip((lastClose-middle[last])/width, -1, 1)
	}
	bollingerComponent := math.Abs(position)

	w := weights.normalized()
	impact := clip(
		w.RSI*rsiComponent+w.MACD*macdComponent+w.Bollinger*bollingerComponent,
		0, 1,
	)

	signals := map[string]float64{
		core.SignalRSI:               lastRSI,
		core.SignalMACD:              lastHist,
		core.SignalBollingerPosition: position,
		core.SignalPriceChange24h:    priceChange24h(candles),
	}

	return impact, signals, nil
}

// priceChange24h returns the percent change between the close 24 candles
// back and the latest close. With fewer candles it uses the full series.
func priceChange24h(candles []core.Candle) float64 {
	last := len(candles) - 1
	start := last - 24
	if start < 0 {
		start = 0
	}

	base := candles[start].Close
	if base == 0 {
		return 0
	}
	return (candles[last].Close - base) / base * 100
}
