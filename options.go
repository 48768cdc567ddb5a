package floompnews

import (
	"github.com/floompnews/floompnews/core"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the subscriber storage, by default a local BuntDB
// file is used.
func WithStorage(store core.SubscriberStorage) Option {
	return func(bot *Bot) {
		bot.storage = store
	}
}

// WithGateway sets the delivery gateway, bypassing the Telegram client.
func WithGateway(gateway core.Gateway) Option {
	return func(bot *Bot) {
		bot.gateway = gateway
	}
}

// WithMarketData sets the candle provider, by default Binance spot.
func WithMarketData(provider core.MarketData) Option {
	return func(bot *Bot) {
		bot.market = provider
	}
}

// WithSources replaces the sources built from the configuration.
func WithSources(sources ...core.Source) Option {
	return func(bot *Bot) {
		bot.sources = sources
	}
}

// WithLogger sets the logger, by default a colored console logger.
func WithLogger(log core.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}
