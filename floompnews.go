package floompnews

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/floompnews/floompnews/classify"
	"github.com/floompnews/floompnews/core"
	"github.com/floompnews/floompnews/dedup"
	"github.com/floompnews/floompnews/digest"
	"github.com/floompnews/floompnews/dispatch"
	"github.com/floompnews/floompnews/feed"
	"github.com/floompnews/floompnews/logger/zerolog"
	"github.com/floompnews/floompnews/market"
	"github.com/floompnews/floompnews/notification"
	"github.com/floompnews/floompnews/score"
	"github.com/floompnews/floompnews/storage"
	"github.com/samber/lo"
)

// Bot wires the full pipeline: poll feeds, drop repeats, tag and score
// what survives, then let the scheduler decide who hears about it.
type Bot struct {
	config   *Config
	log      core.Logger
	storage  core.SubscriberStorage
	gateway  core.Gateway
	market   core.MarketData
	sources  []core.Source
	telegram *notification.Telegram

	poller     *feed.Poller
	dedup      *dedup.Set
	classifier *classify.Classifier
	scorer     *score.Scorer
	fetcher    *market.Fetcher
	composer   *digest.Composer
	aggregator *digest.Aggregator
	scheduler  *dispatch.Scheduler
}

// NewBot creates a bot instance from the given configuration and
// dependencies. Options override the defaults built from the config.
func NewBot(config *Config, options ...Option) (*Bot, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil config", core.ErrConfigInvalid)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	bot := &Bot{
		config:     config,
		dedup:      dedup.New(config.DedupWindow),
		classifier: classify.New(classify.DefaultRules()),
		composer:   digest.NewComposer(),
		aggregator: digest.NewAggregator(),
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeLogger(bot); err != nil {
		return nil, err
	}
	if err := initializeStorage(bot); err != nil {
		return nil, err
	}
	if err := initializeSources(bot); err != nil {
		return nil, err
	}
	if err := initializeMarket(bot); err != nil {
		return nil, err
	}
	if err := initializeNotification(bot); err != nil {
		return nil, err
	}

	bot.poller = feed.NewPoller(bot.sources, config.SourceTimeout, bot.log)
	bot.scorer = score.NewScorer(config.IndicatorWeights, bot.log)
	bot.fetcher = market.NewFetcher(bot.market, config.MarketLookback, bot.log)
	bot.scheduler = dispatch.New(bot.storage, bot.gateway, bot.log,
		dispatch.WithHighImpactThreshold(config.HighImpactThreshold),
		dispatch.WithMaxRetries(config.MaxRetries),
	)

	return bot, nil
}

func initializeLogger(bot *Bot) error {
	if bot.log != nil {
		return nil
	}
	log, err := zerolog.NewConsole(bot.config.LogLevel, "2006-01-02 15:04:05", true)
	if err != nil {
		return err
	}
	bot.log = log
	return nil
}

func initializeStorage(bot *Bot) error {
	var err error
	if bot.storage == nil {
		bot.storage, err = storage.NewFromFile(bot.config.StoragePath)
		if err != nil {
			return err
		}
	}
	return nil
}

func initializeSources(bot *Bot) error {
	if len(bot.sources) > 0 {
		return nil
	}
	for _, sc := range bot.config.Sources {
		switch sc.Kind {
		case SourceKindRSS:
			bot.sources = append(bot.sources, feed.NewRSS(sc.Name, sc.URL))
		case SourceKindTheBlock:
			bot.sources = append(bot.sources, feed.NewTheBlock(sc.Topic))
		case SourceKindDecrypt:
			bot.sources = append(bot.sources, feed.NewDecrypt(sc.Topic))
		case SourceKindCryptoSlate:
			bot.sources = append(bot.sources, feed.NewCryptoSlate(sc.Topic))
		default:
			return fmt.Errorf("%w: unknown source kind %q", core.ErrConfigInvalid, sc.Kind)
		}
	}
	return nil
}

func initializeMarket(bot *Bot) error {
	if bot.market == nil {
		bot.market = market.NewBinance(bot.log)
	}
	return nil
}

func initializeNotification(bot *Bot) error {
	var err error
	if bot.config.Telegram.Enabled && bot.gateway == nil {
		bot.telegram, err = notification.NewTelegram(
			bot.config.Telegram.Token,
			bot.storage,
			bot.log,
			notification.WithRecapHandler(bot.SendRecap),
		)
		if err != nil {
			return err
		}
		bot.gateway = bot.telegram
	}
	if bot.gateway == nil {
		return fmt.Errorf("%w: no delivery gateway configured", core.ErrConfigInvalid)
	}
	return nil
}

// Run starts the command listener and drives poll cycles until the
// context is cancelled. The first cycle runs immediately.
func (b *Bot) Run(ctx context.Context) error {
	if b.telegram != nil {
		b.telegram.Start()
		defer b.telegram.Stop()
	}

	b.log.WithFields(map[string]any{
		"sources":       len(b.sources),
		"poll_interval": b.config.PollInterval.String(),
	}).Info("bot started")

	b.Cycle(ctx)

	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	recap := time.NewTimer(time.Until(nextRecap(time.Now(), b.config.RecapHour)))
	defer recap.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped")
			return ctx.Err()
		case <-ticker.C:
			b.Cycle(ctx)
		case <-recap.C:
			b.broadcastRecap()
			recap.Reset(time.Until(nextRecap(time.Now(), b.config.RecapHour)))
		}
	}
}

// Cycle runs one poll-classify-score-dispatch round.
func (b *Bot) Cycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, b.config.CycleTimeout)
	defer cancel()

	started := time.Now()

	items := b.poller.PollAll(cycleCtx)
	admitted := lo.Filter(items, func(item core.NewsItem, _ int) bool {
		return b.dedup.Admit(item.ID)
	})

	for i := range admitted {
		admitted[i].Tags = b.classifier.Classify(admitted[i])
		admitted[i].Symbols = b.classifier.Symbols(admitted[i], admitted[i].Tags)
	}

	symbols := lo.Uniq(lo.FlatMap(admitted, func(item core.NewsItem, _ int) []string {
		return item.Symbols
	}))
	snapshot := b.fetcher.Snapshot(cycleCtx, symbols)

	scored := make([]core.ScoredItem, 0, len(admitted))
	for _, item := range admitted {
		scored = append(scored, core.ScoredItem{Item: item, Score: b.scorer.Score(item, snapshot)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Item.SeenAt().After(scored[j].Item.SeenAt())
	})

	b.aggregator.Observe(scored...)
	b.scheduler.RunCycle(cycleCtx, scored)

	b.log.WithFields(map[string]any{
		"fetched":  len(items),
		"admitted": len(admitted),
		"symbols":  len(symbols),
		"elapsed":  time.Since(started).String(),
	}).Info("cycle complete")
}

// SendRecap sends the rolling 24h recap to a single chat, on demand.
func (b *Bot) SendRecap(chatID int64) {
	for _, payload := range b.aggregator.Recap(b.composer, b.config.RecapTopK) {
		if err := b.gateway.Send(chatID, payload); err != nil {
			b.log.WithError(err).WithField("chat_id", chatID).Error("recap delivery failed")
			return
		}
	}
}

func (b *Bot) broadcastRecap() {
	subscribers, err := b.storage.All()
	if err != nil {
		b.log.WithError(err).Error("recap broadcast aborted")
		return
	}
	b.log.WithField("subscribers", len(subscribers)).Info("broadcasting daily recap")
	for _, subscriber := range subscribers {
		b.SendRecap(subscriber.ChatID)
	}
}

// nextRecap returns the next wall-clock occurrence of the recap hour.
func nextRecap(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
