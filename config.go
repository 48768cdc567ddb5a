package floompnews

import (
	"fmt"
	"net/url"
	"time"

	"github.com/floompnews/floompnews/core"
	"github.com/floompnews/floompnews/score"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Source kinds understood by the config.
const (
	SourceKindRSS         = "rss"
	SourceKindTheBlock    = "theblock"
	SourceKindDecrypt     = "decrypt"
	SourceKindCryptoSlate = "cryptoslate"
)

// SourceConfig describes one feed endpoint. RSS sources carry a URL;
// scraper sources carry the listing topic of the outlet.
type SourceConfig struct {
	Name  string `mapstructure:"name"`
	Kind  string `mapstructure:"kind"`
	URL   string `mapstructure:"url"`
	Topic string `mapstructure:"topic"`
}

// TelegramConfig holds Telegram transport configuration.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// Config is the immutable runtime configuration, loaded once at
// startup.
type Config struct {
	Sources []SourceConfig `mapstructure:"sources"`

	// Durations are parsed separately so "7d"-style values work.
	PollInterval  time.Duration `mapstructure:"-"`
	DedupWindow   time.Duration `mapstructure:"-"`
	SourceTimeout time.Duration `mapstructure:"-"`
	CycleTimeout  time.Duration `mapstructure:"-"`

	HighImpactThreshold float64       `mapstructure:"high_impact_threshold"`
	IndicatorWeights    score.Weights `mapstructure:"indicator_weights"`
	RecapTopK           int           `mapstructure:"recap_top_k"`
	RecapHour           int           `mapstructure:"recap_hour"`
	MarketLookback      int           `mapstructure:"market_lookback"`
	MaxRetries          int           `mapstructure:"max_retries"`

	StoragePath string         `mapstructure:"storage_path"`
	LogLevel    string         `mapstructure:"log_level"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

// DefaultSources mirrors the stock feed list: Cointelegraph and
// CoinDesk RSS per topic, plus the three scraped outlets.
func DefaultSources() []SourceConfig {
	sources := []SourceConfig{}
	for _, topic := range core.Topics {
		name := string(topic)
		sources = append(sources,
			SourceConfig{
				Name: "cointelegraph-" + name,
				Kind: SourceKindRSS,
				URL:  "https://cointelegraph.com/rss/tag/" + name,
			},
			SourceConfig{
				Name: "coindesk-" + name,
				Kind: SourceKindRSS,
				URL:  "https://www.coindesk.com/arc/outboundfeeds/rss/?outputType=xml&tags=" + name,
			},
		)
	}
	sources = append(sources,
		SourceConfig{Name: "theblock", Kind: SourceKindTheBlock, Topic: "bitcoin"},
		SourceConfig{Name: "decrypt", Kind: SourceKindDecrypt, Topic: "bitcoin"},
		SourceConfig{Name: "cryptoslate", Kind: SourceKindCryptoSlate, Topic: "bitcoin"},
	)
	return sources
}

// LoadConfig reads the configuration from the given file (optional) and
// the environment, applies defaults and validates the result. Invalid
// configuration is fatal at startup, never later.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("poll_interval", "5m")
	v.SetDefault("dedup_window", "7d")
	v.SetDefault("source_timeout", "30s")
	v.SetDefault("cycle_timeout", "3m")
	v.SetDefault("high_impact_threshold", 0.7)
	v.SetDefault("indicator_weights.rsi", 1.0)
	v.SetDefault("indicator_weights.macd", 1.0)
	v.SetDefault("indicator_weights.bollinger", 1.0)
	v.SetDefault("recap_top_k", 10)
	v.SetDefault("recap_hour", 8)
	v.SetDefault("market_lookback", 72)
	v.SetDefault("max_retries", 3)
	v.SetDefault("storage_path", "floompnews.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}

	var err error
	if config.PollInterval, err = parseDuration(v.GetString("poll_interval")); err != nil {
		return nil, fmt.Errorf("%w: poll_interval: %v", core.ErrConfigInvalid, err)
	}
	if config.DedupWindow, err = parseDuration(v.GetString("dedup_window")); err != nil {
		return nil, fmt.Errorf("%w: dedup_window: %v", core.ErrConfigInvalid, err)
	}
	if config.SourceTimeout, err = parseDuration(v.GetString("source_timeout")); err != nil {
		return nil, fmt.Errorf("%w: source_timeout: %v", core.ErrConfigInvalid, err)
	}
	if config.CycleTimeout, err = parseDuration(v.GetString("cycle_timeout")); err != nil {
		return nil, fmt.Errorf("%w: cycle_timeout: %v", core.ErrConfigInvalid, err)
	}

	if len(config.Sources) == 0 {
		config.Sources = DefaultSources()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every enumerated option. Returns a
// core.ErrConfigInvalid wrap on the first violation.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", core.ErrConfigInvalid)
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("%w: dedup_window must be positive", core.ErrConfigInvalid)
	}
	if c.HighImpactThreshold < 0 || c.HighImpactThreshold > 1 {
		return fmt.Errorf("%w: high_impact_threshold must be in [0,1]", core.ErrConfigInvalid)
	}
	if c.RecapTopK <= 0 {
		return fmt.Errorf("%w: recap_top_k must be positive", core.ErrConfigInvalid)
	}
	if c.RecapHour < 0 || c.RecapHour > 23 {
		return fmt.Errorf("%w: recap_hour must be in [0,23]", core.ErrConfigInvalid)
	}
	if c.MarketLookback <= 0 {
		return fmt.Errorf("%w: market_lookback must be positive", core.ErrConfigInvalid)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: max_retries must be positive", core.ErrConfigInvalid)
	}

	for _, source := range c.Sources {
		if err := source.validate(); err != nil {
			return err
		}
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram enabled without token", core.ErrConfigInvalid)
	}
	return nil
}

func (s SourceConfig) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: source without name", core.ErrConfigInvalid)
	}

	switch s.Kind {
	case SourceKindRSS:
		parsed, err := url.Parse(s.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%w: source %s: malformed endpoint %q", core.ErrConfigInvalid, s.Name, s.URL)
		}
	case SourceKindTheBlock, SourceKindDecrypt, SourceKindCryptoSlate:
		if _, err := core.ParseTopic(s.Topic); err != nil {
			return fmt.Errorf("%w: source %s: %v", core.ErrConfigInvalid, s.Name, err)
		}
	default:
		return fmt.Errorf("%w: source %s: unknown kind %q", core.ErrConfigInvalid, s.Name, s.Kind)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	return str2duration.ParseDuration(s)
}
