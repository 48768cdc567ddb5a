package classify

import "github.com/floompnews/floompnews/core"

// RuleTable maps each topic to the keywords that select it. Matching is
// case-insensitive against title and summary. Loaded once at startup and
// never mutated afterwards.
type RuleTable map[core.Topic][]string

// DefaultRules returns the built-in keyword table.
func DefaultRules() RuleTable {
	return RuleTable{
		core.TopicBitcoin: {
			"bitcoin", "btc", "satoshi", "lightning network", "halving",
		},
		core.TopicEthereum: {
			"ethereum", "eth", "vitalik", "erc-20", "staking", "layer 2",
		},
		core.TopicDeFi: {
			"defi", "decentralized finance", "liquidity pool", "yield",
			"lending protocol", "uniswap", "aave", "dex",
		},
		core.TopicNFT: {
			"nft", "non-fungible", "opensea", "collectible", "mint",
		},
		core.TopicRegulation: {
			"regulation", "sec", "cftc", "lawsuit", "compliance",
			"sanction", "ban", "legislation", "etf approval",
		},
		core.TopicMarkets: {
			"market", "price", "rally", "crash", "all-time high",
			"liquidation", "trading volume", "bull", "bear",
		},
		core.TopicTechnology: {
			"protocol", "upgrade", "blockchain", "scaling", "zero-knowledge",
			"hard fork", "mainnet", "testnet",
		},
	}
}

// DefaultTopicSymbols maps a topic to the asset symbol used for impact
// analysis when an item mentions no explicit ticker. Markets fall back
// to BTC as the broad-market indicator.
func DefaultTopicSymbols() map[core.Topic]string {
	return map[core.Topic]string{
		core.TopicBitcoin:  "BTCUSDT",
		core.TopicEthereum: "ETHUSDT",
		core.TopicMarkets:  "BTCUSDT",
	}
}

// tickerSymbols maps ticker mentions in the text to tradable symbols.
var tickerSymbols = map[string]string{
	"btc":  "BTCUSDT",
	"eth":  "ETHUSDT",
	"sol":  "SOLUSDT",
	"xrp":  "XRPUSDT",
	"ada":  "ADAUSDT",
	"doge": "DOGEUSDT",
	"bnb":  "BNBUSDT",
}
