package score

// polarity is the lexical polarity table used for sentiment analysis.
// Weights are in [-1, 1]; words absent from the table are neutral.
// Vocabulary is biased towards crypto-news headlines.
var polarity = map[string]float64{
	// Bullish
	"surge":         0.8,
	"surges":        0.8,
	"soar":          0.8,
	"soars":         0.8,
	"rally":         0.7,
	"rallies":       0.7,
	"gain":          0.5,
	"gains":         0.5,
	"climb":         0.5,
	"climbs":        0.5,
	"jump":          0.6,
	"jumps":         0.6,
	"record":        0.4,
	"breakout":      0.6,
	"bullish":       0.8,
	"adoption":      0.5,
	"approval":      0.6,
	"approves":      0.7,
	"approved":      0.7,
	"launch":        0.3,
	"launches":      0.3,
	"partnership":   0.5,
	"upgrade":       0.4,
	"growth":        0.5,
	"institutional": 0.3,
	"milestone":     0.5,
	"win":           0.5,
	"wins":          0.5,
	"boost":         0.5,
	"boosts":        0.5,
	"recovery":      0.4,
	"rebound":       0.5,
	"rebounds":      0.5,
	"optimism":      0.6,
	"breakthrough":  0.6,

	// Bearish
	"crash":       -0.9,
	"crashes":     -0.9,
	"plunge":      -0.8,
	"plunges":     -0.8,
	"plummet":     -0.8,
	"plummets":    -0.8,
	"dump":        -0.6,
	"dumps":       -0.6,
	"drop":        -0.5,
	"drops":       -0.5,
	"fall":        -0.4,
	"falls":       -0.4,
	"slump":       -0.6,
	"slumps":      -0.6,
	"sink":        -0.6,
	"sinks":       -0.6,
	"bearish":     -0.8,
	"hack":        -0.9,
	"hacked":      -0.9,
	"exploit":     -0.8,
	"breach":      -0.7,
	"scam":        -0.8,
	"fraud":       -0.8,
	"lawsuit":     -0.5,
	"sues":        -0.5,
	"ban":         -0.7,
	"bans":        -0.7,
	"banned":      -0.7,
	"crackdown":   -0.6,
	"liquidation": -0.6,
	"selloff":     -0.7,
	"fear":        -0.5,
	"panic":       -0.7,
	"collapse":    -0.9,
	"bankruptcy":  -0.9,
	"bankrupt":    -0.9,
	"warning":     -0.4,
	"warns":       -0.4,
	"risk":        -0.3,
	"losses":      -0.5,
	"loss":        -0.4,
	"halt":        -0.5,
	"halts":       -0.5,
	"delay":       -0.3,
	"delays":      -0.3,
	"reject":      -0.6,
	"rejects":     -0.6,
	"rejected":    -0.6,
}

// negations flip the polarity of the following word.
var negations = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"despite": {},
}
