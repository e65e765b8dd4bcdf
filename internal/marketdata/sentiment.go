package marketdata

import "strings"

// Sentiment is a coarse headline tag derived from keyword counts.
type Sentiment string

const (
    SentimentPositive Sentiment = "positive"
    SentimentNegative Sentiment = "negative"
    SentimentNeutral  Sentiment = "neutral"
)

var positiveWords = []string{
    "surge", "rally", "gain", "jump", "soar", "beat", "upgrade", "profit",
    "growth", "record high", "outperform", "bullish", "strong", "buyback",
    "dividend", "expansion", "wins", "approval",
}

var negativeWords = []string{
    "fall", "drop", "plunge", "slump", "crash", "miss", "downgrade", "loss",
    "fraud", "probe", "lawsuit", "bearish", "weak", "layoff", "recall",
    "default", "penalty", "record low",
}

// SentimentOf counts positive and negative keyword hits in text
// (case-insensitive) and returns the majority; ties are neutral.
func SentimentOf(text string) Sentiment {
    t := strings.ToLower(text)
    var pos, neg int
    for _, w := range positiveWords {
        pos += strings.Count(t, w)
    }
    for _, w := range negativeWords {
        neg += strings.Count(t, w)
    }
    switch {
    case pos > neg:
        return SentimentPositive
    case neg > pos:
        return SentimentNegative
    default:
        return SentimentNeutral
    }
}
