package marketdata

import "testing"

func TestSentimentOf(t *testing.T) {
    cases := []struct {
        text string
        want Sentiment
    }{
        {"Shares surge after record profit, analysts upgrade stock", SentimentPositive},
        {"Stock plunges as regulator opens fraud probe", SentimentNegative},
        {"Quarterly results announced on Thursday", SentimentNeutral},
        // one positive vs one negative keyword: tie resolves to neutral
        {"Stock gains early then drops at close", SentimentNeutral},
        {"", SentimentNeutral},
    }
    for _, c := range cases {
        if got := SentimentOf(c.text); got != c.want {
            t.Fatalf("%q -> %s, want %s", c.text, got, c.want)
        }
    }
}
