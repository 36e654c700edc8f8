package market

import "math"

// Breadth classification cutoffs. The advance/decline ratio at or above
// bullishThreshold reads bullish, at or below bearishThreshold bearish,
// anything between neutral.
const (
	bullishThreshold = 0.60
	bearishThreshold = 0.40
)

// ComputeSentiment derives market mood from the advancing share of the
// quote set. Index entries are not "advancing stocks" for breadth purposes
// and are excluded from the denominator. An empty set yields a 0.5 ratio,
// biasing the classification toward neutral instead of dividing by zero.
func ComputeSentiment(quotes []Quote) MarketSentiment {
	positive := 0
	total := 0
	for _, q := range quotes {
		if IsIndexSymbol(q.Symbol) {
			continue
		}
		total++
		if q.Change > 0 {
			positive++
		}
	}

	ratio := 0.5
	if total > 0 {
		ratio = float64(positive) / float64(total)
	}

	sentiment := SentimentNeutral
	switch {
	case ratio >= bullishThreshold:
		sentiment = SentimentBullish
	case ratio <= bearishThreshold:
		sentiment = SentimentBearish
	}

	return MarketSentiment{
		Sentiment:           sentiment,
		AdvanceDeclineRatio: math.Round(ratio*1000) / 1000,
		PositiveStocks:      positive,
		TotalStocks:         total,
	}
}
