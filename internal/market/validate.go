package market

import "math"

const (
	// Swings beyond this are treated as upstream data corruption, not
	// real market moves.
	maxChangePercent = 20.0
	// Corrupted swings are rewritten to a moderate move of this size,
	// sign preserved.
	clampedChangePercent = 5.0
	// Neutral placeholder price for quotes whose price field is unusable.
	sentinelPrice = 100.0
)

// ValidateQuotes repairs implausible values in place of dropping records:
// the downstream ticker always has something to render. The pass is pure
// and idempotent; re-running it on already-valid quotes is a no-op.
func ValidateQuotes(quotes []Quote) []Quote {
	out := make([]Quote, len(quotes))
	for i, q := range quotes {
		out[i] = validateQuote(q)
	}
	return out
}

func validateQuote(q Quote) Quote {
	if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		q.Price = sentinelPrice
		q.Change = 0
		q.ChangePercent = 0
		q.DayHigh = sentinelPrice
		q.DayLow = sentinelPrice
		return q
	}

	if math.IsNaN(q.Change) || math.IsNaN(q.ChangePercent) {
		q.Change = 0
		q.ChangePercent = 0
	}

	if math.Abs(q.ChangePercent) > maxChangePercent {
		sign := 1.0
		if q.ChangePercent < 0 {
			sign = -1.0
		}
		q.ChangePercent = sign * clampedChangePercent
		q.Change = round2(q.Price * q.ChangePercent / 100)
	}

	if q.DayHigh < q.DayLow {
		q.DayHigh, q.DayLow = q.DayLow, q.DayHigh
	}
	if q.DayHigh < q.Price {
		q.DayHigh = q.Price
	}
	if q.DayLow > q.Price {
		q.DayLow = q.Price
	}
	return q
}

// ValidateCurrencies repairs FX records the same way: a rate that cannot
// be trusted is replaced with the pair's configured baseline.
func ValidateCurrencies(rates []CurrencyRate) []CurrencyRate {
	out := make([]CurrencyRate, len(rates))
	for i, c := range rates {
		if c.Rate <= 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
			if pair, ok := FindCurrencyPair(c.Symbol); ok {
				c.Rate = pair.BaseRate
			} else {
				c.Rate = 1
			}
			c.Change = 0
			c.ChangePercent = 0
		}
		if math.IsNaN(c.Change) || math.IsNaN(c.ChangePercent) {
			c.Change = 0
			c.ChangePercent = 0
		}
		out[i] = c
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
