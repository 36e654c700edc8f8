package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSession() *Session {
	return NewSession(func() time.Time { return istTime(2026, time.August, 26, 11, 0) })
}

func closedSession() *Session {
	return NewSession(func() time.Time { return istTime(2026, time.August, 29, 11, 0) })
}

func TestFallbackGenerator_QuoteBounds(t *testing.T) {
	gen := NewFallbackGenerator(openSession(), 42)

	for i := 0; i < 50; i++ {
		for _, inst := range DefaultInstruments {
			q := gen.Quote(inst.Symbol)

			assert.Equal(t, inst.Symbol, q.Symbol)
			assert.Equal(t, inst.Name, q.Name)
			assert.Equal(t, StateRegular, q.MarketState)

			// The walk is bounded by the instrument's volatility scale.
			assert.LessOrEqual(t, math.Abs(q.ChangePercent), inst.Volatility+0.01,
				"change percent out of bounds for %s", inst.Symbol)
			assert.Greater(t, q.Price, 0.0)
			assert.GreaterOrEqual(t, q.DayHigh, q.Price)
			assert.LessOrEqual(t, q.DayLow, q.Price)
		}
	}
}

func TestFallbackGenerator_DayRangeSpread(t *testing.T) {
	gen := NewFallbackGenerator(openSession(), 7)
	q := gen.Quote("TCS.NS")

	assert.InDelta(t, q.Price*1.015, q.DayHigh, 0.01)
	assert.InDelta(t, q.Price*0.985, q.DayLow, 0.01)
}

func TestFallbackGenerator_ClosedSessionDampsMovement(t *testing.T) {
	gen := NewFallbackGenerator(closedSession(), 42)

	for i := 0; i < 50; i++ {
		q := gen.Quote("ITC.NS") // volatility 1.5 when open
		assert.Equal(t, StateClosed, q.MarketState)
		assert.LessOrEqual(t, math.Abs(q.ChangePercent), 0.21,
			"off-session movement must be damped")
	}
}

func TestFallbackGenerator_UnknownSymbol(t *testing.T) {
	gen := NewFallbackGenerator(openSession(), 1)

	q := gen.Quote("MYSTERY.NS")
	assert.Equal(t, "MYSTERY.NS", q.Symbol)
	assert.Equal(t, 100.0, q.Price)
	assert.Equal(t, 0.0, q.Change)

	c := gen.CurrencyRate("XYZINR=X")
	assert.Equal(t, 1.0, c.Rate)
}

func TestFallbackGenerator_CurrencyRateBounds(t *testing.T) {
	gen := NewFallbackGenerator(openSession(), 42)

	for i := 0; i < 50; i++ {
		for _, pair := range DefaultCurrencyPairs {
			c := gen.CurrencyRate(pair.Symbol)
			assert.Equal(t, pair.Name, c.Name)
			// Rate walks at most about 1% around the baseline.
			assert.InDelta(t, pair.BaseRate, c.Rate, pair.BaseRate*0.011)
			assert.LessOrEqual(t, math.Abs(c.ChangePercent), 1.01)
		}
	}
}

func TestFallbackGenerator_DeterministicWithSeed(t *testing.T) {
	a := NewFallbackGenerator(openSession(), 99)
	b := NewFallbackGenerator(openSession(), 99)

	for i := 0; i < 10; i++ {
		qa := a.Quote("RELIANCE.NS")
		qb := b.Quote("RELIANCE.NS")
		assert.Equal(t, qa.Price, qb.Price)
		assert.Equal(t, qa.ChangePercent, qb.ChangePercent)
	}
}

func TestFallbackGenerator_Snapshot(t *testing.T) {
	gen := NewFallbackGenerator(openSession(), 42)
	snap := gen.Snapshot()

	require.NotNil(t, snap)
	assert.Len(t, snap.Stocks, len(DefaultInstruments))
	assert.Len(t, snap.Currencies, len(DefaultCurrencyPairs))
	assert.True(t, snap.Fallback)
	assert.True(t, snap.MarketOpen)
	assert.NotZero(t, snap.Sentiment.TotalStocks)

	// Synthetic quotes are already valid; validation must not change them.
	assert.Equal(t, snap.Stocks, ValidateQuotes(snap.Stocks))
	assert.Equal(t, snap.Currencies, ValidateCurrencies(snap.Currencies))
}
