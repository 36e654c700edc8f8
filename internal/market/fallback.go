package market

import (
	"math/rand"
	"sync"
	"time"
)

// Off-session synthetic movement is damped to model thin after-hours flow.
const closedSessionVolatility = 0.2

// FallbackGenerator produces synthetic but plausible quotes from the fixed
// base-price table. It never fails; that contract is what gives the whole
// pipeline its availability guarantee.
type FallbackGenerator struct {
	session *Session

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator builds a generator over the given session calendar.
// Seed is fixed by tests; pass 0 to seed from the clock.
func NewFallbackGenerator(session *Session, seed int64) *FallbackGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &FallbackGenerator{
		session: session,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (g *FallbackGenerator) uniform() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()*2 - 1 // uniform(-1, 1)
}

// Quote returns a synthetic quote for a configured instrument. Unknown
// symbols get a flat sentinel record so batch shape is always preserved.
func (g *FallbackGenerator) Quote(symbol string) Quote {
	now := time.Now()
	state := g.session.State()

	inst, ok := FindInstrument(symbol)
	if !ok {
		return Quote{
			Symbol:      symbol,
			Name:        symbol,
			Price:       sentinelPrice,
			Timestamp:   now,
			MarketState: state,
			DayHigh:     sentinelPrice,
			DayLow:      sentinelPrice,
		}
	}

	volatility := inst.Volatility
	if state == StateClosed {
		volatility = closedSessionVolatility
	}

	changePercent := g.uniform() * volatility
	change := inst.BasePrice * changePercent / 100
	price := inst.BasePrice + change

	return Quote{
		Symbol:        inst.Symbol,
		Name:          inst.Name,
		DisplayName:   inst.DisplayName,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(changePercent),
		Timestamp:     now,
		MarketState:   state,
		DayHigh:       round2(price * 1.015),
		DayLow:        round2(price * 0.985),
	}
}

// CurrencyRate returns a synthetic FX rate with a bounded random walk of
// about ±1% around the pair's baseline.
func (g *FallbackGenerator) CurrencyRate(symbol string) CurrencyRate {
	now := time.Now()

	pair, ok := FindCurrencyPair(symbol)
	if !ok {
		return CurrencyRate{Symbol: symbol, Name: symbol, Rate: 1, Timestamp: now}
	}

	movement := g.uniform() * 0.01
	rate := pair.BaseRate * (1 + movement)
	change := rate - pair.BaseRate

	return CurrencyRate{
		Symbol:        pair.Symbol,
		Name:          pair.Name,
		Rate:          round4(rate),
		Change:        round4(change),
		ChangePercent: round2(movement * 100),
		Timestamp:     now,
	}
}

// Snapshot builds a fully synthetic snapshot for every configured
// instrument and pair. Used when the whole pipeline is unreachable and by
// the request-level safety timeout.
func (g *FallbackGenerator) Snapshot() *Snapshot {
	stocks := make([]Quote, 0, len(DefaultInstruments))
	for _, inst := range DefaultInstruments {
		stocks = append(stocks, g.Quote(inst.Symbol))
	}
	currencies := make([]CurrencyRate, 0, len(DefaultCurrencyPairs))
	for _, pair := range DefaultCurrencyPairs {
		currencies = append(currencies, g.CurrencyRate(pair.Symbol))
	}
	return &Snapshot{
		Stocks:     stocks,
		Currencies: currencies,
		Sentiment:  ComputeSentiment(stocks),
		Timestamp:  time.Now(),
		MarketOpen: g.session.IsOpen(),
		Fallback:   true,
	}
}
