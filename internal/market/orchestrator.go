package market

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// QuoteSource is the adapter contract for the external quote provider.
// Implementations return an error for anything unusable (HTTP failure,
// timeout, malformed payload); they never fabricate data.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
	FetchCurrencyRate(ctx context.Context, symbol string) (CurrencyRate, error)
}

// RetryPolicy is applied uniformly per source class instead of bespoke
// nested handlers per call site.
type RetryPolicy struct {
	ExtraAttempts int
	Delay         time.Duration
}

// OrchestratorConfig bounds each item fetch independently of the batch.
type OrchestratorConfig struct {
	ItemTimeout   time.Duration
	StockRetry    RetryPolicy
	CurrencyRetry RetryPolicy
	Version       string
}

// DefaultOrchestratorConfig mirrors production timings: 8s per item,
// equities retried twice with a 1s pause, currencies not retried.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		ItemTimeout:   8 * time.Second,
		StockRetry:    RetryPolicy{ExtraAttempts: 2, Delay: time.Second},
		CurrencyRetry: RetryPolicy{},
		Version:       "2.0",
	}
}

// FetchObserver receives per-item outcomes for metrics. Nil observers are
// allowed.
type FetchObserver interface {
	QuoteFetched(kind, source string)
	CycleCompleted(duration time.Duration, fallback bool)
}

// Orchestrator runs one full batch fetch: every instrument and currency
// concurrently, each raced against its own timeout and substituted by a
// synthetic record on failure. One bad symbol never fails the batch.
type Orchestrator struct {
	source   QuoteSource
	fallback *FallbackGenerator
	session  *Session
	config   OrchestratorConfig
	observer FetchObserver

	instruments []Instrument
	currencies  []CurrencyPair
}

// NewOrchestrator wires the pipeline over the default universe.
func NewOrchestrator(source QuoteSource, fallback *FallbackGenerator, session *Session, config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		source:      source,
		fallback:    fallback,
		session:     session,
		config:      config,
		instruments: DefaultInstruments,
		currencies:  DefaultCurrencyPairs,
	}
}

// SetObserver attaches a metrics observer. Call before the first fetch.
func (o *Orchestrator) SetObserver(obs FetchObserver) {
	o.observer = obs
}

type itemResult[T any] struct {
	value T
	live  bool
}

// FetchAll produces a complete, validated, internally consistent snapshot.
// It returns within roughly the per-item timeout bound regardless of how
// many symbols hang, and never returns an error: total provider failure
// degrades to a fully synthetic snapshot.
func (o *Orchestrator) FetchAll(ctx context.Context) *Snapshot {
	start := time.Now()

	stockResults := make([]itemResult[Quote], len(o.instruments))
	currencyResults := make([]itemResult[CurrencyRate], len(o.currencies))

	var wg sync.WaitGroup
	for i, inst := range o.instruments {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			stockResults[i] = o.fetchStock(ctx, symbol)
		}(i, inst.Symbol)
	}
	for i, pair := range o.currencies {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			currencyResults[i] = o.fetchCurrency(ctx, symbol)
		}(i, pair.Symbol)
	}
	wg.Wait()

	stocks := make([]Quote, len(stockResults))
	liveStocks := 0
	for i, r := range stockResults {
		stocks[i] = r.value
		if r.live {
			liveStocks++
		}
	}
	currencies := make([]CurrencyRate, len(currencyResults))
	liveCurrencies := 0
	for i, r := range currencyResults {
		currencies[i] = r.value
		if r.live {
			liveCurrencies++
		}
	}

	stocks = ValidateQuotes(stocks)
	currencies = ValidateCurrencies(currencies)

	allSynthetic := liveStocks == 0 && liveCurrencies == 0
	elapsed := time.Since(start)

	snapshot := &Snapshot{
		Stocks:     stocks,
		Currencies: currencies,
		Sentiment:  ComputeSentiment(stocks),
		Timestamp:  time.Now(),
		MarketOpen: o.session.IsOpen(),
		Fallback:   allSynthetic,
		Metadata: &SnapshotMetadata{
			ProcessingTimeMS: elapsed.Milliseconds(),
			DataQuality: DataQuality{
				StocksValidated:     liveStocks,
				StocksTotal:         len(o.instruments),
				CurrenciesValidated: liveCurrencies,
				CurrenciesTotal:     len(o.currencies),
			},
			Source:  o.sourceLabel(allSynthetic),
			Version: o.config.Version,
		},
	}

	if o.observer != nil {
		o.observer.CycleCompleted(elapsed, allSynthetic)
	}
	log.Debug().
		Int("live_stocks", liveStocks).
		Int("live_currencies", liveCurrencies).
		Dur("elapsed", elapsed).
		Str("sentiment", string(snapshot.Sentiment.Sentiment)).
		Msg("market data cycle completed")

	return snapshot
}

func (o *Orchestrator) sourceLabel(allSynthetic bool) string {
	if allSynthetic {
		return "fallback"
	}
	return "yahoo-finance"
}

func (o *Orchestrator) fetchStock(ctx context.Context, symbol string) itemResult[Quote] {
	quote, err := fetchWithRetry(ctx, o.config.ItemTimeout, o.config.StockRetry, symbol,
		func(ctx context.Context) (Quote, error) { return o.source.FetchQuote(ctx, symbol) })
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("quote fetch failed, using synthetic data")
		o.observe("stock", "fallback")
		return itemResult[Quote]{value: o.fallback.Quote(symbol)}
	}
	o.observe("stock", "live")
	return itemResult[Quote]{value: quote, live: true}
}

func (o *Orchestrator) fetchCurrency(ctx context.Context, symbol string) itemResult[CurrencyRate] {
	rate, err := fetchWithRetry(ctx, o.config.ItemTimeout, o.config.CurrencyRetry, symbol,
		func(ctx context.Context) (CurrencyRate, error) { return o.source.FetchCurrencyRate(ctx, symbol) })
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("currency fetch failed, using synthetic data")
		o.observe("currency", "fallback")
		return itemResult[CurrencyRate]{value: o.fallback.CurrencyRate(symbol)}
	}
	o.observe("currency", "live")
	return itemResult[CurrencyRate]{value: rate, live: true}
}

func (o *Orchestrator) observe(kind, source string) {
	if o.observer != nil {
		o.observer.QuoteFetched(kind, source)
	}
}

// fetchWithRetry bounds the whole attempt sequence, retries included, by a
// single item timeout. The item context cancels the in-flight request; a
// late response after expiry is dropped here and can never leak into a
// later cycle's snapshot.
func fetchWithRetry[T any](ctx context.Context, timeout time.Duration, retry RetryPolicy, symbol string, fetch func(context.Context) (T, error)) (T, error) {
	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var zero T
	var lastErr error
	for attempt := 0; attempt <= retry.ExtraAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-itemCtx.Done():
				return zero, itemCtx.Err()
			case <-time.After(retry.Delay):
			}
		}

		value, err := fetch(itemCtx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if itemCtx.Err() != nil {
			return zero, itemCtx.Err()
		}
		log.Debug().Str("symbol", symbol).Int("attempt", attempt+1).Err(err).Msg("fetch attempt failed")
	}
	return zero, lastErr
}
