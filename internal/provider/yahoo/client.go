// Package yahoo adapts the public Yahoo Finance chart API to the quote
// source contract. The provider is treated as untrusted and unreliable:
// every response is validated before anything downstream sees it, and any
// failure surfaces as an error for the orchestrator to absorb.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/market"
	"github.com/finsymposium/marketpulse/internal/net/breaker"
	"github.com/finsymposium/marketpulse/internal/net/ratelimit"
)

// Config holds adapter settings.
type Config struct {
	// Endpoints are tried in order until one responds; query2 is Yahoo's
	// own mirror of query1.
	Endpoints []string      `yaml:"endpoints"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// DefaultConfig matches the production endpoints and the 10s request bound.
func DefaultConfig() Config {
	return Config{
		Endpoints: []string{
			"https://query1.finance.yahoo.com",
			"https://query2.finance.yahoo.com",
		},
		Timeout:   10 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Client implements market.QuoteSource against the chart API.
type Client struct {
	config  Config
	http    *http.Client
	limiter *ratelimit.Limiter
	breaker *breaker.Breaker
	session *market.Session
}

// NewClient wires the adapter with its resilience middleware. Any of
// limiter and brk may be nil to disable that guard (tests do this).
func NewClient(config Config, httpClient *http.Client, limiter *ratelimit.Limiter, brk *breaker.Breaker, session *market.Session) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		config:  config,
		http:    httpClient,
		limiter: limiter,
		breaker: brk,
		session: session,
	}
}

// FetchQuote returns a normalized equity/index quote or an error. Prices
// are rounded to 2 decimals; percent change is computed only when a
// positive previous close exists.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (market.Quote, error) {
	meta, err := c.fetchMeta(ctx, symbol)
	if err != nil {
		return market.Quote{}, err
	}

	price := meta.RegularMarketPrice
	if price == 0 {
		price = meta.PreviousClose
	}
	if price <= 0 || math.IsNaN(price) {
		return market.Quote{}, &Error{Symbol: symbol, Kind: KindPayload, Err: fmt.Errorf("missing or non-positive price")}
	}

	change, changePercent := changeFrom(price, meta.PreviousClose)

	dayHigh := meta.RegularMarketDayHigh
	if dayHigh == 0 {
		dayHigh = price
	}
	dayLow := meta.RegularMarketDayLow
	if dayLow == 0 {
		dayLow = price
	}

	name, displayName := c.names(symbol, meta)

	return market.Quote{
		Symbol:        symbol,
		Name:          name,
		DisplayName:   displayName,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(changePercent),
		Timestamp:     time.Now(),
		MarketState:   c.session.State(),
		DayHigh:       round2(math.Max(dayHigh, price)),
		DayLow:        round2(math.Min(dayLow, price)),
	}, nil
}

// FetchCurrencyRate returns a normalized FX rate or an error. Rates keep
// 4 decimals so pairs like JPY/INR stay meaningful.
func (c *Client) FetchCurrencyRate(ctx context.Context, symbol string) (market.CurrencyRate, error) {
	meta, err := c.fetchMeta(ctx, symbol)
	if err != nil {
		return market.CurrencyRate{}, err
	}

	rate := meta.RegularMarketPrice
	if rate == 0 {
		rate = meta.PreviousClose
	}
	if rate <= 0 || math.IsNaN(rate) {
		return market.CurrencyRate{}, &Error{Symbol: symbol, Kind: KindPayload, Err: fmt.Errorf("missing or non-positive rate")}
	}

	previous := meta.PreviousClose
	if previous == 0 {
		previous = rate
	}
	change := rate - previous
	changePercent := 0.0
	if previous > 0 {
		changePercent = change / previous * 100
	}

	name := symbol
	if pair, ok := market.FindCurrencyPair(symbol); ok {
		name = pair.Name
	}

	return market.CurrencyRate{
		Symbol:        symbol,
		Name:          name,
		Rate:          round4(rate),
		Change:        round4(change),
		ChangePercent: round2(changePercent),
		Timestamp:     time.Now(),
	}, nil
}

// fetchMeta tries each configured endpoint in order, through the limiter
// and the breaker, until one yields a parseable chart payload.
func (c *Client) fetchMeta(ctx context.Context, symbol string) (chartMeta, error) {
	var lastErr error
	for _, endpoint := range c.config.Endpoints {
		meta, err := c.fetchMetaFrom(ctx, endpoint, symbol)
		if err == nil {
			return meta, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = &Error{Symbol: symbol, Kind: KindTransport, Err: fmt.Errorf("no endpoints configured")}
	}
	return chartMeta{}, lastErr
}

func (c *Client) fetchMetaFrom(ctx context.Context, endpoint, symbol string) (chartMeta, error) {
	requestURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", endpoint, url.PathEscape(symbol))

	host := endpoint
	if u, err := url.Parse(endpoint); err == nil {
		host = u.Host
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindRateLimit, Err: err}
		}
	}

	execute := func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindTransport, Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := c.http.Do(req)
		if err != nil {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindTransport, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindHTTP, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		}

		var payload chartResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindDecode, Err: err}
		}
		if payload.Chart.Error != nil {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindPayload, Err: fmt.Errorf("%s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)}
		}
		if len(payload.Chart.Result) == 0 {
			return chartMeta{}, &Error{Symbol: symbol, Kind: KindPayload, Err: fmt.Errorf("empty chart result")}
		}
		return payload.Chart.Result[0].Meta, nil
	}

	var result any
	var err error
	if c.breaker != nil {
		result, err = c.breaker.Execute(execute)
	} else {
		result, err = execute()
	}
	if err != nil {
		log.Debug().Str("symbol", symbol).Str("host", host).Err(err).Msg("chart request failed")
		return chartMeta{}, wrapBreakerError(symbol, err)
	}
	return result.(chartMeta), nil
}

func (c *Client) names(symbol string, meta chartMeta) (string, string) {
	if inst, ok := market.FindInstrument(symbol); ok {
		return inst.Name, inst.DisplayName
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(symbol, ".NS"), ".BSE")
	if meta.LongName != "" {
		return meta.LongName, meta.LongName
	}
	return trimmed, trimmed
}

func changeFrom(price, previousClose float64) (float64, float64) {
	if previousClose <= 0 || math.IsNaN(previousClose) {
		return 0, 0
	}
	change := price - previousClose
	return change, change / previousClose * 100
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
