package market

import "time"

// MarketState labels whether the exchange session was open when a quote
// was captured.
type MarketState string

const (
	StateRegular MarketState = "REGULAR"
	StateClosed  MarketState = "CLOSED"
)

// Sentiment is the three-state market mood derived from breadth.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Quote is one priced instrument (equity or index) at a point in time.
// Quotes are rebuilt wholesale every refresh cycle; the only mutation
// allowed after construction is the validation pass within the same cycle.
type Quote struct {
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	DisplayName   string      `json:"displayName,omitempty"`
	Price         float64     `json:"price"`
	Change        float64     `json:"change"`
	ChangePercent float64     `json:"changePercent"`
	Timestamp     time.Time   `json:"timestamp"`
	MarketState   MarketState `json:"marketState"`
	DayHigh       float64     `json:"dayHigh"`
	DayLow        float64     `json:"dayLow"`
}

// CurrencyRate is one FX pair's conversion rate into INR.
type CurrencyRate struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Rate          float64   `json:"rate"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
}

// MarketSentiment is derived from the current quote set every cycle and is
// never cached independently of the quotes it was computed from.
type MarketSentiment struct {
	Sentiment           Sentiment `json:"sentiment"`
	AdvanceDeclineRatio float64   `json:"advanceDeclineRatio"`
	PositiveStocks      int       `json:"positiveStocks"`
	TotalStocks         int       `json:"totalStocks"`
}

// Snapshot is the aggregate unit delivered to subscribers and serialized
// by the market-data endpoint. Receivers must treat it as read-only.
type Snapshot struct {
	Stocks     []Quote           `json:"stocks"`
	Currencies []CurrencyRate    `json:"currencies"`
	Sentiment  MarketSentiment   `json:"sentiment"`
	Timestamp  time.Time         `json:"timestamp"`
	MarketOpen bool              `json:"-"`
	Fallback   bool              `json:"fallback,omitempty"`
	Metadata   *SnapshotMetadata `json:"metadata,omitempty"`
}

// SnapshotMetadata carries observability fields on the HTTP response.
type SnapshotMetadata struct {
	ProcessingTimeMS int64       `json:"processingTime"`
	DataQuality      DataQuality `json:"dataQuality"`
	Source           string      `json:"source"`
	Version          string      `json:"version"`
}

// DataQuality reports how many items survived validation.
type DataQuality struct {
	StocksValidated     int `json:"stocksValidated"`
	StocksTotal         int `json:"stocksTotal"`
	CurrenciesValidated int `json:"currenciesValidated"`
	CurrenciesTotal     int `json:"currenciesTotal"`
}
