package market

// Instrument describes one configured equity or index symbol together
// with the synthetic baseline used when the live provider is unavailable.
type Instrument struct {
	Symbol      string
	Name        string
	DisplayName string
	IsIndex     bool
	BasePrice   float64
	Volatility  float64 // daily percent swing scale for synthetic quotes
}

// CurrencyPair describes one FX pair quoted against INR.
type CurrencyPair struct {
	Symbol   string
	Name     string
	BaseRate float64
}

// DefaultInstruments is the NSE/BSE universe the symposium widget tracks.
// Base prices anchor synthetic quotes so offline data stays plausible.
var DefaultInstruments = []Instrument{
	{Symbol: "RELIANCE.NS", Name: "RELIANCE", DisplayName: "Reliance Industries", BasePrice: 3090, Volatility: 1.2},
	{Symbol: "TCS.NS", Name: "TCS", DisplayName: "Tata Consultancy Services", BasePrice: 4160, Volatility: 1.0},
	{Symbol: "HDFCBANK.NS", Name: "HDFC BANK", DisplayName: "HDFC Bank Ltd", BasePrice: 1725, Volatility: 1.1},
	{Symbol: "INFY.NS", Name: "INFOSYS", DisplayName: "Infosys Limited", BasePrice: 1895, Volatility: 1.3},
	{Symbol: "ICICIBANK.NS", Name: "ICICI BANK", DisplayName: "ICICI Bank Ltd", BasePrice: 1315, Volatility: 1.4},
	{Symbol: "HINDUNILVR.NS", Name: "HUL", DisplayName: "Hindustan Unilever", BasePrice: 2490, Volatility: 0.9},
	{Symbol: "ITC.NS", Name: "ITC", DisplayName: "ITC Limited", BasePrice: 482, Volatility: 1.5},
	{Symbol: "KOTAKBANK.NS", Name: "KOTAK", DisplayName: "Kotak Mahindra Bank", BasePrice: 1792, Volatility: 1.3},
	{Symbol: "^NSEI", Name: "NIFTY 50", DisplayName: "NIFTY 50 Index", IsIndex: true, BasePrice: 24750, Volatility: 0.8},
	{Symbol: "^BSESN", Name: "SENSEX", DisplayName: "BSE Sensex", IsIndex: true, BasePrice: 81200, Volatility: 0.8},
}

// DefaultCurrencyPairs are the INR conversion pairs shown in the ticker.
var DefaultCurrencyPairs = []CurrencyPair{
	{Symbol: "USDINR=X", Name: "USD/INR", BaseRate: 84.25},
	{Symbol: "EURINR=X", Name: "EUR/INR", BaseRate: 91.75},
	{Symbol: "GBPINR=X", Name: "GBP/INR", BaseRate: 103.45},
	{Symbol: "JPYINR=X", Name: "JPY/INR", BaseRate: 0.56},
}

// FindInstrument returns the configured instrument for symbol, if any.
func FindInstrument(symbol string) (Instrument, bool) {
	for _, inst := range DefaultInstruments {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return Instrument{}, false
}

// FindCurrencyPair returns the configured FX pair for symbol, if any.
func FindCurrencyPair(symbol string) (CurrencyPair, bool) {
	for _, pair := range DefaultCurrencyPairs {
		if pair.Symbol == symbol {
			return pair, true
		}
	}
	return CurrencyPair{}, false
}

// IsIndexSymbol reports whether symbol is an index-level entry. Indices
// are excluded from advance/decline breadth.
func IsIndexSymbol(symbol string) bool {
	inst, ok := FindInstrument(symbol)
	return ok && inst.IsIndex
}
