package yahoo

import (
	"errors"
	"fmt"

	cb "github.com/sony/gobreaker"
)

// Error kinds, in rough order of how far the request got.
const (
	KindRateLimit = "rate_limit"
	KindCircuit   = "circuit"
	KindTransport = "transport"
	KindHTTP      = "http_error"
	KindDecode    = "decode"
	KindPayload   = "payload"
)

// Error carries the failed symbol and a kind discriminator so callers can
// log and count failures without string matching.
type Error struct {
	Symbol     string
	Kind       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("yahoo %s error for %s (HTTP %d): %v", e.Kind, e.Symbol, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("yahoo %s error for %s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapBreakerError converts gobreaker rejections into the adapter's error
// type; anything else passes through unchanged.
func wrapBreakerError(symbol string, err error) error {
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return &Error{Symbol: symbol, Kind: KindCircuit, Err: err}
	}
	return err
}
