package model

import (
	"encoding/json"
	"errors"
	"time"
)

// Bar is an OHLCV aggregate over a fixed time bucket. Timestamp is the
// bucket start. A bar is mutable while the generator accumulates it and
// must be treated as immutable once it has been emitted via callback.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Interval  Interval  `json:"interval"`
	Timestamp time.Time `json:"ts"` // bucket start (UTC)

	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	Volume       float64 `json:"volume"`
	Turnover     float64 `json:"turnover"`
	OpenInterest float64 `json:"open_interest"`
}

// Key returns "exchange:symbol".
func (b *Bar) Key() string {
	return b.Exchange + ":" + b.Symbol
}

// StreamKey returns the stream key for this bar: "bar:{interval}:{exchange}:{symbol}".
func (b *Bar) StreamKey() string {
	return "bar:" + string(b.Interval) + ":" + b.Exchange + ":" + b.Symbol
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	data, _ := json.Marshal(b)
	return data
}

// Validate checks the OHLC invariant: low <= open,close <= high.
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return errors.New("bar timestamp is zero")
	}
	if b.Symbol == "" {
		return errors.New("bar symbol is empty")
	}
	if b.High < b.Low {
		return errors.New("bar high below low")
	}
	if b.Open < b.Low || b.Open > b.High {
		return errors.New("bar open outside high/low range")
	}
	if b.Close < b.Low || b.Close > b.High {
		return errors.New("bar close outside high/low range")
	}
	if b.Volume < 0 {
		return errors.New("bar volume is negative")
	}
	return nil
}
