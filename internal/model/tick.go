package model

import "time"

// DepthLevels is the number of order-book levels carried per side.
const DepthLevels = 5

// Side selects an order-book side for depth lookups.
type Side int

const (
	Bid Side = iota
	Ask
)

// Tick represents a single market-data snapshot: the last trade plus the
// visible book state at an instant. Volume and Turnover are cumulative for
// the trading session; LastVolume is the size of the last trade only.
// Ticks are owned by the feed and read-only to consumers.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"ts"` // exchange timestamp (UTC)

	LastPrice    float64 `json:"last_price"`
	LastVolume   float64 `json:"last_volume"`
	Volume       float64 `json:"volume"`   // cumulative session volume
	Turnover     float64 `json:"turnover"` // cumulative session turnover
	OpenInterest float64 `json:"open_interest"`

	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	PreClose float64 `json:"pre_close"`

	BidPrice  [DepthLevels]float64 `json:"bid_price"`
	BidVolume [DepthLevels]float64 `json:"bid_volume"`
	AskPrice  [DepthLevels]float64 `json:"ask_price"`
	AskVolume [DepthLevels]float64 `json:"ask_volume"`
}

// Key returns a unique key for this tick's instrument: "exchange:symbol".
func (t *Tick) Key() string {
	return t.Exchange + ":" + t.Symbol
}

// DepthPrice returns the book price at the given side and zero-based level.
// Out-of-range levels return 0, matching the empty-level convention.
func (t *Tick) DepthPrice(side Side, level int) float64 {
	if level < 0 || level >= DepthLevels {
		return 0
	}
	if side == Bid {
		return t.BidPrice[level]
	}
	return t.AskPrice[level]
}

// DepthVolume returns the book volume at the given side and zero-based level.
func (t *Tick) DepthVolume(side Side, level int) float64 {
	if level < 0 || level >= DepthLevels {
		return 0
	}
	if side == Bid {
		return t.BidVolume[level]
	}
	return t.AskVolume[level]
}
