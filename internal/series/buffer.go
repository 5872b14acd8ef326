// Package series maintains a fixed-capacity rolling window of bar samples
// and computes technical indicators over it.
//
// The buffer keeps one slice per OHLCV field, index-aligned and ordered
// oldest to newest. Until Inited() turns true the leading slots still hold
// zeros and will bias any windowed indicator; callers gate on Inited()
// before trusting scalar outputs.
package series

import (
	"time"

	"barstream/internal/model"
)

// DefaultSize is the buffer capacity used when none is given.
const DefaultSize = 100

// Buffer is a fixed-capacity rolling container of bar samples.
// Single-goroutine use only, like the generator that feeds it.
type Buffer struct {
	count  int
	size   int
	inited bool

	ts           []time.Time
	open         []float64
	high         []float64
	low          []float64
	close        []float64
	volume       []float64
	turnover     []float64
	openInterest []float64
}

// NewBuffer creates a buffer of the given capacity (DefaultSize when <= 0).
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{
		size:         size,
		ts:           make([]time.Time, size),
		open:         make([]float64, size),
		high:         make([]float64, size),
		low:          make([]float64, size),
		close:        make([]float64, size),
		volume:       make([]float64, size),
		turnover:     make([]float64, size),
		openInterest: make([]float64, size),
	}
}

// UpdateBar pushes a bar into the buffer. A bar sharing the newest slot's
// timestamp overwrites it in place (same-bucket refinement); any other
// timestamp shifts the window left and appends. Nil bars and bars without
// a timestamp are ignored.
func (b *Buffer) UpdateBar(bar *model.Bar) {
	if bar == nil || bar.Timestamp.IsZero() {
		return
	}
	b.count++
	if !b.inited && b.count >= b.size {
		b.inited = true
	}

	last := b.size - 1
	if !bar.Timestamp.Equal(b.ts[last]) {
		copy(b.ts, b.ts[1:])
		copy(b.open, b.open[1:])
		copy(b.high, b.high[1:])
		copy(b.low, b.low[1:])
		copy(b.close, b.close[1:])
		copy(b.volume, b.volume[1:])
		copy(b.turnover, b.turnover[1:])
		copy(b.openInterest, b.openInterest[1:])
	}

	b.ts[last] = bar.Timestamp
	b.open[last] = bar.Open
	b.high[last] = bar.High
	b.low[last] = bar.Low
	b.close[last] = bar.Close
	b.volume[last] = bar.Volume
	b.turnover[last] = bar.Turnover
	b.openInterest[last] = bar.OpenInterest
}

// Count returns the total number of updates ever applied.
func (b *Buffer) Count() int { return b.count }

// Size returns the buffer capacity.
func (b *Buffer) Size() int { return b.size }

// Inited reports whether the buffer has received a full window of samples.
// It latches true permanently once Count() >= Size().
func (b *Buffer) Inited() bool { return b.inited }

// The accessors below expose the underlying field slices oldest-first.
// They are shared, not copied: treat them as read-only.

// Timestamps returns the bucket-start time series.
func (b *Buffer) Timestamps() []time.Time { return b.ts }

// Open returns the open price series.
func (b *Buffer) Open() []float64 { return b.open }

// High returns the high price series.
func (b *Buffer) High() []float64 { return b.high }

// Low returns the low price series.
func (b *Buffer) Low() []float64 { return b.low }

// Close returns the close price series.
func (b *Buffer) Close() []float64 { return b.close }

// Volume returns the traded volume series.
func (b *Buffer) Volume() []float64 { return b.volume }

// Turnover returns the traded turnover series.
func (b *Buffer) Turnover() []float64 { return b.turnover }

// OpenInterest returns the open interest series.
func (b *Buffer) OpenInterest() []float64 { return b.openInterest }
