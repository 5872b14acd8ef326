package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the aggregation core from concrete consumers and
// storage implementations (Redis, SQLite). Each implementation satisfies one
// or more of these interfaces.

// BarSink consumes completed bars. Implement it to plug a custom consumer
// (strategy, recorder, broadcaster) behind the generator callbacks.
type BarSink interface {
	// OnBar is invoked synchronously for each completed bar, exactly once
	// per bucket, in chronological order. It must not block and must not
	// re-enter the generator that produced the bar.
	OnBar(bar Bar)
}

// BarWriter persists completed bars.
type BarWriter interface {
	// Run reads bars from barCh and writes them.
	// Blocks until ctx is cancelled or barCh is closed.
	Run(ctx context.Context, barCh <-chan Bar)

	// Close releases underlying resources.
	Close() error
}

// BarReader reads stored bars for backfill and replay.
type BarReader interface {
	// ReadBars reads bars for an instrument and interval, oldest first,
	// restricted to timestamps strictly after afterTS (Unix seconds, 0 = all).
	ReadBars(exchange, symbol string, interval Interval, afterTS int64) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarSinkFunc adapts a plain function to the BarSink interface.
type BarSinkFunc func(bar Bar)

func (f BarSinkFunc) OnBar(bar Bar) { f(bar) }
