// Package replay reads stored 1-minute bars from SQLite and emits them at
// configurable speed, so window aggregation and indicator series can be
// rebuilt without a live feed.
package replay

import (
	"context"
	"log"
	"time"

	"barstream/internal/model"
	sqlitestore "barstream/internal/store/sqlite"
)

// Replayer reads historical bars from SQLite and replays them at a
// configurable speed multiplier.
type Replayer struct {
	reader *sqlitestore.Reader
}

// New creates a Replayer backed by a SQLite reader.
func New(reader *sqlitestore.Reader) *Replayer {
	return &Replayer{reader: reader}
}

// Run replays stored 1-minute bars for one instrument, emitting them into
// outCh in timestamp order.
// speed controls the playback rate: 1.0 = real-time, 10.0 = 10x, 0 = as fast as possible.
// fromTS filters bars to those after this Unix timestamp (0 = all).
func (r *Replayer) Run(ctx context.Context, exchange, symbol string, fromTS int64, speed float64, outCh chan<- model.Bar) error {
	bars, err := r.reader.ReadBars(exchange, symbol, model.IntervalMinute, fromTS)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		log.Println("[replay] no bars found in SQLite")
		return nil
	}

	log.Printf("[replay] loaded %d bars for %s:%s, speed=%.1fx", len(bars), exchange, symbol, speed)

	var prevTS time.Time
	emitted := 0

	for _, b := range bars {
		select {
		case <-ctx.Done():
			log.Printf("[replay] cancelled after %d bars", emitted)
			return ctx.Err()
		default:
		}

		// Simulate time gaps between bars
		if speed > 0 && !prevTS.IsZero() {
			gap := b.Timestamp.Sub(prevTS)
			if gap > 0 {
				scaledGap := time.Duration(float64(gap) / speed)
				// Cap max sleep to avoid very long waits across session breaks
				if scaledGap > 5*time.Second {
					scaledGap = 5 * time.Second
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(scaledGap):
				}
			}
		}
		prevTS = b.Timestamp

		outCh <- b
		emitted++
	}

	log.Printf("[replay] completed: %d bars replayed", emitted)
	return nil
}
