// Package bargen builds fixed-interval bars from a raw tick stream.
//
// A Generator owns at most one open 1-minute bar and one open window bar at
// a time. It is single-threaded and callback-driven: one tick is fully
// processed before the next is accepted, callbacks run inline on the calling
// goroutine and must not re-enter the generator. Data-quality problems
// (zero price, stale or out-of-order timestamps, off-session ticks) are
// expected feed noise and are dropped silently; the optional OnDrop hook
// lets the host count them.
package bargen

import (
	"errors"
	"fmt"
	"math"
	"time"

	"barstream/internal/model"
	"barstream/internal/session"
)

// StaleSkew is the maximum tolerated skew between the local clock and a
// tick's exchange timestamp. Anything beyond it means a stale or replayed
// feed and the tick is rejected outright.
const StaleSkew = 60 * time.Second

// Drop reasons passed to the OnDrop hook.
const (
	DropZeroPrice  = "zero_price"
	DropOutOfOrder = "out_of_order"
	DropStale      = "stale"
	DropOffSession = "off_session"
	DropDuplicate  = "duplicate"
)

// tickVerdict is the outcome of validating a tick's timestamp.
// The in-session values mirror session.TimeInRange.
type tickVerdict int

const (
	verdictStale        tickVerdict = -1
	verdictOutOfSession tickVerdict = 0
	verdictInSession    tickVerdict = 1
	verdictAtSessionEnd tickVerdict = 2
)

// Config configures a Generator.
type Config struct {
	// OnBar receives each completed 1-minute bar. Required.
	OnBar func(model.Bar)

	// Window is the number of base intervals per window bar. Window
	// aggregation is disabled when Window <= 0 or OnWindowBar is nil.
	// For minute windows, Window should divide 60.
	Window int

	// OnWindowBar receives each completed window bar.
	OnWindowBar func(model.Bar)

	// Interval selects the window aggregation target. Defaults to minute.
	Interval model.Interval

	// DailyEnd is the session close time of day. Required when Interval
	// is daily.
	DailyEnd time.Duration

	// Calendar filters ticks against trading sessions when set.
	Calendar *session.Calendar

	// Now supplies the wall clock for the staleness check. Defaults to
	// time.Now. Tests and replay drivers inject their own.
	Now func() time.Time
}

// Generator is the bar aggregation state machine.
type Generator struct {
	onBar       func(model.Bar)
	onWindowBar func(model.Bar)
	window      int
	interval    model.Interval
	dailyEnd    time.Duration
	calendar    *session.Calendar
	now         func() time.Time

	bar       *model.Bar
	windowBar *model.Bar
	hourBar   *model.Bar
	dailyBar  *model.Bar
	lastTick  *model.Tick

	intervalCount        int
	pendingTradeInBar    bool
	pendingTradeInWindow bool

	// OnDrop, when set, is called with a reason label for every rejected
	// tick. Optional metrics hook.
	OnDrop func(reason string)
}

// New validates the configuration and returns a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.OnBar == nil {
		return nil, errors.New("bargen: OnBar callback is required")
	}
	interval := cfg.Interval
	if interval == "" {
		interval = model.IntervalMinute
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("bargen: unknown interval %q", interval)
	}
	if interval == model.IntervalDaily && cfg.DailyEnd <= 0 {
		return nil, errors.New("bargen: daily interval requires a daily end time")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		onBar:                cfg.OnBar,
		onWindowBar:          cfg.OnWindowBar,
		window:               cfg.Window,
		interval:             interval,
		dailyEnd:             cfg.DailyEnd,
		calendar:             cfg.Calendar,
		now:                  now,
		pendingTradeInBar:    true,
		pendingTradeInWindow: true,
	}, nil
}

// UpdateTick feeds one tick into the generator. Completed 1-minute bars are
// delivered through OnBar before the tick that closed them is applied to the
// next bucket.
func (g *Generator) UpdateTick(tick model.Tick) {
	// An all-zero snapshot carries no trade information.
	if tick.LastPrice == 0 {
		g.drop(DropZeroPrice)
		return
	}
	if g.lastTick != nil && tick.Timestamp.Before(g.lastTick.Timestamp) {
		g.drop(DropOutOfOrder)
		return
	}

	verdict := g.validateTickTime(tick.Timestamp)
	switch {
	case verdict == verdictStale:
		g.drop(DropStale)
		return
	case verdict == verdictOutOfSession:
		g.drop(DropOffSession)
		return
	case verdict == verdictAtSessionEnd && g.lastTick != nil && tick.Volume == g.lastTick.Volume:
		// Exchanges repeat the closing snapshot; accept a session-end tick
		// only when it carries new volume.
		g.drop(DropDuplicate)
		return
	}

	newMinute := false
	if g.bar == nil {
		newMinute = true
	} else if (g.bar.Timestamp.Minute() != tick.Timestamp.Minute() ||
		g.bar.Timestamp.Hour() != tick.Timestamp.Hour()) && verdict == verdictInSession {
		g.bar.Timestamp = truncateMinute(g.bar.Timestamp)
		g.onBar(*g.bar)
		newMinute = true
	}

	volDelta := tick.LastVolume
	turnDelta := g.turnoverDelta(tick)

	if newMinute {
		g.bar = &model.Bar{
			Symbol:       tick.Symbol,
			Exchange:     tick.Exchange,
			Interval:     model.IntervalMinute,
			Timestamp:    truncateMinute(tick.Timestamp),
			Open:         tick.LastPrice,
			High:         tick.LastPrice,
			Low:          tick.LastPrice,
			Close:        tick.LastPrice,
			Volume:       volDelta,
			Turnover:     turnDelta,
			OpenInterest: tick.OpenInterest,
		}
		// If cumulative volume did not advance, this tick is a repeat of the
		// previous minute's closing snapshot: the real open of this bucket
		// is the first trade that follows.
		g.pendingTradeInBar = g.lastTick != nil && tick.Volume == g.lastTick.Volume
	} else {
		bar := g.bar
		bar.Close = tick.LastPrice
		bar.OpenInterest = tick.OpenInterest

		if g.pendingTradeInBar && (g.lastTick == nil || tick.Volume > g.lastTick.Volume) {
			g.pendingTradeInBar = false
			bar.Open = tick.LastPrice
			bar.High = tick.LastPrice
			bar.Low = tick.LastPrice
		} else {
			bar.High = math.Max(bar.High, tick.LastPrice)
			bar.Low = math.Min(bar.Low, tick.LastPrice)
		}

		// Feeds sample the book at a fixed cadence, so a price excursion
		// inside one sample may never show up as a last price. Adopt the
		// tick's own high/low when they move past the previous tick's.
		if g.lastTick == nil || g.lastTick.High < tick.High {
			bar.High = tick.High
		}
		if g.lastTick == nil || g.lastTick.Low > tick.Low {
			bar.Low = tick.Low
		}

		bar.Volume += volDelta
		bar.Turnover += turnDelta
	}

	g.updateMinuteWindow(g.bar, newMinute, volDelta, turnDelta)

	last := tick
	g.lastTick = &last
}

// UpdateBar feeds an externally built 1-minute bar straight into the window
// aggregation path, bypassing tick processing. Used when bars rather than
// ticks are the input stream.
func (g *Generator) UpdateBar(bar model.Bar) {
	switch g.interval {
	case model.IntervalHour:
		g.updateHourWindow(bar)
	case model.IntervalDaily:
		g.updateDailyWindow(bar)
	default:
		g.updateMinuteWindow(&bar, true, bar.Volume, bar.Turnover)
	}
}

// Generate force-closes the open 1-minute bar and emits it through OnBar.
// Returns the flushed bar, or nil when no bar was open. Used on shutdown
// and at the end of a backfill.
func (g *Generator) Generate() *model.Bar {
	bar := g.bar
	if bar != nil {
		bar.Timestamp = truncateMinute(bar.Timestamp)
		g.onBar(*bar)
	}
	g.bar = nil
	return bar
}

// validateTickTime checks a tick timestamp against the wall clock and the
// trading calendar. Without a calendar every fresh tick is in-session.
func (g *Generator) validateTickTime(ts time.Time) tickVerdict {
	skew := g.now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > StaleSkew {
		return verdictStale
	}
	if g.calendar == nil {
		return verdictInSession
	}
	switch g.calendar.Classify(ts) {
	case session.InRange:
		return verdictInSession
	case session.AtRangeEnd:
		return verdictAtSessionEnd
	default:
		return verdictOutOfSession
	}
}

// turnoverDelta returns the non-negative cumulative-turnover increment since
// the previous tick. The first tick of a session contributes its absolute
// turnover.
func (g *Generator) turnoverDelta(tick model.Tick) float64 {
	if g.lastTick == nil {
		return tick.Turnover
	}
	return math.Max(0, tick.Turnover-g.lastTick.Turnover)
}

func (g *Generator) drop(reason string) {
	if g.OnDrop != nil {
		g.OnDrop(reason)
	}
}

// Calendar-aware truncation helpers. time.Truncate works on absolute time
// and breaks for zones with non-whole-hour offsets, so truncate on the
// wall-clock fields instead.

func truncateMinute(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, t.Location())
}

func truncateHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
