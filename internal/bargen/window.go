package bargen

import (
	"math"
	"time"

	"barstream/internal/model"
	"barstream/internal/session"
)

// Window aggregation: completed base bars are merged into a larger bucket
// and emitted through OnWindowBar when the bucket boundary is crossed.
//
// The minute path is the canonical, battle-tested one. The hour and daily
// paths follow the same boundary-detection pattern but have seen far less
// live traffic; treat their edge behavior as provisional.

// updateMinuteWindow merges the current 1-minute bar into the open window
// bar. volDelta and turnDelta are the increments contributed by this event:
// the whole bar when fed from UpdateBar, a single tick's contribution when
// fed from UpdateTick. Accumulating deltas keeps window volume equal to the
// sum of its minute volumes on both paths.
func (g *Generator) updateMinuteWindow(bar *model.Bar, newMinute bool, volDelta, turnDelta float64) {
	if g.window <= 0 || g.onWindowBar == nil {
		return
	}

	minuteOfDay := bar.Timestamp.Hour()*60 + bar.Timestamp.Minute()

	switch {
	case g.windowBar == nil:
		g.windowBar = g.newMinuteWindowBar(bar)
		g.pendingTradeInWindow = bar.Volume == 0

	case minuteOfDay%g.window == 0 && newMinute:
		// The incoming bar starts a new window; the open one is complete.
		g.onWindowBar(*g.windowBar)
		g.windowBar = g.newMinuteWindowBar(bar)
		g.pendingTradeInWindow = bar.Volume == 0

	default:
		wb := g.windowBar
		if g.pendingTradeInWindow && bar.Volume > 0 {
			// First bar with a real trade wins the window open.
			g.pendingTradeInWindow = false
			wb.Open = bar.Open
			wb.High = bar.High
			wb.Low = bar.Low
		} else {
			wb.High = math.Max(wb.High, bar.High)
			wb.Low = math.Min(wb.Low, bar.Low)
		}
	}

	wb := g.windowBar
	wb.Close = bar.Close
	wb.Volume += volDelta
	wb.Turnover += turnDelta
	wb.OpenInterest = bar.OpenInterest
}

func (g *Generator) newMinuteWindowBar(bar *model.Bar) *model.Bar {
	return &model.Bar{
		Symbol:    bar.Symbol,
		Exchange:  bar.Exchange,
		Interval:  model.Interval(model.IntervalMinute.WindowTag(g.window)),
		Timestamp: truncateMinute(bar.Timestamp),
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
	}
}

// updateHourWindow merges a completed 1-minute bar into the open hour bar.
// An hour closes either on its minute-59 bar or on the first bar of the
// next hour, whichever arrives first.
func (g *Generator) updateHourWindow(bar model.Bar) {
	if g.hourBar == nil {
		g.hourBar = newSpanBar(bar, model.IntervalHour, truncateHour(bar.Timestamp))
		return
	}

	var finished *model.Bar

	switch {
	case bar.Timestamp.Minute() == 59:
		mergeBar(g.hourBar, bar)
		finished = g.hourBar
		g.hourBar = nil

	case bar.Timestamp.Hour() != g.hourBar.Timestamp.Hour():
		// The minute-59 bar never arrived (gap in the feed); close on the
		// first bar of the new hour instead.
		finished = g.hourBar
		g.hourBar = newSpanBar(bar, model.IntervalHour, truncateHour(bar.Timestamp))

	default:
		mergeBar(g.hourBar, bar)
	}

	if finished != nil {
		g.onHourBar(*finished)
	}
}

// onHourBar groups completed hour bars into windows of g.window hours.
func (g *Generator) onHourBar(bar model.Bar) {
	if g.onWindowBar == nil {
		return
	}
	if g.window <= 1 {
		g.onWindowBar(bar)
		return
	}

	if g.windowBar == nil {
		wb := bar
		wb.Interval = model.Interval(model.IntervalHour.WindowTag(g.window))
		g.windowBar = &wb
	} else {
		wb := g.windowBar
		wb.High = math.Max(wb.High, bar.High)
		wb.Low = math.Min(wb.Low, bar.Low)
		wb.Close = bar.Close
		wb.Volume += bar.Volume
		wb.Turnover += bar.Turnover
		wb.OpenInterest = bar.OpenInterest
	}

	g.intervalCount++
	if g.intervalCount%g.window == 0 {
		g.intervalCount = 0
		g.onWindowBar(*g.windowBar)
		g.windowBar = nil
	}
}

// updateDailyWindow merges a completed 1-minute bar into the open daily bar
// and closes it when the bar's time of day reaches the configured session
// close. The emitted bar is stamped at midnight of its trading day.
func (g *Generator) updateDailyWindow(bar model.Bar) {
	if g.dailyBar == nil {
		db := newSpanBar(bar, model.IntervalDaily, bar.Timestamp)
		db.Volume = 0
		db.Turnover = 0
		g.dailyBar = db
	} else {
		g.dailyBar.High = math.Max(g.dailyBar.High, bar.High)
		g.dailyBar.Low = math.Min(g.dailyBar.Low, bar.Low)
	}

	g.dailyBar.Close = bar.Close
	g.dailyBar.Volume += bar.Volume
	g.dailyBar.Turnover += bar.Turnover
	g.dailyBar.OpenInterest = bar.OpenInterest

	if session.TimeOfDay(bar.Timestamp) == g.dailyEnd {
		g.dailyBar.Timestamp = truncateDay(bar.Timestamp)
		if g.onWindowBar != nil {
			g.onWindowBar(*g.dailyBar)
		}
		g.dailyBar = nil
	}
}

// newSpanBar copies a base bar into a fresh aggregate bar of the given
// interval, keeping its full OHLCV.
func newSpanBar(bar model.Bar, interval model.Interval, ts time.Time) *model.Bar {
	out := bar
	out.Interval = interval
	out.Timestamp = ts
	return &out
}

// mergeBar folds a completed base bar into an open aggregate.
func mergeBar(dst *model.Bar, bar model.Bar) {
	dst.High = math.Max(dst.High, bar.High)
	dst.Low = math.Min(dst.Low, bar.Low)
	dst.Close = bar.Close
	dst.Volume += bar.Volume
	dst.Turnover += bar.Turnover
	dst.OpenInterest = bar.OpenInterest
}
