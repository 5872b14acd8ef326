package bargen

import (
	"testing"
	"time"

	"barstream/internal/model"
	"barstream/internal/session"
)

// testClock lets tests pin the staleness check to each tick's own timestamp.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func mkTick(ts time.Time, price, lastVol, cumVol float64) model.Tick {
	return model.Tick{
		Symbol:     "rb2301",
		Exchange:   "SHFE",
		Timestamp:  ts,
		LastPrice:  price,
		LastVolume: lastVol,
		Volume:     cumVol,
		Turnover:   cumVol * price,
	}
}

func newTestGenerator(t *testing.T, cfg Config, clock *testClock) *Generator {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = clock.Now
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func feed(g *Generator, clock *testClock, ticks ...model.Tick) {
	for _, tk := range ticks {
		clock.now = tk.Timestamp
		g.UpdateTick(tk)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without OnBar")
	}
	if _, err := New(Config{OnBar: func(model.Bar) {}, Interval: "7x"}); err == nil {
		t.Error("expected error for unknown interval")
	}
	if _, err := New(Config{OnBar: func(model.Bar) {}, Interval: model.IntervalDaily}); err == nil {
		t.Error("expected error for daily interval without end time")
	}
}

func TestUpdateTick_MinuteRollover(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var bars []model.Bar
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { bars = append(bars, b) },
	}, clock)

	feed(g, clock,
		mkTick(base.Add(10*time.Second), 100, 1, 1),
		mkTick(base.Add(40*time.Second), 102, 2, 3),
		mkTick(base.Add(55*time.Second), 99, 1, 4),
		mkTick(base.Add(65*time.Second), 101, 1, 5), // crosses into 9:31
	)

	if len(bars) != 1 {
		t.Fatalf("expected 1 completed bar, got %d", len(bars))
	}
	b := bars[0]
	if !b.Timestamp.Equal(base) {
		t.Errorf("expected bucket start %v, got %v", base, b.Timestamp)
	}
	if b.Interval != model.IntervalMinute {
		t.Errorf("expected 1m interval, got %s", b.Interval)
	}
	if b.Open != 100 || b.High != 102 || b.Low != 99 || b.Close != 99 {
		t.Errorf("unexpected OHLC: O=%v H=%v L=%v C=%v", b.Open, b.High, b.Low, b.Close)
	}
	if b.Volume != 4 {
		t.Errorf("expected volume 4 (sum of trade sizes), got %v", b.Volume)
	}
}

func TestUpdateTick_VolumeConservation(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var total float64
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { total += b.Volume },
	}, clock)

	// 5 minutes of ticks, 2 per minute, 3 lots each.
	var fed float64
	cum := 0.0
	for min := 0; min < 5; min++ {
		for _, sec := range []int{5, 35} {
			cum += 3
			fed += 3
			feed(g, clock, mkTick(base.Add(time.Duration(min)*time.Minute+time.Duration(sec)*time.Second), 100, 3, cum))
		}
	}
	if last := g.Generate(); last == nil {
		t.Fatal("expected a final open bar")
	}

	if total != fed {
		t.Errorf("volume not conserved: fed %v, bars total %v", fed, total)
	}
}

func TestUpdateTick_DropsBadTicks(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{now: base}

	var drops []string
	g := newTestGenerator(t, Config{OnBar: func(model.Bar) {}}, clock)
	g.OnDrop = func(reason string) { drops = append(drops, reason) }

	feed(g, clock, mkTick(base.Add(10*time.Second), 100, 1, 1))

	// Zero price.
	clock.now = base.Add(11 * time.Second)
	g.UpdateTick(mkTick(base.Add(11*time.Second), 0, 1, 2))

	// Out of order.
	clock.now = base.Add(12 * time.Second)
	g.UpdateTick(mkTick(base.Add(5*time.Second), 100, 1, 2))

	// Stale: clock far ahead of the tick timestamp.
	clock.now = base.Add(10 * time.Minute)
	g.UpdateTick(mkTick(base.Add(20*time.Second), 100, 1, 2))

	want := []string{DropZeroPrice, DropOutOfOrder, DropStale}
	if len(drops) != len(want) {
		t.Fatalf("expected %d drops, got %d: %v", len(want), len(drops), drops)
	}
	for i, r := range want {
		if drops[i] != r {
			t.Errorf("drop %d: expected %s, got %s", i, r, drops[i])
		}
	}
}

func TestUpdateTick_SessionFiltering(t *testing.T) {
	cal, err := session.New(session.Config{
		Sessions: []session.Session{{Start: 9 * time.Hour, End: 15 * time.Hour}},
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	clock := &testClock{}
	var drops []string
	g := newTestGenerator(t, Config{OnBar: func(model.Bar) {}, Calendar: cal}, clock)
	g.OnDrop = func(reason string) { drops = append(drops, reason) }

	day := time.Date(2023, 5, 12, 0, 0, 0, 0, time.UTC)

	// Off-session tick.
	feed(g, clock, mkTick(day.Add(16*time.Hour), 100, 1, 1))
	if len(drops) != 1 || drops[0] != DropOffSession {
		t.Fatalf("expected off_session drop, got %v", drops)
	}

	// In-session trades.
	feed(g, clock,
		mkTick(day.Add(14*time.Hour+59*time.Minute+50*time.Second), 100, 1, 10),
	)

	// Repeated closing snapshot at the session end: no new volume.
	feed(g, clock, mkTick(day.Add(15*time.Hour), 100, 0, 10))
	if len(drops) != 2 || drops[1] != DropDuplicate {
		t.Fatalf("expected duplicate drop at session end, got %v", drops)
	}

	// A session-end tick that carries new volume is accepted.
	before := len(drops)
	feed(g, clock, mkTick(day.Add(15*time.Hour), 101, 2, 12))
	if len(drops) != before {
		t.Errorf("session-end tick with new volume should not be dropped: %v", drops)
	}
}

func TestUpdateTick_PendingTradeResetsOpen(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var bars []model.Bar
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { bars = append(bars, b) },
	}, clock)

	feed(g, clock,
		mkTick(base.Add(50*time.Second), 100, 5, 10),
		// First tick of 9:31 repeats the 9:30 closing snapshot: same
		// cumulative volume, so the bucket open stays provisional.
		mkTick(base.Add(61*time.Second), 100, 0, 10),
		// First real trade of the minute claims the open.
		mkTick(base.Add(65*time.Second), 105, 2, 12),
		// Next minute closes the bucket.
		mkTick(base.Add(125*time.Second), 106, 1, 13),
	)

	if len(bars) != 2 {
		t.Fatalf("expected 2 completed bars, got %d", len(bars))
	}
	b := bars[1]
	if b.Open != 105 {
		t.Errorf("expected the first real trade to win the open, got O=%v", b.Open)
	}
	if b.High != 105 || b.Low != 105 || b.Close != 105 {
		t.Errorf("unexpected OHLC after pending reset: H=%v L=%v C=%v", b.High, b.Low, b.Close)
	}
}

func TestUpdateTick_TickRangeWidensBar(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var bars []model.Bar
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { bars = append(bars, b) },
	}, clock)

	t1 := mkTick(base.Add(10*time.Second), 100, 1, 1)
	t1.High, t1.Low = 100, 100
	// The feed's own session high jumped past anything visible in last
	// prices: a trade happened inside the sampling window.
	t2 := mkTick(base.Add(20*time.Second), 101, 1, 2)
	t2.High, t2.Low = 104, 98
	t3 := mkTick(base.Add(65*time.Second), 101, 1, 3)
	t3.High, t3.Low = 104, 98

	feed(g, clock, t1, t2, t3)

	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].High != 104 {
		t.Errorf("expected tick session high to widen the bar, got H=%v", bars[0].High)
	}
	if bars[0].Low != 98 {
		t.Errorf("expected tick session low to widen the bar, got L=%v", bars[0].Low)
	}
}

func TestUpdateTick_TurnoverDelta(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var bars []model.Bar
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { bars = append(bars, b) },
	}, clock)

	t1 := mkTick(base.Add(10*time.Second), 100, 1, 1)
	t1.Turnover = 1000
	t2 := mkTick(base.Add(20*time.Second), 100, 1, 2)
	t2.Turnover = 1500
	// Cumulative turnover regressed (feed glitch): contributes zero, not
	// a negative delta.
	t3 := mkTick(base.Add(30*time.Second), 100, 1, 3)
	t3.Turnover = 1400
	t4 := mkTick(base.Add(65*time.Second), 100, 1, 4)
	t4.Turnover = 1600

	feed(g, clock, t1, t2, t3, t4)

	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].Turnover != 1500 {
		t.Errorf("expected turnover 1000+500+0=1500, got %v", bars[0].Turnover)
	}
}

func TestGenerate_FlushesOpenBar(t *testing.T) {
	base := time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := &testClock{}

	var bars []model.Bar
	g := newTestGenerator(t, Config{
		OnBar: func(b model.Bar) { bars = append(bars, b) },
	}, clock)

	feed(g, clock, mkTick(base.Add(10*time.Second), 100, 1, 1))

	flushed := g.Generate()
	if flushed == nil {
		t.Fatal("expected a flushed bar")
	}
	if !flushed.Timestamp.Equal(base) {
		t.Errorf("expected truncated timestamp %v, got %v", base, flushed.Timestamp)
	}
	if len(bars) != 1 {
		t.Fatalf("expected OnBar delivery on flush, got %d", len(bars))
	}

	if g.Generate() != nil {
		t.Error("expected nil on second flush")
	}
}
