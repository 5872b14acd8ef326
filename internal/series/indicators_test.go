package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barstream/internal/model"
)

func fullBuffer(size int, closes []float64) *Buffer {
	b := NewBuffer(size)
	for i, c := range closes {
		ts := time.Date(2023, 5, 12, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
		b.UpdateBar(&model.Bar{
			Symbol:    "rb2301",
			Exchange:  "SHFE",
			Interval:  model.IntervalMinute,
			Timestamp: ts,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		})
	}
	return b
}

func TestLast(t *testing.T) {
	assert.True(t, math.IsNaN(Last(nil)))
	assert.True(t, math.IsNaN(Last([]float64{})))
	assert.Equal(t, 3.0, Last([]float64{1, 2, 3}))
}

func TestPrev(t *testing.T) {
	assert.True(t, math.IsNaN(Prev(nil)))
	assert.True(t, math.IsNaN(Prev([]float64{1})))
	assert.Equal(t, 2.0, Prev([]float64{1, 2, 3}))
}

func TestCrossOverUnder(t *testing.T) {
	a := []float64{1, 3}
	b := []float64{2, 2}
	assert.True(t, CrossOver(a, b))
	assert.False(t, CrossUnder(a, b))
	assert.True(t, CrossUnder(b, a))

	// Mismatched or short inputs never cross.
	assert.False(t, CrossOver([]float64{1}, []float64{2}))
	assert.False(t, CrossOver([]float64{1, 2, 3}, []float64{1, 2}))
}

func TestSma(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := fullBuffer(10, closes)
	require.True(t, b.Inited())

	out := b.Sma(5)
	require.Len(t, out, 10)
	// SMA(5) over 6..10 is 8.
	assert.InDelta(t, 8.0, Last(out), 1e-9)
}

func TestStd(t *testing.T) {
	b := fullBuffer(5, []float64{2, 4, 4, 4, 6})
	out := b.Std(5, 1)
	// Population stddev of {2,4,4,4,6} is sqrt(1.6).
	assert.InDelta(t, math.Sqrt(1.6), Last(out), 1e-9)
}

func TestBoll_BandsBracketTheMean(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11}
	b := fullBuffer(10, closes)

	up, down := b.Boll(5, 2)
	require.Len(t, up, 10)
	require.Len(t, down, 10)

	mid := Last(b.Sma(5))
	assert.Greater(t, Last(up), mid)
	assert.Less(t, Last(down), mid)
	// Bands are symmetric around the mean.
	assert.InDelta(t, Last(up)-mid, mid-Last(down), 1e-9)
}

func TestDonchian(t *testing.T) {
	closes := []float64{10, 12, 11, 14, 13}
	b := fullBuffer(5, closes)

	up, down := b.Donchian(5)
	// Highs are close+1, lows are close-1.
	assert.Equal(t, 15.0, Last(up))
	assert.Equal(t, 9.0, Last(down))
}

func TestKeltner_BandsBracketTheMean(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11}
	b := fullBuffer(10, closes)

	up, down := b.Keltner(5, 2)
	mid := Last(b.Sma(5))
	assert.Greater(t, Last(up), mid)
	assert.Less(t, Last(down), mid)
}

func TestRsi_Range(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		// Alternating up/down walk keeps RSI strictly inside (0, 100).
		closes[i] = 100 + float64(i%3)
	}
	b := fullBuffer(30, closes)

	rsi := Last(b.Rsi(14))
	assert.Greater(t, rsi, 0.0)
	assert.Less(t, rsi, 100.0)
}

func TestTRange(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14}
	b := fullBuffer(5, closes)

	out := b.TRange()
	require.Len(t, out, 5)
	// Highs are close+1, lows are close-1, so each bar's range of 2 dominates
	// the gap terms against the previous close.
	assert.InDelta(t, 2.0, Last(out), 1e-9)
}

func TestAdxr_Range(t *testing.T) {
	// A sustained trend keeps the directional index, and so its rating,
	// strictly positive.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	b := fullBuffer(30, closes)

	out := b.Adxr(3)
	require.Len(t, out, 30)
	assert.Greater(t, Last(out), 0.0)
	assert.LessOrEqual(t, Last(out), 100.0)
}

func TestAroon_UpDownOrder(t *testing.T) {
	// Monotonically rising closes: aroon up pegged at 100, down below it.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	b := fullBuffer(20, closes)

	up, down := b.Aroon(14)
	assert.Equal(t, 100.0, Last(up))
	assert.Less(t, Last(down), Last(up))
}
