package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barstream/internal/model"
)

func hubBar(symbol string, interval model.Interval, i int, close float64) *model.Bar {
	ts := time.Date(2023, 5, 12, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return &model.Bar{
		Symbol:    symbol,
		Exchange:  "SHFE",
		Interval:  interval,
		Timestamp: ts,
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    10,
	}
}

func TestHub_SeparatesIntervals(t *testing.T) {
	h := NewHub(5)

	minute := h.Update(hubBar("rb2301", model.IntervalMinute, 0, 100))
	window := h.Update(hubBar("rb2301", model.Interval("5m"), 0, 100))

	require.NotNil(t, minute)
	require.NotNil(t, window)
	assert.NotSame(t, minute, window)
	assert.Equal(t, 2, h.Len())
}

func TestHub_SeparatesInstruments(t *testing.T) {
	h := NewHub(5)

	a := h.Update(hubBar("rb2301", model.IntervalMinute, 0, 100))
	b := h.Update(hubBar("cu2305", model.IntervalMinute, 0, 68000))

	assert.NotSame(t, a, b)
	assert.Same(t, a, h.Get("bar:1m:SHFE:rb2301"))
	assert.Same(t, b, h.Get("bar:1m:SHFE:cu2305"))
}

func TestHub_MinuteBarsAloneWarmUp(t *testing.T) {
	h := NewHub(5)

	var buf *Buffer
	for i := 0; i < 5; i++ {
		buf = h.Update(hubBar("rb2301", model.IntervalMinute, i, 100+float64(i)))
	}

	require.True(t, buf.Inited())
	assert.Equal(t, 104.0, Last(buf.Close()))
}

func TestHub_GetUnknownKey(t *testing.T) {
	h := NewHub(5)
	assert.Nil(t, h.Get("bar:1m:SHFE:rb2301"))
}
