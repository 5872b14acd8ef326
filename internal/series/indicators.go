package series

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// Indicator methods compute over the buffer's current contents and return
// the full series, index-aligned with the buffer (oldest first). Use Last
// for the scalar view. The numeric library leaves the warm-up prefix of
// each output at zero; check Inited() before trusting values.

// Last returns the newest value of a series, or NaN when it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// Prev returns the second-newest value of a series, or NaN when the series
// holds fewer than two samples.
func Prev(series []float64) float64 {
	if len(series) < 2 {
		return math.NaN()
	}
	return series[len(series)-2]
}

// CrossOver reports whether series a crossed above series b on the newest
// sample.
func CrossOver(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	return a[n-2] <= b[n-2] && a[n-1] > b[n-1]
}

// CrossUnder reports whether series a crossed below series b on the newest
// sample.
func CrossUnder(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	return a[n-2] >= b[n-2] && a[n-1] < b[n-1]
}

// ── Moving averages ──

// Sma is the simple moving average of close.
func (b *Buffer) Sma(n int) []float64 {
	return talib.Sma(b.close, n)
}

// Ema is the exponential moving average of close.
func (b *Buffer) Ema(n int) []float64 {
	return talib.Ema(b.close, n)
}

// Kama is Kaufman's adaptive moving average of close.
func (b *Buffer) Kama(n int) []float64 {
	return talib.Kama(b.close, n)
}

// Wma is the weighted moving average of close.
func (b *Buffer) Wma(n int) []float64 {
	return talib.Wma(b.close, n)
}

// ── Momentum ──

// Apo is the absolute price oscillator.
func (b *Buffer) Apo(fast, slow int, matype talib.MaType) []float64 {
	return talib.Apo(b.close, fast, slow, matype)
}

// Cmo is the Chande momentum oscillator.
func (b *Buffer) Cmo(n int) []float64 {
	return talib.Cmo(b.close, n)
}

// Mom is the momentum indicator.
func (b *Buffer) Mom(n int) []float64 {
	return talib.Mom(b.close, n)
}

// Ppo is the percentage price oscillator.
func (b *Buffer) Ppo(fast, slow int, matype talib.MaType) []float64 {
	return talib.Ppo(b.close, fast, slow, matype)
}

// Roc is the rate of change.
func (b *Buffer) Roc(n int) []float64 {
	return talib.Roc(b.close, n)
}

// Rocr is the rate-of-change ratio.
func (b *Buffer) Rocr(n int) []float64 {
	return talib.Rocr(b.close, n)
}

// Rocp is the rate-of-change percentage.
func (b *Buffer) Rocp(n int) []float64 {
	return talib.Rocp(b.close, n)
}

// Rocr100 is the rate-of-change ratio scaled to 100.
func (b *Buffer) Rocr100(n int) []float64 {
	return talib.Rocr100(b.close, n)
}

// Trix is the 1-period ROC of a triple-smoothed EMA.
func (b *Buffer) Trix(n int) []float64 {
	return talib.Trix(b.close, n)
}

// Rsi is the relative strength index.
func (b *Buffer) Rsi(n int) []float64 {
	return talib.Rsi(b.close, n)
}

// Macd returns the MACD line, signal line and histogram.
func (b *Buffer) Macd(fast, slow, signal int) (macd, sig, hist []float64) {
	return talib.Macd(b.close, fast, slow, signal)
}

// Cci is the commodity channel index.
func (b *Buffer) Cci(n int) []float64 {
	return talib.Cci(b.high, b.low, b.close, n)
}

// WillR is Williams %R.
func (b *Buffer) WillR(n int) []float64 {
	return talib.WillR(b.high, b.low, b.close, n)
}

// UltOsc is the ultimate oscillator.
func (b *Buffer) UltOsc(n1, n2, n3 int) []float64 {
	return talib.UltOsc(b.high, b.low, b.close, n1, n2, n3)
}

// Stoch returns the slow stochastic %K and %D lines.
func (b *Buffer) Stoch(fastK, slowK int, slowKType talib.MaType, slowD int, slowDType talib.MaType) (k, d []float64) {
	return talib.Stoch(b.high, b.low, b.close, fastK, slowK, slowKType, slowD, slowDType)
}

// Bop is the balance of power.
func (b *Buffer) Bop() []float64 {
	return talib.Bop(b.open, b.high, b.low, b.close)
}

// ── Directional movement ──

// Adx is the average directional movement index.
func (b *Buffer) Adx(n int) []float64 {
	return talib.Adx(b.high, b.low, b.close, n)
}

// Adxr is the ADX rating.
func (b *Buffer) Adxr(n int) []float64 {
	return talib.AdxR(b.high, b.low, b.close, n)
}

// Dx is the directional movement index.
func (b *Buffer) Dx(n int) []float64 {
	return talib.Dx(b.high, b.low, b.close, n)
}

// MinusDI is the minus directional indicator.
func (b *Buffer) MinusDI(n int) []float64 {
	return talib.MinusDI(b.high, b.low, b.close, n)
}

// PlusDI is the plus directional indicator.
func (b *Buffer) PlusDI(n int) []float64 {
	return talib.PlusDI(b.high, b.low, b.close, n)
}

// MinusDM is the minus directional movement.
func (b *Buffer) MinusDM(n int) []float64 {
	return talib.MinusDM(b.high, b.low, n)
}

// PlusDM is the plus directional movement.
func (b *Buffer) PlusDM(n int) []float64 {
	return talib.PlusDM(b.high, b.low, n)
}

// Aroon returns the aroon up and down lines.
func (b *Buffer) Aroon(n int) (up, down []float64) {
	down, up = talib.Aroon(b.high, b.low, n)
	return up, down
}

// AroonOsc is the aroon oscillator.
func (b *Buffer) AroonOsc(n int) []float64 {
	return talib.AroonOsc(b.high, b.low, n)
}

// ── Volatility and bands ──

// Std is the standard deviation of close over n samples.
func (b *Buffer) Std(n int, nbdev float64) []float64 {
	return talib.StdDev(b.close, n, nbdev)
}

// Atr is the average true range.
func (b *Buffer) Atr(n int) []float64 {
	return talib.Atr(b.high, b.low, b.close, n)
}

// Natr is the normalized average true range.
func (b *Buffer) Natr(n int) []float64 {
	return talib.Natr(b.high, b.low, b.close, n)
}

// TRange is the true range.
func (b *Buffer) TRange() []float64 {
	return talib.TRange(b.high, b.low, b.close)
}

// Boll returns the upper and lower Bollinger bands: SMA(n) ± dev·STDDEV(n).
func (b *Buffer) Boll(n int, dev float64) (up, down []float64) {
	mid := talib.Sma(b.close, n)
	std := talib.StdDev(b.close, n, 1)

	up = make([]float64, len(mid))
	down = make([]float64, len(mid))
	for i := range mid {
		up[i] = mid[i] + std[i]*dev
		down[i] = mid[i] - std[i]*dev
	}
	return up, down
}

// Keltner returns the upper and lower Keltner channel bands:
// SMA(n) ± dev·ATR(n).
func (b *Buffer) Keltner(n int, dev float64) (up, down []float64) {
	mid := talib.Sma(b.close, n)
	atr := talib.Atr(b.high, b.low, b.close, n)

	up = make([]float64, len(mid))
	down = make([]float64, len(mid))
	for i := range mid {
		up[i] = mid[i] + atr[i]*dev
		down[i] = mid[i] - atr[i]*dev
	}
	return up, down
}

// Donchian returns the Donchian channel: highest high and lowest low over n.
func (b *Buffer) Donchian(n int) (up, down []float64) {
	return talib.Max(b.high, n), talib.Min(b.low, n)
}

// ── Volume ──

// Obv is the on-balance volume.
func (b *Buffer) Obv() []float64 {
	return talib.Obv(b.close, b.volume)
}

// Mfi is the money flow index.
func (b *Buffer) Mfi(n int) []float64 {
	return talib.Mfi(b.high, b.low, b.close, b.volume, n)
}

// Ad is the Chaikin accumulation/distribution line.
func (b *Buffer) Ad() []float64 {
	return talib.Ad(b.high, b.low, b.close, b.volume)
}

// AdOsc is the Chaikin A/D oscillator.
func (b *Buffer) AdOsc(fast, slow int) []float64 {
	return talib.AdOsc(b.high, b.low, b.close, b.volume, fast, slow)
}

// ── Stops ──

// Sar is the parabolic stop and reverse.
func (b *Buffer) Sar(acceleration, maximum float64) []float64 {
	return talib.Sar(b.high, b.low, acceleration, maximum)
}
