package indicators

import (
	"math"
	"reversionbot/src/model"

	"gonum.org/v1/gonum/stat"
)

// RSINeutral is reported while a window has too few candles to compute RSI.
const RSINeutral = 50.0

type Bands struct {
	Lower    float64
	Middle   float64
	Upper    float64
	WidthPct float64
}

// Snapshot is everything the evaluator needs for one observation, computed
// over closed candles only.
type Snapshot struct {
	Bar         model.Bar
	Bands       Bands
	BandsReady  bool
	RSI         float64
	ATR         float64
	VolumeRatio float64
	RecentLow   float64
	HTFRSI      float64
	HTFReady    bool
	Regime      Regime
	RegimeReady bool
}

// Engine keeps the rolling per-instrument indicator state. Update it with
// every closed base-timeframe candle in chronological order; the same candle
// sequence always produces the same snapshots.
type Engine struct {
	cfg Config

	bars    []model.Bar
	trs     []float64
	htfBars []model.Bar
	htfBuf  []model.Bar

	adx adxState
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		adx: newADXState(cfg.ADXPeriod),
	}
}

func (e *Engine) capacity() int {
	need := e.cfg.BBPeriod
	for _, n := range []int{
		e.cfg.RSIPeriod + 1,
		e.cfg.ATRPeriod + 1,
		e.cfg.VolumePeriod,
		e.cfg.RecentLowBars + 1,
	} {
		if n > need {
			need = n
		}
	}
	return need * 2
}

// Update appends one closed candle and advances all rolling state.
func (e *Engine) Update(bar model.Bar) {
	tr := bar.High - bar.Low
	if n := len(e.bars); n > 0 {
		prevClose := e.bars[n-1].Close
		tr = math.Max(tr, math.Max(
			math.Abs(bar.High-prevClose),
			math.Abs(bar.Low-prevClose),
		))
	}

	e.bars = appendBounded(e.bars, bar, e.capacity())
	e.trs = appendBoundedFloat(e.trs, tr, e.cfg.ATRPeriod*2)
	e.adx.update(bar)
	e.updateHTF(bar)
}

func (e *Engine) updateHTF(bar model.Bar) {
	e.htfBuf = append(e.htfBuf, bar)
	if len(e.htfBuf) < e.cfg.HTFAggregation {
		return
	}

	agg := model.Bar{
		Symbol:   bar.Symbol,
		Datetime: e.htfBuf[0].Datetime,
		Open:     e.htfBuf[0].Open,
		High:     e.htfBuf[0].High,
		Low:      e.htfBuf[0].Low,
		Close:    bar.Close,
	}
	for _, b := range e.htfBuf {
		agg.High = math.Max(agg.High, b.High)
		agg.Low = math.Min(agg.Low, b.Low)
		agg.Volume += b.Volume
	}
	e.htfBuf = e.htfBuf[:0]
	e.htfBars = appendBounded(e.htfBars, agg, (e.cfg.HTFRSIPeriod+1)*2)
}

// Bollinger returns the bands over the last BBPeriod closes. The second
// return is false until enough candles were seen.
func (e *Engine) Bollinger() (Bands, bool) {
	closes := e.lastCloses(e.cfg.BBPeriod)
	if len(closes) < e.cfg.BBPeriod {
		return Bands{}, false
	}

	mean := stat.Mean(closes, nil)
	sigma := stat.PopStdDev(closes, nil)

	b := Bands{
		Lower:  mean - e.cfg.BBStd*sigma,
		Middle: mean,
		Upper:  mean + e.cfg.BBStd*sigma,
	}
	if mean != 0 {
		b.WidthPct = (b.Upper - b.Lower) / mean * 100
	}
	return b, true
}

// RSI over the last RSIPeriod deltas. Neutral 50 while warming up, 100 when
// the window has no losses.
func (e *Engine) RSI() float64 {
	return rsiOver(e.lastCloses(e.cfg.RSIPeriod+1), e.cfg.RSIPeriod)
}

// HTFRSI is the RSI of the aggregated higher-timeframe candles. The second
// return is false until enough aggregates exist.
func (e *Engine) HTFRSI() (float64, bool) {
	closes := make([]float64, 0, len(e.htfBars))
	for _, b := range e.htfBars {
		closes = append(closes, b.Close)
	}
	if len(closes) < e.cfg.HTFRSIPeriod+1 {
		return RSINeutral, false
	}
	return rsiOver(closes, e.cfg.HTFRSIPeriod), true
}

// ATR is the simple average of the last ATRPeriod true ranges, zero while
// warming up.
func (e *Engine) ATR() float64 {
	if len(e.trs) < e.cfg.ATRPeriod {
		return 0
	}
	window := e.trs[len(e.trs)-e.cfg.ATRPeriod:]
	return stat.Mean(window, nil)
}

// VolumeRatio is the current volume against its rolling average, 1 while
// warming up.
func (e *Engine) VolumeRatio() float64 {
	if len(e.bars) < e.cfg.VolumePeriod {
		return 1
	}
	vols := make([]float64, 0, e.cfg.VolumePeriod)
	for _, b := range e.bars[len(e.bars)-e.cfg.VolumePeriod:] {
		vols = append(vols, b.Volume)
	}
	avg := stat.Mean(vols, nil)
	if avg == 0 {
		return 1
	}
	return e.bars[len(e.bars)-1].Volume / avg
}

// RecentLow is the lowest low of the RecentLowBars candles before the
// current one, zero while warming up.
func (e *Engine) RecentLow() float64 {
	n := len(e.bars)
	if n < e.cfg.RecentLowBars+1 {
		return 0
	}
	low := math.Inf(1)
	for _, b := range e.bars[n-1-e.cfg.RecentLowBars : n-1] {
		low = math.Min(low, b.Low)
	}
	return low
}

// Regime classifies the current market state. The second return is false
// until the ADX smoothing has warmed up.
func (e *Engine) Regime() (Regime, bool) {
	if !e.adx.ready() {
		return RegimeChoppy, false
	}

	widthOK := false
	if bands, ok := e.Bollinger(); ok {
		widthOK = bands.WidthPct >= e.cfg.MinBandWidthPct
	}
	return classifyRegime(e.adx.value(), e.adx.plusDI(), e.adx.minusDI(), e.cfg.ADXThreshold, widthOK), true
}

// Snapshot computes all indicator outputs for the most recent candle.
func (e *Engine) Snapshot() (Snapshot, bool) {
	if len(e.bars) == 0 {
		return Snapshot{}, false
	}

	s := Snapshot{
		Bar:         e.bars[len(e.bars)-1],
		RSI:         e.RSI(),
		ATR:         e.ATR(),
		VolumeRatio: e.VolumeRatio(),
		RecentLow:   e.RecentLow(),
	}
	s.Bands, s.BandsReady = e.Bollinger()
	s.HTFRSI, s.HTFReady = e.HTFRSI()
	s.Regime, s.RegimeReady = e.Regime()
	return s, true
}

func rsiOver(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return RSINeutral
	}
	closes = closes[len(closes)-(period+1):]

	var gains, losses float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func (e *Engine) lastCloses(n int) []float64 {
	if len(e.bars) < n {
		n = len(e.bars)
	}
	closes := make([]float64, 0, n)
	for _, b := range e.bars[len(e.bars)-n:] {
		closes = append(closes, b.Close)
	}
	return closes
}

func appendBounded(s []model.Bar, b model.Bar, max int) []model.Bar {
	s = append(s, b)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}

func appendBoundedFloat(s []float64, v float64, max int) []float64 {
	s = append(s, v)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
