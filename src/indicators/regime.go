package indicators

import (
	"math"
	"reversionbot/src/model"
)

type Regime string

const (
	RegimeTrendingUp   Regime = "trending_up"
	RegimeTrendingDown Regime = "trending_down"
	RegimeRanging      Regime = "ranging"
	RegimeChoppy       Regime = "choppy"
)

// classifyRegime maps ADX strength and directional movement to a market
// regime. Weak trend with usable band width is the only state mean
// reversion entries are allowed in.
func classifyRegime(adx, plusDI, minusDI, threshold float64, widthOK bool) Regime {
	switch {
	case adx >= threshold && plusDI > minusDI:
		return RegimeTrendingUp
	case adx >= threshold && minusDI > plusDI:
		return RegimeTrendingDown
	case widthOK:
		return RegimeRanging
	default:
		return RegimeChoppy
	}
}

// adxState is the incremental ADX calculation, exponentially smoothed with
// alpha = 2/(period+1).
type adxState struct {
	period int
	alpha  float64

	prev    model.Bar
	hasPrev bool
	count   int

	emaTR      float64
	emaPlusDM  float64
	emaMinusDM float64
	emaDX      float64
}

func newADXState(period int) adxState {
	return adxState{
		period: period,
		alpha:  2.0 / (float64(period) + 1),
	}
}

func (a *adxState) update(bar model.Bar) {
	if !a.hasPrev {
		a.prev = bar
		a.hasPrev = true
		return
	}

	upMove := bar.High - a.prev.High
	downMove := a.prev.Low - bar.Low

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	tr := math.Max(bar.High-bar.Low, math.Max(
		math.Abs(bar.High-a.prev.Close),
		math.Abs(bar.Low-a.prev.Close),
	))

	if a.count == 0 {
		a.emaTR = tr
		a.emaPlusDM = plusDM
		a.emaMinusDM = minusDM
	} else {
		a.emaTR = a.ema(a.emaTR, tr)
		a.emaPlusDM = a.ema(a.emaPlusDM, plusDM)
		a.emaMinusDM = a.ema(a.emaMinusDM, minusDM)
	}

	dx := 0.0
	if sum := a.plusDI() + a.minusDI(); sum > 0 {
		dx = 100 * math.Abs(a.plusDI()-a.minusDI()) / sum
	}
	if a.count == 0 {
		a.emaDX = dx
	} else {
		a.emaDX = a.ema(a.emaDX, dx)
	}

	a.count++
	a.prev = bar
}

func (a *adxState) ema(prev, v float64) float64 {
	return a.alpha*v + (1-a.alpha)*prev
}

func (a *adxState) ready() bool { return a.count >= 2*a.period }
func (a *adxState) value() float64 { return a.emaDX }

func (a *adxState) plusDI() float64 {
	if a.emaTR == 0 {
		return 0
	}
	return 100 * a.emaPlusDM / a.emaTR
}

func (a *adxState) minusDI() float64 {
	if a.emaTR == 0 {
		return 0
	}
	return 100 * a.emaMinusDM / a.emaTR
}
