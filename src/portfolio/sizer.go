package portfolio

import (
	"math"

	"reversionbot/src/position"

	logger "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// SizeResult carries the sized position together with the inputs that
// produced it, for logging and the status API.
type SizeResult struct {
	Size            float64
	RiskAmount      float64
	PerformanceMult float64
	VolatilityMult  float64
	KellyMult       float64
	HeatCapped      bool
}

// Sizer turns a risk budget into a position size and adapts it to recent
// performance, current volatility and a fractional Kelly estimate. It also
// enforces the portfolio heat cap over all open risk.
type Sizer struct {
	cfg    Config
	logger *logger.Entry

	trades          []float64
	consecutiveWins int
	consecutiveLoss int

	volHistory map[string][]float64
	openRisk   map[string]float64
}

func NewSizer(cfg Config, log *logger.Entry) *Sizer {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Sizer{
		cfg:        cfg,
		logger:     log,
		volHistory: map[string][]float64{},
		openRisk:   map[string]float64{},
	}
}

// Size computes the final position size for an entry at the given stop.
// capital is the instrument's allocation, totalCapital the whole portfolio.
func (s *Sizer) Size(symbol string, capital, totalCapital, entry, stop, currentVol float64, conv position.UnitConvention) SizeResult {
	res := SizeResult{
		PerformanceMult: s.performanceMultiplier(),
		VolatilityMult:  s.volatilityMultiplier(symbol, currentVol),
		KellyMult:       s.kellyMultiplier(),
	}

	dist := conv.StopDistance(entry, stop)
	if dist <= 0 || conv.UnitValue() <= 0 {
		return res
	}

	riskAmount := capital * s.cfg.RiskPerTradePct / 100
	size := riskAmount / (dist * conv.UnitValue())

	mult := res.PerformanceMult * res.VolatilityMult * res.KellyMult
	size *= mult
	riskAmount *= mult

	// portfolio heat cap: total open risk never exceeds HeatCap of capital
	heatBudget := totalCapital*s.cfg.HeatCap - s.totalOpenRisk()
	if heatBudget <= 0 {
		return SizeResult{
			PerformanceMult: res.PerformanceMult,
			VolatilityMult:  res.VolatilityMult,
			KellyMult:       res.KellyMult,
			HeatCapped:      true,
		}
	}
	if riskAmount > heatBudget {
		scale := heatBudget / riskAmount
		size *= scale
		riskAmount = heatBudget
		res.HeatCapped = true
	}

	res.Size = size
	res.RiskAmount = riskAmount
	return res
}

// RegisterOpenRisk records the live risk of a freshly opened position for
// the heat cap.
func (s *Sizer) RegisterOpenRisk(symbol string, riskAmount float64) {
	s.openRisk[symbol] = riskAmount
}

// ReleaseRisk drops the open risk of a closed position.
func (s *Sizer) ReleaseRisk(symbol string) {
	delete(s.openRisk, symbol)
}

func (s *Sizer) totalOpenRisk() float64 {
	var sum float64
	for _, r := range s.openRisk {
		sum += r
	}
	return sum
}

// RecordTrade feeds a realized result into the streak and Kelly state.
func (s *Sizer) RecordTrade(pnl float64) {
	if pnl > 0 {
		s.consecutiveWins++
		s.consecutiveLoss = 0
	} else {
		s.consecutiveLoss++
		s.consecutiveWins = 0
	}

	s.trades = append(s.trades, pnl)
	if len(s.trades) > s.cfg.KellyWindow {
		s.trades = s.trades[len(s.trades)-s.cfg.KellyWindow:]
	}
}

// RecordVolatility feeds one volatility sample for the instrument.
func (s *Sizer) RecordVolatility(symbol string, vol float64) {
	h := append(s.volHistory[symbol], vol)
	if len(h) > s.cfg.VolLookback {
		h = h[len(h)-s.cfg.VolLookback:]
	}
	s.volHistory[symbol] = h
}

func (s *Sizer) performanceMultiplier() float64 {
	switch {
	case s.consecutiveWins >= s.cfg.StreakLength:
		return s.cfg.StreakBoost
	case s.consecutiveLoss >= s.cfg.StreakLength:
		return s.cfg.StreakReduction
	default:
		return 1.0
	}
}

// volatilityMultiplier shrinks size in high volatility and grows it in calm
// markets: 2 minus the ratio of current to average volatility, clamped.
func (s *Sizer) volatilityMultiplier(symbol string, currentVol float64) float64 {
	history := s.volHistory[symbol]
	if len(history) < s.cfg.VolLookback || currentVol <= 0 {
		return 1.0
	}

	avg := stat.Mean(history, nil)
	if avg <= 0 {
		return 1.0
	}
	return clamp(2-currentVol/avg, 0.5, 2.0)
}

// kellyMultiplier maps the fractional Kelly estimate of the recent trade
// window onto a size multiplier. Neutral until enough trades exist.
func (s *Sizer) kellyMultiplier() float64 {
	if len(s.trades) < s.cfg.KellyMinTrades {
		return 1.0
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, pnl := range s.trades {
		if pnl > 0 {
			wins++
			winSum += pnl
		} else {
			losses++
			lossSum -= pnl
		}
	}
	if wins == 0 || losses == 0 || lossSum == 0 {
		return 1.0
	}

	winRate := float64(wins) / float64(len(s.trades))
	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)
	payoff := avgWin / avgLoss
	if payoff == 0 {
		return 1.0
	}

	kelly := winRate - (1-winRate)/payoff
	kelly = clamp(kelly*s.cfg.KellyFraction/0.5, 0, 0.5)

	return clamp(kelly*4, 0.5, 2.0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
