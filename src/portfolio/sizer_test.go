package portfolio

import (
	"testing"

	"reversionbot/src/position"

	"github.com/stretchr/testify/require"
)

func sizerCfg() Config {
	return Config{
		InitialCapital:  2000,
		MaxPositions:    3,
		RiskPerTradePct: 2.0,
		KellyFraction:   0.5,
		KellyMinTrades:  10,
		KellyWindow:     20,
		VolLookback:     5,
		HeatCap:         0.10,
		StreakLength:    3,
		StreakBoost:     1.2,
		StreakReduction: 0.8,
	}
}

func TestSize_BaseFormula(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	// risk = 1000 * 2% = 20; stop distance = 2% -> size = 1000 USD
	res := s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.InDelta(t, 1000.0, res.Size, 1e-9)
	require.InDelta(t, 20.0, res.RiskAmount, 1e-9)
	require.InDelta(t, 1.0, res.PerformanceMult, 1e-9)
	require.InDelta(t, 1.0, res.VolatilityMult, 1e-9)
	require.InDelta(t, 1.0, res.KellyMult, 1e-9)
	require.False(t, res.HeatCapped)
}

func TestSize_PipConvention(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)
	conv := position.Pip{Size: 0.0001, ValueUSD: 0.074}

	// risk = 2000*2% = 40; stop 25 pips -> lots = 40/(25*0.074)
	entry := 1.3500
	stop := entry - 25*conv.Size
	res := s.Size("USD_SGD", 2000, 2000, entry, stop, 0, conv)
	require.InDelta(t, 40.0/(25*0.074), res.Size, 1e-6)
}

func TestSize_InvalidStopDistance(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	res := s.Size("BTC_USDT", 1000, 2000, 100, 100, 0, position.Percent{})
	require.Zero(t, res.Size)

	res = s.Size("BTC_USDT", 1000, 2000, 100, 105, 0, position.Percent{})
	require.Zero(t, res.Size)
}

func TestPerformanceMultiplier_Streaks(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	base := func() float64 {
		return s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{}).PerformanceMult
	}

	require.InDelta(t, 1.0, base(), 1e-9)

	s.RecordTrade(5)
	s.RecordTrade(5)
	require.InDelta(t, 1.0, base(), 1e-9, "two wins are not a streak")

	s.RecordTrade(5)
	require.InDelta(t, 1.2, base(), 1e-9)

	s.RecordTrade(-5)
	require.InDelta(t, 1.0, base(), 1e-9, "loss resets the win streak")

	s.RecordTrade(-5)
	s.RecordTrade(-5)
	require.InDelta(t, 0.8, base(), 1e-9)
}

func TestVolatilityMultiplier(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	mult := func(current float64) float64 {
		return s.Size("BTC_USDT", 1000, 2000, 100, 98, current, position.Percent{}).VolatilityMult
	}

	require.InDelta(t, 1.0, mult(2.0), 1e-9, "neutral without history")

	for i := 0; i < 5; i++ {
		s.RecordVolatility("BTC_USDT", 1.0)
	}

	require.InDelta(t, 1.0, mult(1.0), 1e-9)
	require.InDelta(t, 0.5, mult(2.0), 1e-9, "double volatility clamps low")
	require.InDelta(t, 1.5, mult(0.5), 1e-9, "calm market sizes up")
}

func TestVolatilityMultiplier_NegativeCurrentIsNeutral(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)
	for i := 0; i < 5; i++ {
		s.RecordVolatility("BTC_USDT", 1.0)
	}
	res := s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.InDelta(t, 1.0, res.VolatilityMult, 1e-9)
}

func TestKellyMultiplier_NeedsMinimumTrades(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	for i := 0; i < 9; i++ {
		s.RecordTrade(10)
	}
	res := s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.InDelta(t, 1.0, res.KellyMult, 1e-9)

	s.RecordTrade(-10)
	// 9 wins of 10, 1 loss of 10: W=0.9 R=1 -> kelly=0.8 clamped 0.5 -> mult 2.0
	res = s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.InDelta(t, 2.0, res.KellyMult, 1e-9)
}

func TestKellyMultiplier_PoorEdgeShrinks(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	// 3 wins of 5, 7 losses of 10: W=0.3 R=0.5 -> kelly negative -> floor 0.5
	for i := 0; i < 3; i++ {
		s.RecordTrade(5)
	}
	for i := 0; i < 7; i++ {
		s.RecordTrade(-10)
	}

	res := s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.InDelta(t, 0.5, res.KellyMult, 1e-9)
}

func TestHeatCap(t *testing.T) {
	s := NewSizer(sizerCfg(), nil)

	// budget is 10% of 2000 = 200. With 190 already at risk only 10 is left.
	s.RegisterOpenRisk("ETH_USDT", 190)

	res := s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.True(t, res.HeatCapped)
	require.InDelta(t, 10.0, res.RiskAmount, 1e-9)
	require.InDelta(t, 500.0, res.Size, 1e-9, "size shrinks with the risk budget")

	// fully consumed budget blocks the trade
	s.RegisterOpenRisk("SOL_USDT", 10)
	res = s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.True(t, res.HeatCapped)
	require.Zero(t, res.Size)

	// releasing risk restores the budget
	s.ReleaseRisk("ETH_USDT")
	s.ReleaseRisk("SOL_USDT")
	res = s.Size("BTC_USDT", 1000, 2000, 100, 98, 0, position.Percent{})
	require.False(t, res.HeatCapped)
	require.InDelta(t, 1000.0, res.Size, 1e-9)
}
