package signal

import (
	"testing"
	"time"

	"reversionbot/src/indicators"
	"reversionbot/src/model"
	"reversionbot/src/position"

	"github.com/stretchr/testify/require"
)

func validSnapshot() indicators.Snapshot {
	return indicators.Snapshot{
		Bar: model.Bar{
			Symbol:   "BTC_USDT",
			Datetime: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
			Close:    95.0,
		},
		Bands: indicators.Bands{
			Lower:    95.5,
			Middle:   100.0,
			Upper:    104.5,
			WidthPct: 9.0,
		},
		BandsReady:  true,
		RSI:         30.0,
		ATR:         1.2,
		VolumeRatio: 1.5,
		RecentLow:   94.8,
		HTFRSI:      42.0,
		HTFReady:    true,
		Regime:      indicators.RegimeRanging,
		RegimeReady: true,
	}
}

func TestEvaluate_AllConditionsMet(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	sig := ev.Evaluate(validSnapshot())

	require.True(t, sig.Valid)
	require.Empty(t, sig.Reasons)
	require.Equal(t, "below_lower", sig.BBPosition)
	// 50 base + 10 rsi<35 + 15 volume + 10 wide bands
	require.Equal(t, 85, sig.Confidence)
}

func TestEvaluate_NotReady(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	s := validSnapshot()
	s.BandsReady = false

	sig := ev.Evaluate(s)
	require.False(t, sig.Valid)
	require.Equal(t, []string{"indicators not ready"}, sig.Reasons)
}

func TestEvaluate_CollectsAllFailureReasons(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	s := validSnapshot()
	s.Bar.Close = 99.0     // above band + tolerance
	s.RSI = 55.0           // out of range
	s.VolumeRatio = 1.0    // too weak
	s.Bands.WidthPct = 1.0 // too narrow

	sig := ev.Evaluate(s)
	require.False(t, sig.Valid)
	require.Len(t, sig.Reasons, 4)
}

func TestEvaluate_FreefallGuard(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	s := validSnapshot()
	s.RecentLow = 97.0 // close 95 is > 1% below the recent floor

	sig := ev.Evaluate(s)
	require.False(t, sig.Valid)
	require.Len(t, sig.Reasons, 1)
	require.Contains(t, sig.Reasons[0], "recent low guard")
}

func TestEvaluate_RegimeFilter(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	for _, regime := range []indicators.Regime{
		indicators.RegimeTrendingUp,
		indicators.RegimeTrendingDown,
		indicators.RegimeChoppy,
	} {
		s := validSnapshot()
		s.Regime = regime

		sig := ev.Evaluate(s)
		require.False(t, sig.Valid, "regime %s must block entries", regime)
	}
}

func TestEvaluate_HTFConfirmOnlyWhenReady(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	s := validSnapshot()
	s.HTFRSI = 60.0
	sig := ev.Evaluate(s)
	require.False(t, sig.Valid)

	s.HTFReady = false
	sig = ev.Evaluate(s)
	require.True(t, sig.Valid, "unavailable higher timeframe must not block")
}

func pipSnapshot() indicators.Snapshot {
	s := validSnapshot()
	s.Bar.Symbol = "EUR_USD"
	s.Bar.Close = 1.0841
	s.Bands = indicators.Bands{
		Lower:    1.0840,
		Middle:   1.0851,
		Upper:    1.0862,
		WidthPct: 0.2, // far below the percent minimum; pips decide here
	}
	s.RecentLow = 1.0838
	return s
}

func TestEvaluate_PipConvention(t *testing.T) {
	ev := NewEvaluator(GetConfig(), position.Pip{Size: 0.0001, ValueUSD: 10}, nil)

	// 22 pips of band width passes the 10 pip minimum even though the
	// percent width would fail
	sig := ev.Evaluate(pipSnapshot())
	require.True(t, sig.Valid)
	require.Equal(t, "at_lower", sig.BBPosition)
	// 50 base + 10 rsi<35 + 15 volume + 10 wide bands
	require.Equal(t, 85, sig.Confidence)

	// five pips above the lower band is outside the two pip tolerance
	s := pipSnapshot()
	s.Bar.Close = 1.0845
	sig = ev.Evaluate(s)
	require.False(t, sig.Valid)
	require.Contains(t, sig.Reasons[0], "price not at lower band")
}

func TestConfidence_DeepOversoldCapped(t *testing.T) {
	ev := NewEvaluator(GetConfig(), nil, nil)

	s := validSnapshot()
	s.RSI = 22.0

	sig := ev.Evaluate(s)
	require.True(t, sig.Valid)
	// 50 + 20 + 15 + 10 = 95
	require.Equal(t, 95, sig.Confidence)
}
