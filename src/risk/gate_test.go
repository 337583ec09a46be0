package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func gateConfig() Config {
	cfg := corrConfig()
	cfg.DailyLossLimit = 100
	cfg.MaxConsecutiveLosses = 2
	cfg.PauseDuration = 24 * time.Hour
	cfg.AsianMultiplier = 1.5
	cfg.LondonMultiplier = 1.0
	cfg.OverlapMultiplier = 0.7
	cfg.NewYorkMultiplier = 0.8
	cfg.OffHoursMultiplier = 1.5
	cfg.WeekendEntryCutoffHour = 18
	cfg.WeekendCloseHour = 20
	cfg.SundayResumeHour = 22
	return cfg
}

func newTestGate() *Gate {
	cfg := gateConfig()
	breaker := NewCircuitBreaker(cfg, newMemStore(), nil)
	return NewGate(cfg, breaker, NewCorrelationMonitor(cfg), nil)
}

func TestGate_AllowsAndCarriesSessionMultiplier(t *testing.T) {
	g := newTestGate()

	// Tuesday 10:00 UTC, London session
	d := g.CheckEntry(context.Background(), utcDate(2025, time.March, 4, 10), "BTC_USDT", nil)
	require.True(t, d.Allowed)
	require.Empty(t, d.Reason)
	require.Equal(t, SessionLondon, d.Session)
	require.InDelta(t, 1.0, d.SizeMultiplier, 1e-9)

	d = g.CheckEntry(context.Background(), utcDate(2025, time.March, 4, 14), "BTC_USDT", nil)
	require.True(t, d.Allowed)
	require.Equal(t, SessionOverlap, d.Session)
	require.InDelta(t, 0.7, d.SizeMultiplier, 1e-9)
}

func TestGate_BreakerBeforeWeekend(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	// trip the breaker on Friday morning
	friday := utcDate(2025, time.March, 7, 10)
	require.NoError(t, g.Breaker().RecordTrade(ctx, friday, -10))
	require.NoError(t, g.Breaker().RecordTrade(ctx, friday, -10))

	// Friday evening would also be blocked by the weekend window, but the
	// breaker runs first and owns the reason
	d := g.CheckEntry(ctx, utcDate(2025, time.March, 7, 19), "BTC_USDT", nil)
	require.False(t, d.Allowed)
	require.Contains(t, d.Reason, "paused until")
}

func TestGate_WeekendBlocksEntries(t *testing.T) {
	g := newTestGate()

	d := g.CheckEntry(context.Background(), utcDate(2025, time.March, 7, 19), "BTC_USDT", nil)
	require.False(t, d.Allowed)
	require.Contains(t, d.Reason, "weekend window")
}

func TestGate_CorrelationBlocksEntry(t *testing.T) {
	g := newTestGate()

	feed(g.Correlation(), "A", []float64{100, 102, 101, 103, 104, 102, 105})
	feed(g.Correlation(), "B", []float64{50, 51, 50.5, 51.5, 52, 51, 52.5})

	d := g.CheckEntry(context.Background(), utcDate(2025, time.March, 4, 10), "A", []string{"B"})
	require.False(t, d.Allowed)
	require.Contains(t, d.Reason, "correlated with open position B")
}
