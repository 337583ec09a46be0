package executors

import (
	"context"
	"testing"
	"time"

	"reversionbot/src/marketdata"
	"reversionbot/src/model"

	"github.com/stretchr/testify/require"
)

func TestBacktest_RunToExhaustion(t *testing.T) {
	start := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	var bars []model.Bar
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 96}
	for i, p := range prices {
		bars = append(bars, driverBar(start.Add(time.Duration(i)*5*time.Minute), p))
	}

	d := newTestDriver(t)
	bt := NewBacktest(d, marketdata.NewReplaySourceFromBars(bars), nil)

	report, err := bt.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(prices), report.Observations)
	require.Equal(t, 1, report.Entries)
	require.Equal(t, 1, report.Closes)

	wantPnl := (40.0 / 0.03) * (96.0 - 100.0) / 100.0
	require.InDelta(t, wantPnl, report.RealizedPnl, 1e-6)
	require.InDelta(t, 2000.0+wantPnl, report.FinalEquity, 1e-6)
}

func TestBacktest_ContextCancelStopsRun(t *testing.T) {
	d := newTestDriver(t)
	bt := NewBacktest(d, marketdata.NewReplaySourceFromBars([]model.Bar{
		driverBar(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), 100),
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bt.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
