package executors

import (
	"context"
	"testing"
	"time"

	"reversionbot/src/connectors"
	"reversionbot/src/indicators"
	"reversionbot/src/model"
	"reversionbot/src/portfolio"
	"reversionbot/src/position"
	"reversionbot/src/risk"
	"reversionbot/src/signal"
	"reversionbot/src/strategy"

	"github.com/stretchr/testify/require"
)

type memCounterStore struct {
	rows map[string]*model.RiskCounter
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{rows: map[string]*model.RiskCounter{}}
}

func (s *memCounterStore) LoadDay(_ context.Context, day string) (*model.RiskCounter, error) {
	if row, ok := s.rows[day]; ok {
		clone := *row
		return &clone, nil
	}
	return nil, nil
}

func (s *memCounterStore) LoadLatest(_ context.Context) (*model.RiskCounter, error) {
	var latest *model.RiskCounter
	for day, row := range s.rows {
		if latest == nil || day > latest.Day {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *memCounterStore) Save(_ context.Context, counter *model.RiskCounter) error {
	clone := *counter
	s.rows[counter.Day] = &clone
	return nil
}

// driverConfig keeps every filter permissive so the scripted candles fully
// control when entries happen.
func driverInstrumentConfig() strategy.InstrumentConfig {
	return strategy.InstrumentConfig{
		Indicators: indicators.Config{
			BBPeriod: 5, BBStd: 2.0,
			RSIPeriod: 3, ATRPeriod: 3,
			VolumePeriod: 4, RecentLowBars: 3,
			HTFAggregation: 100, HTFRSIPeriod: 14, // never ready in these tests
			ADXPeriod: 3, ADXThreshold: 1000,
			MinBandWidthPct: 0,
		},
		Signal: signal.Config{
			RSIEntryMin: 0, RSIEntryMax: 100,
			BandTolerancePct: 100, MinBandWidthPct: 0,
			RecentLowGuardPct: 100, VolumeFactor: 0,
			HTFRSIMax: 100,
		},
		Position: position.Config{
			ATRStopMult: 1.5, MaxStopPct: 3.0,
			FeeBufferPct: 0.1, TrailPct: 1.0,
			TrailInterval: 5 * time.Minute, MaxHold: 2 * time.Hour,
			DCATriggerPct: 1.0, DCARatio: 0.5,
			ScaleLevels: []position.Level{{Portion: 0.5, Target: 2.5}, {Portion: 0.5, Target: 4.0}},
		},
		Convention: position.Percent{},
	}
}

func riskConfig() risk.Config {
	return risk.Config{
		CorrLookback: 20, CorrThreshold: 0.85, CorrMinPoints: 5, HistoryCap: 50,
		DailyLossLimit: 1e9, MaxConsecutiveLosses: 100, PauseDuration: 24 * time.Hour,
		AsianMultiplier: 1.0, LondonMultiplier: 1.0, OverlapMultiplier: 1.0,
		NewYorkMultiplier: 1.0, OffHoursMultiplier: 1.0,
		WeekendEntryCutoffHour: 18, WeekendCloseHour: 20, SundayResumeHour: 22,
	}
}

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	return newTestDriverWithFees(t, 0)
}

func newTestDriverWithFees(t *testing.T, feePct float64) *Driver {
	t.Helper()

	rcfg := riskConfig()
	breaker := risk.NewCircuitBreaker(rcfg, newMemCounterStore(), nil)
	gate := risk.NewGate(rcfg, breaker, risk.NewCorrelationMonitor(rcfg), nil)

	pcfg := portfolio.Config{
		InitialCapital: 2000, MaxPositions: 3, RiskPerTradePct: 2.0,
		Allocations:   map[string]float64{"BTC_USDT": 1.0},
		KellyFraction: 0.5, KellyMinTrades: 10, KellyWindow: 20,
		VolLookback: 1000, HeatCap: 0.10,
		StreakLength: 3, StreakBoost: 1.2, StreakReduction: 0.8,
	}

	inst := strategy.NewInstrument("BTC_USDT", driverInstrumentConfig(), nil)

	return NewDriver(Deps{
		Config:      Config{Symbols: []string{"BTC_USDT"}, EquityEvery: 1},
		Convention:  position.Percent{},
		Instruments: []*strategy.Instrument{inst},
		Allocator:   portfolio.NewAllocator(pcfg.InitialCapital, pcfg.Allocations, pcfg.MaxPositions, nil),
		Sizer:       portfolio.NewSizer(pcfg, nil),
		Gate:        gate,
		Exec:        connectors.NewPaperConnector(0, feePct, nil),
	})
}

func driverBar(at time.Time, close float64) model.Bar {
	return model.Bar{
		Symbol:   "BTC_USDT",
		Datetime: at,
		Open:     close,
		High:     close + 1,
		Low:      close - 1,
		Close:    close,
		Volume:   10,
	}
}

// warmUp feeds flat candles until the indicators are ready and the entry
// fires; with a flat series the first eligible candle opens a position.
func warmUp(t *testing.T, d *Driver, start time.Time) time.Time {
	t.Helper()
	ctx := context.Background()

	at := start
	for i := 0; i < 10; i++ {
		require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 100)))
		at = at.Add(5 * time.Minute)
	}
	require.Equal(t, 1, d.Entries(), "flat permissive series opens exactly one position")
	return at
}

func TestDriver_EntrySizingAndLedger(t *testing.T) {
	d := newTestDriver(t)
	tuesday := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	warmUp(t, d, tuesday)

	inst := d.Instrument("BTC_USDT")
	require.True(t, inst.HasOpen())

	p := inst.Open()
	require.InDelta(t, 100.0, p.AvgEntry, 1e-9)
	// flat candles have a true range of 2, so the 1.5x ATR stop and the
	// 3 percent cap coincide at 97
	require.InDelta(t, 97.0, p.Stop, 1e-9)
	// 2 percent of the 2000 allocation risked over a 3 percent stop
	require.InDelta(t, 40.0/0.03, p.Size, 1e-6)

	require.InDelta(t, 2000.0-40.0/0.03, d.Allocator().Available(), 1e-6)
	require.InDelta(t, 2000.0, d.Allocator().TotalEquity(), 1e-6)
}

func TestDriver_StopLossRoundTrip(t *testing.T) {
	d := newTestDriver(t)
	tuesday := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	at := warmUp(t, d, tuesday)

	require.NoError(t, d.ProcessObservation(context.Background(), driverBar(at, 96)))

	require.Equal(t, 1, d.Closes())
	require.False(t, d.Instrument("BTC_USDT").HasOpen())

	// 1333.33 quote at -4 percent
	wantPnl := (40.0 / 0.03) * (96.0 - 100.0) / 100.0
	require.InDelta(t, wantPnl, d.Allocator().Realized(), 1e-6)
	require.InDelta(t, 2000.0+wantPnl, d.Allocator().TotalEquity(), 1e-6)
}

func TestDriver_ScaleOutThenFinalTarget(t *testing.T) {
	d := newTestDriver(t)
	tuesday := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	at := warmUp(t, d, tuesday)

	size := 40.0 / 0.03
	ctx := context.Background()

	// first target at +2.5 percent closes half
	require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 102.5)))
	inst := d.Instrument("BTC_USDT")
	require.True(t, inst.HasOpen())

	p := inst.Open()
	require.Equal(t, model.PositionStatusPartial, p.Status)
	require.InDelta(t, size/2, p.Size, 1e-6)
	require.True(t, p.Breakeven)

	firstPnl := (size / 2) * 2.5 / 100
	require.InDelta(t, firstPnl, d.Allocator().Realized(), 1e-6)

	// final target closes the remainder
	at = at.Add(5 * time.Minute)
	require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 104)))
	require.False(t, inst.HasOpen())
	require.Equal(t, 1, d.Closes())

	secondPnl := (size / 2) * 4.0 / 100
	require.InDelta(t, firstPnl+secondPnl, d.Allocator().Realized(), 1e-6)
	require.InDelta(t, 2000.0+firstPnl+secondPnl, d.Allocator().TotalEquity(), 1e-6)
}

func TestDriver_DCAThenLedgerStillBalances(t *testing.T) {
	d := newTestDriver(t)
	tuesday := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	at := warmUp(t, d, tuesday)

	ctx := context.Background()
	size := 40.0 / 0.03

	// one percent below entry triggers the averaging add, still above the stop
	require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 99)))

	inst := d.Instrument("BTC_USDT")
	require.True(t, inst.HasOpen())

	p := inst.Open()
	require.True(t, p.DCADone)
	require.InDelta(t, size*1.5, p.Size, 1e-6)

	wantAvg := (100*size + 99*size/2) / (size * 1.5)
	require.InDelta(t, wantAvg, p.AvgEntry, 1e-9)
	require.InDelta(t, 97.0, p.Stop, 1e-9, "dca never moves the stop")

	// close out and verify conservation held through the add
	at = at.Add(5 * time.Minute)
	require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 96)))
	require.False(t, inst.HasOpen())

	wantPnl := size * 1.5 * (96 - wantAvg) / wantAvg
	require.InDelta(t, wantPnl, d.Allocator().Realized(), 1e-6)
	require.InDelta(t, 2000.0+wantPnl, d.Allocator().TotalEquity(), 1e-6)
}

func TestDriver_FeesBookedAgainstLedger(t *testing.T) {
	d := newTestDriverWithFees(t, 1.0)
	tuesday := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	at := warmUp(t, d, tuesday)

	size := 40.0 / 0.03
	entryFee := size / 100

	require.InDelta(t, -entryFee, d.Allocator().Realized(), 1e-6)
	require.InDelta(t, 2000.0-size-entryFee, d.Allocator().Available(), 1e-6)
	require.InDelta(t, 2000.0-entryFee, d.Allocator().TotalEquity(), 1e-6)

	require.NoError(t, d.ProcessObservation(context.Background(), driverBar(at, 96)))
	require.Equal(t, 1, d.Closes())

	// 4 percent stop loss plus one percent fee on the entry and the close
	wantRealized := -0.06 * size
	require.InDelta(t, wantRealized, d.Allocator().Realized(), 1e-6)
	require.InDelta(t, 2000.0+wantRealized, d.Allocator().TotalEquity(), 1e-6)
}

func TestDriver_WeekendForceClose(t *testing.T) {
	d := newTestDriver(t)
	// 2025-03-07 is a Friday; warm up in the morning
	friday := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	warmUp(t, d, friday)

	// Friday 20:00 UTC is inside the close window
	closeTime := time.Date(2025, 3, 7, 20, 0, 0, 0, time.UTC)
	require.NoError(t, d.ProcessObservation(context.Background(), driverBar(closeTime, 100)))

	require.False(t, d.Instrument("BTC_USDT").HasOpen())
	require.Equal(t, 1, d.Closes())
	require.InDelta(t, 0.0, d.Allocator().Realized(), 1e-6, "flat close at entry price")
}

func TestDriver_NoEntryAfterFridayCutoff(t *testing.T) {
	d := newTestDriver(t)

	// warm up late Friday so the first eligible candle lands after the
	// 18:00 entry cutoff
	friday := time.Date(2025, 3, 7, 17, 30, 0, 0, time.UTC)
	ctx := context.Background()

	at := friday
	for i := 0; i < 10; i++ {
		require.NoError(t, d.ProcessObservation(ctx, driverBar(at, 100)))
		at = at.Add(5 * time.Minute)
	}
	require.Equal(t, 0, d.Entries(), "cutoff reached before indicators warmed up")
}

func TestDriver_Determinism(t *testing.T) {
	bars := func() []model.Bar {
		start := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
		var out []model.Bar
		prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 99, 102.5, 104, 100, 100, 96}
		for i, p := range prices {
			out = append(out, driverBar(start.Add(time.Duration(i)*5*time.Minute), p))
		}
		return out
	}

	run := func() *Driver {
		d := newTestDriver(t)
		ctx := context.Background()
		for _, bar := range bars() {
			require.NoError(t, d.ProcessObservation(ctx, bar))
		}
		return d
	}

	a, b := run(), run()
	require.Equal(t, a.Entries(), b.Entries())
	require.Equal(t, a.Closes(), b.Closes())
	require.InDelta(t, a.Allocator().Realized(), b.Allocator().Realized(), 1e-12)
	require.InDelta(t, a.Allocator().TotalEquity(), b.Allocator().TotalEquity(), 1e-12)
}

func TestDriver_IgnoresUnknownSymbol(t *testing.T) {
	d := newTestDriver(t)
	bar := driverBar(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), 100)
	bar.Symbol = "DOGE_USDT"

	require.NoError(t, d.ProcessObservation(context.Background(), bar))
	require.Equal(t, 0, d.Observations(), "unknown symbols are skipped entirely")
}
