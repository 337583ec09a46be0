package executors

import (
	"context"
	"errors"
	"time"

	"reversionbot/src/marketdata"
	"reversionbot/src/model"
	"reversionbot/src/repository"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// warmupCandles is the history depth fed through the indicators before the
// stream starts, enough for the slowest lookback to stabilize.
const warmupCandles = 200

// Live runs the driver against the exchange stream. Incoming candles are
// cached before they are processed so a later backtest can replay the same
// history.
type Live struct {
	driver  *Driver
	source  *marketdata.LiveSource
	candles *repository.CandleRepository
	rest    *marketdata.RestClient
	logger  *logger.Entry
}

func NewLive(driver *Driver, source *marketdata.LiveSource, candles *repository.CandleRepository, rest *marketdata.RestClient, log *logger.Entry) *Live {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Live{driver: driver, source: source, candles: candles, rest: rest, logger: log}
}

// Run restores state, starts the stream and processes candles until the
// context is cancelled.
func (l *Live) Run(ctx context.Context) error {
	if err := l.restorePositions(ctx); err != nil {
		return err
	}
	l.reconcileRemote(ctx)
	if err := l.warmUp(ctx); err != nil {
		return err
	}

	l.source.Start(ctx)

	for {
		bar, err := l.source.Next(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, marketdata.ErrExhausted) {
			l.logger.Info("live loop stopped")
			return nil
		}
		if err != nil {
			return err
		}

		l.cacheCandle(ctx, bar)

		if err := l.driver.ProcessObservation(ctx, bar); err != nil {
			return err
		}
	}
}

// restorePositions re-adopts open position rows after a restart, putting
// their capital back under reservation so the ledger still balances.
func (l *Live) restorePositions(ctx context.Context) error {
	if l.driver.positions == nil {
		return nil
	}

	rows, err := l.driver.positions.ListOpen(ctx)
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		inst := l.driver.Instrument(row.Symbol)
		if inst == nil {
			l.logger.WithField("symbol", row.Symbol).
				Warn("open position for unconfigured symbol, leaving untouched")
			continue
		}

		p := restorePosition(row, inst.LevelCount(), inst.Targets)
		inst.AdoptPosition(p)

		committed := p.Size * l.driver.conv.UnitValue()
		if err := l.driver.allocator.Reserve(p.Symbol, committed); err != nil {
			return err
		}

		risk := l.driver.conv.StopDistance(p.AvgEntry, p.Stop) * l.driver.conv.UnitValue() * p.Size
		l.driver.sizer.RegisterOpenRisk(p.Symbol, risk)

		l.logger.WithFields(logger.Fields{
			"symbol":    p.Symbol,
			"avg_entry": p.AvgEntry,
			"size":      p.Size,
			"stop":      p.Stop,
		}).Info("restored open position")
	}

	return nil
}

// warmUp replays cached history through the indicators so the first live
// candle is not evaluated on cold state. A short cache is backfilled over
// REST first; a failed backfill degrades to whatever the cache holds.
func (l *Live) warmUp(ctx context.Context) error {
	if l.candles == nil {
		return nil
	}

	now := time.Now().UTC()
	for _, symbol := range l.driver.symbols {
		rows, err := l.candles.FetchRecentCandles5m(ctx, symbol, now, warmupCandles)
		if err != nil {
			return err
		}

		if len(rows) < warmupCandles && l.rest != nil {
			if err := l.backfill(ctx, symbol, now); err != nil {
				l.logger.WithError(err).WithField("symbol", symbol).
					Warn("history backfill failed, warming from cache only")
			} else if rows, err = l.candles.FetchRecentCandles5m(ctx, symbol, now, warmupCandles); err != nil {
				return err
			}
		}

		for i := range rows {
			l.driver.Warm(rows[i].ToBar())
		}
		l.logger.WithFields(logger.Fields{
			"symbol":  symbol,
			"candles": len(rows),
		}).Info("indicators warmed")
	}
	return nil
}

// backfill pulls the warm-up window from the exchange REST API into the
// candle cache.
func (l *Live) backfill(ctx context.Context, symbol string, now time.Time) error {
	start := now.Add(-warmupCandles * 5 * time.Minute)
	candles, err := l.rest.FetchKlines(symbol, marketdata.Interval5m, start, now, warmupCandles)
	if err != nil {
		return err
	}
	for i := range candles {
		if err := l.candles.Upsert(ctx, marketdata.Interval5m, &candles[i]); err != nil {
			return err
		}
	}
	return nil
}

// reconcileRemote compares local open positions with what the venue
// reports. Mismatches are surfaced, not auto-corrected.
func (l *Live) reconcileRemote(ctx context.Context) {
	remote, err := l.driver.exec.OpenPositions(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("could not fetch remote positions for reconciliation")
		return
	}

	bySymbol := make(map[string]float64, len(remote))
	for _, r := range remote {
		bySymbol[r.Symbol] = r.Size
	}

	for _, symbol := range l.driver.symbols {
		inst := l.driver.Instrument(symbol)
		_, hasRemote := bySymbol[symbol]
		if inst.HasOpen() && !hasRemote {
			l.logger.WithField("symbol", symbol).
				Warn("local position has no remote counterpart")
		}
		if !inst.HasOpen() && hasRemote {
			l.logger.WithFields(logger.Fields{
				"symbol": symbol,
				"size":   bySymbol[symbol],
			}).Warn("remote balance with no local position")
		}
	}
}

func (l *Live) cacheCandle(ctx context.Context, bar model.Bar) {
	if l.candles == nil {
		return
	}

	base := &model.CandleBase{
		Symbol:   bar.Symbol,
		Datetime: bar.Datetime,
		Open:     decimal.NewFromFloat(bar.Open),
		High:     decimal.NewFromFloat(bar.High),
		Low:      decimal.NewFromFloat(bar.Low),
		Close:    decimal.NewFromFloat(bar.Close),
		Volume:   decimal.NewFromFloat(bar.Volume),
	}
	if err := l.candles.Upsert(ctx, marketdata.Interval5m, base); err != nil {
		l.logger.WithError(err).Warn("candle not cached")
	}
}
