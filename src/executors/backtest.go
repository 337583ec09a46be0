package executors

import (
	"context"
	"errors"
	"time"

	"reversionbot/src/marketdata"

	logger "github.com/sirupsen/logrus"
)

// Report summarizes one backtest run.
type Report struct {
	Observations int
	Entries      int
	Closes       int
	RealizedPnl  float64
	FinalEquity  float64
	Started      time.Time
	Finished     time.Time
}

// Backtest replays a candle source through the driver.
type Backtest struct {
	driver *Driver
	source marketdata.Source
	logger *logger.Entry
}

func NewBacktest(driver *Driver, source marketdata.Source, log *logger.Entry) *Backtest {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Backtest{driver: driver, source: source, logger: log}
}

func (b *Backtest) Run(ctx context.Context) (Report, error) {
	report := Report{Started: time.Now()}

	for {
		bar, err := b.source.Next(ctx)
		if errors.Is(err, marketdata.ErrExhausted) {
			break
		}
		if err != nil {
			return report, err
		}

		if err := b.driver.ProcessObservation(ctx, bar); err != nil {
			return report, err
		}
	}

	report.Finished = time.Now()
	report.Observations = b.driver.Observations()
	report.Entries = b.driver.Entries()
	report.Closes = b.driver.Closes()
	report.RealizedPnl = b.driver.Allocator().Realized()
	report.FinalEquity = b.driver.Allocator().TotalEquity()

	b.logger.WithFields(logger.Fields{
		"observations": report.Observations,
		"entries":      report.Entries,
		"closes":       report.Closes,
		"realized_pnl": report.RealizedPnl,
		"final_equity": report.FinalEquity,
	}).Info("backtest finished")

	return report, nil
}
