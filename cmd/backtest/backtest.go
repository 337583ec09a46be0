package backtest

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reversionbot/src/connectors"
	"reversionbot/src/database"
	"reversionbot/src/executors"
	"reversionbot/src/marketdata"
	"reversionbot/src/repository"
	"reversionbot/src/risk"

	"github.com/sirupsen/logrus"
)

type Backtest struct{}

// Start replays the cached candle history through the driver with paper
// execution. Nothing is persisted, the result is the final report.
func (t *Backtest) Start() error {
	log := logrus.WithField("cmd", "backtest")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// candle history lives in the main database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	cfg := executors.GetConfig()
	ccfg := connectors.GetConfig()

	driver := executors.BuildDriver(executors.BuildOptions{
		Exec:         connectors.NewPaperConnector(ccfg.PaperSlippagePct, ccfg.PaperFeePct, log),
		CounterStore: risk.NewMemoryCounterStore(),
		Logger:       log,
	})

	source, err := marketdata.NewReplaySource(
		ctx,
		repository.NewCandleRepository(),
		cfg.Symbols,
		cfg.BacktestStart,
		cfg.BacktestEnd,
		log,
	)
	if err != nil {
		return err
	}

	report, err := executors.NewBacktest(driver, source, log).Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"observations": report.Observations,
		"entries":      report.Entries,
		"closes":       report.Closes,
		"realized_pnl": report.RealizedPnl,
		"final_equity": report.FinalEquity,
	}).Info("backtest finished")

	return nil
}
