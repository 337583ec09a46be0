package download

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reversionbot/src/database"
	"reversionbot/src/marketdata"
	"reversionbot/src/repository"

	"github.com/sirupsen/logrus"
)

type Download struct{}

// Start backfills the candle cache for every configured symbol and
// interval.
func (t *Download) Start() error {
	log := logrus.WithField("cmd", "download")
	config := GetConfig()
	mcfg := marketdata.GetConfig()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	repo := repository.NewCandleRepository()

	for _, symbol := range config.Symbols {
		for _, interval := range config.Intervals {
			d := marketdata.NewDownloader(repo, symbol, interval, mcfg.KlineLimit, log)

			saved, err := d.Run(ctx, config.Start, config.End, config.Resume)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"symbol":   symbol,
					"interval": interval,
				}).Error("download failed")
				return err
			}

			log.WithFields(logrus.Fields{
				"symbol":   symbol,
				"interval": interval,
				"candles":  saved,
			}).Info("symbol download done")
		}
	}

	return nil
}
