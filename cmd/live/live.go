package live

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
	"reversionbot/src/security"

	"github.com/sirupsen/logrus"
)

type Live struct{}

// Start runs the driver against the exchange stream. Without API keys the
// loop trades on the paper connector, which is the safe default.
func (t *Live) Start() error {
	log := logrus.WithField("cmd", "live")

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

	cfg := executors.GetConfig()
	exec, err := buildExecution(log)
	if err != nil {
		return err
	}

	driver := executors.BuildDriver(executors.BuildOptions{
		Exec:         exec,
		CounterStore: repository.NewRiskCounterRepository(),
		Persist:      true,
		Logger:       log,
	})

	mcfg := marketdata.GetConfig()
	source := marketdata.NewLiveSource(mcfg, cfg.Symbols, log)
	rest := marketdata.NewRestClient(mcfg.RestBaseURL, mcfg.RequestTimeout)
	live := executors.NewLive(driver, source, repository.NewCandleRepository(), rest, log)

	return live.Run(ctx)
}

// buildExecution picks the execution venue. Stored keys are encrypted, so
// they are decrypted here and nowhere else.
func buildExecution(log *logrus.Entry) (connectors.ExecutionClient, error) {
	ccfg := connectors.GetConfig()

	if ccfg.BinanceAPIKey == "" || ccfg.BinanceAPISecret == "" {
		log.Warn("no exchange credentials configured, using paper execution")
		return connectors.NewPaperConnector(ccfg.PaperSlippagePct, ccfg.PaperFeePct, log), nil
	}

	apiKey, err := security.DecryptString(ccfg.BinanceAPIKey)
	if err != nil {
		log.WithError(err).Error("Failed to decrypt api key")
		return nil, err
	}
	apiSecret, err := security.DecryptString(ccfg.BinanceAPISecret)
	if err != nil {
		log.WithError(err).Error("Failed to decrypt api secret")
		return nil, err
	}

	ccfg.BinanceAPIKey = apiKey
	ccfg.BinanceAPISecret = apiSecret
	return connectors.NewBinanceConnector(ccfg, log), nil
}
