package main

import (
	"fmt"
	"os"
	"reversionbot/cmd/backtest"
	"reversionbot/cmd/download"
	"reversionbot/cmd/live"
	"reversionbot/src/database"
	"reversionbot/src/repository"
	"reversionbot/src/server"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Reversionbot CMD"
	app.Usage = "The reversionbot command line interface"

	app.Commands = []cli.Command{
		backtestCMD,
		liveCMD,
		downloadCMD,
		serverCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	backtestCMD = cli.Command{
		Name:        "backtest",
		Usage:       "run Backtest",
		Action:      backtestAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Replay cached candles through the strategy`,
	}
	liveCMD = cli.Command{
		Name:        "live",
		Usage:       "run Live loop",
		Action:      liveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the strategy against the exchange stream`,
	}
	downloadCMD = cli.Command{
		Name:        "download",
		Usage:       "run candle download",
		Action:      downloadAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Backfill the candle cache from the exchange`,
	}
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run status API server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the read-only status API`,
	}
)

func backtestAction(_ *cli.Context) error {
	logrus.Info("Starting backtest CMD")

	bt := &backtest.Backtest{}
	if err := bt.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func liveAction(_ *cli.Context) error {
	logrus.Info("Starting live CMD")

	l := &live.Live{}
	if err := l.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func downloadAction(_ *cli.Context) error {
	logrus.Info("Starting download CMD")

	d := &download.Download{}
	if err := d.Start(); err != nil {
		logrus.WithError(err).Error("Starting download cmd")
		return err
	}

	return nil
}

func serverAction(_ *cli.Context) error {
	logrus.Info("Starting server CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
		return err
	}

	h := server.NewHandler(
		repository.NewPositionRepository(),
		repository.NewTradeRepository(),
		repository.NewEquityRepository(),
		logrus.WithField("component", "api"),
	)
	server.StartServer(server.GetConfig().Port, h)

	return nil
}
