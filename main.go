package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"reversionbot/src/database"
	"reversionbot/src/repository"
	"reversionbot/src/server"

	logger "github.com/sirupsen/logrus"
)

var (
	PORT     = os.Getenv("SERVER_PORT")
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if PORT == "" {
		PORT = server.GetConfig().Port
	}

	h := server.NewHandler(
		repository.NewPositionRepository(),
		repository.NewTradeRepository(),
		repository.NewEquityRepository(),
		logger.WithField("component", "api"),
	)
	server.StartServer(PORT, h)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
