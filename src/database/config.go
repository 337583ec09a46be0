package database

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"` // Expected to hold values like "debug", "info", "warn", "error"
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // Expected to hold values like "json" or "text"
	// DatabaseURLMain accepts a postgres DSN (postgres://...) or a sqlite
	// file path. Backtests default to a local sqlite file so no server is
	// needed.
	DatabaseURLMain string `envconfig:"DATABASE_URL_MAIN" default:"reversionbot.db"`
	GormLogLevel    int    `envconfig:"GORM_LOG_LEVEL" default:"2"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
