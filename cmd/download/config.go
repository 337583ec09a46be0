package download

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Symbols   []string  `envconfig:"SYMBOLS" default:"BTC_USDT"`
	Intervals []string  `envconfig:"DOWNLOAD_INTERVALS" default:"5m,1h"`
	Start     time.Time `envconfig:"DOWNLOAD_START" default:"2025-01-01T00:00:00Z"`
	End       time.Time `envconfig:"DOWNLOAD_END" default:"2025-06-30T00:00:00Z"`
	Resume    bool      `envconfig:"DOWNLOAD_RESUME" default:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
