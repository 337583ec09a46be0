package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Symbols       []string  `envconfig:"SYMBOLS" default:"BTC_USDT"`
	BacktestStart time.Time `envconfig:"BACKTEST_START" default:"2025-01-01T00:00:00Z"`
	BacktestEnd   time.Time `envconfig:"BACKTEST_END" default:"2025-06-30T00:00:00Z"`

	UnitConvention string  `envconfig:"UNIT_CONVENTION" default:"percent"`
	PipSize        float64 `envconfig:"PIP_SIZE" default:"0.0001"`
	PipValueUSD    float64 `envconfig:"PIP_VALUE_USD" default:"10"`

	EquityEvery int `envconfig:"EQUITY_EVERY" default:"1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
