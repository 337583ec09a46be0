package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BinanceAPIKey    string `envconfig:"BINANCE_API_KEY" default:""`
	BinanceAPISecret string `envconfig:"BINANCE_API_SECRET" default:""`
	BinanceBaseURL   string `envconfig:"BINANCE_BASE_URL" default:""`

	PaperSlippagePct float64 `envconfig:"PAPER_SLIPPAGE_PCT" default:"0.05"`
	PaperFeePct      float64 `envconfig:"PAPER_FEE_PCT" default:"0.1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
