package marketdata

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RestBaseURL    string        `envconfig:"MARKETDATA_REST_BASE_URL" default:"https://api.binance.com"`
	StreamBaseURL  string        `envconfig:"MARKETDATA_STREAM_BASE_URL" default:"wss://stream.binance.com:9443"`
	RequestTimeout time.Duration `envconfig:"MARKETDATA_REQUEST_TIMEOUT" default:"15s"`
	KlineLimit     int           `envconfig:"MARKETDATA_KLINE_LIMIT" default:"1000"`
	ReconnectDelay time.Duration `envconfig:"MARKETDATA_RECONNECT_DELAY" default:"5s"`
	MaxReconnects  int           `envconfig:"MARKETDATA_MAX_RECONNECTS" default:"0"` // 0 = unlimited
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
