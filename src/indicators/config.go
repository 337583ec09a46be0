package indicators

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BBPeriod        int     `envconfig:"BB_PERIOD" default:"20"`
	BBStd           float64 `envconfig:"BB_STD" default:"2.0"`
	RSIPeriod       int     `envconfig:"RSI_PERIOD" default:"14"`
	ATRPeriod       int     `envconfig:"ATR_PERIOD" default:"14"`
	VolumePeriod    int     `envconfig:"VOLUME_PERIOD" default:"20"`
	RecentLowBars   int     `envconfig:"RECENT_LOW_BARS" default:"5"`
	HTFAggregation  int     `envconfig:"HTF_AGGREGATION" default:"3"`
	HTFRSIPeriod    int     `envconfig:"HTF_RSI_PERIOD" default:"14"`
	ADXPeriod       int     `envconfig:"ADX_PERIOD" default:"14"`
	ADXThreshold    float64 `envconfig:"ADX_THRESHOLD" default:"25.0"`
	MinBandWidthPct float64 `envconfig:"MIN_BAND_WIDTH_PCT" default:"2.0"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
