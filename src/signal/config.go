package signal

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RSIEntryMin       float64 `envconfig:"RSI_ENTRY_MIN" default:"20"`
	RSIEntryMax       float64 `envconfig:"RSI_ENTRY_MAX" default:"40"`
	BandTolerancePct  float64 `envconfig:"BAND_TOLERANCE_PCT" default:"0.5"`
	MinBandWidthPct   float64 `envconfig:"MIN_BAND_WIDTH_PCT" default:"2.0"`
	BandTolerancePips float64 `envconfig:"BAND_TOLERANCE_PIPS" default:"2"`
	MinBandWidthPips  float64 `envconfig:"MIN_BAND_WIDTH_PIPS" default:"10"`
	RecentLowGuardPct float64 `envconfig:"RECENT_LOW_GUARD_PCT" default:"1.0"`
	VolumeFactor      float64 `envconfig:"VOLUME_FACTOR" default:"1.3"`
	HTFRSIMax         float64 `envconfig:"HTF_RSI_MAX" default:"50"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
