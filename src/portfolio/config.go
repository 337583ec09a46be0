package portfolio

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	InitialCapital  float64            `envconfig:"INITIAL_CAPITAL" default:"2000"`
	MaxPositions    int                `envconfig:"MAX_POSITIONS" default:"3"`
	RiskPerTradePct float64            `envconfig:"RISK_PER_TRADE_PCT" default:"2.0"`
	Allocations     map[string]float64 `envconfig:"ALLOCATIONS" default:"BTC_USDT:1.0"`

	KellyFraction   float64 `envconfig:"KELLY_FRACTION" default:"0.5"`
	KellyMinTrades  int     `envconfig:"KELLY_MIN_TRADES" default:"10"`
	KellyWindow     int     `envconfig:"KELLY_WINDOW" default:"20"`
	VolLookback     int     `envconfig:"VOL_LOOKBACK" default:"20"`
	HeatCap         float64 `envconfig:"HEAT_CAP" default:"0.10"`
	StreakLength    int     `envconfig:"STREAK_LENGTH" default:"3"`
	StreakBoost     float64 `envconfig:"STREAK_BOOST" default:"1.2"`
	StreakReduction float64 `envconfig:"STREAK_REDUCTION" default:"0.8"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
