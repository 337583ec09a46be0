package risk

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CorrLookback  int     `envconfig:"CORR_LOOKBACK" default:"20"`
	CorrThreshold float64 `envconfig:"CORR_THRESHOLD" default:"0.85"`
	CorrMinPoints int     `envconfig:"CORR_MIN_POINTS" default:"5"`
	HistoryCap    int     `envconfig:"CORR_HISTORY_CAP" default:"50"`

	DailyLossLimit       float64       `envconfig:"DAILY_LOSS_LIMIT" default:"150"`
	MaxConsecutiveLosses int           `envconfig:"MAX_CONSECUTIVE_LOSSES" default:"2"`
	PauseDuration        time.Duration `envconfig:"PAUSE_DURATION" default:"24h"`

	AsianMultiplier    float64 `envconfig:"ASIAN_MULTIPLIER" default:"1.5"`
	LondonMultiplier   float64 `envconfig:"LONDON_MULTIPLIER" default:"1.0"`
	OverlapMultiplier  float64 `envconfig:"OVERLAP_MULTIPLIER" default:"0.7"`
	NewYorkMultiplier  float64 `envconfig:"NEWYORK_MULTIPLIER" default:"0.8"`
	OffHoursMultiplier float64 `envconfig:"OFFHOURS_MULTIPLIER" default:"1.5"`

	WeekendEntryCutoffHour int `envconfig:"WEEKEND_ENTRY_CUTOFF_HOUR" default:"18"`
	WeekendCloseHour       int `envconfig:"WEEKEND_CLOSE_HOUR" default:"20"`
	SundayResumeHour       int `envconfig:"SUNDAY_RESUME_HOUR" default:"22"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
