package position

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Level is one scale-out step: close Portion of the original size once the
// price reaches Target (convention units above the average entry).
type Level struct {
	Portion float64
	Target  float64
}

// Levels decodes from env as "portion:target,portion:target".
type Levels []Level

func (l *Levels) Decode(value string) error {
	parsed := Levels{}
	for _, part := range strings.Split(value, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 2 {
			return fmt.Errorf("invalid scale level %q, want portion:target", part)
		}
		portion, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("invalid scale level portion %q: %w", fields[0], err)
		}
		target, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("invalid scale level target %q: %w", fields[1], err)
		}
		parsed = append(parsed, Level{Portion: portion, Target: target})
	}
	*l = parsed
	return nil
}

type Config struct {
	ATRStopMult   float64       `envconfig:"ATR_STOP_MULT" default:"1.5"`
	MaxStopPct    float64       `envconfig:"MAX_STOP_PCT" default:"3.0"`
	FeeBufferPct  float64       `envconfig:"FEE_BUFFER_PCT" default:"0.1"`
	TrailPct      float64       `envconfig:"TRAIL_PCT" default:"1.0"`
	TrailInterval time.Duration `envconfig:"TRAIL_INTERVAL" default:"5m"`
	MaxHold       time.Duration `envconfig:"MAX_HOLD" default:"2h"`
	DCATriggerPct float64       `envconfig:"DCA_TRIGGER_PCT" default:"1.0"`
	DCARatio      float64       `envconfig:"DCA_RATIO" default:"0.5"`
	ScaleLevels   Levels        `envconfig:"SCALE_LEVELS" default:"0.5:2.5,0.5:4.0"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
