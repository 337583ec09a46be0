package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// ----- session labels -----

type Session string

const (
	SessionAsian    Session = "asian_session"
	SessionLondon   Session = "london_session"
	SessionOverlap  Session = "overlap_session"
	SessionNewYork  Session = "newyork_session"
	SessionOffHours Session = "off_hours"
)

// ----- config for multipliers -----

type SessionSizeConfig struct {
	AsianMultiplier    decimal.Decimal
	LondonMultiplier   decimal.Decimal
	OverlapMultiplier  decimal.Decimal
	NewYorkMultiplier  decimal.Decimal
	OffHoursMultiplier decimal.Decimal

	MinMultiplier decimal.Decimal
	MaxMultiplier decimal.Decimal
}

// DefaultSessionSizeConfig sizes up the quiet Asian hours and down the
// volatile London/NY overlap. Off hours (22:00-00:00 UTC) carry their own
// multiplier, defaulting to the Asian value.
func DefaultSessionSizeConfig() SessionSizeConfig {
	return SessionSizeConfig{
		AsianMultiplier:    decimal.NewFromFloat(1.5),
		LondonMultiplier:   decimal.NewFromFloat(1.0),
		OverlapMultiplier:  decimal.NewFromFloat(0.7),
		NewYorkMultiplier:  decimal.NewFromFloat(0.8),
		OffHoursMultiplier: decimal.NewFromFloat(1.5),
		MinMultiplier:      decimal.NewFromFloat(0.5),
		MaxMultiplier:      decimal.NewFromFloat(2.0),
	}
}

// SessionSizeConfigFrom builds the decimal session table from the flat env
// config.
func SessionSizeConfigFrom(cfg Config) SessionSizeConfig {
	c := DefaultSessionSizeConfig()
	c.AsianMultiplier = decimal.NewFromFloat(cfg.AsianMultiplier)
	c.LondonMultiplier = decimal.NewFromFloat(cfg.LondonMultiplier)
	c.OverlapMultiplier = decimal.NewFromFloat(cfg.OverlapMultiplier)
	c.NewYorkMultiplier = decimal.NewFromFloat(cfg.NewYorkMultiplier)
	c.OffHoursMultiplier = decimal.NewFromFloat(cfg.OffHoursMultiplier)
	return c
}

// ----- public API -----

// CalculateSizeBySession scales a nominal size by the multiplier of the
// current UTC trading session. The result is clamped to the configured
// multiplier band so stacked adjustments cannot run away.
func CalculateSizeBySession(
	baseSize decimal.Decimal,
	now time.Time,
	cfg SessionSizeConfig,
) (decimal.Decimal, Session) {
	sess := DetectSession(now)

	if baseSize.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, sess
	}

	mult := sizeMultiplierForSession(sess, cfg)
	if mult.LessThan(cfg.MinMultiplier) {
		mult = cfg.MinMultiplier
	}
	if mult.GreaterThan(cfg.MaxMultiplier) {
		mult = cfg.MaxMultiplier
	}

	return baseSize.Mul(mult), sess
}

// DetectSession classifies the UTC hour. Sessions overlap on the clock, so
// the checks run in priority order: the London/NY overlap wins over either
// parent session, London wins over the tail of the Asian session.
func DetectSession(now time.Time) Session {
	h := now.UTC().Hour()

	switch {
	case h >= 13 && h < 17:
		return SessionOverlap
	case h >= 8 && h < 13:
		return SessionLondon
	case h >= 17 && h < 22:
		return SessionNewYork
	case h < 9:
		return SessionAsian
	default:
		return SessionOffHours
	}
}

func sizeMultiplierForSession(s Session, cfg SessionSizeConfig) decimal.Decimal {
	switch s {
	case SessionAsian:
		return cfg.AsianMultiplier
	case SessionLondon:
		return cfg.LondonMultiplier
	case SessionOverlap:
		return cfg.OverlapMultiplier
	case SessionNewYork:
		return cfg.NewYorkMultiplier
	default:
		return cfg.OffHoursMultiplier
	}
}
