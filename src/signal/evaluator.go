package signal

import (
	"fmt"

	"reversionbot/src/indicators"
	"reversionbot/src/position"

	"github.com/sirupsen/logrus"
)

type Signal struct {
	Valid      bool
	Confidence int
	Reasons    []string
	BBPosition string
	RSI        float64
}

type Evaluator struct {
	cfg    Config
	conv   position.UnitConvention
	logger *logrus.Entry
}

// NewEvaluator builds the entry filter. The unit convention decides whether
// the band tolerance and width thresholds are read in percent or in pips; a
// nil convention means percent.
func NewEvaluator(cfg Config, conv position.UnitConvention, log *logrus.Entry) *Evaluator {
	if conv == nil {
		conv = position.Percent{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Evaluator{cfg: cfg, conv: conv, logger: log}
}

// Evaluate checks every entry condition against the snapshot. All conditions
// are evaluated even after one fails so the returned reasons list the full
// picture for the rejected observation.
func (e *Evaluator) Evaluate(s indicators.Snapshot) Signal {
	sig := Signal{RSI: s.RSI}

	if !s.BandsReady {
		sig.Reasons = append(sig.Reasons, "indicators not ready")
		return sig
	}

	price := s.Bar.Close
	tolerance := e.tolerance(s.Bands)
	sig.BBPosition = bbPosition(price, s.Bands, tolerance)

	atBand := price <= s.Bands.Lower+tolerance
	if !atBand {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("price not at lower band (price=%.6f lower=%.6f)", price, s.Bands.Lower))
	}

	rsiOK := s.RSI >= e.cfg.RSIEntryMin && s.RSI <= e.cfg.RSIEntryMax
	if !rsiOK {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("rsi out of range (%.1f, need %.0f-%.0f)", s.RSI, e.cfg.RSIEntryMin, e.cfg.RSIEntryMax))
	}

	widthOK := e.bandWidth(s.Bands) >= e.minBandWidth()
	if !widthOK {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("bands too narrow (%.2f, need %.2f)", e.bandWidth(s.Bands), e.minBandWidth()))
	}

	// freefall guard: do not catch a price crashing through its recent floor
	lowOK := s.RecentLow == 0 || price > s.RecentLow*(1-e.cfg.RecentLowGuardPct/100)
	if !lowOK {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("price below recent low guard (price=%.6f low=%.6f)", price, s.RecentLow))
	}

	volumeOK := s.VolumeRatio >= e.cfg.VolumeFactor
	if !volumeOK {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("volume ratio too weak (%.2f, need %.2f)", s.VolumeRatio, e.cfg.VolumeFactor))
	}

	htfOK := !s.HTFReady || s.HTFRSI < e.cfg.HTFRSIMax
	if !htfOK {
		sig.Reasons = append(sig.Reasons,
			fmt.Sprintf("higher timeframe rsi too strong (%.1f)", s.HTFRSI))
	}

	regimeOK := s.RegimeReady && s.Regime == indicators.RegimeRanging
	if !regimeOK {
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("regime is %s", s.Regime))
	}

	sig.Valid = atBand && rsiOK && widthOK && lowOK && volumeOK && htfOK && regimeOK
	sig.Confidence = e.confidence(s, volumeOK)

	if sig.Valid {
		e.logger.WithFields(logrus.Fields{
			"symbol":     s.Bar.Symbol,
			"price":      price,
			"rsi":        s.RSI,
			"confidence": sig.Confidence,
		}).Info("entry signal valid")
	}

	return sig
}

func (e *Evaluator) confidence(s indicators.Snapshot, volumeOK bool) int {
	confidence := 50

	switch {
	case s.RSI < 25:
		confidence += 20
	case s.RSI < 35:
		confidence += 10
	}

	if volumeOK {
		confidence += 15
	}

	if e.bandWidth(s.Bands) >= 2*e.minBandWidth() {
		confidence += 10
	}

	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// tolerance is the distance above the lower band still counting as a touch:
// a fixed pip count for pip-quoted instruments, a fraction of the band for
// percent-quoted ones.
func (e *Evaluator) tolerance(b indicators.Bands) float64 {
	if pip, ok := e.conv.(position.Pip); ok {
		return e.cfg.BandTolerancePips * pip.Size
	}
	return b.Lower * e.cfg.BandTolerancePct / 100
}

// bandWidth measures the band spread in the instrument's native unit.
func (e *Evaluator) bandWidth(b indicators.Bands) float64 {
	if pip, ok := e.conv.(position.Pip); ok && pip.Size > 0 {
		return (b.Upper - b.Lower) / pip.Size
	}
	return b.WidthPct
}

func (e *Evaluator) minBandWidth() float64 {
	if _, ok := e.conv.(position.Pip); ok {
		return e.cfg.MinBandWidthPips
	}
	return e.cfg.MinBandWidthPct
}

func bbPosition(price float64, b indicators.Bands, tolerance float64) string {
	switch {
	case price <= b.Lower:
		return "below_lower"
	case price <= b.Lower+tolerance:
		return "at_lower"
	case price <= b.Middle:
		return "lower_half"
	case price <= b.Upper:
		return "upper_half"
	default:
		return "above_upper"
	}
}
