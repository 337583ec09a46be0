package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// Decision is the gate's verdict for one entry attempt. SizeMultiplier is
// only meaningful when Allowed is true.
type Decision struct {
	Allowed        bool
	Reason         string
	Session        Session
	SizeMultiplier float64
}

// Gate runs every pre-entry risk check in a fixed order: circuit breaker,
// weekend window, then correlation. The first failure wins and is returned
// as the reason. The session multiplier is an adjustment, not a block.
type Gate struct {
	cfg      Config
	breaker  *CircuitBreaker
	weekend  WeekendWindow
	sessions SessionSizeConfig
	corr     *CorrelationMonitor
	logger   *logger.Entry
}

func NewGate(cfg Config, breaker *CircuitBreaker, corr *CorrelationMonitor, log *logger.Entry) *Gate {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Gate{
		cfg:      cfg,
		breaker:  breaker,
		weekend:  NewWeekendWindow(cfg),
		sessions: SessionSizeConfigFrom(cfg),
		corr:     corr,
		logger:   log,
	}
}

func (g *Gate) Breaker() *CircuitBreaker         { return g.breaker }
func (g *Gate) Correlation() *CorrelationMonitor { return g.corr }
func (g *Gate) Weekend() WeekendWindow           { return g.weekend }

// CheckEntry gates one entry attempt for symbol given the currently open
// instruments.
func (g *Gate) CheckEntry(ctx context.Context, now time.Time, symbol string, openSymbols []string) Decision {
	d := Decision{Session: DetectSession(now)}

	if err := g.breaker.Roll(ctx, now); err != nil {
		d.Reason = fmt.Sprintf("risk counters unavailable: %v", err)
		return g.logged(symbol, d)
	}
	if ok, reason := g.breaker.CanTrade(now); !ok {
		d.Reason = reason
		return g.logged(symbol, d)
	}

	if !g.weekend.EntryAllowed(now) {
		d.Reason = "weekend window: entries blocked"
		return g.logged(symbol, d)
	}

	if other, rho, blocked := g.corr.BlockedBy(symbol, openSymbols, g.cfg.CorrThreshold); blocked {
		d.Reason = fmt.Sprintf("correlated with open position %s (%.2f)", other, rho)
		return g.logged(symbol, d)
	}

	mult, sess := CalculateSizeBySession(decimal.NewFromInt(1), now, g.sessions)
	d.Allowed = true
	d.Session = sess
	d.SizeMultiplier = mult.InexactFloat64()
	return d
}

func (g *Gate) logged(symbol string, d Decision) Decision {
	g.logger.WithFields(logger.Fields{
		"symbol":  symbol,
		"session": d.Session,
		"reason":  d.Reason,
	}).Info("entry rejected by risk gate")
	return d
}
