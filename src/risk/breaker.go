package risk

import (
	"context"
	"fmt"
	"time"

	"reversionbot/src/model"
	"reversionbot/src/utils"

	logger "github.com/sirupsen/logrus"
)

// CounterStore persists the daily risk counters so a restart cannot clear
// an active pause or the day's loss tally.
type CounterStore interface {
	LoadDay(ctx context.Context, day string) (*model.RiskCounter, error)
	// LoadLatest returns the most recent persisted day, or nil when the
	// store is empty.
	LoadLatest(ctx context.Context) (*model.RiskCounter, error)
	Save(ctx context.Context, counter *model.RiskCounter) error
}

// CircuitBreaker halts trading for the rest of the UTC day once the daily
// loss limit is hit, and pauses for a configured duration after too many
// consecutive losses. Counters roll over at the UTC day boundary.
type CircuitBreaker struct {
	cfg     Config
	store   CounterStore
	logger  *logger.Entry
	counter *model.RiskCounter
}

func NewCircuitBreaker(cfg Config, store CounterStore, log *logger.Entry) *CircuitBreaker {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &CircuitBreaker{cfg: cfg, store: store, logger: log}
}

// Roll loads or creates the counter row for the current UTC day. An active
// pause carries over the day boundary; everything else resets.
func (b *CircuitBreaker) Roll(ctx context.Context, now time.Time) error {
	day := utils.DayKey(now)
	if b.counter != nil && b.counter.Day == day {
		return nil
	}

	loaded, err := b.store.LoadDay(ctx, day)
	if err != nil {
		return fmt.Errorf("load risk counters for %s: %w", day, err)
	}
	if loaded != nil {
		b.counter = loaded
		return nil
	}

	// carry an active pause into the fresh day. After a restart the
	// previous day's counters only exist on disk, so fall back to the
	// newest persisted row.
	prev := b.counter
	if prev == nil {
		prev, err = b.store.LoadLatest(ctx)
		if err != nil {
			return fmt.Errorf("load latest risk counters: %w", err)
		}
	}

	fresh := &model.RiskCounter{Day: day}
	if prev != nil && prev.PausedUntil != nil && prev.PausedUntil.After(now) {
		fresh.PausedUntil = prev.PausedUntil
		fresh.ConsecutiveLosses = prev.ConsecutiveLosses
	}
	b.counter = fresh

	return b.store.Save(ctx, b.counter)
}

// CanTrade reports whether new entries are allowed right now. The returned
// reason is empty when trading is allowed.
func (b *CircuitBreaker) CanTrade(now time.Time) (bool, string) {
	if b.counter == nil {
		return false, "risk counters not initialized"
	}

	if b.counter.PausedUntil != nil && b.counter.PausedUntil.After(now) {
		return false, fmt.Sprintf("paused until %s after consecutive losses", b.counter.PausedUntil.UTC().Format(time.RFC3339))
	}

	if b.counter.RealizedPnl <= -b.cfg.DailyLossLimit {
		return false, fmt.Sprintf("daily loss limit reached (%.2f)", b.counter.RealizedPnl)
	}

	return true, ""
}

// RecordTrade updates the day counters with one realized result and trips
// the pause once the consecutive loss limit is reached.
func (b *CircuitBreaker) RecordTrade(ctx context.Context, now time.Time, pnl float64) error {
	if err := b.Roll(ctx, now); err != nil {
		return err
	}

	b.counter.Trades++
	b.counter.RealizedPnl += pnl

	if pnl > 0 {
		b.counter.Wins++
		b.counter.ConsecutiveLosses = 0
	} else {
		b.counter.Losses++
		b.counter.ConsecutiveLosses++

		if b.counter.ConsecutiveLosses >= b.cfg.MaxConsecutiveLosses {
			pausedUntil := now.Add(b.cfg.PauseDuration)
			b.counter.PausedUntil = &pausedUntil

			b.logger.WithFields(logger.Fields{
				"consecutive_losses": b.counter.ConsecutiveLosses,
				"paused_until":       pausedUntil.UTC(),
			}).Warn("circuit breaker tripped")
		}
	}

	return b.store.Save(ctx, b.counter)
}

// Counter exposes the current day's counters for the status API.
func (b *CircuitBreaker) Counter() *model.RiskCounter {
	return b.counter
}
