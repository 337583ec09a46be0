package position

import (
	"errors"
	"math"
	"time"

	"reversionbot/src/model"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrPositionClosed = errors.New("position already closed")
	ErrDCAAlreadyDone = errors.New("dca already executed for this position")
	ErrDCAAfterScale  = errors.New("dca not allowed after a scale-out fill")
	ErrInvalidSize    = errors.New("position size must be positive")
	ErrInvalidEntry   = errors.New("entry price must be positive")
)

// Position is the in-memory lifecycle state of one long position. The
// persisted model.Position row is a projection of this.
type Position struct {
	ID           string
	Symbol       string
	Status       string
	AvgEntry     float64
	Size         float64
	OriginalSize float64
	Stop         float64
	Highest      float64
	Breakeven    bool
	DCADone      bool
	LevelsHit    []bool
	Targets      []float64
	RealizedPnl  float64
	OpenedAt     time.Time
	ClosedAt     *time.Time
	CloseReason  string
	LastTrail    time.Time
}

// Event is one fill produced by the state machine. The driver turns events
// into trades and capital movements.
type Event struct {
	Kind   string
	Price  float64
	Size   float64
	Pnl    float64
	Reason string
	At     time.Time
}

// Machine applies the position lifecycle rules. It is pure state
// manipulation: no I/O, no clocks, everything derives from the candles fed
// to it, so backtest and live runs take identical decisions.
type Machine struct {
	cfg    Config
	conv   UnitConvention
	logger *logger.Entry
}

func NewMachine(cfg Config, conv UnitConvention, log *logger.Entry) *Machine {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Machine{cfg: cfg, conv: conv, logger: log}
}

// InitialStop places the stop ATR-distance below entry, never further than
// the MaxStopPct cap. With no usable ATR the cap is the stop.
func (m *Machine) InitialStop(entry, atr float64) float64 {
	capped := m.conv.LossPrice(entry, m.cfg.MaxStopPct)
	if atr <= 0 {
		return capped
	}
	return math.Max(entry-atr*m.cfg.ATRStopMult, capped)
}

// Open creates a new open position with its stop and scale-out targets.
func (m *Machine) Open(symbol string, now time.Time, entry, size, atr float64) (*Position, error) {
	if entry <= 0 {
		return nil, ErrInvalidEntry
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	p := &Position{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Status:       model.PositionStatusOpen,
		AvgEntry:     entry,
		Size:         size,
		OriginalSize: size,
		Stop:         m.InitialStop(entry, atr),
		Highest:      entry,
		LevelsHit:    make([]bool, len(m.cfg.ScaleLevels)),
		OpenedAt:     now,
	}
	p.Targets = m.targets(entry)

	m.logger.WithFields(logger.Fields{
		"symbol": symbol,
		"entry":  entry,
		"size":   size,
		"stop":   p.Stop,
	}).Info("position opened")

	return p, nil
}

func (m *Machine) targets(entry float64) []float64 {
	targets := make([]float64, len(m.cfg.ScaleLevels))
	for i, lvl := range m.cfg.ScaleLevels {
		targets[i] = m.conv.ProfitPrice(entry, lvl.Target)
	}
	return targets
}

// ShouldDCA reports whether the one-shot averaging add is due.
func (m *Machine) ShouldDCA(p *Position, price float64) bool {
	return p.Status == model.PositionStatusOpen &&
		!p.DCADone &&
		price <= m.conv.LossPrice(p.AvgEntry, m.cfg.DCATriggerPct)
}

// ApplyDCA executes the single averaging add: the entry becomes the
// size-weighted average and the scale-out targets move with it. The stop
// stays where it is; stops never loosen.
func (m *Machine) ApplyDCA(p *Position, now time.Time, price, addSize float64) (Event, error) {
	switch {
	case p.Status == model.PositionStatusClosed:
		return Event{}, ErrPositionClosed
	case p.DCADone:
		return Event{}, ErrDCAAlreadyDone
	case p.Status == model.PositionStatusPartial:
		return Event{}, ErrDCAAfterScale
	case addSize <= 0:
		return Event{}, ErrInvalidSize
	}

	total := p.Size + addSize
	p.AvgEntry = (p.AvgEntry*p.Size + price*addSize) / total
	p.Size = total
	p.OriginalSize = total
	p.DCADone = true
	p.Targets = m.targets(p.AvgEntry)

	m.logger.WithFields(logger.Fields{
		"symbol":    p.Symbol,
		"avg_entry": p.AvgEntry,
		"size":      p.Size,
	}).Info("dca executed")

	return Event{Kind: model.TradeKindDCA, Price: price, Size: addSize, At: now}, nil
}

// ApplyObservation advances the position by one closed candle. Exit checks
// run in a fixed order: stop first, then at most one scale-out level, then
// stop maintenance, then the unconditional time exit.
func (m *Machine) ApplyObservation(p *Position, bar model.Bar) ([]Event, error) {
	if p.Status == model.PositionStatusClosed {
		return nil, ErrPositionClosed
	}

	price := bar.Close
	now := bar.Datetime
	p.Highest = math.Max(p.Highest, price)

	if price <= p.Stop {
		return []Event{m.close(p, now, price, m.stopReason(p))}, nil
	}

	var events []Event
	for i, lvl := range m.cfg.ScaleLevels {
		if p.LevelsHit[i] || price < p.Targets[i] {
			continue
		}

		p.LevelsHit[i] = true
		closeSize := p.OriginalSize * lvl.Portion

		if i == len(m.cfg.ScaleLevels)-1 || closeSize >= p.Size {
			events = append(events, m.close(p, now, price, model.CloseReasonTarget))
			return events, nil
		}

		pnl := m.conv.PnL(p.AvgEntry, price, closeSize)
		p.Size -= closeSize
		p.RealizedPnl += pnl
		p.Status = model.PositionStatusPartial
		m.armBreakeven(p)

		events = append(events, Event{
			Kind:  model.TradeKindScale,
			Price: price,
			Size:  closeSize,
			Pnl:   pnl,
			At:    now,
		})
		// one level per observation
		break
	}

	m.maintainStop(p, now)

	if now.Sub(p.OpenedAt) >= m.cfg.MaxHold {
		events = append(events, m.close(p, now, price, model.CloseReasonTimeExit))
	}

	return events, nil
}

// stopReason names the floor that actually triggered: the original stop
// before the first scale-out, the breakeven floor after it, and the
// trailing stop once trailing has lifted the stop above that floor.
func (m *Machine) stopReason(p *Position) string {
	if !p.Breakeven {
		return model.CloseReasonStopLoss
	}
	if p.Stop > m.breakevenFloor(p) {
		return model.CloseReasonTrailing
	}
	return model.CloseReasonBreakeven
}

// armBreakeven lifts the stop to entry plus the fee buffer after the first
// scale-out. The stop only ever moves up.
func (m *Machine) armBreakeven(p *Position) {
	if p.Breakeven {
		return
	}
	p.Breakeven = true
	p.Stop = math.Max(p.Stop, m.breakevenFloor(p))
}

func (m *Machine) breakevenFloor(p *Position) float64 {
	return m.conv.ProfitPrice(p.AvgEntry, m.cfg.FeeBufferPct)
}

// maintainStop recomputes the trailing stop, at most once per interval.
func (m *Machine) maintainStop(p *Position, now time.Time) {
	if !p.Breakeven || p.Status == model.PositionStatusClosed {
		return
	}
	if !p.LastTrail.IsZero() && now.Sub(p.LastTrail) < m.cfg.TrailInterval {
		return
	}

	candidate := p.Highest * (1 - m.cfg.TrailPct/100)
	p.Stop = math.Max(p.Stop, math.Max(m.breakevenFloor(p), candidate))
	p.LastTrail = now
}

// ForceClose closes the position at the given price regardless of targets,
// used for weekend protection and operator intervention.
func (m *Machine) ForceClose(p *Position, now time.Time, price float64, reason string) (Event, error) {
	if p.Status == model.PositionStatusClosed {
		return Event{}, ErrPositionClosed
	}
	return m.close(p, now, price, reason), nil
}

func (m *Machine) close(p *Position, now time.Time, price float64, reason string) Event {
	size := p.Size
	pnl := m.conv.PnL(p.AvgEntry, price, size)

	p.Size = 0
	p.RealizedPnl += pnl
	p.Status = model.PositionStatusClosed
	p.CloseReason = reason
	closedAt := now
	p.ClosedAt = &closedAt

	m.logger.WithFields(logger.Fields{
		"symbol": p.Symbol,
		"price":  price,
		"pnl":    pnl,
		"reason": reason,
	}).Info("position closed")

	return Event{
		Kind:   model.TradeKindClose,
		Price:  price,
		Size:   size,
		Pnl:    pnl,
		Reason: reason,
		At:     now,
	}
}

// Targets recomputes the scale-out target prices for an average entry,
// used when restoring a persisted position.
func (m *Machine) Targets(entry float64) []float64 {
	return m.targets(entry)
}

// LevelCount is the number of configured scale-out levels.
func (m *Machine) LevelCount() int {
	return len(m.cfg.ScaleLevels)
}

// DCASize is the size of the averaging add given the original entry size.
func (m *Machine) DCASize(p *Position) float64 {
	return p.OriginalSize * m.cfg.DCARatio
}
