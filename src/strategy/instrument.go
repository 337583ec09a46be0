package strategy

import (
	"time"

	"github.com/sirupsen/logrus"

	"reversionbot/src/indicators"
	"reversionbot/src/model"
	"reversionbot/src/position"
	"reversionbot/src/signal"
)

// Instrument bundles everything one symbol needs to trade: its indicator
// state, the entry evaluator and the position machine, plus the currently
// open position if any.
type Instrument struct {
	Symbol string

	engine    *indicators.Engine
	evaluator *signal.Evaluator
	machine   *position.Machine
	open      *position.Position

	logger *logrus.Entry
	now    func() time.Time
}

type InstrumentConfig struct {
	Indicators indicators.Config
	Signal     signal.Config
	Position   position.Config
	Convention position.UnitConvention
}

func NewInstrument(symbol string, cfg InstrumentConfig, logger *logrus.Entry) *Instrument {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("symbol", symbol)

	return &Instrument{
		Symbol:    symbol,
		engine:    indicators.NewEngine(cfg.Indicators),
		evaluator: signal.NewEvaluator(cfg.Signal, cfg.Convention, logger),
		machine:   position.NewMachine(cfg.Position, cfg.Convention, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Observe folds one closed candle into the indicator state and returns the
// resulting snapshot.
func (i *Instrument) Observe(bar model.Bar) indicators.Snapshot {
	i.engine.Update(bar)
	s, _ := i.engine.Snapshot() // never empty right after an update
	return s
}

// Evaluate runs the entry conditions against a snapshot.
func (i *Instrument) Evaluate(s indicators.Snapshot) signal.Signal {
	return i.evaluator.Evaluate(s)
}

func (i *Instrument) HasOpen() bool {
	return i.open != nil && i.open.Status != model.PositionStatusClosed
}

func (i *Instrument) Open() *position.Position {
	return i.open
}

// PlannedStop is where the initial stop would sit for an entry at this
// price, needed for sizing before the position exists.
func (i *Instrument) PlannedStop(entry, atr float64) float64 {
	return i.machine.InitialStop(entry, atr)
}

// OpenPosition records a fresh entry fill as the instrument's open position.
func (i *Instrument) OpenPosition(now time.Time, entry, size, atr float64) (*position.Position, error) {
	p, err := i.machine.Open(i.Symbol, now, entry, size, atr)
	if err != nil {
		return nil, err
	}
	i.open = p
	return p, nil
}

// AdoptPosition restores a persisted position after a restart.
func (i *Instrument) AdoptPosition(p *position.Position) {
	i.open = p
}

// Targets recomputes scale-out targets for a restored average entry.
func (i *Instrument) Targets(entry float64) []float64 {
	return i.machine.Targets(entry)
}

// LevelCount is the number of configured scale-out levels.
func (i *Instrument) LevelCount() int {
	return i.machine.LevelCount()
}

// Manage advances the open position by one candle and returns the fills the
// machine decided on. A closed position is detached from the instrument.
func (i *Instrument) Manage(bar model.Bar) ([]position.Event, error) {
	if !i.HasOpen() {
		return nil, nil
	}

	events, err := i.machine.ApplyObservation(i.open, bar)
	if err != nil {
		return nil, err
	}

	if i.open.Status == model.PositionStatusClosed {
		i.open = nil
	}
	return events, nil
}

// ShouldDCA reports whether the averaging add is due at this price.
func (i *Instrument) ShouldDCA(price float64) bool {
	return i.HasOpen() && i.machine.ShouldDCA(i.open, price)
}

func (i *Instrument) DCASize() float64 {
	if !i.HasOpen() {
		return 0
	}
	return i.machine.DCASize(i.open)
}

func (i *Instrument) ApplyDCA(now time.Time, price, addSize float64) (position.Event, error) {
	return i.machine.ApplyDCA(i.open, now, price, addSize)
}

// ForceClose flattens the open position, for weekend protection and
// operator intervention.
func (i *Instrument) ForceClose(now time.Time, price float64, reason string) (position.Event, error) {
	if !i.HasOpen() {
		return position.Event{}, position.ErrPositionClosed
	}

	event, err := i.machine.ForceClose(i.open, now, price, reason)
	if err != nil {
		return position.Event{}, err
	}
	i.open = nil
	return event, nil
}
