package executors

import (
	"context"
	"fmt"
	"time"

	"reversionbot/src/connectors"
	"reversionbot/src/indicators"
	"reversionbot/src/model"
	"reversionbot/src/portfolio"
	"reversionbot/src/position"
	"reversionbot/src/repository"
	"reversionbot/src/risk"
	"reversionbot/src/strategy"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

// Deps wires the driver. Repositories may be nil, in which case nothing is
// persisted; the backtest report still works from in-memory state.
type Deps struct {
	Config      Config
	Convention  position.UnitConvention
	Instruments []*strategy.Instrument
	Allocator   *portfolio.Allocator
	Sizer       *portfolio.Sizer
	Gate        *risk.Gate
	Exec        connectors.ExecutionClient
	Positions   *repository.PositionRepository
	Trades      *repository.TradeRepository
	Equity      *repository.EquityRepository
	Logger      *logger.Entry
}

// Driver advances the whole system by one closed candle at a time. Every
// decision derives from the candle and persisted state only, so replaying
// the same candles always produces the same trades.
type Driver struct {
	cfg  Config
	conv position.UnitConvention

	instruments map[string]*strategy.Instrument
	symbols     []string

	allocator *portfolio.Allocator
	sizer     *portfolio.Sizer
	gate      *risk.Gate
	exec      connectors.ExecutionClient

	positions *repository.PositionRepository
	trades    *repository.TradeRepository
	equity    *repository.EquityRepository

	lastPrice    map[string]float64
	observations int
	entries      int
	closes       int

	logger *logger.Entry
}

func NewDriver(deps Deps) *Driver {
	log := deps.Logger
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	instruments := make(map[string]*strategy.Instrument, len(deps.Instruments))
	symbols := make([]string, 0, len(deps.Instruments))
	for _, inst := range deps.Instruments {
		instruments[inst.Symbol] = inst
		symbols = append(symbols, inst.Symbol)
	}

	return &Driver{
		cfg:         deps.Config,
		conv:        deps.Convention,
		instruments: instruments,
		symbols:     symbols,
		allocator:   deps.Allocator,
		sizer:       deps.Sizer,
		gate:        deps.Gate,
		exec:        deps.Exec,
		positions:   deps.Positions,
		trades:      deps.Trades,
		equity:      deps.Equity,
		lastPrice:   map[string]float64{},
		logger:      log,
	}
}

// ProcessObservation folds one closed candle into the system: indicators
// first, then open-position management, then entries, then the equity
// sample. Exits always run before entries.
func (d *Driver) ProcessObservation(ctx context.Context, bar model.Bar) error {
	inst, snap, ok := d.observe(bar)
	if !ok {
		return nil
	}

	if err := d.gate.Breaker().Roll(ctx, bar.Datetime); err != nil {
		return err
	}

	if inst.HasOpen() {
		if err := d.manageOpen(ctx, inst, bar); err != nil {
			return err
		}
	} else if err := d.tryEnter(ctx, inst, bar, snap); err != nil {
		return err
	}

	d.observations++
	if d.cfg.EquityEvery > 0 && d.observations%d.cfg.EquityEvery == 0 {
		d.recordEquity(ctx, bar.Datetime)
	}
	return nil
}

// observe folds one candle into indicator, correlation and volatility
// state. It takes no trading decision.
func (d *Driver) observe(bar model.Bar) (*strategy.Instrument, indicators.Snapshot, bool) {
	inst, ok := d.instruments[bar.Symbol]
	if !ok {
		return nil, indicators.Snapshot{}, false
	}

	snap := inst.Observe(bar)
	d.lastPrice[bar.Symbol] = bar.Close
	d.gate.Correlation().Update(bar.Symbol, bar.Close)
	if snap.ATR > 0 {
		d.sizer.RecordVolatility(bar.Symbol, snap.ATR)
	}
	return inst, snap, true
}

// Warm replays one historical candle through the indicator state, used to
// prime the engines before the live stream starts.
func (d *Driver) Warm(bar model.Bar) {
	d.observe(bar)
}

func (d *Driver) manageOpen(ctx context.Context, inst *strategy.Instrument, bar model.Bar) error {
	now := bar.Datetime
	p := inst.Open()

	if d.gate.Weekend().ShouldClosePositions(now) {
		fill, err := d.exec.MarketSell(ctx, p.Symbol, p.Size, bar.Close)
		if err != nil {
			return fmt.Errorf("weekend close for %s: %w", p.Symbol, err)
		}

		event, err := inst.ForceClose(now, fill.Price, model.CloseReasonWeekend)
		if err != nil {
			return err
		}
		return d.settle(ctx, p, event, *fill)
	}

	events, err := inst.Manage(bar)
	if err != nil {
		return err
	}

	for _, event := range events {
		fill, err := d.exec.MarketSell(ctx, p.Symbol, event.Size, event.Price)
		if err != nil {
			return fmt.Errorf("exit for %s: %w", p.Symbol, err)
		}
		if err := d.settle(ctx, p, event, *fill); err != nil {
			return err
		}
	}

	if inst.HasOpen() {
		if err := d.tryDCA(ctx, inst, bar); err != nil {
			return err
		}
		if err := d.savePosition(ctx, inst.Open()); err != nil {
			return err
		}
	}
	return nil
}

// settle books one exit event: capital and fee back through the ledger,
// trade row, and for final closes the risk and breaker bookkeeping.
func (d *Driver) settle(ctx context.Context, p *position.Position, event position.Event, fill connectors.Fill) error {
	switch event.Kind {
	case model.TradeKindScale:
		released := event.Size * d.conv.UnitValue()
		if err := d.allocator.ReleasePartial(p.Symbol, released, event.Pnl); err != nil {
			return err
		}

	case model.TradeKindClose:
		if err := d.allocator.Release(p.Symbol, event.Pnl); err != nil {
			return err
		}
		d.sizer.ReleaseRisk(p.Symbol)
		d.sizer.RecordTrade(p.RealizedPnl)
		if err := d.gate.Breaker().RecordTrade(ctx, event.At, p.RealizedPnl); err != nil {
			return err
		}
		d.closes++
	}

	if err := d.allocator.ChargeFee(fill.Fee); err != nil {
		return err
	}

	if err := d.saveTrade(ctx, p, model.TradeSideSell, event.Kind, event.Price, event.Size, event.Pnl, fill.Fee, event.Reason, event.At, fill.OrderID); err != nil {
		return err
	}
	return d.savePosition(ctx, p)
}

func (d *Driver) tryDCA(ctx context.Context, inst *strategy.Instrument, bar model.Bar) error {
	if !inst.ShouldDCA(bar.Close) {
		return nil
	}

	// the same float tolerance the ledger uses, so an add that exactly
	// consumes the remaining capital is not lost to rounding
	const capitalDust = 1e-6

	addSize := inst.DCASize()
	committed := addSize * d.conv.UnitValue()
	if addSize <= 0 || committed > d.allocator.Available()+capitalDust {
		d.logger.WithField("symbol", bar.Symbol).Info("dca skipped, insufficient capital")
		return nil
	}

	fill, err := d.exec.MarketBuy(ctx, bar.Symbol, addSize, bar.Close)
	if err != nil {
		d.logger.WithError(err).Warn("dca order failed")
		return nil
	}

	event, err := inst.ApplyDCA(bar.Datetime, fill.Price, addSize)
	if err != nil {
		return err
	}
	if err := d.allocator.ReserveAdd(bar.Symbol, committed); err != nil {
		return err
	}
	if err := d.allocator.ChargeFee(fill.Fee); err != nil {
		return err
	}

	p := inst.Open()
	return d.saveTrade(ctx, p, model.TradeSideBuy, event.Kind, event.Price, event.Size, 0, fill.Fee, "", event.At, fill.OrderID)
}

func (d *Driver) tryEnter(ctx context.Context, inst *strategy.Instrument, bar model.Bar, snap indicators.Snapshot) error {
	now := bar.Datetime

	decision := d.gate.CheckEntry(ctx, now, bar.Symbol, d.openSymbols())
	if !decision.Allowed {
		return nil
	}

	sig := inst.Evaluate(snap)
	if !sig.Valid {
		return nil
	}

	if ok, reason := d.allocator.CanOpen(bar.Symbol); !ok {
		d.logger.WithFields(logger.Fields{
			"symbol": bar.Symbol,
			"reason": reason,
		}).Info("entry blocked by allocator")
		return nil
	}

	capital := d.allocator.AllocationFor(bar.Symbol)
	entry := bar.Close
	stop := inst.PlannedStop(entry, snap.ATR)

	res := d.sizer.Size(bar.Symbol, capital, d.allocator.TotalEquity(), entry, stop, snap.ATR, d.conv)
	size := res.Size * decision.SizeMultiplier
	riskAmount := res.RiskAmount * decision.SizeMultiplier
	if size <= 0 {
		if res.HeatCapped {
			d.logger.WithField("symbol", bar.Symbol).Info("entry skipped, heat budget exhausted")
		}
		return nil
	}

	// the instrument allocation is a hard ceiling on committed capital
	committed := size * d.conv.UnitValue()
	if committed > capital {
		scale := capital / committed
		size *= scale
		riskAmount *= scale
		committed = capital
	}

	fill, err := d.exec.MarketBuy(ctx, bar.Symbol, size, entry)
	if err != nil {
		d.logger.WithError(err).Warn("entry order failed")
		return nil
	}

	p, err := inst.OpenPosition(now, fill.Price, size, snap.ATR)
	if err != nil {
		return err
	}
	if err := d.allocator.Reserve(bar.Symbol, committed); err != nil {
		return err
	}
	if err := d.allocator.ChargeFee(fill.Fee); err != nil {
		return err
	}
	d.sizer.RegisterOpenRisk(bar.Symbol, riskAmount)
	d.entries++

	d.logger.WithFields(logger.Fields{
		"symbol":     bar.Symbol,
		"entry":      fill.Price,
		"size":       size,
		"stop":       p.Stop,
		"confidence": sig.Confidence,
		"session":    decision.Session,
	}).Info("entry executed")

	if err := d.saveTrade(ctx, p, model.TradeSideBuy, model.TradeKindEntry, fill.Price, size, 0, fill.Fee, "", now, fill.OrderID); err != nil {
		return err
	}
	return d.savePosition(ctx, p)
}

// openSymbols lists symbols with open positions in configuration order.
func (d *Driver) openSymbols() []string {
	var open []string
	for _, symbol := range d.symbols {
		if inst := d.instruments[symbol]; inst.HasOpen() {
			open = append(open, symbol)
		}
	}
	return open
}

// unrealized marks every open position to its last seen close.
func (d *Driver) unrealized() float64 {
	var total float64
	for _, symbol := range d.symbols {
		inst := d.instruments[symbol]
		if !inst.HasOpen() {
			continue
		}
		p := inst.Open()
		if price, ok := d.lastPrice[symbol]; ok {
			total += d.conv.PnL(p.AvgEntry, price, p.Size)
		}
	}
	return total
}

func (d *Driver) recordEquity(ctx context.Context, at time.Time) {
	if d.equity == nil {
		return
	}

	unrealized := d.unrealized()
	point := &model.EquityPoint{
		Datetime:      at,
		Capital:       d.allocator.Available(),
		UnrealizedPnl: unrealized,
		TotalEquity:   d.allocator.TotalEquity() + unrealized,
		OpenPositions: d.allocator.OpenPositions(),
	}
	if err := d.equity.Append(ctx, point); err != nil {
		d.logger.WithError(err).Warn("equity point not recorded")
	}
}

func (d *Driver) Observations() int               { return d.observations }
func (d *Driver) Entries() int                    { return d.entries }
func (d *Driver) Closes() int                     { return d.closes }
func (d *Driver) Allocator() *portfolio.Allocator { return d.allocator }

// Instrument returns the per-symbol state, or nil for unknown symbols.
func (d *Driver) Instrument(symbol string) *strategy.Instrument {
	return d.instruments[symbol]
}

func (d *Driver) savePosition(ctx context.Context, p *position.Position) error {
	if d.positions == nil || p == nil {
		return nil
	}
	return d.positions.Save(ctx, positionRow(p))
}

func (d *Driver) saveTrade(ctx context.Context, p *position.Position, side, kind string, price, size, pnl, fee float64, reason string, at time.Time, orderID string) error {
	if d.trades == nil {
		return nil
	}

	if orderID == "" {
		orderID = uuid.NewString()
	}
	return d.trades.Create(ctx, &model.Trade{
		ExternalID: orderID,
		Symbol:     p.Symbol,
		Side:       side,
		Kind:       kind,
		Price:      price,
		Size:       size,
		Pnl:        pnl,
		Fee:        fee,
		Reason:     reason,
		ExecutedAt: at,
	})
}
