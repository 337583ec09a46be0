package executors

import (
	"reversionbot/src/connectors"
	"reversionbot/src/indicators"
	"reversionbot/src/portfolio"
	"reversionbot/src/position"
	"reversionbot/src/repository"
	"reversionbot/src/risk"
	"reversionbot/src/signal"
	"reversionbot/src/strategy"

	logger "github.com/sirupsen/logrus"
)

// BuildOptions selects the parts of the driver that differ between the
// backtest and the live loop. Everything else comes from the environment.
type BuildOptions struct {
	Exec         connectors.ExecutionClient
	CounterStore risk.CounterStore
	Persist      bool
	Logger       *logger.Entry
}

// BuildDriver assembles a fully wired driver from environment
// configuration. With Persist set, positions, trades and equity points go
// to the database; without it the run leaves no rows behind.
func BuildDriver(opts BuildOptions) *Driver {
	log := opts.Logger
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	cfg := GetConfig()
	conv := conventionFrom(cfg)

	instCfg := strategy.InstrumentConfig{
		Indicators: indicators.GetConfig(),
		Signal:     signal.GetConfig(),
		Position:   position.GetConfig(),
		Convention: conv,
	}

	instruments := make([]*strategy.Instrument, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		instruments = append(instruments, strategy.NewInstrument(symbol, instCfg, log))
	}

	pcfg := portfolio.GetConfig()
	rcfg := risk.GetConfig()

	breaker := risk.NewCircuitBreaker(rcfg, opts.CounterStore, log)
	gate := risk.NewGate(rcfg, breaker, risk.NewCorrelationMonitor(rcfg), log)

	deps := Deps{
		Config:      cfg,
		Convention:  conv,
		Instruments: instruments,
		Allocator:   portfolio.NewAllocator(pcfg.InitialCapital, pcfg.Allocations, pcfg.MaxPositions, log),
		Sizer:       portfolio.NewSizer(pcfg, log),
		Gate:        gate,
		Exec:        opts.Exec,
		Logger:      log,
	}

	if opts.Persist {
		deps.Positions = repository.NewPositionRepository()
		deps.Trades = repository.NewTradeRepository()
		deps.Equity = repository.NewEquityRepository()
	}

	return NewDriver(deps)
}

func conventionFrom(cfg Config) position.UnitConvention {
	if cfg.UnitConvention == "pip" {
		return position.Pip{Size: cfg.PipSize, ValueUSD: cfg.PipValueUSD}
	}
	return position.Percent{}
}
