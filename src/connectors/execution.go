package connectors

import "context"

// Fill is the normalized result of a market order, whatever venue filled it.
type Fill struct {
	OrderID string
	Symbol  string
	Side    string
	Price   float64
	Size    float64
	Fee     float64
}

// RemotePosition is one open position as the venue reports it, used to
// reconcile local state after a restart.
type RemotePosition struct {
	Symbol string
	Size   float64
	Entry  float64
}

// ExecutionClient abstracts order placement so the driver runs the same
// code path in backtests (paper) and live trading.
type ExecutionClient interface {
	MarketBuy(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error)
	MarketSell(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error)
	OpenPositions(ctx context.Context) ([]RemotePosition, error)
}
