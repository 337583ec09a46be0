package connectors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

// PaperConnector fills every market order at the reference price adjusted
// by a fixed slippage, and charges a flat fee. Backtests and dry runs use
// it as the execution venue.
type PaperConnector struct {
	slippagePct float64
	feePct      float64
	log         *logger.Entry
}

func NewPaperConnector(slippagePct, feePct float64, log *logger.Entry) *PaperConnector {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &PaperConnector{
		slippagePct: slippagePct,
		feePct:      feePct,
		log:         log,
	}
}

func (c *PaperConnector) MarketBuy(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error) {
	return c.fill(ctx, symbol, "buy", size, refPrice)
}

func (c *PaperConnector) MarketSell(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error) {
	return c.fill(ctx, symbol, "sell", size, refPrice)
}

// OpenPositions always reports flat. Paper state lives in the local
// database, there is nothing remote to reconcile against.
func (c *PaperConnector) OpenPositions(_ context.Context) ([]RemotePosition, error) {
	return nil, nil
}

func (c *PaperConnector) fill(ctx context.Context, symbol, side string, size, refPrice float64) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errors.New("order size must be positive")
	}
	if refPrice <= 0 {
		return nil, errors.New("reference price must be positive")
	}

	// buys pay up, sells give up
	price := refPrice * (1 + c.slippagePct/100)
	if side == "sell" {
		price = refPrice * (1 - c.slippagePct/100)
	}

	fill := &Fill{
		OrderID: uuid.NewString(),
		Symbol:  symbol,
		Side:    side,
		Price:   price,
		Size:    size,
		Fee:     size * c.feePct / 100,
	}

	c.log.WithFields(logger.Fields{
		"symbol":   symbol,
		"side":     side,
		"size":     size,
		"price":    price,
		"order_id": fill.OrderID,
	}).Debug("paper fill")

	return fill, nil
}
