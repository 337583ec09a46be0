package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaperConnector_BuySlippageAndFee(t *testing.T) {
	c := NewPaperConnector(0.05, 0.1, nil)

	fill, err := c.MarketBuy(context.Background(), "BTC_USDT", 1000, 100)
	require.NoError(t, err)

	require.Equal(t, "BTC_USDT", fill.Symbol)
	require.Equal(t, "buy", fill.Side)
	require.InDelta(t, 100.05, fill.Price, 1e-9, "buys fill above the reference")
	require.InDelta(t, 1.0, fill.Fee, 1e-9)
	require.NotEmpty(t, fill.OrderID)
}

func TestPaperConnector_SellSlippage(t *testing.T) {
	c := NewPaperConnector(0.05, 0.1, nil)

	fill, err := c.MarketSell(context.Background(), "BTC_USDT", 1000, 100)
	require.NoError(t, err)
	require.InDelta(t, 99.95, fill.Price, 1e-9, "sells fill below the reference")
}

func TestPaperConnector_UniqueOrderIDs(t *testing.T) {
	c := NewPaperConnector(0, 0, nil)

	a, err := c.MarketBuy(context.Background(), "BTC_USDT", 1, 100)
	require.NoError(t, err)
	b, err := c.MarketBuy(context.Background(), "BTC_USDT", 1, 100)
	require.NoError(t, err)
	require.NotEqual(t, a.OrderID, b.OrderID)
}

func TestPaperConnector_Validation(t *testing.T) {
	c := NewPaperConnector(0.05, 0.1, nil)

	_, err := c.MarketBuy(context.Background(), "BTC_USDT", 0, 100)
	require.Error(t, err)

	_, err = c.MarketSell(context.Background(), "BTC_USDT", 10, 0)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.MarketBuy(ctx, "BTC_USDT", 10, 100)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPaperConnector_AlwaysFlatRemotely(t *testing.T) {
	c := NewPaperConnector(0.05, 0.1, nil)

	positions, err := c.OpenPositions(context.Background())
	require.NoError(t, err)
	require.Empty(t, positions)
}
