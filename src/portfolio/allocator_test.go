package portfolio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocator() *Allocator {
	return NewAllocator(2000, map[string]float64{
		"BTC_USDT": 0.7,
		"ETH_USDT": 0.3,
	}, 2, nil)
}

func TestCanOpen(t *testing.T) {
	a := newTestAllocator()

	ok, reason := a.CanOpen("BTC_USDT")
	require.True(t, ok)
	require.Empty(t, reason)

	ok, reason = a.CanOpen("DOGE_USDT")
	require.False(t, ok)
	require.Contains(t, reason, "unknown instrument")

	require.NoError(t, a.Reserve("BTC_USDT", 500))
	ok, reason = a.CanOpen("BTC_USDT")
	require.False(t, ok)
	require.Contains(t, reason, "already open")

	require.NoError(t, a.Reserve("ETH_USDT", 300))
	// both slots taken; a third instrument would hit the cap first if it
	// were allocated, so check via an allocator with room
	b := NewAllocator(2000, map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2}, 2, nil)
	require.NoError(t, b.Reserve("A", 100))
	require.NoError(t, b.Reserve("B", 100))
	ok, reason = b.CanOpen("C")
	require.False(t, ok)
	require.Contains(t, reason, "max concurrent positions")
}

func TestAllocationFor_NormalizedWeights(t *testing.T) {
	a := newTestAllocator()

	require.InDelta(t, 1400.0, a.AllocationFor("BTC_USDT"), 1e-9)
	require.InDelta(t, 600.0, a.AllocationFor("ETH_USDT"), 1e-9)
	require.Zero(t, a.AllocationFor("DOGE_USDT"))
}

func TestCapitalLedger_FullLifecycle(t *testing.T) {
	a := newTestAllocator()

	require.NoError(t, a.Reserve("BTC_USDT", 1000))
	require.InDelta(t, 1000.0, a.Available(), 1e-9)
	require.InDelta(t, 1000.0, a.Reserved("BTC_USDT"), 1e-9)

	// DCA add
	require.NoError(t, a.ReserveAdd("BTC_USDT", 500))
	require.InDelta(t, 500.0, a.Available(), 1e-9)
	require.InDelta(t, 1500.0, a.Reserved("BTC_USDT"), 1e-9)

	// scale out half with 25 profit
	require.NoError(t, a.ReleasePartial("BTC_USDT", 750, 25))
	require.InDelta(t, 1275.0, a.Available(), 1e-9)
	require.InDelta(t, 25.0, a.Realized(), 1e-9)

	// close remainder with 30 profit
	require.NoError(t, a.Release("BTC_USDT", 30))
	require.InDelta(t, 2055.0, a.Available(), 1e-9)
	require.InDelta(t, 55.0, a.Realized(), 1e-9)
	require.Zero(t, a.OpenPositions())
	require.InDelta(t, 2055.0, a.TotalEquity(), 1e-9)
}

func TestCapitalLedger_LossKeepsBooksBalanced(t *testing.T) {
	a := newTestAllocator()

	require.NoError(t, a.Reserve("BTC_USDT", 800))
	require.NoError(t, a.Release("BTC_USDT", -40))

	require.InDelta(t, 1960.0, a.Available(), 1e-9)
	require.InDelta(t, -40.0, a.Realized(), 1e-9)
}

func TestChargeFee_BooksAsRealizedCost(t *testing.T) {
	a := newTestAllocator()

	require.NoError(t, a.Reserve("BTC_USDT", 1000))
	require.NoError(t, a.ChargeFee(10))

	require.InDelta(t, 990.0, a.Available(), 1e-9)
	require.InDelta(t, -10.0, a.Realized(), 1e-9)
	require.InDelta(t, 1990.0, a.TotalEquity(), 1e-9)

	// zero and negative fees are ignored
	require.NoError(t, a.ChargeFee(0))
	require.NoError(t, a.ChargeFee(-5))
	require.InDelta(t, -10.0, a.Realized(), 1e-9)
}

func TestReserve_Validation(t *testing.T) {
	a := newTestAllocator()

	require.Error(t, a.Reserve("BTC_USDT", 0))
	require.Error(t, a.Reserve("BTC_USDT", 3000), "more than available")

	require.NoError(t, a.Reserve("BTC_USDT", 100))
	require.Error(t, a.Reserve("BTC_USDT", 100), "double reserve")

	require.Error(t, a.ReserveAdd("ETH_USDT", 100), "add without open reservation")
	require.Error(t, a.ReleasePartial("BTC_USDT", 200, 0), "release more than held")
	require.Error(t, a.Release("ETH_USDT", 0), "close without reservation")
}
