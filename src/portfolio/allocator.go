package portfolio

import (
	"errors"
	"fmt"
	"math"

	logger "github.com/sirupsen/logrus"
)

// conservationTol is the float tolerance for the capital conservation check.
const conservationTol = 1e-6

// ErrCapitalConservation means the books no longer balance. This is fatal:
// the driver halts instead of trading on corrupted accounting.
var ErrCapitalConservation = errors.New("capital conservation violated")

// Allocator owns the portfolio capital ledger. Capital is reserved when a
// position opens and released, together with its result, as the position
// scales out and closes. At all times
//
//	available + reserved == initial + realized
//
// within float tolerance.
type Allocator struct {
	initial   float64
	available float64
	realized  float64

	weights  map[string]float64
	reserved map[string]float64

	maxPositions int
	logger       *logger.Entry
}

func NewAllocator(initial float64, allocations map[string]float64, maxPositions int, log *logger.Entry) *Allocator {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	weights := make(map[string]float64, len(allocations))
	var sum float64
	for _, w := range allocations {
		sum += w
	}
	for symbol, w := range allocations {
		if sum > 0 {
			weights[symbol] = w / sum
		}
	}

	return &Allocator{
		initial:      initial,
		available:    initial,
		weights:      weights,
		reserved:     map[string]float64{},
		maxPositions: maxPositions,
		logger:       log,
	}
}

// CanOpen checks the structural preconditions for a new position. The
// returned reason is empty when opening is allowed.
func (a *Allocator) CanOpen(symbol string) (bool, string) {
	if _, ok := a.weights[symbol]; !ok {
		return false, fmt.Sprintf("unknown instrument %s", symbol)
	}
	if _, ok := a.reserved[symbol]; ok {
		return false, fmt.Sprintf("position already open for %s", symbol)
	}
	if len(a.reserved) >= a.maxPositions {
		return false, fmt.Sprintf("max concurrent positions reached (%d)", a.maxPositions)
	}
	return true, ""
}

// AllocationFor is the capital ceiling for one instrument: its normalized
// weight applied to the available capital.
func (a *Allocator) AllocationFor(symbol string) float64 {
	return a.available * a.weights[symbol]
}

// Reserve moves capital from available into the named position.
func (a *Allocator) Reserve(symbol string, capital float64) error {
	if capital <= 0 {
		return fmt.Errorf("reserve for %s: capital must be positive", symbol)
	}
	if capital > a.available+conservationTol {
		return fmt.Errorf("reserve for %s: %0.2f exceeds available %0.2f", symbol, capital, a.available)
	}
	if _, ok := a.reserved[symbol]; ok {
		return fmt.Errorf("reserve for %s: position already reserved", symbol)
	}

	a.available -= capital
	a.reserved[symbol] = capital
	return a.checkConservation()
}

// ReserveAdd grows an existing reservation, used for the DCA add.
func (a *Allocator) ReserveAdd(symbol string, capital float64) error {
	if _, ok := a.reserved[symbol]; !ok {
		return fmt.Errorf("reserve add for %s: no open reservation", symbol)
	}
	if capital <= 0 || capital > a.available+conservationTol {
		return fmt.Errorf("reserve add for %s: invalid capital %0.2f", symbol, capital)
	}

	a.available -= capital
	a.reserved[symbol] += capital
	return a.checkConservation()
}

// ReleasePartial returns part of a reservation plus its realized result.
func (a *Allocator) ReleasePartial(symbol string, capital, pnl float64) error {
	held, ok := a.reserved[symbol]
	if !ok {
		return fmt.Errorf("release partial for %s: no open reservation", symbol)
	}
	if capital <= 0 || capital > held+conservationTol {
		return fmt.Errorf("release partial for %s: invalid capital %0.2f of %0.2f", symbol, capital, held)
	}

	a.reserved[symbol] = held - capital
	a.available += capital + pnl
	a.realized += pnl
	return a.checkConservation()
}

// Release closes out the whole remaining reservation with the final pnl.
func (a *Allocator) Release(symbol string, pnl float64) error {
	held, ok := a.reserved[symbol]
	if !ok {
		return fmt.Errorf("release for %s: no open reservation", symbol)
	}

	delete(a.reserved, symbol)
	a.available += held + pnl
	a.realized += pnl
	return a.checkConservation()
}

// ChargeFee books an exchange fee as a realized cost against available
// capital.
func (a *Allocator) ChargeFee(fee float64) error {
	if fee <= 0 {
		return nil
	}

	a.available -= fee
	a.realized -= fee
	return a.checkConservation()
}

func (a *Allocator) checkConservation() error {
	var reservedSum float64
	for _, c := range a.reserved {
		reservedSum += c
	}

	diff := a.available + reservedSum - (a.initial + a.realized)
	scale := math.Max(1, a.initial)
	if math.Abs(diff) > conservationTol*scale {
		a.logger.WithFields(logger.Fields{
			"available": a.available,
			"reserved":  reservedSum,
			"initial":   a.initial,
			"realized":  a.realized,
			"diff":      diff,
		}).Error("capital ledger out of balance")
		return ErrCapitalConservation
	}
	return nil
}

func (a *Allocator) Available() float64        { return a.available }
func (a *Allocator) Realized() float64         { return a.realized }
func (a *Allocator) OpenPositions() int        { return len(a.reserved) }
func (a *Allocator) TotalEquity() float64      { return a.available + a.reservedSum() }
func (a *Allocator) Reserved(s string) float64 { return a.reserved[s] }

func (a *Allocator) reservedSum() float64 {
	var sum float64
	for _, c := range a.reserved {
		sum += c
	}
	return sum
}
