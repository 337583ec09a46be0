package position

// UnitConvention maps price distances into account currency so the same
// state machine serves percent-quoted crypto positions (size in quote
// currency) and pip-quoted forex positions (size in lots).
type UnitConvention interface {
	// ProfitPrice is the price at entry plus the given target distance.
	ProfitPrice(entry, target float64) float64
	// LossPrice is the price at entry minus the given distance.
	LossPrice(entry, distance float64) float64
	// StopDistance converts an entry/stop pair into convention units.
	StopDistance(entry, stop float64) float64
	// UnitValue is the account currency value of one convention unit of
	// distance for one unit of size.
	UnitValue() float64
	// PnL is the realized account currency result of closing size at exit.
	PnL(entry, exit, size float64) float64
}

// Percent prices targets and stops as percentages of the entry price, with
// position size held in quote currency.
type Percent struct{}

func (Percent) ProfitPrice(entry, target float64) float64 { return entry * (1 + target/100) }
func (Percent) LossPrice(entry, distance float64) float64 { return entry * (1 - distance/100) }

func (Percent) StopDistance(entry, stop float64) float64 {
	if entry == 0 {
		return 0
	}
	return (entry - stop) / entry
}

func (Percent) UnitValue() float64 { return 1 }

func (Percent) PnL(entry, exit, size float64) float64 {
	if entry == 0 {
		return 0
	}
	return size * (exit - entry) / entry
}

// Pip prices targets and stops in pips, with position size held in lots.
type Pip struct {
	Size     float64 // price distance of one pip, e.g. 0.0001
	ValueUSD float64 // account currency per pip per lot
}

func (p Pip) ProfitPrice(entry, target float64) float64 { return entry + target*p.Size }
func (p Pip) LossPrice(entry, distance float64) float64 { return entry - distance*p.Size }

func (p Pip) StopDistance(entry, stop float64) float64 {
	if p.Size == 0 {
		return 0
	}
	return (entry - stop) / p.Size
}

func (p Pip) UnitValue() float64 { return p.ValueUSD }

func (p Pip) PnL(entry, exit, size float64) float64 {
	if p.Size == 0 {
		return 0
	}
	return (exit - entry) / p.Size * p.ValueUSD * size
}
