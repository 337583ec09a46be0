package risk

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMonitor keeps bounded price histories per instrument and the
// pairwise Pearson correlation of their returns. Correlations are computed
// lazily: the cache is rebuilt only when a history has changed since the
// last read.
type CorrelationMonitor struct {
	lookback  int
	minPoints int
	cap       int

	prices map[string][]float64
	cache  map[[2]string]float64
	dirty  bool
}

func NewCorrelationMonitor(cfg Config) *CorrelationMonitor {
	return &CorrelationMonitor{
		lookback:  cfg.CorrLookback,
		minPoints: cfg.CorrMinPoints,
		cap:       cfg.HistoryCap,
		prices:    map[string][]float64{},
		cache:     map[[2]string]float64{},
	}
}

// Update appends one observed price for the instrument.
func (c *CorrelationMonitor) Update(symbol string, price float64) {
	h := append(c.prices[symbol], price)
	if len(h) > c.cap {
		h = h[len(h)-c.cap:]
	}
	c.prices[symbol] = h
	c.dirty = true
}

// Correlation returns the cached pairwise correlation. The second return is
// false while either instrument has too little history.
func (c *CorrelationMonitor) Correlation(a, b string) (float64, bool) {
	if c.dirty {
		c.rebuild()
		c.dirty = false
	}
	rho, ok := c.cache[pairKey(a, b)]
	return rho, ok
}

// BlockedBy returns the first open instrument whose correlation with the
// candidate breaches the threshold.
func (c *CorrelationMonitor) BlockedBy(symbol string, open []string, threshold float64) (string, float64, bool) {
	// deterministic iteration order
	sorted := append([]string(nil), open...)
	sort.Strings(sorted)

	for _, other := range sorted {
		if other == symbol {
			continue
		}
		rho, ok := c.Correlation(symbol, other)
		if !ok {
			continue
		}
		if rho >= threshold || rho <= -threshold {
			return other, rho, true
		}
	}
	return "", 0, false
}

func (c *CorrelationMonitor) rebuild() {
	c.cache = map[[2]string]float64{}

	symbols := make([]string, 0, len(c.prices))
	for s := range c.prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	returns := map[string][]float64{}
	for _, s := range symbols {
		returns[s] = c.returns(s)
	}

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := returns[symbols[i]], returns[symbols[j]]
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			if n < c.minPoints {
				continue
			}
			c.cache[pairKey(symbols[i], symbols[j])] = stat.Correlation(a[len(a)-n:], b[len(b)-n:], nil)
		}
	}
}

func (c *CorrelationMonitor) returns(symbol string) []float64 {
	prices := c.prices[symbol]
	if len(prices) > c.lookback+1 {
		prices = prices[len(prices)-(c.lookback+1):]
	}
	if len(prices) < 2 {
		return nil
	}

	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (prices[i]-prices[i-1])/prices[i-1])
	}
	return out
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
