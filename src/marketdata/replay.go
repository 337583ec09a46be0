package marketdata

import (
	"context"
	"sort"
	"time"

	"reversionbot/src/model"
	"reversionbot/src/repository"

	logger "github.com/sirupsen/logrus"
)

// ReplaySource walks stored candles in strict chronological order across
// all configured symbols, which is what makes backtests deterministic.
type ReplaySource struct {
	bars []model.Bar
	pos  int
}

func NewReplaySource(
	ctx context.Context,
	repo *repository.CandleRepository,
	symbols []string,
	from, to time.Time,
	log *logger.Entry,
) (*ReplaySource, error) {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	var bars []model.Bar
	for _, symbol := range symbols {
		candles, err := repo.FetchRange(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}

		log.WithFields(logger.Fields{
			"symbol":  symbol,
			"candles": len(candles),
		}).Info("loaded replay candles")

		for i := range candles {
			bars = append(bars, candles[i].ToBar())
		}
	}

	return NewReplaySourceFromBars(bars), nil
}

// NewReplaySourceFromBars builds a replay over an in-memory series. The
// driver tests feed scripted candles through this path.
func NewReplaySourceFromBars(bars []model.Bar) *ReplaySource {
	merged := make([]model.Bar, len(bars))
	copy(merged, bars)

	// merge all symbols into one timeline; ties break by symbol so the
	// order never depends on map iteration
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Datetime.Equal(merged[j].Datetime) {
			return merged[i].Datetime.Before(merged[j].Datetime)
		}
		return merged[i].Symbol < merged[j].Symbol
	})

	return &ReplaySource{bars: merged}
}

func (s *ReplaySource) Next(ctx context.Context) (model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return model.Bar{}, err
	}
	if s.pos >= len(s.bars) {
		return model.Bar{}, ErrExhausted
	}

	bar := s.bars[s.pos]
	s.pos++
	return bar, nil
}

func (s *ReplaySource) Len() int {
	return len(s.bars)
}
