package marketdata

import (
	"context"
	"errors"

	"reversionbot/src/model"
)

// ErrExhausted signals that a finite source has no more candles.
var ErrExhausted = errors.New("candle source exhausted")

// Source feeds the driver one closed candle at a time. A replay source
// returns ErrExhausted at the end of its range; a live source blocks until
// the next candle closes or the context is cancelled.
type Source interface {
	Next(ctx context.Context) (model.Bar, error)
}
