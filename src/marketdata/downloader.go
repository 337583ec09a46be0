package marketdata

import (
	"context"
	"net/http"
	"strings"
	"time"

	"reversionbot/src/model"
	"reversionbot/src/repository"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
)

const (
	Interval5m = "5m"
	Interval1h = "1h"
)

// Downloader backfills the candle cache from the exchange so backtests and
// indicator warm-up have history to work with.
type Downloader struct {
	Log      *logger.Entry
	Repo     *repository.CandleRepository
	Symbol   string
	Interval string
	Limit    int
	exchange goex.API
}

func NewDownloader(repo *repository.CandleRepository, symbol, interval string, limit int, log *logger.Entry) *Downloader {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Downloader{
		Log:      log,
		Repo:     repo,
		Symbol:   symbol,
		Interval: interval,
		Limit:    limit,
		exchange: newBinanceInstance(),
	}
}

func newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

// Run downloads [start, end] and upserts every candle. When resume is set
// the start point moves to just before the newest cached candle.
func (d *Downloader) Run(ctx context.Context, start, end time.Time, resume bool) (int, error) {
	if resume {
		latest, err := d.Repo.LatestDatetime(ctx, d.Symbol, d.Interval)
		if err != nil {
			return 0, err
		}
		if !latest.IsZero() {
			// re-fetch the newest cached candle too, it may have been
			// written while still open
			start = latest.Add(-d.parseDuration())
			d.Log.WithFields(logger.Fields{
				"symbol": d.Symbol,
				"start":  start,
			}).Info("resuming download from cached history")
		}
	}

	series, err := d.fetchSeries(start, end)
	if err != nil {
		return 0, err
	}

	saved := 0
	for i := range series {
		result := series[i]

		base := &model.CandleBase{
			Datetime: time.Unix(result.Timestamp, 0).UTC(),
			Open:     decimal.NewFromFloat(result.Open),
			High:     decimal.NewFromFloat(result.High),
			Low:      decimal.NewFromFloat(result.Low),
			Close:    decimal.NewFromFloat(result.Close),
			Volume:   decimal.NewFromFloat(result.Vol),
			Symbol:   d.Symbol,
		}

		if err := d.Repo.Upsert(ctx, d.Interval, base); err != nil {
			d.Log.WithError(err).Error("downloader upsert failed")
			return saved, err
		}
		saved++
	}

	d.Log.WithFields(logger.Fields{
		"symbol":  d.Symbol,
		"candles": saved,
	}).Info("candle download finished")

	return saved, nil
}

func (d *Downloader) fetchSeries(start, end time.Time) ([]goex.Kline, error) {
	base, quote := splitSymbol(d.Symbol)
	targetSymbol := goex.NewCurrencyPair(goex.Currency{Symbol: base}, goex.Currency{Symbol: quote})

	const millis = 1000
	klines, err := d.exchange.GetKlineRecords(
		targetSymbol,
		d.parseDurationToGoex(),
		d.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", start.Unix()*millis).
			Optional("endTime", end.Unix()*millis),
	)
	if err != nil {
		return nil, err
	}

	return klines, nil
}

func splitSymbol(symbol string) (string, string) {
	parts := strings.SplitN(symbol, "_", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return symbol, "USDT"
}

func (d *Downloader) parseDuration() time.Duration {
	switch d.Interval {
	case Interval5m:
		return 5 * time.Minute
	case Interval1h:
		return time.Hour
	default:
		panic("invalid downloader interval")
	}
}

func (d *Downloader) parseDurationToGoex() goex.KlinePeriod {
	switch d.Interval {
	case Interval5m:
		return goex.KLINE_PERIOD_5MIN
	case Interval1h:
		return goex.KLINE_PERIOD_1H
	default:
		panic("invalid downloader interval")
	}
}
