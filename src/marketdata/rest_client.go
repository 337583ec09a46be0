package marketdata

// PUBLIC REST MARKET DATA CLIENT
// RESTY ONLY + INTERNAL RETRY

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reversionbot/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

type RestClient struct {
	baseURL string
	http    *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewRestClient(baseURL string, timeout time.Duration) *RestClient {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.binance.com"
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &RestClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// FetchKlines pulls closed klines from the public /api/v3/klines endpoint.
// The exchange returns each kline as a mixed-type JSON array.
func (c *RestClient) FetchKlines(symbol, interval string, start, end time.Time, limit int) ([]model.CandleBase, error) {
	const millis = 1000

	resp, err := c.http.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"symbol":    strings.ReplaceAll(symbol, "_", ""),
			"interval":  interval,
			"startTime": fmt.Sprintf("%d", start.Unix()*millis),
			"endTime":   fmt.Sprintf("%d", end.Unix()*millis),
			"limit":     fmt.Sprintf("%d", limit),
		}).
		Get("/api/v3/klines")
	if err != nil {
		return nil, err
	}

	raw := resp.Body()
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(raw))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w. raw=%s", err, string(raw))
	}

	candles := make([]model.CandleBase, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKlineRow(symbol, row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// kline row layout: [openTime, open, high, low, close, volume, closeTime, ...]
// timestamps come as JSON numbers, prices and volume as quoted strings
func parseKlineRow(symbol string, row []json.RawMessage) (model.CandleBase, error) {
	if len(row) < 6 {
		return model.CandleBase{}, fmt.Errorf("short kline row: %d fields", len(row))
	}

	var openMillis int64
	if err := json.Unmarshal(row[0], &openMillis); err != nil {
		return model.CandleBase{}, fmt.Errorf("bad kline open time %s: %w", row[0], err)
	}

	prices := make([]decimal.Decimal, 5)
	for i := 0; i < 5; i++ {
		var field string
		if err := json.Unmarshal(row[i+1], &field); err != nil {
			return model.CandleBase{}, fmt.Errorf("bad kline field %s: %w", row[i+1], err)
		}
		price, err := decimal.NewFromString(field)
		if err != nil {
			return model.CandleBase{}, fmt.Errorf("bad kline price %q: %w", field, err)
		}
		prices[i] = price
	}

	return model.CandleBase{
		Symbol:   symbol,
		Datetime: time.UnixMilli(openMillis).UTC(),
		Open:     prices[0],
		High:     prices[1],
		Low:      prices[2],
		Close:    prices[3],
		Volume:   prices[4],
	}, nil
}
