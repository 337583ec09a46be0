package model

import (
	"reversionbot/src/utils"
	"time"

	"github.com/shopspring/decimal"
)

// Candle5m is the persisted base-timeframe candle. All strategy decisions
// are derived from closed candles of this table.
type Candle5m struct {
	ID       uint            `gorm:"primaryKey"`
	Symbol   string          `json:"symbol"   gorm:"type:varchar(50);not null;uniqueIndex:ux_candle_5m_symbol_datetime,priority:1;index:idx_candle_5m_symbol_datetime,priority:1"`
	Datetime time.Time       `json:"datetime" gorm:"not null;uniqueIndex:ux_candle_5m_symbol_datetime,priority:2;index:idx_candle_5m_symbol_datetime,priority:2;index:idx_candle_5m_datetime"`
	Open     decimal.Decimal `json:"open"   gorm:"type:double precision;not null"`
	High     decimal.Decimal `json:"high"   gorm:"type:double precision;not null"`
	Low      decimal.Decimal `json:"low"    gorm:"type:double precision;not null"`
	Close    decimal.Decimal `json:"close"  gorm:"type:double precision;not null"`
	Volume   decimal.Decimal `json:"volume" gorm:"type:double precision;not null"`
}

func (Candle5m) TableName() string {
	return "candle_5m"
}

func (c Candle5m) ConvertToCandleBase() *CandleBase {
	return &CandleBase{
		ID:       c.ID,
		Datetime: c.Datetime,
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
		Symbol:   c.Symbol,
	}
}

// Candle1h keeps an hourly series for long-range charts and sanity checks.
type Candle1h struct {
	ID       uint            `gorm:"primaryKey"`
	Symbol   string          `json:"symbol"   gorm:"type:varchar(50);not null;uniqueIndex:ux_candle_1h_symbol_datetime,priority:1;index:idx_candle_1h_symbol_datetime,priority:1"`
	Datetime time.Time       `json:"datetime" gorm:"not null;uniqueIndex:ux_candle_1h_symbol_datetime,priority:2;index:idx_candle_1h_symbol_datetime,priority:2;index:idx_candle_1h_datetime"`
	Open     decimal.Decimal `json:"open"   gorm:"type:double precision;not null"`
	High     decimal.Decimal `json:"high"   gorm:"type:double precision;not null"`
	Low      decimal.Decimal `json:"low"    gorm:"type:double precision;not null"`
	Close    decimal.Decimal `json:"close"  gorm:"type:double precision;not null"`
	Volume   decimal.Decimal `json:"volume" gorm:"type:double precision;not null"`
}

func (Candle1h) TableName() string {
	return "candle_1h"
}

func (c Candle1h) ConvertToCandleBase() *CandleBase {
	return &CandleBase{
		ID:       c.ID,
		Datetime: c.Datetime,
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
		Symbol:   c.Symbol,
	}
}

// CandleBase is the interval-agnostic shape used when moving candles between
// the downloader, the cache tables and the strategy layer.
type CandleBase struct {
	ID       uint            `json:"id"`
	Datetime time.Time       `json:"datetime"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	Symbol   string          `json:"symbol"`
}

func (c *CandleBase) ConvertToCandle5m() *Candle5m {
	return &Candle5m{
		ID:       c.ID,
		Datetime: utils.ResetTime(c.Datetime, "minute"),
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
		Symbol:   c.Symbol,
	}
}

func (c *CandleBase) ConvertToCandle1h() *Candle1h {
	return &Candle1h{
		ID:       c.ID,
		Datetime: utils.ResetTime(c.Datetime, "hour"),
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
		Symbol:   c.Symbol,
	}
}

// Bar is the in-memory candle the indicator and decision code works on.
// Prices stay decimal in the database and become float64 exactly once, here.
type Bar struct {
	Symbol   string
	Datetime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

func (c Candle5m) ToBar() Bar {
	return Bar{
		Symbol:   c.Symbol,
		Datetime: c.Datetime,
		Open:     c.Open.InexactFloat64(),
		High:     c.High.InexactFloat64(),
		Low:      c.Low.InexactFloat64(),
		Close:    c.Close.InexactFloat64(),
		Volume:   c.Volume.InexactFloat64(),
	}
}
