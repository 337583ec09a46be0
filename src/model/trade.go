package model

import "time"

// Trade is one realized fill against a position: a DCA add, a partial
// scale-out or a final close.
type Trade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:64;uniqueIndex" json:"external_id"`
	PositionID uint      `gorm:"index" json:"position_id"`
	Symbol     string    `gorm:"size:50;index" json:"symbol"`
	Side       string    `gorm:"size:10;not null" json:"side"`
	Kind       string    `gorm:"size:20;not null" json:"kind"`
	Price      float64   `json:"price"`
	Size       float64   `json:"size"`
	Pnl        float64   `json:"pnl"`
	Fee        float64   `json:"fee"`
	Reason     string    `gorm:"size:100" json:"reason,omitempty"`
	ExecutedAt time.Time `gorm:"index" json:"executed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"

	TradeKindEntry = "entry"
	TradeKindDCA   = "dca"
	TradeKindScale = "scale_out"
	TradeKindClose = "close"
)

const (
	CloseReasonStopLoss  = "stop_loss"
	CloseReasonBreakeven = "breakeven_stop"
	CloseReasonTrailing  = "trailing_stop"
	CloseReasonTarget    = "target"
	CloseReasonTimeExit  = "time_exit"
	CloseReasonWeekend   = "weekend_close"
	CloseReasonManual    = "manual"
)
