package model

import "time"

// RiskCounter holds the per-UTC-day counters the circuit breaker works on.
// One row per day; the breaker resets by moving to a fresh row.
type RiskCounter struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Day               string     `gorm:"size:10;uniqueIndex" json:"day"`
	Trades            int        `json:"trades"`
	Wins              int        `json:"wins"`
	Losses            int        `json:"losses"`
	RealizedPnl       float64    `json:"realized_pnl"`
	ConsecutiveLosses int        `json:"consecutive_losses"`
	PausedUntil       *time.Time `json:"paused_until,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (RiskCounter) TableName() string {
	return "risk_counters"
}
