package model

import "time"

// EquityPoint is one sample of the equity curve, recorded after every
// processed observation.
type EquityPoint struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Datetime      time.Time `gorm:"index" json:"datetime"`
	Capital       float64   `json:"capital"`
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	TotalEquity   float64   `json:"total_equity"`
	OpenPositions int       `json:"open_positions"`
	CreatedAt     time.Time `json:"created_at"`
}

func (EquityPoint) TableName() string {
	return "equity_points"
}
