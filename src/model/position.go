package model

import "time"

type Position struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ExternalID      string     `gorm:"size:64;uniqueIndex" json:"external_id"`
	Symbol          string     `gorm:"size:50;index" json:"symbol"`
	Status          string     `gorm:"size:50;not null;default:pending" json:"status"`
	AvgEntryPrice   float64    `json:"avg_entry_price"`
	Size            float64    `json:"size"`
	OriginalSize    float64    `json:"original_size"`
	StopPrice       float64    `json:"stop_price"`
	HighestPrice    float64    `json:"highest_price"`
	BreakevenArmed  bool       `json:"breakeven_armed"`
	DCADone         bool       `json:"dca_done"`
	ScaleLevelsHit  string     `gorm:"size:255" json:"scale_levels_hit"`
	RealizedPnl     float64    `json:"realized_pnl"`
	OpenedAt        time.Time  `json:"opened_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	CloseReason     string     `gorm:"size:50" json:"close_reason,omitempty"`
	LastTrailUpdate *time.Time `json:"last_trail_update,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const (
	PositionStatusPending = "pending"
	PositionStatusOpen    = "open"
	PositionStatusPartial = "partial"
	PositionStatusClosed  = "closed"
)
