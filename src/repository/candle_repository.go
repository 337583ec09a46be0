package repository

import (
	"context"
	"database/sql"
	"errors"
	"reversionbot/src/database"
	"reversionbot/src/model"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidInterval = errors.New("invalid interval. allowed: 5m,1h")

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new repository using the shared main DB.
func NewCandleRepository() *CandleRepository {
	return &CandleRepository{
		db: database.MainDB,
	}
}

func NewCandleRepositoryWithDB(db *gorm.DB) *CandleRepository {
	logger.WithField("component", "CandleRepository").
		Info("Creating new CandleRepository with custom DB instance")

	return &CandleRepository{
		db: db,
	}
}

// FetchRecentCandles5m returns up to limit closed candles at or before `to`,
// in ascending chronological order.
func (s *CandleRepository) FetchRecentCandles5m(
	ctx context.Context,
	symbol string,
	to time.Time,
	limit int,
) ([]model.Candle5m, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []model.Candle5m
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND datetime <= ?", symbol, to).
		Order("datetime DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// reverse to ascending chronological order for easier logic
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// FetchRange returns all candles for symbol inside [from, to] ascending,
// the shape the backtest replay wants.
func (s *CandleRepository) FetchRange(
	ctx context.Context,
	symbol string,
	from, to time.Time,
) ([]model.Candle5m, error) {
	var rows []model.Candle5m
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND datetime >= ? AND datetime <= ?", symbol, from, to).
		Order("datetime ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestDatetime returns the newest stored candle time for symbol, or the
// zero time when the cache is empty.
func (s *CandleRepository) LatestDatetime(ctx context.Context, symbol, interval string) (time.Time, error) {
	tx, err := s.modelFor(interval)
	if err != nil {
		return time.Time{}, err
	}

	var latest sql.NullTime
	err = tx.WithContext(ctx).
		Select("MAX(datetime)").
		Where("symbol = ?", symbol).
		Scan(&latest).Error
	if err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// Upsert writes one candle, updating the OHLCV columns when the
// (symbol, datetime) row already exists.
func (s *CandleRepository) Upsert(ctx context.Context, interval string, base *model.CandleBase) error {
	var target interface{}
	switch interval {
	case "5m":
		target = base.ConvertToCandle5m()
	case "1h":
		target = base.ConvertToCandle1h()
	default:
		return ErrInvalidInterval
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "datetime"}, {Name: "symbol"}}, // Composite unique index columns
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(target).Error
}

func (s *CandleRepository) modelFor(interval string) (*gorm.DB, error) {
	switch interval {
	case "5m":
		return s.db.Model(&model.Candle5m{}), nil
	case "1h":
		return s.db.Model(&model.Candle1h{}), nil
	default:
		return nil, ErrInvalidInterval
	}
}
