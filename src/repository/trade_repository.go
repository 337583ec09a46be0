package repository

import (
	"context"
	"reversionbot/src/database"
	"reversionbot/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{
		db: database.MainDB,
	}
}

func NewTradeRepositoryWithDB(db *gorm.DB) *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with custom DB instance")

	return &TradeRepository{
		db: db,
	}
}

func (s *TradeRepository) Create(ctx context.Context, trade *model.Trade) error {
	return s.db.WithContext(ctx).Create(trade).Error
}

func (s *TradeRepository) ListByPosition(ctx context.Context, positionID uint) ([]model.Trade, error) {
	var rows []model.Trade
	err := s.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		Order("executed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TradeRepository) ListRecent(ctx context.Context, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []model.Trade
	err := s.db.WithContext(ctx).
		Order("executed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
