package repository

import (
	"context"
	"errors"
	"reversionbot/src/database"
	"reversionbot/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{
		db: database.MainDB,
	}
}

func NewPositionRepositoryWithDB(db *gorm.DB) *PositionRepository {
	logger.WithField("component", "PositionRepository").
		Info("Creating new PositionRepository with custom DB instance")

	return &PositionRepository{
		db: db,
	}
}

// Save inserts or updates one position row keyed by its external id.
func (s *PositionRepository) Save(ctx context.Context, position *model.Position) error {
	if position.ExternalID == "" {
		return errors.New("position external id is required")
	}

	var existing model.Position
	err := s.db.WithContext(ctx).
		Where("external_id = ?", position.ExternalID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(position).Error
	}
	if err != nil {
		return err
	}

	position.ID = existing.ID
	position.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(position).Error
}

// GetOpenBySymbol returns the open or partially scaled position for symbol,
// or nil when the symbol is flat.
func (s *PositionRepository) GetOpenBySymbol(ctx context.Context, symbol string) (*model.Position, error) {
	var row model.Position
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND status IN ?", symbol, openStatuses()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *PositionRepository) ListOpen(ctx context.Context) ([]model.Position, error) {
	var rows []model.Position
	err := s.db.WithContext(ctx).
		Where("status IN ?", openStatuses()).
		Order("opened_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PositionRepository) ListRecent(ctx context.Context, limit int) ([]model.Position, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []model.Position
	err := s.db.WithContext(ctx).
		Order("opened_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func openStatuses() []string {
	return []string{model.PositionStatusOpen, model.PositionStatusPartial}
}
