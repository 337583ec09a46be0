package repository

import (
	"context"
	"errors"
	"reversionbot/src/database"
	"reversionbot/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RiskCounterRepository backs the circuit breaker with one row per UTC day.
type RiskCounterRepository struct {
	db *gorm.DB
}

func NewRiskCounterRepository() *RiskCounterRepository {
	return &RiskCounterRepository{
		db: database.MainDB,
	}
}

func NewRiskCounterRepositoryWithDB(db *gorm.DB) *RiskCounterRepository {
	logger.WithField("component", "RiskCounterRepository").
		Info("Creating new RiskCounterRepository with custom DB instance")

	return &RiskCounterRepository{
		db: db,
	}
}

func (s *RiskCounterRepository) LoadDay(ctx context.Context, day string) (*model.RiskCounter, error) {
	var row model.RiskCounter
	err := s.db.WithContext(ctx).
		Where("day = ?", day).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LoadLatest returns the newest persisted day, used to carry an active
// pause across a restart that straddles the UTC day boundary.
func (s *RiskCounterRepository) LoadLatest(ctx context.Context) (*model.RiskCounter, error) {
	var row model.RiskCounter
	err := s.db.WithContext(ctx).
		Order("day DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *RiskCounterRepository) Save(ctx context.Context, counter *model.RiskCounter) error {
	var existing model.RiskCounter
	err := s.db.WithContext(ctx).
		Where("day = ?", counter.Day).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(counter).Error
	}
	if err != nil {
		return err
	}

	counter.ID = existing.ID
	counter.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(counter).Error
}
