package repository

import (
	"context"
	"errors"
	"reversionbot/src/database"
	"reversionbot/src/model"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EquityRepository struct {
	db *gorm.DB
}

func NewEquityRepository() *EquityRepository {
	return &EquityRepository{
		db: database.MainDB,
	}
}

func NewEquityRepositoryWithDB(db *gorm.DB) *EquityRepository {
	logger.WithField("component", "EquityRepository").
		Info("Creating new EquityRepository with custom DB instance")

	return &EquityRepository{
		db: db,
	}
}

func (s *EquityRepository) Append(ctx context.Context, point *model.EquityPoint) error {
	return s.db.WithContext(ctx).Create(point).Error
}

func (s *EquityRepository) FetchRange(ctx context.Context, from, to time.Time) ([]model.EquityPoint, error) {
	var rows []model.EquityPoint
	err := s.db.WithContext(ctx).
		Where("datetime >= ? AND datetime <= ?", from, to).
		Order("datetime ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *EquityRepository) Latest(ctx context.Context) (*model.EquityPoint, error) {
	var row model.EquityPoint
	err := s.db.WithContext(ctx).
		Order("datetime DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
