package database

import (
	"context"
	"time"

	"kingcatserver/models"

	"gorm.io/gorm"
)

// ResultStore writes finished matches to Postgres.
type ResultStore struct {
	db *gorm.DB
}

func NewResultStore(db *gorm.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Record(ctx context.Context, result *models.MatchResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

// PruneBefore deletes results older than cutoff and returns how many went.
func (s *ResultStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Where("created_at < ?", cutoff).Delete(&models.MatchResult{})
	return res.RowsAffected, res.Error
}

// Recent returns the newest results first.
func (s *ResultStore) Recent(ctx context.Context, limit int) ([]models.MatchResult, error) {
	var results []models.MatchResult
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&results).Error
	return results, err
}
