package repository

import (
	"fmt"

	"gorm.io/gorm"

	"gopherai-interview/internal/model"
)

type PracticeRecordRepository struct {
	db *gorm.DB
}

func NewPracticeRecordRepository(db *gorm.DB) *PracticeRecordRepository {
	return &PracticeRecordRepository{db: db}
}

func (r *PracticeRecordRepository) CreateBatch(records []model.PracticeRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("create practice records failed: %w", err)
	}
	return nil
}

// ExistsArchive reports whether a snapshot was already persisted, so a
// redelivered queue message is not written twice.
func (r *PracticeRecordRepository) ExistsArchive(archiveID string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.PracticeRecord{}).Where("archive_id = ?", archiveID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count archive records failed: %w", err)
	}
	return count > 0, nil
}

func (r *PracticeRecordRepository) ListByUserID(userID uint, limit int) ([]model.PracticeRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var records []model.PracticeRecord
	if err := r.db.Where("user_id = ?", userID).Order("answered_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list practice records failed: %w", err)
	}
	return records, nil
}
