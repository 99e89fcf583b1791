package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gopherai-interview/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert keeps one profile row per user.
func (r *ProfileRepository) Upsert(userID uint, profile model.StudentProfile, partial bool) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile failed: %w", err)
	}
	record := model.StudentProfileRecord{
		UserID:  userID,
		Profile: payload,
		Partial: partial,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"profile", "partial", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert profile failed: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(userID uint) (*model.StudentProfile, error) {
	var record model.StudentProfileRecord
	if err := r.db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query profile by user failed: %w", err)
	}
	var profile model.StudentProfile
	if err := json.Unmarshal(record.Profile, &profile); err != nil {
		return nil, fmt.Errorf("decode stored profile failed: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}
