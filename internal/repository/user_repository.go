package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gopherai-interview/internal/model"
)

// UserRepository stores accounts in MySQL. Lookups return (nil, nil) when no
// row matches so callers can tell "absent" from a query failure.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	return r.first("username", r.db.Where("username = ?", username))
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	return r.first("email", r.db.Where("email = ?", email))
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	return r.first("id", r.db.Where("id = ?", id))
}

func (r *UserRepository) UpdateDisplayName(id uint, name string) error {
	err := r.db.Model(&model.User{}).Where("id = ?", id).Update("display_name", name).Error
	if err != nil {
		return fmt.Errorf("update display name failed: %w", err)
	}
	return nil
}

func (r *UserRepository) first(by string, q *gorm.DB) (*model.User, error) {
	var user model.User
	err := q.First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("query user by %s failed: %w", by, err)
	}
	return &user, nil
}
