package database

import (
	"context"

	"gorm.io/gorm"
)

// UserStore persists accounts.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts user; a taken email yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return User{}, translate(err)
	}
	return user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return User{}, translate(err)
	}
	return user, nil
}
