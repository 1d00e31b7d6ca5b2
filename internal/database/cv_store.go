package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// CVChanges lists the mutable content of a CV. Nil fields are left untouched.
type CVChanges struct {
	Data     *string
	Template *string
}

// CVStore persists CV rows with GORM.
type CVStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCVStore(db *gorm.DB) *CVStore {
	return &CVStore{db: db, now: time.Now}
}

func (s *CVStore) Create(ctx context.Context, cv *CV) error {
	return translate(s.db.WithContext(ctx).Create(cv).Error)
}

func (s *CVStore) GetByID(ctx context.Context, id string) (CV, error) {
	var cv CV
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&cv).Error; err != nil {
		return CV{}, translate(err)
	}
	return cv, nil
}

// ListByUser returns the user's CVs, most recently updated first.
func (s *CVStore) ListByUser(ctx context.Context, userID string) ([]CV, error) {
	var cvs []CV
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&cvs).Error; err != nil {
		return nil, translate(err)
	}
	return cvs, nil
}

// ListSlugs returns every slug currently used by the user.
func (s *CVStore) ListSlugs(ctx context.Context, userID string) ([]string, error) {
	var slugs []string
	if err := s.db.WithContext(ctx).
		Model(&CV{}).
		Where("user_id = ?", userID).
		Pluck("slug", &slugs).Error; err != nil {
		return nil, translate(err)
	}
	return slugs, nil
}

// Update applies changes and always refreshes updated_at.
func (s *CVStore) Update(ctx context.Context, id string, changes CVChanges) (CV, error) {
	updates := map[string]any{
		"updated_at": s.now(),
	}
	if changes.Data != nil {
		updates["data"] = *changes.Data
	}
	if changes.Template != nil {
		updates["template"] = *changes.Template
	}

	res := s.db.WithContext(ctx).Model(&CV{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return CV{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return CV{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes the CV and its export records.
func (s *CVStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cv_id = ?", id).Delete(&Export{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", id).Delete(&CV{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
