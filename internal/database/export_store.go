package database

import (
	"context"

	"gorm.io/gorm"
)

// ExportStore persists export jobs.
type ExportStore struct {
	db *gorm.DB
}

func NewExportStore(db *gorm.DB) *ExportStore {
	return &ExportStore{db: db}
}

func (s *ExportStore) Create(ctx context.Context, export *Export) error {
	return translate(s.db.WithContext(ctx).Create(export).Error)
}

func (s *ExportStore) GetByID(ctx context.Context, id string) (Export, error) {
	var export Export
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&export).Error; err != nil {
		return Export{}, translate(err)
	}
	return export, nil
}

func (s *ExportStore) MarkCompleted(ctx context.Context, id, objectKey string) error {
	return s.update(ctx, id, map[string]any{
		"status":     ExportCompleted,
		"object_key": objectKey,
		"error":      "",
	})
}

func (s *ExportStore) MarkFailed(ctx context.Context, id, reason string) error {
	if len(reason) > 1024 {
		reason = reason[:1024]
	}
	return s.update(ctx, id, map[string]any{
		"status": ExportFailed,
		"error":  reason,
	})
}

func (s *ExportStore) update(ctx context.Context, id string, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&Export{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
