// Package service holds the CV use cases. Every operation is scoped to the
// calling user: a CV owned by someone else is reported exactly like a
// missing one, and the check runs before any write.
package service

import (
	"context"
	"errors"
	"time"

	"cvforge/internal/database"
	"cvforge/internal/tasks"
)

var (
	// ErrNotFound covers both missing CVs and CVs owned by another user.
	ErrNotFound = errors.New("cv not found")
	// ErrSlugConflict is returned when concurrent creations keep taking the
	// allocated slug.
	ErrSlugConflict = errors.New("could not allocate a unique slug")
	// ErrExportNotFound is returned for unknown exports or exports of another CV.
	ErrExportNotFound = errors.New("export not found")
)

// CVStore is the persistence used by CVService.
type CVStore interface {
	Create(ctx context.Context, cv *database.CV) error
	GetByID(ctx context.Context, id string) (database.CV, error)
	ListByUser(ctx context.Context, userID string) ([]database.CV, error)
	ListSlugs(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, id string, changes database.CVChanges) (database.CV, error)
	Delete(ctx context.Context, id string) error
}

// ExportStore persists export requests.
type ExportStore interface {
	Create(ctx context.Context, export *database.Export) error
	GetByID(ctx context.Context, id string) (database.Export, error)
	MarkFailed(ctx context.Context, id, reason string) error
}

// ExportQueue hands export work to the background worker.
type ExportQueue interface {
	EnqueueExport(ctx context.Context, p tasks.ExportPayload) (string, error)
}

// ArtifactStore holds finished exports.
type ArtifactStore interface {
	PresignDownload(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
