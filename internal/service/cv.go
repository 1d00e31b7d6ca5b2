package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cvforge/internal/cv"
	"cvforge/internal/database"
	"cvforge/internal/storage"
	"cvforge/internal/templates"
)

const maxSlugAttempts = 5

// CV is a CV record with its data decoded.
type CV struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Slug       string         `json:"slug"`
	Template   templates.Name `json:"template"`
	Data       cv.Data        `json:"data"`
	IsPublic   bool           `json:"isPublic"`
	PublicSlug *string        `json:"publicSlug"`
	// Complete is false until the CV has a name, an email or any
	// experience or education entry.
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the list view of a CV.
type Summary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Template  templates.Name `json:"template"`
	IsPublic  bool           `json:"isPublic"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type CreateParams struct {
	UserID   string
	Title    string
	Template string
}

// UpdateParams carries a partial update. A nil or JSON null Data and a nil
// Template leave the stored values untouched.
type UpdateParams struct {
	Data     json.RawMessage
	Template *string
}

// CVService implements the CV use cases.
type CVService struct {
	cvs        CVStore
	exports    ExportStore
	queue      ExportQueue
	artifacts  ArtifactStore
	presignTTL time.Duration
	logger     *slog.Logger
	newID      func() string
}

func NewCVService(cvs CVStore, exports ExportStore, queue ExportQueue, artifacts ArtifactStore, presignTTL time.Duration, logger *slog.Logger) *CVService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CVService{
		cvs:        cvs,
		exports:    exports,
		queue:      queue,
		artifacts:  artifacts,
		presignTTL: presignTTL,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Create validates the title and template and stores a CV with empty data.
func (s *CVService) Create(ctx context.Context, p CreateParams) (CV, error) {
	title, err := cv.ValidateTitle(p.Title)
	if err != nil {
		return CV{}, err
	}
	tpl, err := templates.Parse(p.Template)
	if err != nil {
		return CV{}, err
	}
	data, err := cv.Encode(cv.EmptyData())
	if err != nil {
		return CV{}, fmt.Errorf("encode empty data: %w", err)
	}

	row := database.CV{
		UserID:   p.UserID,
		Title:    title,
		Template: string(tpl),
		Data:     data,
	}
	if err := s.insertWithSlug(ctx, &row); err != nil {
		return CV{}, err
	}

	s.logger.Info("cv created",
		slog.String("user_id", row.UserID),
		slog.String("cv_id", row.ID),
		slog.String("slug", row.Slug),
	)
	return toCV(row), nil
}

// List returns the user's CVs, most recently updated first.
func (s *CVService) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.cvs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary{
			ID:        row.ID,
			Title:     row.Title,
			Slug:      row.Slug,
			Template:  templates.Normalize(row.Template),
			IsPublic:  row.IsPublic,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (s *CVService) Get(ctx context.Context, userID, id string) (CV, error) {
	row, err := s.owned(ctx, userID, id)
	if err != nil {
		return CV{}, err
	}
	return toCV(row), nil
}

// Update replaces data and/or template. An empty update still refreshes
// the modification time.
func (s *CVService) Update(ctx context.Context, userID, id string, p UpdateParams) (CV, error) {
	var changes database.CVChanges

	if p.Template != nil {
		tpl, err := templates.Parse(*p.Template)
		if err != nil {
			return CV{}, err
		}
		name := string(tpl)
		changes.Template = &name
	}
	if len(p.Data) > 0 && string(p.Data) != "null" {
		encoded, err := normalizeData(p.Data)
		if err != nil {
			return CV{}, err
		}
		changes.Data = &encoded
	}

	if _, err := s.owned(ctx, userID, id); err != nil {
		return CV{}, err
	}

	row, err := s.cvs.Update(ctx, id, changes)
	if errors.Is(err, database.ErrNotFound) {
		return CV{}, ErrNotFound
	}
	if err != nil {
		return CV{}, fmt.Errorf("update cv: %w", err)
	}
	return toCV(row), nil
}

// Duplicate copies data and template under a new title and slug. The copy
// is always private.
func (s *CVService) Duplicate(ctx context.Context, userID, id string) (CV, error) {
	src, err := s.owned(ctx, userID, id)
	if err != nil {
		return CV{}, err
	}

	row := database.CV{
		UserID:   userID,
		Title:    cv.TruncateTitle("Copy of " + src.Title),
		Template: src.Template,
		Data:     src.Data,
	}
	if err := s.insertWithSlug(ctx, &row); err != nil {
		return CV{}, err
	}

	s.logger.Info("cv duplicated",
		slog.String("user_id", userID),
		slog.String("source_id", src.ID),
		slog.String("cv_id", row.ID),
	)
	return toCV(row), nil
}

// Delete removes the CV, its export records and, best effort, the exported files.
func (s *CVService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.cvs.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete cv: %w", err)
	}

	if s.artifacts != nil {
		prefix := storage.ExportPrefix(userID, id)
		if err := s.artifacts.DeletePrefix(ctx, prefix); err != nil {
			s.logger.Warn("delete exported files failed",
				slog.String("prefix", prefix),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("cv deleted", slog.String("user_id", userID), slog.String("cv_id", id))
	return nil
}

// Preview renders the CV. A non-empty templateOverride replaces the stored
// template and is normalized like any other template name.
func (s *CVService) Preview(ctx context.Context, userID, id, templateOverride string) (templates.Document, error) {
	row, err := s.owned(ctx, userID, id)
	if err != nil {
		return templates.Document{}, err
	}
	name := row.Template
	if templateOverride != "" {
		name = templateOverride
	}
	return templates.Resolve(name, cv.Decode(row.Data)), nil
}

func (s *CVService) owned(ctx context.Context, userID, id string) (database.CV, error) {
	row, err := s.cvs.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return database.CV{}, ErrNotFound
	}
	if err != nil {
		return database.CV{}, fmt.Errorf("get cv: %w", err)
	}
	if row.UserID != userID {
		return database.CV{}, ErrNotFound
	}
	return row, nil
}

// insertWithSlug allocates a slug from the user's current slugs and inserts
// row. A unique-index violation means another request took the slug in the
// meantime; the slugs are re-read and allocation repeats.
func (s *CVService) insertWithSlug(ctx context.Context, row *database.CV) error {
	base := cv.GenerateSlug(row.Title)
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		existing, err := s.cvs.ListSlugs(ctx, row.UserID)
		if err != nil {
			return fmt.Errorf("list slugs: %w", err)
		}
		row.ID = s.newID()
		row.Slug = cv.GenerateUniqueSlug(base, existing)

		err = s.cvs.Create(ctx, row)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("create cv: %w", err)
		}
		s.logger.Warn("slug taken concurrently, retrying",
			slog.String("user_id", row.UserID),
			slog.String("slug", row.Slug),
			slog.Int("attempt", attempt),
		)
	}
	return ErrSlugConflict
}

func normalizeData(raw json.RawMessage) (string, error) {
	if err := cv.ValidateDataJSON(raw); err != nil {
		return "", err
	}
	data, err := cv.DecodeStrict(string(raw))
	if err != nil {
		return "", &cv.ValidationError{Field: "data", Message: "must be a valid CV object"}
	}
	if err := cv.ValidateListIDs(data); err != nil {
		return "", err
	}
	encoded, err := cv.Encode(data)
	if err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	return encoded, nil
}

func toCV(row database.CV) CV {
	data := cv.Decode(row.Data)
	return CV{
		ID:         row.ID,
		Title:      row.Title,
		Slug:       row.Slug,
		Template:   templates.Normalize(row.Template),
		Data:       data,
		IsPublic:   row.IsPublic,
		PublicSlug: row.PublicSlug,
		Complete:   cv.HasMinimumData(data),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
