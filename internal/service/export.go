package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cvforge/internal/database"
	"cvforge/internal/export"
	"cvforge/internal/tasks"
	"cvforge/internal/templates"
)

// Export is the caller's view of an export request.
type Export struct {
	ID          string         `json:"id"`
	CVID        string         `json:"cvId"`
	Format      export.Format  `json:"format"`
	Template    templates.Name `json:"template"`
	Status      string         `json:"status"`
	Filename    string         `json:"filename"`
	Error       string         `json:"error,omitempty"`
	DownloadURL string         `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ExportParams struct {
	UserID        string
	CVID          string
	Format        string
	Template      string
	CorrelationID string
}

// RequestExport records a pending export and queues it for the worker.
// The template is fixed at request time so later edits do not change what
// the user asked for.
func (s *CVService) RequestExport(ctx context.Context, p ExportParams) (Export, error) {
	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return Export{}, err
	}
	row, err := s.owned(ctx, p.UserID, p.CVID)
	if err != nil {
		return Export{}, err
	}

	name := row.Template
	if p.Template != "" {
		name = p.Template
	}

	exp := database.Export{
		ID:       s.newID(),
		CVID:     row.ID,
		UserID:   p.UserID,
		Format:   string(format),
		Template: string(templates.Normalize(name)),
		Status:   database.ExportPending,
		Filename: export.Filename(row.Title, format),
	}
	if err := s.exports.Create(ctx, &exp); err != nil {
		return Export{}, fmt.Errorf("create export: %w", err)
	}

	taskID, err := s.queue.EnqueueExport(ctx, tasks.ExportPayload{
		ExportID:      exp.ID,
		CVID:          exp.CVID,
		UserID:        exp.UserID,
		CorrelationID: p.CorrelationID,
	})
	if err != nil {
		if markErr := s.exports.MarkFailed(ctx, exp.ID, "enqueue failed"); markErr != nil {
			s.logger.Error("mark export failed", slog.String("export_id", exp.ID), slog.Any("error", markErr))
		}
		return Export{}, err
	}

	s.logger.Info("export queued",
		slog.String("user_id", p.UserID),
		slog.String("cv_id", row.ID),
		slog.String("export_id", exp.ID),
		slog.String("task_id", taskID),
		slog.String("format", exp.Format),
	)
	return toExport(exp), nil
}

// GetExport reports the export status. Completed exports carry a
// short-lived download link.
func (s *CVService) GetExport(ctx context.Context, userID, cvID, exportID string) (Export, error) {
	if _, err := s.owned(ctx, userID, cvID); err != nil {
		return Export{}, err
	}

	exp, err := s.exports.GetByID(ctx, exportID)
	if errors.Is(err, database.ErrNotFound) {
		return Export{}, ErrExportNotFound
	}
	if err != nil {
		return Export{}, fmt.Errorf("get export: %w", err)
	}
	if exp.CVID != cvID || exp.UserID != userID {
		return Export{}, ErrExportNotFound
	}

	out := toExport(exp)
	if s.artifacts != nil && exp.Status == database.ExportCompleted && exp.ObjectKey != "" {
		url, err := s.artifacts.PresignDownload(ctx, exp.ObjectKey, exp.Filename, s.presignTTL)
		if err != nil {
			return Export{}, fmt.Errorf("presign export: %w", err)
		}
		out.DownloadURL = url
	}
	return out, nil
}

func toExport(e database.Export) Export {
	return Export{
		ID:        e.ID,
		CVID:      e.CVID,
		Format:    export.Format(e.Format),
		Template:  templates.Name(e.Template),
		Status:    e.Status,
		Filename:  e.Filename,
		Error:     e.Error,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
