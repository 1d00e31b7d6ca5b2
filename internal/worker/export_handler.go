package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"cvforge/internal/cv"
	"cvforge/internal/database"
	"cvforge/internal/errcode"
	"cvforge/internal/export"
	"cvforge/internal/metrics"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
	"cvforge/internal/templates"
)

// CVReader loads the CV being exported.
type CVReader interface {
	GetByID(ctx context.Context, id string) (database.CV, error)
}

// ExportTracker records the outcome of an export.
type ExportTracker interface {
	GetByID(ctx context.Context, id string) (database.Export, error)
	MarkCompleted(ctx context.Context, id, objectKey string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// Uploader stores the exported file.
type Uploader interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) error
}

// ExportTaskHandler consumes CV export tasks.
type ExportTaskHandler struct {
	cvs      CVReader
	exports  ExportTracker
	exporter export.Exporter
	uploader Uploader
	notifier Notifier
	logger   *slog.Logger
}

func NewExportTaskHandler(
	cvs CVReader,
	exports ExportTracker,
	exporter export.Exporter,
	uploader Uploader,
	notifier Notifier,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		cvs:      cvs,
		exports:  exports,
		exporter: exporter,
		uploader: uploader,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessTask implements asynq.Handler. Failures are recorded on the export
// and pushed to the user; the task is not retried.
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseExportPayload(t)
	if err != nil {
		h.logger.Error("invalid export payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("export_id", payload.ExportID),
		slog.String("cv_id", payload.CVID),
		slog.String("user_id", payload.UserID),
	)

	exp, err := h.exports.GetByID(ctx, payload.ExportID)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("export record not found, skipping task")
		return nil
	}
	if err != nil {
		log.Error("query export failed", slog.Any("error", err))
		return err
	}
	if exp.Status != database.ExportPending {
		log.Info("export already processed", slog.String("status", exp.Status))
		return nil
	}
	format, err := export.ParseFormat(exp.Format)
	if err != nil {
		return h.fail(ctx, log, exp, payload, errcode.SystemError, err)
	}

	row, err := h.cvs.GetByID(ctx, payload.CVID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && row.UserID != payload.UserID) {
		log.Warn("cv no longer exists")
		_ = h.fail(ctx, log, exp, payload, errcode.ResourceMissing, errors.New("cv not found"))
		return nil
	}
	if err != nil {
		return h.fail(ctx, log, exp, payload, errcode.SystemError, fmt.Errorf("load cv: %w", err))
	}

	doc := templates.Resolve(exp.Template, cv.Decode(row.Data))

	start := time.Now()
	data, err := h.exporter.Export(ctx, doc, format)
	if err != nil {
		return h.fail(ctx, log, exp, payload, errcode.RenderFailed, fmt.Errorf("render %s: %w", format, err))
	}
	renderTime := time.Since(start)

	key := storage.ExportKey(payload.UserID, payload.CVID, exp.ID, format.Extension())
	if err := h.uploader.Upload(ctx, key, data, format.ContentType()); err != nil {
		return h.fail(ctx, log, exp, payload, errcode.UploadFailed, fmt.Errorf("upload export: %w", err))
	}

	if err := h.exports.MarkCompleted(ctx, exp.ID, key); err != nil {
		log.Error("mark export completed failed", slog.Any("error", err))
		return err
	}
	metrics.ObserveExport(string(format), database.ExportCompleted, renderTime)

	if err := h.notifier.Notify(ctx, payload.UserID, ExportNotifyMessage{
		Status:        NotifyCompleted,
		ExportID:      exp.ID,
		CVID:          exp.CVID,
		Format:        string(format),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}); err != nil {
		// the export itself succeeded; the client can still poll for it
		log.Error("publish export notification failed", slog.Any("error", err))
	}

	log.Info("export completed",
		slog.String("object_key", key),
		slog.Int("bytes", len(data)),
		slog.Duration("render_time", renderTime),
	)
	return nil
}

func (h *ExportTaskHandler) fail(ctx context.Context, log *slog.Logger, exp database.Export, payload tasks.ExportPayload, code int, cause error) error {
	log.Error("export failed", slog.Int("error_code", code), slog.Any("error", cause))

	reason := strings.TrimSpace(cause.Error())
	if err := h.exports.MarkFailed(ctx, exp.ID, reason); err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Error("mark export failed", slog.Any("error", err))
	}
	metrics.ObserveExport(exp.Format, database.ExportFailed, 0)

	if err := h.notifier.Notify(ctx, payload.UserID, ExportNotifyMessage{
		Status:        NotifyError,
		ExportID:      exp.ID,
		CVID:          exp.CVID,
		Format:        exp.Format,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  reason,
	}); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
	return cause
}
