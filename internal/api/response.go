package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/cv"
	"cvforge/internal/service"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)                { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string)      { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)        { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)        { Error(c, http.StatusConflict, msg) }
func TooManyRequests(c *gin.Context, msg string) { Error(c, http.StatusTooManyRequests, msg) }
func Internal(c *gin.Context, msg string)        { Error(c, http.StatusInternalServerError, msg) }

// respondServiceError maps use-case errors onto HTTP responses. Unexpected
// errors are logged and hidden from the client.
func respondServiceError(c *gin.Context, log *slog.Logger, err error) {
	var verr *cv.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "cv not found")
	case errors.Is(err, service.ErrExportNotFound):
		NotFound(c, "export not found")
	case errors.Is(err, service.ErrSlugConflict):
		Conflict(c, "could not allocate a unique slug, please retry")
	default:
		log.Error("request failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

// loggerOr prefers the request-scoped logger set by SlogLoggerMiddleware.
func loggerOr(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := middleware.RequestLogger(c); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
