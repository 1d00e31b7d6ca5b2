package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/service"
)

// CVHandler exposes the CV use cases over HTTP.
type CVHandler struct {
	cvs    *service.CVService
	logger *slog.Logger
}

func NewCVHandler(cvs *service.CVService, logger *slog.Logger) *CVHandler {
	return &CVHandler{cvs: cvs, logger: logger}
}

type createCVRequest struct {
	Title    string `json:"title"`
	Template string `json:"template"`
}

type updateCVRequest struct {
	Data     json.RawMessage `json:"data"`
	Template *string         `json:"template"`
}

type createExportRequest struct {
	Format   string `json:"format" binding:"required"`
	Template string `json:"template"`
}

func (h *CVHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cvs, err := h.cvs.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cvs": cvs})
}

func (h *CVHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	out, err := h.cvs.Create(c.Request.Context(), service.CreateParams{
		UserID:   userID,
		Title:    req.Title,
		Template: req.Template,
	})
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CVHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	out, err := h.cvs.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CVHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req updateCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	out, err := h.cvs.Update(c.Request.Context(), userID, c.Param("id"), service.UpdateParams{
		Data:     req.Data,
		Template: req.Template,
	})
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CVHandler) Duplicate(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	out, err := h.cvs.Duplicate(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CVHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.cvs.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Preview returns the rendered HTML document. The template query parameter
// overrides the stored template.
func (h *CVHandler) Preview(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.cvs.Preview(c.Request.Context(), userID, c.Param("id"), strings.TrimSpace(c.Query("template")))
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}

	sections := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		sections[i] = string(s)
	}
	c.Header("X-CV-Template", string(doc.Template))
	c.Header("X-CV-Sections", strings.Join(sections, ","))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

func (h *CVHandler) CreateExport(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	out, err := h.cvs.RequestExport(c.Request.Context(), service.ExportParams{
		UserID:        userID,
		CVID:          c.Param("id"),
		Format:        req.Format,
		Template:      req.Template,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusAccepted, out)
}

func (h *CVHandler) GetExport(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	out, err := h.cvs.GetExport(c.Request.Context(), userID, c.Param("id"), c.Param("exportId"))
	if err != nil {
		respondServiceError(c, loggerOr(c, h.logger), err)
		return
	}
	c.JSON(http.StatusOK, out)
}
