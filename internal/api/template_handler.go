package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvforge/internal/templates"
)

// ListTemplates lists the templates and whether each has its own layout.
func ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"templates": templates.Describe(),
		"default":   templates.Default,
	})
}
