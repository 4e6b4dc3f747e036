package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitati/go-vellum/core/schema"
)

// GET /api/render/json_schema/:version
// GET /api/render/bson_schema/:version
//
// The version parameter is a full 4-part version name, optionally prefixed
// with the collection ("users.1.0.0.2" or "1.0.0.2" plus a distinct
// dictionary naming scheme).
func RenderHandler(s *Server, format schema.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		rendered, err := s.Renderer.RenderVersion(c.Param("version"), format)
		if err != nil {
			c.JSON(renderStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rendered)
	}
}

// renderStatus distinguishes caller mistakes from configuration defects.
func renderStatus(err error) int {
	var badVersion *schema.InvalidVersionFormatError
	if errors.As(err, &badVersion) {
		return http.StatusBadRequest
	}
	var missingRef *schema.ReferenceNotFoundError
	if errors.As(err, &missingRef) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}
