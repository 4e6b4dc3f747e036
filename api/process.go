package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitati/go-vellum/core/orchestrate"
)

// POST /api/process
func ProcessAllHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Runner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})
			return
		}
		run := s.Runner.ProcessAll(c.Request.Context())
		status := http.StatusOK
		if run.Failed() {
			status = http.StatusInternalServerError
		}
		c.JSON(status, run)
	}
}

// POST /api/process/:collection
func ProcessCollectionHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Runner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})
			return
		}
		result, err := s.Runner.ProcessCollection(c.Request.Context(), c.Param("collection"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if result.Status == orchestrate.StatusFailed {
			status = http.StatusInternalServerError
		}
		c.JSON(status, result)
	}
}
