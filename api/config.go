package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitati/go-vellum/yamlstore"
)

// parseCategory maps a path segment onto a known artifact category.
func parseCategory(raw string) (yamlstore.Category, bool) {
	for _, category := range yamlstore.Categories {
		if string(category) == raw {
			return category, true
		}
	}
	return "", false
}

// GET /api/config
func ConfigCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		names := make([]string, 0, len(yamlstore.Categories))
		for _, category := range yamlstore.Categories {
			names = append(names, string(category))
		}
		c.JSON(http.StatusOK, gin.H{"categories": names})
	}
}

// GET /api/config/:category
func ConfigListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := parseCategory(c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
			return
		}
		names, err := s.Store.List(category)
		if err != nil {
			s.Logger.Error("listing artifacts failed", zap.String("category", string(category)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "names": names})
	}
}

// GET /api/config/:category/:name
func ConfigGetHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := parseCategory(c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
			return
		}
		doc, err := s.Store.Get(category, c.Param("name"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, yamlstore.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// PUT /api/config/:category/:name
func ConfigPutHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := parseCategory(c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
			return
		}
		var doc any
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		name := c.Param("name")
		if err := s.Store.Put(category, name, doc); err != nil {
			s.Logger.Error("writing artifact failed",
				zap.String("category", string(category)),
				zap.String("name", name),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "name": name})
	}
}

// DELETE /api/config/:category/:name
func ConfigDeleteHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := parseCategory(c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
			return
		}
		name := c.Param("name")
		if err := s.Store.Delete(category, name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, yamlstore.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "name": name})
	}
}
