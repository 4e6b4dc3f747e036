// Package api exposes the configuration store, the schema renderer and the
// orchestrator over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitati/go-vellum/core/orchestrate"
	"github.com/sitati/go-vellum/core/schema"
	"github.com/sitati/go-vellum/yamlstore"
)

// ConfigStore is the artifact store the handlers read and write.
type ConfigStore interface {
	List(category yamlstore.Category) ([]string, error)
	Get(category yamlstore.Category, name string) (any, error)
	Put(category yamlstore.Category, name string, doc any) error
	Delete(category yamlstore.Category, name string) error
}

// Processor runs collection version pipelines on demand.
type Processor interface {
	ProcessAll(ctx context.Context) orchestrate.RunResult
	ProcessCollection(ctx context.Context, name string) (orchestrate.CollectionResult, error)
}

// Server bundles the dependencies the handlers share. Runner may be nil when
// no database is configured; the process endpoints then answer 503.
type Server struct {
	Store    ConfigStore
	Renderer *schema.Renderer
	Runner   Processor
	Logger   *zap.Logger
}

// Router assembles the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	r := gin.Default()

	r.GET("/health", HealthHandler())

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/config", ConfigCategoriesHandler())
		apiGroup.GET("/config/:category", ConfigListHandler(s))
		apiGroup.GET("/config/:category/:name", ConfigGetHandler(s))
		apiGroup.PUT("/config/:category/:name", ConfigPutHandler(s))
		apiGroup.DELETE("/config/:category/:name", ConfigDeleteHandler(s))

		apiGroup.GET("/render/json_schema/:version", RenderHandler(s, schema.FormatApplication))
		apiGroup.GET("/render/bson_schema/:version", RenderHandler(s, schema.FormatValidator))

		apiGroup.POST("/process", ProcessAllHandler(s))
		apiGroup.POST("/process/:collection", ProcessCollectionHandler(s))
	}
	return r
}

// RunServer blocks serving the API on addr.
func RunServer(addr string, s *Server) error {
	return s.Router().Run(addr)
}

// GET /health
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
