// Command vellum serves collection schema configurations: it loads and
// validates the artifact tree, renders schemas in both output formats over
// HTTP and, when a database is configured, orchestrates collection version
// transitions.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sitati/go-vellum/api"
	"github.com/sitati/go-vellum/config"
	"github.com/sitati/go-vellum/core/orchestrate"
	"github.com/sitati/go-vellum/core/schema"
	"github.com/sitati/go-vellum/mongo"
	"github.com/sitati/go-vellum/yamlstore"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("starting",
		zap.String("configRoot", cfg.ConfigRoot),
		zap.String("port", cfg.Port),
		zap.Bool("autoProcess", cfg.AutoProcess))

	store := yamlstore.NewStore(cfg.ConfigRoot, logger)
	bundle, loadErrors := yamlstore.NewLoader(store, cfg.MaxDepth, logger).Load()
	if len(loadErrors) > 0 {
		for _, loadErr := range loadErrors {
			logger.Error("configuration artifact rejected", zap.String("artifact", loadErr.Error()))
		}
		logger.Fatal("configuration did not load", zap.Int("errors", len(loadErrors)))
	}

	issues := schema.NewConfigValidator(bundle.Registry).Validate(bundle.CollectionVersions())
	for _, issue := range issues {
		logger.Error("configuration issue",
			zap.String("code", issue.Code),
			zap.String("path", issue.Path),
			zap.String("message", issue.Message))
	}
	if len(issues) > 0 {
		logger.Fatal("configuration is invalid", zap.Int("issues", len(issues)))
	}
	logger.Info("configuration valid",
		zap.Int("collections", len(bundle.Collections)),
		zap.Strings("dictionaries", bundle.Registry.DictionaryNames()))

	server := &api.Server{
		Store:    store,
		Renderer: schema.NewRenderer(bundle.Registry),
		Logger:   logger,
	}

	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		cancel()
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}()

		docStore := mongo.NewStore(client.Database(cfg.MongoDatabase), logger)
		runner, err := orchestrate.NewOrchestrator(
			bundle.Registry,
			docStore,
			bundle.Collections,
			bundle.Sources,
			orchestrate.Options{LoadTestData: cfg.LoadTestData, Parallelism: cfg.Parallelism},
			logger,
		)
		if err != nil {
			logger.Fatal("orchestrator setup failed", zap.Error(err))
		}
		server.Runner = runner

		if cfg.AutoProcess {
			run := runner.ProcessAll(context.Background())
			if run.Failed() {
				logger.Fatal("startup processing failed", zap.String("runId", run.RunID))
			}
			logger.Info("startup processing complete",
				zap.String("runId", run.RunID),
				zap.Int("applied", run.Applied()))
		}
	} else {
		logger.Info("no database configured, serving in render-only mode")
	}

	if err := api.RunServer(cfg.Addr(), server); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
