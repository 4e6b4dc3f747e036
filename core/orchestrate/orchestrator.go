package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sitati/go-vellum/core/schema"
)

// Options configures an orchestration run.
type Options struct {
	// LoadTestData enables the fixture bulk-load step for version specs that
	// reference one.
	LoadTestData bool

	// Parallelism bounds the number of collection pipelines processed at
	// once. Collections touch disjoint state, so anything above 1 is safe;
	// zero or one keeps the sequential behavior.
	Parallelism int
}

// Sources holds the pre-loaded migration pipelines and test fixtures that
// version specs reference by name. Loading happens before orchestration, so
// a missing reference here is a configuration defect.
type Sources struct {
	Pipelines map[string][]map[string]any
	Fixtures  map[string][]map[string]any
}

// Orchestrator walks each collection's pending versions and applies their
// operations in order through the DocumentStore. The registries it reads are
// immutable for the run; the only mutable state is per-collection and owned
// by a single goroutine.
type Orchestrator struct {
	renderer    *schema.Renderer
	store       DocumentStore
	collections []CollectionConfig
	sources     Sources
	emitter     *emitter
	logger      *zap.Logger
	opts        Options
}

// NewOrchestrator creates an orchestrator. A nil logger is replaced with a
// no-op logger.
func NewOrchestrator(registry *schema.Registry, store DocumentStore, collections []CollectionConfig, sources Sources, opts Options, logger *zap.Logger) (*Orchestrator, error) {
	em, err := newEmitter()
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sources.Pipelines == nil {
		sources.Pipelines = map[string][]map[string]any{}
	}
	if sources.Fixtures == nil {
		sources.Fixtures = map[string][]map[string]any{}
	}
	return &Orchestrator{
		renderer:    schema.NewRenderer(registry),
		store:       store,
		collections: collections,
		sources:     sources,
		emitter:     em,
		logger:      logger,
		opts:        opts,
	}, nil
}

// RegisterSubscription registers a callback for a run event type and returns
// a handle for unregistering it.
func (o *Orchestrator) RegisterSubscription(options RegisterSubscriptionOptions) string {
	return o.emitter.register(options)
}

// UnregisterSubscription removes a subscription by its handle.
func (o *Orchestrator) UnregisterSubscription(id string) {
	o.emitter.unregister(id)
}

// ProcessAll runs every configured collection pipeline and returns the full
// outcome tree. Collection failures are recorded, never returned as an
// error: the result tree is the report.
func (o *Orchestrator) ProcessAll(ctx context.Context) RunResult {
	runID := uuid.New().String()
	started := time.Now().UTC()
	o.emitter.emit(Event{Type: RunStart, RunID: runID})
	o.logger.Info("orchestration run starting",
		zap.String("runId", runID),
		zap.Int("collections", len(o.collections)))

	results := make([]CollectionResult, len(o.collections))

	limit := o.opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, cfg := range o.collections {
		group.Go(func() error {
			results[i] = o.processCollection(groupCtx, runID, cfg)
			return nil
		})
	}
	// Workers never return errors; failures live in their result slots.
	_ = group.Wait()

	run := RunResult{
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Collections: results,
	}
	o.emitter.emit(Event{Type: RunComplete, RunID: runID})
	o.logger.Info("orchestration run finished",
		zap.String("runId", runID),
		zap.Int("applied", run.Applied()),
		zap.Bool("failed", run.Failed()))
	return run
}

// ProcessCollection runs a single named collection pipeline.
func (o *Orchestrator) ProcessCollection(ctx context.Context, name string) (CollectionResult, error) {
	for _, cfg := range o.collections {
		if cfg.Name == name {
			runID := uuid.New().String()
			return o.processCollection(ctx, runID, cfg), nil
		}
	}
	return CollectionResult{}, fmt.Errorf("no collection configuration named '%s'", name)
}

func (o *Orchestrator) processCollection(ctx context.Context, runID string, cfg CollectionConfig) CollectionResult {
	logger := o.logger.With(zap.String("runId", runID), zap.String("collection", cfg.Name))

	current := schema.ZeroVersion
	record, err := o.store.GetCurrentVersion(ctx, cfg.Name)
	if err != nil {
		logger.Error("failed to read current version", zap.Error(err))
		return CollectionResult{
			Collection: cfg.Name,
			Status:     StatusFailed,
			Error:      fmt.Sprintf("read current version: %v", err),
		}
	}
	if record != nil {
		parsed, err := schema.ParseVersion(record.Version)
		if err != nil {
			logger.Error("persisted version record is malformed", zap.Error(err))
			return CollectionResult{
				Collection: cfg.Name,
				Status:     StatusFailed,
				Error:      fmt.Sprintf("persisted version record: %v", err),
			}
		}
		current = parsed
	}

	versions := make([]VersionResult, 0, len(cfg.Versions))
	status := StatusApplied
	halted := false

	for _, spec := range cfg.Versions {
		if halted {
			versions = append(versions, VersionResult{Version: spec.Version, Status: StatusPending})
			continue
		}

		target, err := schema.ParseVersion(spec.Version)
		if err != nil {
			versions = append(versions, VersionResult{
				Version: spec.Version,
				Status:  StatusFailed,
				Error:   err.Error(),
			})
			status = StatusFailed
			halted = true
			continue
		}
		if target.Collection == "" {
			target.Collection = cfg.Name
		}

		if !target.GreaterThan(current) {
			logger.Debug("version already applied", zap.String("version", target.String()))
			o.emitter.emit(Event{Type: VersionSkipped, RunID: runID, Collection: cfg.Name, Version: target.String()})
			versions = append(versions, VersionResult{Version: spec.Version, Status: StatusSkipped})
			continue
		}

		result := o.applyVersion(ctx, runID, cfg.Name, spec, target, logger)
		versions = append(versions, result)
		if result.Status == StatusFailed {
			status = StatusFailed
			halted = true
			continue
		}
		current = target
	}

	return CollectionResult{
		Collection: cfg.Name,
		Status:     status,
		Versions:   versions,
	}
}

// applyVersion executes one version transition, strictly in step order,
// stopping at the first failing step. The version record is only advanced by
// the final step, so a failed transition leaves the persisted version
// untouched.
func (o *Orchestrator) applyVersion(ctx context.Context, runID, collection string, spec VersionSpec, target schema.Version, logger *zap.Logger) VersionResult {
	logger = logger.With(zap.String("version", target.String()))
	logger.Info("applying version")
	o.emitter.emit(Event{Type: VersionApplyStart, RunID: runID, Collection: collection, Version: target.String()})

	steps := make([]StepResult, 0, 4+len(spec.DropIndexes)+len(spec.Migrations)+len(spec.AddIndexes))
	fail := func(step, subject string, err error) VersionResult {
		logger.Error("version step failed", zap.String("step", step), zap.String("target", subject), zap.Error(err))
		steps = append(steps, StepResult{Step: step, Target: subject, Status: StatusFailed, Error: err.Error()})
		message := err.Error()
		o.emitter.emit(Event{
			Type:       VersionApplyFailed,
			RunID:      runID,
			Collection: collection,
			Version:    target.String(),
			Step:       step,
			Error:      &message,
		})
		return VersionResult{Version: spec.Version, Status: StatusFailed, Steps: steps, Error: message}
	}
	ok := func(step, subject string) {
		steps = append(steps, StepResult{Step: step, Target: subject, Status: StatusApplied})
	}

	if err := o.store.RemoveValidator(ctx, collection); err != nil {
		return fail(StepRemoveValidator, "", err)
	}
	ok(StepRemoveValidator, "")

	for _, name := range spec.DropIndexes {
		if err := o.store.DropIndex(ctx, collection, name); err != nil {
			return fail(StepDropIndex, name, err)
		}
		ok(StepDropIndex, name)
	}

	for _, ref := range spec.Migrations {
		stages, found := o.sources.Pipelines[ref]
		if !found {
			return fail(StepMigration, ref, fmt.Errorf("migration '%s' is not loaded", ref))
		}
		if err := o.store.RunPipeline(ctx, collection, stages); err != nil {
			return fail(StepMigration, ref, err)
		}
		ok(StepMigration, ref)
	}

	for _, index := range spec.AddIndexes {
		if err := o.store.CreateIndex(ctx, collection, index); err != nil {
			return fail(StepAddIndex, index.Name, err)
		}
		ok(StepAddIndex, index.Name)
	}

	validator, err := o.renderer.Render(target.SchemaIdentity(), schema.FormatValidator, target.Generation())
	if err != nil {
		return fail(StepApplyValidator, target.SchemaIdentity(), err)
	}
	if err := o.store.ApplyValidator(ctx, collection, validator); err != nil {
		return fail(StepApplyValidator, target.SchemaIdentity(), err)
	}
	ok(StepApplyValidator, target.SchemaIdentity())

	if o.opts.LoadTestData && spec.TestData != "" {
		docs, found := o.sources.Fixtures[spec.TestData]
		if !found {
			return fail(StepLoadTestData, spec.TestData, fmt.Errorf("fixture '%s' is not loaded", spec.TestData))
		}
		if err := o.store.BulkInsert(ctx, collection, docs); err != nil {
			return fail(StepLoadTestData, spec.TestData, err)
		}
		ok(StepLoadTestData, spec.TestData)
	}

	record := VersionRecord{Collection: collection, Version: target.String()}
	if err := o.store.SetCurrentVersion(ctx, collection, record); err != nil {
		return fail(StepRecordVersion, target.String(), err)
	}
	ok(StepRecordVersion, target.String())

	logger.Info("version applied")
	o.emitter.emit(Event{Type: VersionApplySuccess, RunID: runID, Collection: collection, Version: target.String()})
	return VersionResult{Version: spec.Version, Status: StatusApplied, Steps: steps}
}
