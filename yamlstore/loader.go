package yamlstore

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sitati/go-vellum/core/orchestrate"
	"github.com/sitati/go-vellum/core/schema"
)

// LoadError records one artifact that failed to load. Loading never stops at
// the first failure; every sibling is still attempted.
type LoadError struct {
	Category Category
	Name     string
	Err      error
}

func (e LoadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Category, e.Name, e.Err)
}

// Bundle is the fully loaded configuration for one run: the immutable
// registry plus the orchestration plans and their referenced sources.
type Bundle struct {
	Registry    *schema.Registry
	Collections []orchestrate.CollectionConfig
	Sources     orchestrate.Sources
}

// CollectionVersions projects the loaded collection configs into the
// validator's input shape.
func (b *Bundle) CollectionVersions() []schema.CollectionVersions {
	out := make([]schema.CollectionVersions, 0, len(b.Collections))
	for _, c := range b.Collections {
		versions := make([]string, 0, len(c.Versions))
		for _, v := range c.Versions {
			versions = append(versions, v.Version)
		}
		out = append(out, schema.CollectionVersions{Collection: c.Name, Versions: versions})
	}
	return out
}

// Loader builds a Bundle from a Store. Decode problems are collected per
// artifact; a non-empty error set means the bundle must not be validated or
// orchestrated.
type Loader struct {
	store    *Store
	maxDepth int
	logger   *zap.Logger
}

// NewLoader creates a loader. maxDepth of zero keeps the registry default.
func NewLoader(store *Store, maxDepth int, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, maxDepth: maxDepth, logger: logger}
}

// Load reads every artifact category and assembles the bundle.
func (l *Loader) Load() (*Bundle, []LoadError) {
	var loadErrors []LoadError
	fail := func(category Category, name string, err error) {
		l.logger.Warn("artifact failed to load",
			zap.String("category", string(category)),
			zap.String("name", name),
			zap.Error(err))
		loadErrors = append(loadErrors, LoadError{Category: category, Name: name, Err: err})
	}

	types := l.loadTypes(fail)
	generations := l.loadGenerations(fail)
	dictionaries := l.loadDictionaries(fail)
	collections := l.loadCollections(fail)
	pipelines := l.loadPipelines(fail)
	fixtures := l.loadFixtures(fail)

	opts := []schema.RegistryOption{}
	if l.maxDepth > 0 {
		opts = append(opts, schema.WithMaxDepth(l.maxDepth))
	}

	bundle := &Bundle{
		Registry:    schema.NewRegistry(types, generations, dictionaries, opts...),
		Collections: collections,
		Sources: orchestrate.Sources{
			Pipelines: pipelines,
			Fixtures:  fixtures,
		},
	}
	l.logger.Info("configuration loaded",
		zap.Int("types", len(types)),
		zap.Int("generations", len(generations)),
		zap.Int("dictionaries", len(dictionaries)),
		zap.Int("collections", len(collections)),
		zap.Int("errors", len(loadErrors)))
	return bundle, loadErrors
}

type failFunc func(category Category, name string, err error)

func (l *Loader) loadTypes(fail failFunc) []*schema.TypeDef {
	names, err := l.store.List(CategoryTypes)
	if err != nil {
		fail(CategoryTypes, "", err)
		return nil
	}
	types := make([]*schema.TypeDef, 0, len(names))
	for _, name := range names {
		data, err := l.store.ReadRaw(CategoryTypes, name)
		if err != nil {
			fail(CategoryTypes, name, err)
			continue
		}
		t := &schema.TypeDef{}
		if err := yaml.Unmarshal(data, t); err != nil {
			fail(CategoryTypes, name, err)
			continue
		}
		t.Name = name
		types = append(types, t)
	}
	return types
}

func (l *Loader) loadGenerations(fail failFunc) []*schema.Generation {
	names, err := l.store.List(CategoryEnumerators)
	if err != nil {
		fail(CategoryEnumerators, "", err)
		return nil
	}
	var generations []*schema.Generation
	for _, name := range names {
		data, err := l.store.ReadRaw(CategoryEnumerators, name)
		if err != nil {
			fail(CategoryEnumerators, name, err)
			continue
		}
		var decoded []*schema.Generation
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			fail(CategoryEnumerators, name, err)
			continue
		}
		generations = append(generations, decoded...)
	}
	return generations
}

func (l *Loader) loadDictionaries(fail failFunc) []*schema.Dictionary {
	names, err := l.store.List(CategoryDictionaries)
	if err != nil {
		fail(CategoryDictionaries, "", err)
		return nil
	}
	dictionaries := make([]*schema.Dictionary, 0, len(names))
	for _, name := range names {
		data, err := l.store.ReadRaw(CategoryDictionaries, name)
		if err != nil {
			fail(CategoryDictionaries, name, err)
			continue
		}
		d, err := schema.ParseDictionary(name, data)
		if err != nil {
			fail(CategoryDictionaries, name, err)
			continue
		}
		dictionaries = append(dictionaries, d)
	}
	return dictionaries
}

func (l *Loader) loadCollections(fail failFunc) []orchestrate.CollectionConfig {
	names, err := l.store.List(CategoryCollections)
	if err != nil {
		fail(CategoryCollections, "", err)
		return nil
	}
	collections := make([]orchestrate.CollectionConfig, 0, len(names))
	for _, name := range names {
		data, err := l.store.ReadRaw(CategoryCollections, name)
		if err != nil {
			fail(CategoryCollections, name, err)
			continue
		}
		var cfg orchestrate.CollectionConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fail(CategoryCollections, name, err)
			continue
		}
		if cfg.Name == "" {
			cfg.Name = name
		}
		collections = append(collections, cfg)
	}
	return collections
}

func (l *Loader) loadPipelines(fail failFunc) map[string][]map[string]any {
	return l.loadStageLists(CategoryMigrations, fail)
}

func (l *Loader) loadFixtures(fail failFunc) map[string][]map[string]any {
	return l.loadStageLists(CategoryTestData, fail)
}

// loadStageLists reads every artifact in a category as a list of documents:
// aggregation stages for migrations, records for test fixtures.
func (l *Loader) loadStageLists(category Category, fail failFunc) map[string][]map[string]any {
	names, err := l.store.List(category)
	if err != nil {
		fail(category, "", err)
		return map[string][]map[string]any{}
	}
	out := make(map[string][]map[string]any, len(names))
	for _, name := range names {
		data, err := l.store.ReadRaw(category, name)
		if err != nil {
			fail(category, name, err)
			continue
		}
		var docs []map[string]any
		if err := yaml.Unmarshal(data, &docs); err != nil {
			fail(category, name, err)
			continue
		}
		out[name] = docs
	}
	return out
}
