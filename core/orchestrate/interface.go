// Package orchestrate drives per-collection, per-version schema transitions
// against a document database: index changes, migration pipelines, validator
// application and version bookkeeping, in a fixed order with
// partial-failure-aware outcome reporting.
package orchestrate

import "context"

// IndexKey is one field of a compound index, with its sort order.
type IndexKey struct {
	Field string `yaml:"field" json:"field"`
	Order int    `yaml:"order" json:"order"`
}

// IndexSpec describes an index to create during a version transition. Keys
// keep their declared order.
type IndexSpec struct {
	Name   string     `yaml:"name" json:"name"`
	Keys   []IndexKey `yaml:"keys" json:"keys"`
	Unique bool       `yaml:"unique" json:"unique"`
}

// VersionSpec is one planned transition for a collection: the 4-part version
// it moves to and the ordered operations that get it there.
type VersionSpec struct {
	Version     string      `yaml:"version" json:"version"`
	DropIndexes []string    `yaml:"drop_indexes" json:"dropIndexes,omitempty"`
	Migrations  []string    `yaml:"migrations" json:"migrations,omitempty"`
	AddIndexes  []IndexSpec `yaml:"add_indexes" json:"addIndexes,omitempty"`
	TestData    string      `yaml:"test_data" json:"testData,omitempty"`
}

// CollectionConfig is the full ordered version plan for one collection.
type CollectionConfig struct {
	Name     string        `yaml:"name" json:"name"`
	Versions []VersionSpec `yaml:"versions" json:"versions"`
}

// VersionRecord is the persisted progress marker for a collection: the last
// version that was fully applied.
type VersionRecord struct {
	Collection string `bson:"collectionName" json:"collectionName"`
	Version    string `bson:"currentVersion" json:"currentVersion"`
}

// DocumentStore is the database collaborator the orchestrator drives. All
// operations are blocking; none are retried here. A nil record from
// GetCurrentVersion means the collection has never been versioned.
type DocumentStore interface {
	RemoveValidator(ctx context.Context, collection string) error
	ApplyValidator(ctx context.Context, collection string, validator map[string]any) error
	CreateIndex(ctx context.Context, collection string, index IndexSpec) error
	DropIndex(ctx context.Context, collection string, name string) error
	RunPipeline(ctx context.Context, collection string, stages []map[string]any) error
	BulkInsert(ctx context.Context, collection string, docs []map[string]any) error
	GetCurrentVersion(ctx context.Context, collection string) (*VersionRecord, error)
	SetCurrentVersion(ctx context.Context, collection string, record VersionRecord) error
}
