// Package mongo implements the document store over a MongoDB database:
// validator management via collMod, index lifecycle, aggregation-pipeline
// migrations, fixture inserts and version bookkeeping.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sitati/go-vellum/core/orchestrate"
)

// versionCollection holds one VersionRecord per managed collection.
const versionCollection = "CollectionVersions"

// Store satisfies orchestrate.DocumentStore against a single database.
type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewStore creates a store over db. A nil logger is replaced with a no-op
// logger.
func NewStore(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Connect dials a MongoDB deployment and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// ensureCollection creates the collection if it does not exist yet. collMod
// rejects unknown collections, so validator operations go through here first.
func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}
	if err := s.db.CreateCollection(ctx, collection); err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	s.logger.Info("collection created", zap.String("collection", collection))
	return nil
}

// RemoveValidator clears the collection's validator so migrations can write
// documents that the outgoing schema would reject.
func (s *Store) RemoveValidator(ctx context.Context, collection string) error {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}
	cmd := bson.D{
		{Key: "collMod", Value: collection},
		{Key: "validator", Value: bson.M{}},
		{Key: "validationLevel", Value: "off"},
	}
	if err := s.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("removing validator from %s: %w", collection, err)
	}
	return nil
}

// ApplyValidator installs a $jsonSchema validator with strict enforcement.
func (s *Store) ApplyValidator(ctx context.Context, collection string, validator map[string]any) error {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}
	cmd := bson.D{
		{Key: "collMod", Value: collection},
		{Key: "validator", Value: bson.M{"$jsonSchema": validator}},
		{Key: "validationLevel", Value: "strict"},
		{Key: "validationAction", Value: "error"},
	}
	if err := s.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("applying validator to %s: %w", collection, err)
	}
	return nil
}

// CreateIndex builds one index, preserving the declared key order.
func (s *Store) CreateIndex(ctx context.Context, collection string, index orchestrate.IndexSpec) error {
	keys := make(bson.D, 0, len(index.Keys))
	for _, key := range index.Keys {
		keys = append(keys, bson.E{Key: key.Field, Value: key.Order})
	}
	model := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(index.Name).SetUnique(index.Unique),
	}
	if _, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("creating index %s on %s: %w", index.Name, collection, err)
	}
	return nil
}

// DropIndex removes a named index.
func (s *Store) DropIndex(ctx context.Context, collection string, name string) error {
	if _, err := s.db.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("dropping index %s from %s: %w", name, collection, err)
	}
	return nil
}

// RunPipeline executes an aggregation pipeline against the collection. The
// pipeline is expected to write its own output ($merge or $out); any rows it
// returns are drained and discarded.
func (s *Store) RunPipeline(ctx context.Context, collection string, stages []map[string]any) error {
	cursor, err := s.db.Collection(collection).Aggregate(ctx, stages)
	if err != nil {
		return fmt.Errorf("running pipeline on %s: %w", collection, err)
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("draining pipeline on %s: %w", collection, err)
	}
	return nil
}

// BulkInsert loads fixture documents into the collection.
func (s *Store) BulkInsert(ctx context.Context, collection string, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]any, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, doc)
	}
	if _, err := s.db.Collection(collection).InsertMany(ctx, rows); err != nil {
		return fmt.Errorf("inserting %d documents into %s: %w", len(docs), collection, err)
	}
	return nil
}

// GetCurrentVersion returns the collection's progress marker, or nil when the
// collection has never been versioned.
func (s *Store) GetCurrentVersion(ctx context.Context, collection string) (*orchestrate.VersionRecord, error) {
	var record orchestrate.VersionRecord
	err := s.db.Collection(versionCollection).
		FindOne(ctx, bson.M{"collectionName": collection}).
		Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version of %s: %w", collection, err)
	}
	return &record, nil
}

// SetCurrentVersion upserts the collection's progress marker.
func (s *Store) SetCurrentVersion(ctx context.Context, collection string, record orchestrate.VersionRecord) error {
	_, err := s.db.Collection(versionCollection).UpdateOne(ctx,
		bson.M{"collectionName": collection},
		bson.M{"$set": bson.M{"currentVersion": record.Version}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("recording version of %s: %w", collection, err)
	}
	return nil
}
