package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"

	"github.com/sitati/go-vellum/core/orchestrate"
)

// testStore connects to the deployment named by VELLUM_TEST_MONGO_URI and
// hands back a store over a throwaway database. Skips when the variable is
// unset so the suite stays runnable without a server.
func testStore(t *testing.T) (*Store, *driver.Database) {
	t.Helper()
	uri := os.Getenv("VELLUM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VELLUM_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("vellum_test_" + uuid.New().String()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewStore(db, nil), db
}

func TestStore_ValidatorLifecycle(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	validator := map[string]any{
		"bsonType": "object",
		"properties": map[string]any{
			"name": map[string]any{"bsonType": "string"},
		},
		"required":             []string{"name"},
		"additionalProperties": false,
	}
	require.NoError(t, store.ApplyValidator(ctx, "widgets", validator))

	// A conforming document passes, a violating one is rejected.
	_, err := db.Collection("widgets").InsertOne(ctx, bson.M{"name": "gear"})
	require.NoError(t, err)
	_, err = db.Collection("widgets").InsertOne(ctx, bson.M{"name": 42})
	assert.Error(t, err)

	require.NoError(t, store.RemoveValidator(ctx, "widgets"))
	_, err = db.Collection("widgets").InsertOne(ctx, bson.M{"name": 42})
	assert.NoError(t, err)
}

func TestStore_RemoveValidatorCreatesMissingCollection(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.RemoveValidator(ctx, "fresh"))

	names, err := db.ListCollectionNames(ctx, bson.M{"name": "fresh"})
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestStore_IndexLifecycle(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.RemoveValidator(ctx, "widgets"))
	require.NoError(t, store.CreateIndex(ctx, "widgets", orchestrate.IndexSpec{
		Name:   "name_idx",
		Keys:   []orchestrate.IndexKey{{Field: "name", Order: 1}},
		Unique: true,
	}))
	require.NoError(t, store.DropIndex(ctx, "widgets", "name_idx"))
	assert.Error(t, store.DropIndex(ctx, "widgets", "name_idx"))
}

func TestStore_PipelineAndFixtures(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.BulkInsert(ctx, "widgets", []map[string]any{
		{"name": "gear"},
		{"name": "cog"},
	}))

	require.NoError(t, store.RunPipeline(ctx, "widgets", []map[string]any{
		{"$addFields": map[string]any{"status": "active"}},
		{"$merge": map[string]any{"into": "widgets", "whenMatched": "replace"}},
	}))

	count, err := db.Collection("widgets").CountDocuments(ctx, bson.M{"status": "active"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestStore_VersionBookkeeping(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	record, err := store.GetCurrentVersion(ctx, "widgets")
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, store.SetCurrentVersion(ctx, "widgets", orchestrate.VersionRecord{
		Collection: "widgets",
		Version:    "1.0.0.1",
	}))
	require.NoError(t, store.SetCurrentVersion(ctx, "widgets", orchestrate.VersionRecord{
		Collection: "widgets",
		Version:    "1.0.1.1",
	}))

	record, err = store.GetCurrentVersion(ctx, "widgets")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "widgets", record.Collection)
	assert.Equal(t, "1.0.1.1", record.Version)
}
