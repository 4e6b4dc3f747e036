package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitati/go-vellum/core/orchestrate"
	"github.com/sitati/go-vellum/core/schema"
	"github.com/sitati/go-vellum/yamlstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	users, err := schema.ParseDictionary("users.1.0.0", []byte(`
type: object
properties:
  name:
    type: word
    required: true
  status:
    type: enum
    enums: default_status
`))
	require.NoError(t, err)

	return schema.NewRegistry(
		[]*schema.TypeDef{{
			Name:   "word",
			Schema: map[string]any{"type": "string"},
		}},
		[]*schema.Generation{{
			Version: 2,
			Status:  schema.GenerationActive,
			Enumerators: map[string]map[string]string{
				"default_status": {"active": "Active", "archived": "Archived"},
			},
		}},
		[]*schema.Dictionary{users},
	)
}

type fakeProcessor struct {
	run    orchestrate.RunResult
	result orchestrate.CollectionResult
	err    error
}

func (f *fakeProcessor) ProcessAll(context.Context) orchestrate.RunResult { return f.run }

func (f *fakeProcessor) ProcessCollection(_ context.Context, _ string) (orchestrate.CollectionResult, error) {
	return f.result, f.err
}

func testServer(t *testing.T, runner Processor) (*gin.Engine, string) {
	t.Helper()
	root := t.TempDir()
	for _, category := range yamlstore.Categories {
		require.NoError(t, os.MkdirAll(filepath.Join(root, string(category)), 0o755))
	}
	s := &Server{
		Store:    yamlstore.NewStore(root, nil),
		Renderer: schema.NewRenderer(testRegistry(t)),
		Runner:   runner,
	}
	return s.Router(), root
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := testServer(t, nil)
	w := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodPut, "/api/config/types/flag",
		`{"schema": {"type": "boolean"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/config/types", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Names []string `json:"names"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, []string{"flag"}, listing.Names)

	w = do(t, router, http.MethodGet, "/api/config/types/flag", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	fragment := doc["schema"].(map[string]any)
	assert.Equal(t, "boolean", fragment["type"])

	w = do(t, router, http.MethodDelete, "/api/config/types/flag", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodGet, "/api/config/types/flag", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigRejectsUnknownCategory(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/config/widgets", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPut, "/api/config/widgets/thing", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigRejectsInvalidBody(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodPut, "/api/config/types/flag", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderBothFormats(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/render/json_schema/users.1.0.0.2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var jsonForm map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jsonForm))
	assert.Equal(t, "object", jsonForm["type"])

	w = do(t, router, http.MethodGet, "/api/render/bson_schema/users.1.0.0.2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bsonForm map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bsonForm))
	assert.Equal(t, "object", bsonForm["bsonType"])
	assert.NotContains(t, bsonForm, "type")
}

func TestRenderErrorMapping(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/render/json_schema/not-a-version", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/render/json_schema/ghosts.1.0.0.2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Generation 9 does not exist, so the enum cannot be resolved.
	w = do(t, router, http.MethodGet, "/api/render/json_schema/users.1.0.0.9", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProcessWithoutDatabase(t *testing.T) {
	router, _ := testServer(t, nil)

	w := do(t, router, http.MethodPost, "/api/process", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, router, http.MethodPost, "/api/process/users", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProcessReportsOutcome(t *testing.T) {
	runner := &fakeProcessor{
		run: orchestrate.RunResult{
			RunID: "run-1",
			Collections: []orchestrate.CollectionResult{
				{Collection: "users", Status: orchestrate.StatusApplied},
			},
		},
		result: orchestrate.CollectionResult{Collection: "users", Status: orchestrate.StatusApplied},
	}
	router, _ := testServer(t, runner)

	w := do(t, router, http.MethodPost, "/api/process", "")
	require.Equal(t, http.StatusOK, w.Code)
	var run orchestrate.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.RunID)

	w = do(t, router, http.MethodPost, "/api/process/users", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessFailureStatusCode(t *testing.T) {
	runner := &fakeProcessor{
		run: orchestrate.RunResult{
			Collections: []orchestrate.CollectionResult{
				{Collection: "users", Status: orchestrate.StatusFailed},
			},
		},
		result: orchestrate.CollectionResult{Collection: "users", Status: orchestrate.StatusFailed},
	}
	router, _ := testServer(t, runner)

	w := do(t, router, http.MethodPost, "/api/process", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(t, router, http.MethodPost, "/api/process/users", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
