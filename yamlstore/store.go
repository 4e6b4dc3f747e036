// Package yamlstore implements the configuration store over directories of
// YAML artifacts: one subdirectory per category, one file per artifact.
package yamlstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotFound reports a missing artifact. Callers distinguish it with
// errors.Is.
var ErrNotFound = errors.New("artifact not found")

// Category names one kind of configuration artifact.
type Category string

const (
	CategoryTypes        Category = "types"
	CategoryDictionaries Category = "dictionaries"
	CategoryEnumerators  Category = "enumerators"
	CategoryCollections  Category = "collections"
	CategoryMigrations   Category = "migrations"
	CategoryTestData     Category = "testdata"
)

// Categories lists every artifact category in a stable order.
var Categories = []Category{
	CategoryTypes,
	CategoryDictionaries,
	CategoryEnumerators,
	CategoryCollections,
	CategoryMigrations,
	CategoryTestData,
}

// extensions are tried in order when locating an artifact. Test data is
// often authored as JSON, which yaml.v3 parses as well.
var extensions = []string{".yaml", ".yml", ".json"}

// Store reads and writes configuration artifacts under a root directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir. A nil logger is replaced with a
// no-op logger.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: dir, logger: logger}
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// List returns the artifact names in a category, without extensions, sorted.
func (s *Store) List(category Category) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, string(category)))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", category, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isArtifactExt(ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// Get decodes a named artifact into a generic document tree.
func (s *Store) Get(category Category, name string) (any, error) {
	data, err := s.ReadRaw(category, name)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", category, name, err)
	}
	return doc, nil
}

// Put writes an artifact, overwriting an existing one regardless of which
// extension it was authored with. An artifact authored as JSON stays JSON.
func (s *Store) Put(category Category, name string, doc any) error {
	dir := filepath.Join(s.root, string(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	path, found := s.locate(category, name)
	if !found {
		path = filepath.Join(dir, name+".yaml")
	}

	var data []byte
	var err error
	if filepath.Ext(path) == ".json" {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", category, name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s/%s: %w", category, name, err)
	}
	s.logger.Debug("artifact written", zap.String("category", string(category)), zap.String("name", name))
	return nil
}

// Delete removes a named artifact.
func (s *Store) Delete(category Category, name string) error {
	path, found := s.locate(category, name)
	if !found {
		return fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", category, name, err)
	}
	return nil
}

// ReadRaw returns an artifact's bytes, for decoders that need node-level
// access (dictionary property order survives only at that level).
func (s *Store) ReadRaw(category Category, name string) ([]byte, error) {
	path, found := s.locate(category, name)
	if !found {
		return nil, fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", category, name, err)
	}
	return data, nil
}

func (s *Store) locate(category Category, name string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(s.root, string(category), name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func isArtifactExt(ext string) bool {
	for _, known := range extensions {
		if ext == known {
			return true
		}
	}
	return false
}
