package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GenerationStatus is the lifecycle status of one enumerator generation.
type GenerationStatus string

const (
	GenerationActive     GenerationStatus = "Active"
	GenerationDeprecated GenerationStatus = "Deprecated"
)

// Generation is one versioned snapshot of all named value-sets. A collection
// selects a generation through the fourth component of its version.
type Generation struct {
	Version     int                          `yaml:"version" json:"version"`
	Status      GenerationStatus             `yaml:"status" json:"status"`
	Enumerators map[string]map[string]string `yaml:"enumerators" json:"enumerators"`
}

// Enum returns the value -> description map for a named value-set.
func (g *Generation) Enum(name string) (map[string]string, bool) {
	values, ok := g.Enumerators[name]
	return values, ok
}

// TypeDef is a named reusable type. A leaf type carries either a universal
// fragment or a pair of format-specific fragments; a composite type carries
// an object/array property tree.
type TypeDef struct {
	Name        string
	Description string

	// Schema is the universal leaf fragment, emitted for both formats with
	// the type discriminator translated per format.
	Schema map[string]any

	// JSONSchema and DBSchema are the format-specific leaf fragments. A leaf
	// type carries either Schema or both of these.
	JSONSchema map[string]any
	DBSchema   map[string]any

	// Root is the composite structure when the type is an object or array.
	Root *Property
}

// IsLeaf reports whether the type emits a fragment directly instead of
// recursing into a property tree.
func (t *TypeDef) IsLeaf() bool {
	return t.Schema != nil || t.JSONSchema != nil || t.DBSchema != nil
}

// UnmarshalYAML decodes a type definition. The presence of "schema",
// "json_schema" or "db_schema" marks a leaf type; a "type" key marks a
// composite decoded as a property tree.
func (t *TypeDef) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Description string         `yaml:"description"`
		Schema      map[string]any `yaml:"schema"`
		JSONSchema  map[string]any `yaml:"json_schema"`
		DBSchema    map[string]any `yaml:"db_schema"`
		Type        string         `yaml:"type"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	t.Description = raw.Description
	t.Schema = raw.Schema
	t.JSONSchema = raw.JSONSchema
	t.DBSchema = raw.DBSchema

	if t.IsLeaf() {
		return nil
	}
	if raw.Type == "" {
		return fmt.Errorf("type definition carries neither a schema fragment nor a structure")
	}

	root := &Property{}
	if err := node.Decode(root); err != nil {
		return err
	}
	t.Root = root
	return nil
}

// Dictionary is the named root property tree for one (collection,
// schema-version) pair. Its name is the version's schema identity,
// "collection.major.minor.patch".
type Dictionary struct {
	Name string
	Root *Property
}

// ParseDictionary decodes dictionary YAML into its root property tree.
func ParseDictionary(name string, data []byte) (*Dictionary, error) {
	root := &Property{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("dictionary '%s': %w", name, err)
	}
	root.Name = name
	return &Dictionary{Name: name, Root: root}, nil
}

// Issue is one structural problem found during configuration validation.
// Issues carry a stable code and the dotted path of the offending node.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Document is a generic decoded artifact or database record.
type Document map[string]any
