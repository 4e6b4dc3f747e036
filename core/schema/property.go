package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the shape of a property node. Custom scalar/composite
// types declared in the type registry are addressed through KindCustom with
// the type name carried separately.
type Kind string

const (
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindEnum      Kind = "enum"
	KindEnumArray Kind = "enum_array"
	KindRef       Kind = "ref"
	KindCustom    Kind = "custom"
)

// Property is one node of a dictionary's property tree. Children of an
// object property keep their declaration order, which drives the order of
// the rendered "required" list.
type Property struct {
	Name        string
	Description string
	Kind        Kind
	Required    bool

	// TypeName holds the custom type name when Kind is KindCustom.
	TypeName string

	// Properties holds object children in declaration order.
	Properties []*Property

	// Items describes array elements when Kind is KindArray.
	Items *Property

	// Enums names the value-set for KindEnum and KindEnumArray.
	Enums string

	// Ref names the target dictionary for KindRef. A ref property carries no
	// other attributes; it is a pure substitution pointer.
	Ref string

	// OneOf holds alternative schemas attached to an object property. Each
	// alternative is rendered as a full schema fragment.
	OneOf []*Property

	// AdditionalProperties mirrors the JSON Schema flag on object properties.
	AdditionalProperties bool
}

// Child returns the named object child, or nil.
func (p *Property) Child(name string) *Property {
	for _, c := range p.Properties {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// UnmarshalYAML decodes a property node. The node's "type" selects the kind:
// object, array, enum and enum_array are structural, a node carrying "ref"
// is a substitution pointer, and any other type name refers to a custom type.
func (p *Property) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("property must be a mapping, got %s", nodeKind(node))
	}

	var raw struct {
		Description          string        `yaml:"description"`
		Type                 string        `yaml:"type"`
		Required             bool          `yaml:"required"`
		Items                *Property     `yaml:"items"`
		Enums                string        `yaml:"enums"`
		Ref                  string        `yaml:"ref"`
		OneOf                []*Property   `yaml:"one_of"`
		AdditionalProperties bool          `yaml:"additional_properties"`
		Properties           yaml.Node     `yaml:"properties"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	p.Description = raw.Description
	p.Required = raw.Required

	if raw.Ref != "" {
		p.Kind = KindRef
		p.Ref = raw.Ref
		return nil
	}

	switch raw.Type {
	case "object":
		p.Kind = KindObject
		p.AdditionalProperties = raw.AdditionalProperties
		p.OneOf = raw.OneOf
		if raw.Properties.Kind != 0 {
			children, err := decodeOrderedProperties(&raw.Properties)
			if err != nil {
				return err
			}
			p.Properties = children
		}
	case "array":
		p.Kind = KindArray
		p.Items = raw.Items
	case "enum":
		p.Kind = KindEnum
		p.Enums = raw.Enums
	case "enum_array":
		p.Kind = KindEnumArray
		p.Enums = raw.Enums
	case "":
		return fmt.Errorf("property is missing a type")
	default:
		p.Kind = KindCustom
		p.TypeName = raw.Type
	}
	return nil
}

// decodeOrderedProperties walks a YAML mapping node pairwise so that child
// declaration order survives decoding.
func decodeOrderedProperties(node *yaml.Node) ([]*Property, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("properties must be a mapping, got %s", nodeKind(node))
	}
	children := make([]*Property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		child := &Property{}
		if err := valueNode.Decode(child); err != nil {
			return nil, fmt.Errorf("property '%s': %w", keyNode.Value, err)
		}
		child.Name = keyNode.Value
		children = append(children, child)
	}
	return children, nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
