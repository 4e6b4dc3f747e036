package schema

import (
	"fmt"
	"sort"
)

// Format selects the output dialect of the renderer.
type Format string

const (
	// FormatApplication is the application-facing JSON Schema form, using the
	// "type" discriminator.
	FormatApplication Format = "application"

	// FormatValidator is the database-enforced validator form, using the
	// "bsonType" discriminator. All other structural field names are shared
	// with the application form.
	FormatValidator Format = "validator"
)

// validatorTypes maps the universal type vocabulary to the validator
// discriminator vocabulary. Names without an entry pass through unchanged.
var validatorTypes = map[string]string{
	"string":  "string",
	"number":  "double",
	"integer": "int",
	"boolean": "bool",
	"object":  "object",
	"array":   "array",
}

// Renderer walks a resolved property tree and emits a schema fragment in
// either format. Rendering is pure and safe to run concurrently; the visit
// stack is created per call.
type Renderer struct {
	registry *Registry
	resolver *Resolver
}

// NewRenderer creates a renderer over a read-only registry.
func NewRenderer(registry *Registry) *Renderer {
	return &Renderer{
		registry: registry,
		resolver: NewResolver(registry),
	}
}

// RenderVersion renders the dictionary identified by a full 4-part version
// string ("collection.1.0.0.1"), selecting the enumerator generation from
// the version's fourth component.
func (r *Renderer) RenderVersion(versionName string, format Format) (map[string]any, error) {
	v, err := ParseVersion(versionName)
	if err != nil {
		return nil, err
	}
	return r.Render(v.SchemaIdentity(), format, v.Generation())
}

// Render renders a dictionary by schema identity name under a specific
// enumerator generation.
func (r *Renderer) Render(dictionary string, format Format, generation int) (map[string]any, error) {
	stack := NewStack(r.registry.MaxDepth())
	return r.renderDictionary(dictionary, format, generation, stack)
}

// renderDictionary substitutes a referenced dictionary wholesale: the
// rendered root replaces the ref node unchanged, never merged or wrapped.
func (r *Renderer) renderDictionary(name string, format Format, generation int, stack *Stack) (map[string]any, error) {
	d, release, err := r.resolver.Dictionary(name, stack)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.renderProperty(d.Root, format, generation, stack)
}

func (r *Renderer) renderProperty(p *Property, format Format, generation int, stack *Stack) (map[string]any, error) {
	switch p.Kind {
	case KindRef:
		return r.renderDictionary(p.Ref, format, generation, stack)
	case KindObject:
		return r.renderObject(p, format, generation, stack)
	case KindArray:
		if p.Items == nil {
			return nil, fmt.Errorf("array property '%s' declares no items", p.Name)
		}
		out := r.newFragment(p, format, "array")
		items, err := r.renderProperty(p.Items, format, generation, stack)
		if err != nil {
			return nil, err
		}
		out["items"] = items
		return out, nil
	case KindEnum:
		values, err := r.enumValues(p, generation)
		if err != nil {
			return nil, err
		}
		out := r.newFragment(p, format, "string")
		out["enum"] = values
		return out, nil
	case KindEnumArray:
		values, err := r.enumValues(p, generation)
		if err != nil {
			return nil, err
		}
		items := map[string]any{typeKey(format): typeName(format, "string"), "enum": values}
		out := r.newFragment(p, format, "array")
		out["items"] = items
		return out, nil
	case KindCustom:
		return r.renderCustom(p, format, generation, stack)
	}
	return nil, &ReferenceNotFoundError{Name: p.Name, Chain: stack.Chain()}
}

func (r *Renderer) renderObject(p *Property, format Format, generation int, stack *Stack) (map[string]any, error) {
	out := r.newFragment(p, format, "object")

	properties := make(map[string]any, len(p.Properties))
	required := make([]string, 0, len(p.Properties))
	for _, child := range p.Properties {
		rendered, err := r.renderProperty(child, format, generation, stack)
		if err != nil {
			return nil, err
		}
		properties[child.Name] = rendered
		if child.Required {
			required = append(required, child.Name)
		}
	}
	out["properties"] = properties
	if len(required) > 0 {
		out["required"] = required
	}
	out["additionalProperties"] = p.AdditionalProperties

	if len(p.OneOf) > 0 {
		alternatives := make([]any, 0, len(p.OneOf))
		for _, alt := range p.OneOf {
			rendered, err := r.renderProperty(alt, format, generation, stack)
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, rendered)
		}
		out["oneOf"] = alternatives
	}
	return out, nil
}

func (r *Renderer) renderCustom(p *Property, format Format, generation int, stack *Stack) (map[string]any, error) {
	t, release, err := r.resolver.Type(p.TypeName, stack)
	if err != nil {
		return nil, err
	}
	defer release()

	if t.IsLeaf() {
		return r.renderLeaf(p, t, format), nil
	}
	if t.Root == nil {
		return nil, fmt.Errorf("composite type '%s' carries no structure", t.Name)
	}

	// Composite type: recurse through its structure, letting the calling
	// property's description win over the type's own.
	root := *t.Root
	if p.Description != "" {
		root.Description = p.Description
	}
	return r.renderProperty(&root, format, generation, stack)
}

// renderLeaf emits a leaf fragment. Any description embedded in the fragment
// is stripped and the calling property's description takes its place.
func (r *Renderer) renderLeaf(p *Property, t *TypeDef, format Format) map[string]any {
	var fragment map[string]any
	switch {
	case t.Schema != nil:
		fragment = translateUniversal(t.Schema, format)
	case format == FormatApplication:
		fragment = copyFragment(t.JSONSchema)
	default:
		fragment = copyFragment(t.DBSchema)
	}

	delete(fragment, "description")
	if p.Description != "" {
		fragment["description"] = p.Description
	}
	return fragment
}

// translateUniversal copies a universal fragment, rewriting its "type"
// discriminator into the target format's key and vocabulary.
func translateUniversal(fragment map[string]any, format Format) map[string]any {
	out := copyFragment(fragment)
	name, ok := out["type"].(string)
	if !ok {
		return out
	}
	if format == FormatValidator {
		delete(out, "type")
		out[typeKey(format)] = typeName(format, name)
	}
	return out
}

func (r *Renderer) enumValues(p *Property, generation int) ([]string, error) {
	values, ok := r.registry.EnumValues(generation, p.Enums)
	if !ok {
		return nil, &UnknownEnumError{Enum: p.Enums, Generation: generation}
	}
	names := make([]string, 0, len(values))
	for v := range values {
		names = append(names, v)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Renderer) newFragment(p *Property, format Format, universal string) map[string]any {
	out := map[string]any{typeKey(format): typeName(format, universal)}
	if p.Description != "" {
		out["description"] = p.Description
	}
	return out
}

func typeKey(format Format) string {
	if format == FormatValidator {
		return "bsonType"
	}
	return "type"
}

func typeName(format Format, universal string) string {
	if format != FormatValidator {
		return universal
	}
	if name, ok := validatorTypes[universal]; ok {
		return name
	}
	return universal
}

func copyFragment(fragment map[string]any) map[string]any {
	out := make(map[string]any, len(fragment))
	for k, v := range fragment {
		out[k] = v
	}
	return out
}
