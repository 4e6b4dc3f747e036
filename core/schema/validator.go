// Package schema implements the collection-schema compilation engine: the
// versioned property model, reference resolution with cycle and depth
// guards, dual-format rendering, and the structural configuration validator.
package schema

import "fmt"

// Issue codes reported by the ConfigValidator. Codes are stable; messages
// are advisory.
const (
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeNegativeGeneration = "NEGATIVE_GENERATION"
	CodeFragmentConflict   = "TYPE_FRAGMENT_CONFLICT"
	CodeFragmentMissing    = "TYPE_FRAGMENT_MISSING"
	CodeMissingStructure   = "TYPE_STRUCTURE_MISSING"
	CodeInvalidVersion     = "INVALID_VERSION"
	CodeVersionOrder       = "VERSION_ORDER"
	CodeDictionaryNotFound = "DICTIONARY_NOT_FOUND"
	CodeGenerationNotFound = "GENERATION_NOT_FOUND"
	CodeGenerationInactive = "GENERATION_INACTIVE"
	CodeCircularReference  = "CIRCULAR_REFERENCE"
	CodeDepthExceeded      = "DEPTH_EXCEEDED"
	CodeRefNotFound        = "REF_NOT_FOUND"
	CodeUnknownType        = "UNKNOWN_TYPE"
	CodeUnknownEnum        = "UNKNOWN_ENUM"
	CodeMissingEnumName    = "MISSING_ENUM_NAME"
	CodeMissingProperties  = "MISSING_PROPERTIES"
	CodeMissingItems       = "MISSING_ITEMS"
	CodeInvalidOneOf       = "INVALID_ONE_OF"
)

// unboundGeneration walks a dictionary without an enumerator-generation
// binding, skipping enum existence checks.
const unboundGeneration = -1

// CollectionVersions names the planned version strings of one collection, as
// declared in its collection configuration.
type CollectionVersions struct {
	Collection string
	Versions   []string
}

// ConfigValidator statically checks the registries and collection
// configurations for structural correctness and cross-references. It never
// renders and needs no database: it is the fail-fast gate before
// orchestration. All problems are accumulated and returned; validation never
// stops at the first issue.
type ConfigValidator struct {
	registry *Registry
	issues   []Issue
}

// NewConfigValidator creates a validator over a read-only registry.
func NewConfigValidator(registry *Registry) *ConfigValidator {
	return &ConfigValidator{registry: registry}
}

// Validate checks the whole configuration surface and returns every issue it
// can find. Dictionaries referenced by collection versions are checked under
// the enumerator generation that version implies; unreferenced dictionaries
// are checked structurally.
func (v *ConfigValidator) Validate(collections []CollectionVersions) []Issue {
	v.issues = make([]Issue, 0)

	v.validateGenerations()
	v.validateTypes()

	referenced := make(map[string]bool)
	for _, c := range collections {
		v.validateCollection(c, referenced)
	}
	for _, name := range v.registry.DictionaryNames() {
		if !referenced[name] {
			v.validateDictionary(name, unboundGeneration)
		}
	}
	return v.issues
}

func (v *ConfigValidator) validateGenerations() {
	for _, version := range v.registry.GenerationVersions() {
		g, _ := v.registry.Generation(version)
		path := fmt.Sprintf("enumerators.%d", version)
		if g.Version < 0 {
			v.addIssue(CodeNegativeGeneration, "generation version must be a non-negative integer", path)
		}
		if g.Status != GenerationActive && g.Status != GenerationDeprecated {
			v.addIssue(CodeInvalidStatus, fmt.Sprintf("unrecognized status '%s'", g.Status), path)
		}
	}
}

func (v *ConfigValidator) validateTypes() {
	for _, name := range v.registry.TypeNames() {
		t, _ := v.registry.Type(name)
		path := "types." + name

		if t.IsLeaf() {
			if t.Schema != nil && (t.JSONSchema != nil || t.DBSchema != nil) {
				v.addIssue(CodeFragmentConflict, "type carries both a universal and format-specific fragments", path)
			}
			if t.Schema == nil && (t.JSONSchema == nil || t.DBSchema == nil) {
				v.addIssue(CodeFragmentMissing, "type must carry both json_schema and db_schema fragments", path)
			}
			continue
		}

		if t.Root == nil {
			v.addIssue(CodeMissingStructure, "composite type carries no properties or items", path)
			continue
		}
		v.walkProperty(t.Root, path, unboundGeneration, NewStack(v.registry.MaxDepth()))
	}
}

func (v *ConfigValidator) validateCollection(c CollectionVersions, referenced map[string]bool) {
	var previous *Version
	for _, raw := range c.Versions {
		version, err := ParseVersion(raw)
		if err != nil {
			v.addIssue(CodeInvalidVersion, err.Error(), c.Collection)
			continue
		}
		if version.Collection == "" {
			version.Collection = c.Collection
		}

		if previous != nil && !version.GreaterThan(*previous) {
			v.addIssue(CodeVersionOrder,
				fmt.Sprintf("version %s does not ascend from %s", version, previous), c.Collection)
		}
		previous = &version

		generation := version.Generation()
		if g, ok := v.registry.Generation(generation); !ok {
			v.addIssue(CodeGenerationNotFound,
				fmt.Sprintf("enumerator generation %d is not defined", generation), version.FullName())
			generation = unboundGeneration
		} else if g.Status != GenerationActive {
			v.addIssue(CodeGenerationInactive,
				fmt.Sprintf("enumerator generation %d is not active", g.Version), version.FullName())
			generation = unboundGeneration
		}

		name := version.SchemaIdentity()
		referenced[name] = true
		v.validateDictionary(name, generation)
	}
}

func (v *ConfigValidator) validateDictionary(name string, generation int) {
	d, ok := v.registry.Dictionary(name)
	if !ok {
		v.addIssue(CodeDictionaryNotFound, fmt.Sprintf("no dictionary named '%s'", name), name)
		return
	}

	stack := NewStack(v.registry.MaxDepth())
	release, err := stack.Enter(name)
	if err != nil {
		return
	}
	defer release()
	v.walkProperty(d.Root, name, generation, stack)
}

// walkProperty mirrors the resolver's traversal but records problems as
// issues instead of failing, so one walk surfaces everything reachable.
func (v *ConfigValidator) walkProperty(p *Property, path string, generation int, stack *Stack) {
	switch p.Kind {
	case KindRef:
		v.walkRef(p, path, generation, stack)
	case KindObject:
		if len(p.Properties) == 0 {
			v.addIssue(CodeMissingProperties, "object property declares no properties", path)
		}
		for _, child := range p.Properties {
			v.walkProperty(child, path+"."+child.Name, generation, stack)
		}
		for i, alt := range p.OneOf {
			altPath := fmt.Sprintf("%s.oneOf[%d]", path, i)
			if alt.Kind != KindObject && alt.Kind != KindArray && alt.Kind != KindRef {
				v.addIssue(CodeInvalidOneOf, "oneOf alternative must be a complex type", altPath)
				continue
			}
			v.walkProperty(alt, altPath, generation, stack)
		}
	case KindArray:
		if p.Items == nil {
			v.addIssue(CodeMissingItems, "array property declares no items", path)
			return
		}
		v.walkProperty(p.Items, path+".items", generation, stack)
	case KindEnum, KindEnumArray:
		v.walkEnum(p, path, generation)
	case KindCustom:
		v.walkCustom(p, path, generation, stack)
	}
}

func (v *ConfigValidator) walkRef(p *Property, path string, generation int, stack *Stack) {
	release, err := stack.Enter(p.Ref)
	if err != nil {
		v.addResolutionIssue(err, path)
		return
	}
	defer release()

	target, ok := v.registry.Dictionary(p.Ref)
	if !ok {
		v.addIssue(CodeRefNotFound, fmt.Sprintf("referenced dictionary '%s' not found", p.Ref), path)
		return
	}
	v.walkProperty(target.Root, path, generation, stack)
}

func (v *ConfigValidator) walkEnum(p *Property, path string, generation int) {
	if p.Enums == "" {
		v.addIssue(CodeMissingEnumName, "enum property names no value-set", path)
		return
	}
	if generation == unboundGeneration {
		return
	}
	if _, ok := v.registry.EnumValues(generation, p.Enums); !ok {
		v.addIssue(CodeUnknownEnum,
			fmt.Sprintf("enum '%s' not found in enumerator generation %d", p.Enums, generation), path)
	}
}

func (v *ConfigValidator) walkCustom(p *Property, path string, generation int, stack *Stack) {
	t, ok := v.registry.Type(p.TypeName)
	if !ok {
		v.addIssue(CodeUnknownType, fmt.Sprintf("custom type '%s' not found", p.TypeName), path)
		return
	}
	if t.IsLeaf() {
		return
	}

	release, err := stack.Enter(p.TypeName)
	if err != nil {
		v.addResolutionIssue(err, path)
		return
	}
	defer release()
	v.walkProperty(t.Root, path, generation, stack)
}

// addResolutionIssue converts a resolver error into the matching issue code,
// keeping render-time and validate-time reporting aligned.
func (v *ConfigValidator) addResolutionIssue(err error, path string) {
	switch err.(type) {
	case *CircularReferenceError:
		v.addIssue(CodeCircularReference, err.Error(), path)
	case *DepthExceededError:
		v.addIssue(CodeDepthExceeded, err.Error(), path)
	default:
		v.addIssue(CodeRefNotFound, err.Error(), path)
	}
}

func (v *ConfigValidator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	})
}
