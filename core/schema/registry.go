package schema

import "sort"

// DefaultMaxDepth bounds reference resolution when no explicit maximum is
// configured.
const DefaultMaxDepth = 100

// Registry holds the loaded type definitions, enumerator generations and
// dictionaries for one run. It is constructed once after loading and treated
// as read-only from then on, so concurrent renders and validations need no
// locking.
type Registry struct {
	types        map[string]*TypeDef
	generations  map[int]*Generation
	dictionaries map[string]*Dictionary
	maxDepth     int
}

// RegistryOption adjusts registry construction.
type RegistryOption func(*Registry)

// WithMaxDepth overrides the default resolution depth bound.
func WithMaxDepth(depth int) RegistryOption {
	return func(r *Registry) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewRegistry builds a registry from loaded artifacts. Type and dictionary
// names must already be set on the values.
func NewRegistry(types []*TypeDef, generations []*Generation, dictionaries []*Dictionary, opts ...RegistryOption) *Registry {
	r := &Registry{
		types:        make(map[string]*TypeDef, len(types)),
		generations:  make(map[int]*Generation, len(generations)),
		dictionaries: make(map[string]*Dictionary, len(dictionaries)),
		maxDepth:     DefaultMaxDepth,
	}
	for _, t := range types {
		r.types[t.Name] = t
	}
	for _, g := range generations {
		r.generations[g.Version] = g
	}
	for _, d := range dictionaries {
		r.dictionaries[d.Name] = d
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the configured resolution depth bound.
func (r *Registry) MaxDepth() int { return r.maxDepth }

// Type looks up a custom type definition by name.
func (r *Registry) Type(name string) (*TypeDef, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Generation looks up an enumerator generation by its integer version.
func (r *Registry) Generation(version int) (*Generation, bool) {
	g, ok := r.generations[version]
	return g, ok
}

// Dictionary looks up a dictionary by its schema identity name.
func (r *Registry) Dictionary(name string) (*Dictionary, bool) {
	d, ok := r.dictionaries[name]
	return d, ok
}

// EnumValues returns the value-set for an enum name under a specific
// generation. It fails when the generation is absent, not active, or does
// not define the enum.
func (r *Registry) EnumValues(generation int, enum string) (map[string]string, bool) {
	g, ok := r.generations[generation]
	if !ok || g.Status != GenerationActive {
		return nil, false
	}
	return g.Enum(enum)
}

// TypeNames returns all custom type names in sorted order.
func (r *Registry) TypeNames() []string {
	return sortedKeys(r.types)
}

// DictionaryNames returns all dictionary names in sorted order.
func (r *Registry) DictionaryNames() []string {
	return sortedKeys(r.dictionaries)
}

// GenerationVersions returns all enumerator generation versions in ascending
// order.
func (r *Registry) GenerationVersions() []int {
	versions := make([]int, 0, len(r.generations))
	for v := range r.generations {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
