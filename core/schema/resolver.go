package schema

// Stack is the ordered set of identifiers currently being resolved on one
// call path. It is per-path state: concurrent resolutions each hold their
// own stack, and every push is reverted through the release function on both
// success and failure paths.
type Stack struct {
	names    []string
	active   map[string]struct{}
	maxDepth int
}

// NewStack creates an empty visit stack bounded by maxDepth.
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{
		active:   make(map[string]struct{}),
		maxDepth: maxDepth,
	}
}

// Len returns the number of identifiers currently in flight.
func (s *Stack) Len() int { return len(s.names) }

// Contains reports whether an identifier is already being resolved.
func (s *Stack) Contains(name string) bool {
	_, ok := s.active[name]
	return ok
}

// Chain returns a copy of the in-flight identifiers in visit order.
func (s *Stack) Chain() []string {
	chain := make([]string, len(s.names))
	copy(chain, s.names)
	return chain
}

// Enter guards one resolution step. It fails when the identifier is already
// on the stack (cycle) or the stack is at capacity (depth), and otherwise
// pushes the identifier and returns a release function that pops it.
func (s *Stack) Enter(name string) (func(), error) {
	if s.Contains(name) {
		return nil, &CircularReferenceError{Name: name, Chain: append(s.Chain(), name)}
	}
	if s.Len() >= s.maxDepth {
		return nil, &DepthExceededError{MaxDepth: s.maxDepth, Chain: append(s.Chain(), name)}
	}
	s.names = append(s.names, name)
	s.active[name] = struct{}{}
	return func() {
		s.names = s.names[:len(s.names)-1]
		delete(s.active, name)
	}, nil
}

// Resolver resolves cross-dictionary and cross-type references against a
// registry, guarding every step with the visit stack.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over a read-only registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Dictionary resolves a dictionary reference. The returned release function
// must be called once the referenced subtree has been fully processed.
func (r *Resolver) Dictionary(name string, stack *Stack) (*Dictionary, func(), error) {
	release, err := stack.Enter(name)
	if err != nil {
		return nil, nil, err
	}
	d, ok := r.registry.Dictionary(name)
	if !ok {
		release()
		return nil, nil, &ReferenceNotFoundError{Name: name, Chain: stack.Chain()}
	}
	return d, release, nil
}

// Type resolves a custom type reference. Only composite types enter the
// stack: a leaf type emits its fragment and recurses no further, so it can
// neither cycle nor deepen the chain.
func (r *Resolver) Type(name string, stack *Stack) (*TypeDef, func(), error) {
	t, ok := r.registry.Type(name)
	if !ok {
		return nil, nil, &UnknownTypeError{Name: name}
	}
	if t.IsLeaf() {
		return t, func() {}, nil
	}
	release, err := stack.Enter(name)
	if err != nil {
		return nil, nil, err
	}
	return t, release, nil
}
