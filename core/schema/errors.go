package schema

import (
	"fmt"
	"strings"
)

// CircularReferenceError is returned when resolving an identifier that is
// already on the active resolution stack.
type CircularReferenceError struct {
	Name  string
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference to '%s' (chain: %s)", e.Name, strings.Join(e.Chain, " -> "))
}

// DepthExceededError is returned when the resolution stack grows past the
// configured maximum. It is distinct from a cycle: the chain is acyclic but
// too deep.
type DepthExceededError struct {
	MaxDepth int
	Chain    []string
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("resolution depth exceeded maximum of %d (chain: %s)", e.MaxDepth, strings.Join(e.Chain, " -> "))
}

// ReferenceNotFoundError is returned when a dictionary or custom type name
// cannot be found in the registry.
type ReferenceNotFoundError struct {
	Name  string
	Chain []string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference '%s' not found", e.Name)
}

// UnknownEnumError is returned at render time when an enum name does not
// exist in the selected enumerator generation, or the generation itself is
// absent or not active.
type UnknownEnumError struct {
	Enum       string
	Generation int
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("enum '%s' not found in enumerator generation %d", e.Enum, e.Generation)
}

// UnknownTypeError is returned when a property names a custom type that is
// not present in the type registry.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("custom type '%s' not found", e.Name)
}

// InvalidVersionFormatError is returned by ParseVersion for strings with the
// wrong arity, non-numeric components, or out-of-range components.
type InvalidVersionFormatError struct {
	Input  string
	Reason string
}

func (e *InvalidVersionFormatError) Error() string {
	return fmt.Sprintf("invalid version '%s': %s", e.Input, e.Reason)
}
