package schema

import "fmt"

// testRegistry assembles a small but complete configuration: leaf and
// composite custom types, three enumerator generations, and a pair of
// dictionaries that reference each other one way.
func testRegistry(opts ...RegistryOption) *Registry {
	types := []*TypeDef{
		{
			Name:   "word",
			Schema: map[string]any{"type": "string", "pattern": "^[^\\s]{1,40}$"},
		},
		{
			Name: "timestamp",
			JSONSchema: map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "An ISO 8601 timestamp",
			},
			DBSchema: map[string]any{
				"bsonType":    "date",
				"description": "A BSON date",
			},
		},
		{
			Name: "address",
			Root: &Property{
				Kind: KindObject,
				Properties: []*Property{
					{Name: "street", Kind: KindCustom, TypeName: "word", Required: true},
					{Name: "city", Kind: KindCustom, TypeName: "word"},
				},
			},
		},
	}

	generations := []*Generation{
		{
			Version: 1,
			Status:  GenerationDeprecated,
			Enumerators: map[string]map[string]string{
				"default_status": {"active": "Active entry", "archived": "Archived entry"},
			},
		},
		{
			Version: 2,
			Status:  GenerationActive,
			Enumerators: map[string]map[string]string{
				"default_status": {"active": "Active entry", "archived": "Archived entry"},
				"tags":           {"user": "User tag", "admin": "Admin tag"},
			},
		},
		{
			Version: 3,
			Status:  GenerationActive,
			Enumerators: map[string]map[string]string{
				"default_status": {"draft": "Draft entry", "live": "Live entry"},
				"tags":           {"user": "User tag", "admin": "Admin tag"},
			},
		},
	}

	dictionaries := []*Dictionary{
		{
			Name: "users.1.0.0",
			Root: &Property{
				Kind:        KindObject,
				Description: "A user record",
				Properties: []*Property{
					{Name: "name", Kind: KindCustom, TypeName: "word", Required: true, Description: "User handle"},
					{Name: "status", Kind: KindEnum, Enums: "default_status", Required: true},
					{Name: "tags", Kind: KindEnumArray, Enums: "tags"},
					{Name: "home", Kind: KindCustom, TypeName: "address", Description: "Primary address"},
					{Name: "last_seen", Kind: KindCustom, TypeName: "timestamp", Description: "Moment of last activity"},
					{Name: "orders", Kind: KindArray, Items: &Property{Kind: KindRef, Ref: "orders.1.0.0"}},
				},
			},
		},
		{
			Name: "orders.1.0.0",
			Root: &Property{
				Kind: KindObject,
				Properties: []*Property{
					{Name: "order_id", Kind: KindCustom, TypeName: "word", Required: true},
					{Name: "placed_at", Kind: KindCustom, TypeName: "timestamp"},
				},
			},
		},
	}

	return NewRegistry(types, generations, dictionaries, opts...)
}

// chainRegistry builds `length` dictionaries where each one refs the next
// and the last is a plain object, for exercising the depth guard.
func chainRegistry(length, maxDepth int) (*Registry, string) {
	dictionaries := make([]*Dictionary, 0, length)
	for i := 0; i < length; i++ {
		name := fmt.Sprintf("chain%d.1.0.0", i)
		var root *Property
		if i == length-1 {
			root = &Property{
				Kind:       KindObject,
				Properties: []*Property{{Name: "leaf", Kind: KindCustom, TypeName: "word"}},
			}
		} else {
			root = &Property{Kind: KindRef, Ref: fmt.Sprintf("chain%d.1.0.0", i+1)}
		}
		dictionaries = append(dictionaries, &Dictionary{Name: name, Root: root})
	}

	types := []*TypeDef{{Name: "word", Schema: map[string]any{"type": "string"}}}
	registry := NewRegistry(types, nil, dictionaries, WithMaxDepth(maxDepth))
	return registry, "chain0.1.0.0"
}

// cyclicRegistry wires two dictionaries that reference each other.
func cyclicRegistry() *Registry {
	a := &Dictionary{
		Name: "alpha.1.0.0",
		Root: &Property{
			Kind:       KindObject,
			Properties: []*Property{{Name: "beta", Kind: KindRef, Ref: "beta.1.0.0"}},
		},
	}
	b := &Dictionary{
		Name: "beta.1.0.0",
		Root: &Property{
			Kind:       KindObject,
			Properties: []*Property{{Name: "alpha", Kind: KindRef, Ref: "alpha.1.0.0"}},
		},
	}
	return NewRegistry(nil, nil, []*Dictionary{a, b})
}
