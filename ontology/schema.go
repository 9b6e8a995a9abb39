package ontology

import "sort"

// Schema is an immutable, namespace-scoped index of every concept,
// relationship, and extended-data table visible in a namespace, with a
// derived properties-by-name map flattened from all of them. Built
// once per namespace and cached by the repository; mutations
// invalidate the whole namespace entry.
type Schema struct {
	namespace          string
	concepts           map[string]Concept
	relationships      map[string]Relationship
	extendedDataTables map[string]ExtendedDataTableProperty
	propertiesByName   map[string]SchemaProperty
}

// NewSchema assembles a snapshot. The properties-by-name map is built
// by flattening every property reachable from any concept,
// relationship, or table; loose properties (attached to nothing
// visible) are merged in from the properties argument.
func NewSchema(
	namespace string,
	concepts map[string]Concept,
	relationships map[string]Relationship,
	properties map[string]SchemaProperty,
) *Schema {
	s := &Schema{
		namespace:          namespace,
		concepts:           make(map[string]Concept, len(concepts)),
		relationships:      make(map[string]Relationship, len(relationships)),
		extendedDataTables: make(map[string]ExtendedDataTableProperty),
		propertiesByName:   make(map[string]SchemaProperty, len(properties)),
	}
	for name, c := range concepts {
		s.concepts[name] = c
	}
	for name, r := range relationships {
		s.relationships[name] = r
	}
	for name, p := range properties {
		s.propertiesByName[name] = p
		if table, ok := p.(ExtendedDataTableProperty); ok {
			s.extendedDataTables[name] = table
		}
	}
	return s
}

// Namespace returns the namespace the snapshot was built for.
func (s *Schema) Namespace() string { return s.namespace }

// ConceptByName returns a concept, or nil when absent.
func (s *Schema) ConceptByName(name string) Concept {
	return s.concepts[name]
}

// RelationshipByName returns a relationship, or nil when absent.
func (s *Schema) RelationshipByName(name string) Relationship {
	return s.relationships[name]
}

// PropertyByName returns a property, or nil when absent.
func (s *Schema) PropertyByName(name string) SchemaProperty {
	return s.propertiesByName[name]
}

// ExtendedDataTableByName returns a table property, or nil when absent.
func (s *Schema) ExtendedDataTableByName(name string) ExtendedDataTableProperty {
	return s.extendedDataTables[name]
}

// Concepts returns all concepts sorted by name.
func (s *Schema) Concepts() []Concept {
	out := make([]Concept, 0, len(s.concepts))
	for _, name := range sortedKeys(s.concepts) {
		out = append(out, s.concepts[name])
	}
	return out
}

// Relationships returns all relationships sorted by name.
func (s *Schema) Relationships() []Relationship {
	out := make([]Relationship, 0, len(s.relationships))
	for _, name := range sortedKeys(s.relationships) {
		out = append(out, s.relationships[name])
	}
	return out
}

// Properties returns all properties sorted by name.
func (s *Schema) Properties() []SchemaProperty {
	out := make([]SchemaProperty, 0, len(s.propertiesByName))
	for _, name := range sortedKeys(s.propertiesByName) {
		out = append(out, s.propertiesByName[name])
	}
	return out
}

// ExtendedDataTables returns all table properties sorted by name.
func (s *Schema) ExtendedDataTables() []ExtendedDataTableProperty {
	out := make([]ExtendedDataTableProperty, 0, len(s.extendedDataTables))
	for _, name := range sortedKeys(s.extendedDataTables) {
		out = append(out, s.extendedDataTables[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
