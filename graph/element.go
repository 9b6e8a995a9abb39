package graph

import (
	"github.com/c360studio/semreg/security"
)

// Property is one stored value on a vertex or edge. Multi-valued
// properties carry one Property per (Key, Name) pair, each with its
// own visibility.
type Property struct {
	Key        string              `json:"key,omitempty"`
	Name       string              `json:"name"`
	Value      any                 `json:"value"`
	Visibility security.Visibility `json:"visibility,omitempty"`
}

// Element is the read surface shared by vertices and edges.
type Element interface {
	ID() string
	Visibility() security.Visibility
	Hidden() bool

	// Property returns the value of the single-valued property with
	// the default key, and whether it exists.
	Property(name string) (any, bool)
	// Properties returns every value stored under the name, in
	// insertion order.
	Properties(name string) []Property
	// PropertyNames returns the distinct property names present.
	PropertyNames() []string
}

// Vertex is a graph node.
type Vertex interface {
	Element
}

// Edge is a directed, labeled connection between two vertices.
type Edge interface {
	Element
	Label() string
	OutVertexID() string
	InVertexID() string
}

// PropertyString reads a property as a string, returning empty when
// absent or of another type.
func PropertyString(e Element, name string) string {
	v, ok := e.Property(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// PropertyBool reads a property as a bool, returning false when absent
// or of another type.
func PropertyBool(e Element, name string) bool {
	v, ok := e.Property(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// PropertyFloat reads a property as a float64, accepting int values
// for convenience.
func PropertyFloat(e Element, name string) float64 {
	v, ok := e.Property(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// PropertyInt reads a property as an int, accepting float64 values
// produced by JSON round-trips.
func PropertyInt(e Element, name string) int {
	v, ok := e.Property(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
