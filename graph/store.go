// Package graph defines the abstract graph-store collaborator the
// registry is written against: vertex/edge CRUD scoped by visibility
// and authorizations, traversal primitives, a query interface with
// cheap existence counts, deferred-commit mutations, and one-time
// property-schema definitions. Backends live in graph/memgraph and
// graph/natsgraph.
package graph

import (
	"context"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// Direction selects edge orientation relative to a vertex.
type Direction int

const (
	// Out follows edges leaving the vertex.
	Out Direction = iota
	// In follows edges arriving at the vertex.
	In
	// Both follows edges in either orientation.
	Both
)

// FetchHints control whether hidden (soft-deleted) elements are
// included in reads and traversals.
type FetchHints struct {
	IncludeHidden bool
}

// PropertyDefinition declares a graph property's shape before any
// value of that property is written.
type PropertyDefinition struct {
	Name           string                   `json:"name"`
	DataType       ontology.PropertyType    `json:"dataType"`
	TextIndexHints []ontology.TextIndexHint `json:"textIndexHints,omitempty"`
	Sortable       bool                     `json:"sortable,omitempty"`
	Boost          float64                  `json:"boost,omitempty"`
}

// Store is the graph collaborator contract. Every call blocks until
// the store answers; mutations are not guaranteed visible to other
// readers until Flush returns.
type Store interface {
	// GetVertex returns a vertex by id, or nil when absent or not
	// visible with the given authorizations.
	GetVertex(ctx context.Context, id string, hints FetchHints, auths security.Authorizations) (Vertex, error)
	// GetVertices batch-loads vertices by id, skipping absent or
	// invisible ids. Used to avoid N+1 round-trips when mapping edge
	// endpoints back to names.
	GetVertices(ctx context.Context, ids []string, hints FetchHints, auths security.Authorizations) ([]Vertex, error)
	// VerticesWithProperty returns all visible vertices carrying the
	// given property value.
	VerticesWithProperty(ctx context.Context, name string, value any, hints FetchHints, auths security.Authorizations) ([]Vertex, error)

	// GetEdge returns an edge by id, or nil when absent or invisible.
	GetEdge(ctx context.Context, id string, hints FetchHints, auths security.Authorizations) (Edge, error)

	// PrepareVertex opens a deferred-commit mutation that creates the
	// vertex if absent. Initial property writes batch with the
	// creation and apply in caller order on Save.
	PrepareVertex(id string, visibility security.Visibility) VertexMutation
	// PrepareEdge opens a deferred-commit mutation for an edge between
	// two vertices.
	PrepareEdge(id, outVertexID, inVertexID, label string, visibility security.Visibility) EdgeMutation

	// SoftDeleteVertex hides a vertex and its incident edges.
	SoftDeleteVertex(ctx context.Context, id string, auths security.Authorizations) error
	// SoftDeleteEdge hides an edge.
	SoftDeleteEdge(ctx context.Context, id string, auths security.Authorizations) error

	// AdjacentVertexIDs returns ids of vertices connected through
	// edges with the given label and direction.
	AdjacentVertexIDs(ctx context.Context, vertexID string, dir Direction, label string, hints FetchHints, auths security.Authorizations) ([]string, error)
	// EdgesOf returns the incident edges with the given label and
	// direction, in insertion order.
	EdgesOf(ctx context.Context, vertexID string, dir Direction, label string, hints FetchHints, auths security.Authorizations) ([]Edge, error)

	// Query opens a query scoped by the given authorizations.
	Query(auths security.Authorizations) Query

	// DefineProperty declares a property's shape once per distinct
	// name. Redefining with a different data type is a warning, not an
	// error.
	DefineProperty(ctx context.Context, def PropertyDefinition) error
	// PropertyDefinition returns a previously declared definition.
	PropertyDefinition(name string) (PropertyDefinition, bool)

	// Flush is a synchronization barrier: after it returns, every
	// prior mutation is visible to any read with sufficient
	// authorizations.
	Flush(ctx context.Context) error
}

// Query builds a filtered graph query. Filters combine conjunctively.
// Limit(0) together with TotalHits gives a cheap existence/count
// check without materializing results.
type Query interface {
	HasConceptType(conceptType string) Query
	HasEdgeLabel(label string) Query
	Has(property string, value any) Query
	HasProperty(property string) Query
	Limit(n int) Query

	Vertices(ctx context.Context) ([]Vertex, error)
	Edges(ctx context.Context) ([]Edge, error)
	// TotalHits returns the total number of matches regardless of
	// Limit.
	TotalHits(ctx context.Context) (int64, error)
}

// VertexMutation batches a vertex creation or update with property
// writes. Save commits the batch and returns the stored vertex.
type VertexMutation interface {
	SetProperty(name string, value any, visibility security.Visibility) VertexMutation
	// AddPropertyValue writes one value of a multi-valued property,
	// keyed so sibling values with different keys coexist.
	AddPropertyValue(key, name string, value any, visibility security.Visibility) VertexMutation
	RemoveProperty(name string) VertexMutation
	RemovePropertyValue(key, name string) VertexMutation
	// AlterVisibility replaces the element visibility on Save.
	AlterVisibility(visibility security.Visibility) VertexMutation

	Save(ctx context.Context, auths security.Authorizations) (Vertex, error)
}

// EdgeMutation batches an edge creation or update with property
// writes.
type EdgeMutation interface {
	SetProperty(name string, value any, visibility security.Visibility) EdgeMutation
	AlterVisibility(visibility security.Visibility) EdgeMutation

	Save(ctx context.Context, auths security.Authorizations) (Edge, error)
}
