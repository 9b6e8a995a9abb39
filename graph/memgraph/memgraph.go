// Package memgraph is an in-memory implementation of the graph.Store
// contract. It is the default backend for local use and the backend
// the registry tests run against. All operations are safe for
// concurrent use.
package memgraph

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

// Store implements graph.Store over process memory.
type Store struct {
	mu        sync.RWMutex
	vertices  map[string]*record
	edges     map[string]*edgeRecord
	edgeOrder []string
	defs      map[string]graph.PropertyDefinition
	logger    *slog.Logger
}

// New returns an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		vertices: make(map[string]*record),
		edges:    make(map[string]*edgeRecord),
		defs:     make(map[string]graph.PropertyDefinition),
		logger:   logger,
	}
}

type record struct {
	id         string
	visibility security.Visibility
	hidden     bool
	props      []graph.Property
}

type edgeRecord struct {
	record
	label string
	out   string
	in    string
}

// setProp replaces the value stored under (key, name), appending when
// absent so insertion order is preserved.
func (r *record) setProp(key, name string, value any, vis security.Visibility) {
	for i := range r.props {
		if r.props[i].Key == key && r.props[i].Name == name {
			r.props[i].Value = value
			r.props[i].Visibility = vis
			return
		}
	}
	r.props = append(r.props, graph.Property{Key: key, Name: name, Value: value, Visibility: vis})
}

func (r *record) removeProp(name string) {
	out := r.props[:0]
	for _, p := range r.props {
		if p.Name != name {
			out = append(out, p)
		}
	}
	r.props = out
}

func (r *record) removePropValue(key, name string) {
	out := r.props[:0]
	for _, p := range r.props {
		if !(p.Key == key && p.Name == name) {
			out = append(out, p)
		}
	}
	r.props = out
}

// GetVertex implements graph.Store.
func (s *Store) GetVertex(_ context.Context, id string, hints graph.FetchHints, auths security.Authorizations) (graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.vertices[id]
	if !ok || !readable(r, hints, auths) {
		return nil, nil
	}
	return &vertex{view(r, auths)}, nil
}

// GetVertices implements graph.Store.
func (s *Store) GetVertices(_ context.Context, ids []string, hints graph.FetchHints, auths security.Authorizations) ([]graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]graph.Vertex, 0, len(ids))
	for _, id := range ids {
		r, ok := s.vertices[id]
		if !ok || !readable(r, hints, auths) {
			continue
		}
		out = append(out, &vertex{view(r, auths)})
	}
	return out, nil
}

// VerticesWithProperty implements graph.Store.
func (s *Store) VerticesWithProperty(_ context.Context, name string, value any, hints graph.FetchHints, auths security.Authorizations) ([]graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Vertex
	for _, r := range s.vertices {
		if !readable(r, hints, auths) {
			continue
		}
		v := view(r, auths)
		if hasValue(v, name, value) {
			out = append(out, &vertex{v})
		}
	}
	return out, nil
}

// GetEdge implements graph.Store.
func (s *Store) GetEdge(_ context.Context, id string, hints graph.FetchHints, auths security.Authorizations) (graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	if !ok || !readable(&e.record, hints, auths) {
		return nil, nil
	}
	return edgeView(e, auths), nil
}

// SoftDeleteVertex hides the vertex and every incident edge.
func (s *Store) SoftDeleteVertex(_ context.Context, id string, auths security.Authorizations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.vertices[id]
	if !ok || !auths.CanSee(r.visibility) {
		return nil
	}
	r.hidden = true
	for _, e := range s.edges {
		if e.out == id || e.in == id {
			e.hidden = true
		}
	}
	return nil
}

// SoftDeleteEdge hides the edge.
func (s *Store) SoftDeleteEdge(_ context.Context, id string, auths security.Authorizations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok || !auths.CanSee(e.visibility) {
		return nil
	}
	e.hidden = true
	return nil
}

// AdjacentVertexIDs implements graph.Store. Results preserve edge
// insertion order.
func (s *Store) AdjacentVertexIDs(_ context.Context, vertexID string, dir graph.Direction, label string, hints graph.FetchHints, auths security.Authorizations) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		if e == nil || e.label != label || !readable(&e.record, hints, auths) {
			continue
		}
		switch {
		case (dir == graph.Out || dir == graph.Both) && e.out == vertexID:
			out = append(out, e.in)
		case (dir == graph.In || dir == graph.Both) && e.in == vertexID:
			out = append(out, e.out)
		}
	}
	return out, nil
}

// EdgesOf implements graph.Store. Results preserve edge insertion
// order.
func (s *Store) EdgesOf(_ context.Context, vertexID string, dir graph.Direction, label string, hints graph.FetchHints, auths security.Authorizations) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Edge
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		if e == nil || e.label != label || !readable(&e.record, hints, auths) {
			continue
		}
		if (dir == graph.Out || dir == graph.Both) && e.out == vertexID ||
			(dir == graph.In || dir == graph.Both) && e.in == vertexID {
			out = append(out, edgeView(e, auths))
		}
	}
	return out, nil
}

// DefineProperty implements graph.Store. Redefining with a different
// data type logs a warning and keeps the original definition.
func (s *Store) DefineProperty(_ context.Context, def graph.PropertyDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.defs[def.Name]
	if ok {
		if existing.DataType != def.DataType {
			s.logger.Warn("property already defined with different data type",
				slog.String("property", def.Name),
				slog.String("existing", string(existing.DataType)),
				slog.String("requested", string(def.DataType)))
		}
		return nil
	}
	s.defs[def.Name] = def
	return nil
}

// PropertyDefinition implements graph.Store.
func (s *Store) PropertyDefinition(name string) (graph.PropertyDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[name]
	return def, ok
}

// Flush implements graph.Store. Memory writes are immediately
// visible, so this is a barrier in name only.
func (s *Store) Flush(context.Context) error { return nil }

// readable filters hidden and invisible records.
func readable(r *record, hints graph.FetchHints, auths security.Authorizations) bool {
	if r.hidden && !hints.IncludeHidden {
		return false
	}
	return auths.CanSee(r.visibility)
}

// view copies a record, keeping only properties the authorizations can
// see.
func view(r *record, auths security.Authorizations) *record {
	cp := &record{id: r.id, visibility: r.visibility, hidden: r.hidden}
	for _, p := range r.props {
		if auths.CanSee(p.Visibility) {
			cp.props = append(cp.props, p)
		}
	}
	return cp
}

func edgeView(e *edgeRecord, auths security.Authorizations) *edge {
	cp := view(&e.record, auths)
	return &edge{record: *cp, label: e.label, out: e.out, in: e.in}
}

func hasValue(r *record, name string, value any) bool {
	for _, p := range r.props {
		if p.Name == name && p.Value == value {
			return true
		}
	}
	return false
}
