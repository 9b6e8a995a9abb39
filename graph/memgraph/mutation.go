package memgraph

import (
	"context"
	"fmt"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

// op is one queued property write. Ops apply in caller order on Save.
type op struct {
	remove bool
	key    string
	name   string
	value  any
	vis    security.Visibility
}

type vertexMutation struct {
	store      *Store
	id         string
	visibility security.Visibility
	alterVis   *security.Visibility
	ops        []op
}

// PrepareVertex implements graph.Store.
func (s *Store) PrepareVertex(id string, visibility security.Visibility) graph.VertexMutation {
	return &vertexMutation{store: s, id: id, visibility: visibility}
}

func (m *vertexMutation) SetProperty(name string, value any, vis security.Visibility) graph.VertexMutation {
	m.ops = append(m.ops, op{name: name, value: value, vis: vis})
	return m
}

func (m *vertexMutation) AddPropertyValue(key, name string, value any, vis security.Visibility) graph.VertexMutation {
	m.ops = append(m.ops, op{key: key, name: name, value: value, vis: vis})
	return m
}

func (m *vertexMutation) RemoveProperty(name string) graph.VertexMutation {
	m.ops = append(m.ops, op{remove: true, name: name})
	return m
}

func (m *vertexMutation) RemovePropertyValue(key, name string) graph.VertexMutation {
	m.ops = append(m.ops, op{remove: true, key: key, name: name})
	return m
}

func (m *vertexMutation) AlterVisibility(vis security.Visibility) graph.VertexMutation {
	m.alterVis = &vis
	return m
}

func (m *vertexMutation) Save(_ context.Context, auths security.Authorizations) (graph.Vertex, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.vertices[m.id]
	if !ok {
		r = &record{id: m.id, visibility: m.visibility}
		s.vertices[m.id] = r
	} else if !auths.CanSee(r.visibility) {
		return nil, fmt.Errorf("vertex %s: not authorized", m.id)
	}
	if m.alterVis != nil {
		r.visibility = *m.alterVis
	}
	r.hidden = false
	applyOps(r, m.ops)

	return &vertex{view(r, auths)}, nil
}

type edgeMutation struct {
	store      *Store
	id         string
	out, in    string
	label      string
	visibility security.Visibility
	alterVis   *security.Visibility
	ops        []op
}

// PrepareEdge implements graph.Store.
func (s *Store) PrepareEdge(id, outVertexID, inVertexID, label string, visibility security.Visibility) graph.EdgeMutation {
	return &edgeMutation{store: s, id: id, out: outVertexID, in: inVertexID, label: label, visibility: visibility}
}

func (m *edgeMutation) SetProperty(name string, value any, vis security.Visibility) graph.EdgeMutation {
	m.ops = append(m.ops, op{name: name, value: value, vis: vis})
	return m
}

func (m *edgeMutation) AlterVisibility(vis security.Visibility) graph.EdgeMutation {
	m.alterVis = &vis
	return m
}

func (m *edgeMutation) Save(_ context.Context, auths security.Authorizations) (graph.Edge, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.edges[m.id]
	if !ok {
		if _, exists := s.vertices[m.out]; !exists {
			return nil, fmt.Errorf("edge %s: out vertex %s does not exist", m.id, m.out)
		}
		if _, exists := s.vertices[m.in]; !exists {
			return nil, fmt.Errorf("edge %s: in vertex %s does not exist", m.id, m.in)
		}
		e = &edgeRecord{
			record: record{id: m.id, visibility: m.visibility},
			label:  m.label,
			out:    m.out,
			in:     m.in,
		}
		s.edges[m.id] = e
		s.edgeOrder = append(s.edgeOrder, m.id)
	} else if !auths.CanSee(e.visibility) {
		return nil, fmt.Errorf("edge %s: not authorized", m.id)
	}
	if m.alterVis != nil {
		e.visibility = *m.alterVis
	}
	e.hidden = false
	applyOps(&e.record, m.ops)

	return edgeView(e, auths), nil
}

func applyOps(r *record, ops []op) {
	for _, o := range ops {
		switch {
		case o.remove && o.key == "":
			r.removeProp(o.name)
		case o.remove:
			r.removePropValue(o.key, o.name)
		default:
			r.setProp(o.key, o.name, o.value, o.vis)
		}
	}
}
