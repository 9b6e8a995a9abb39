package natsgraph

import (
	"context"
	"fmt"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

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

func (m *vertexMutation) Save(ctx context.Context, auths security.Authorizations) (graph.Vertex, error) {
	doc, err := m.store.getVertexDoc(ctx, m.id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &vertexDoc{ID: m.id, Visibility: m.visibility}
	} else if !auths.CanSee(doc.Visibility) {
		return nil, fmt.Errorf("vertex %s: not authorized", m.id)
	}
	if m.alterVis != nil {
		doc.Visibility = *m.alterVis
	}
	doc.Hidden = false
	applyOps(doc, m.ops)
	if err := m.store.putVertexDoc(ctx, doc); err != nil {
		return nil, err
	}
	return newVertex(doc, auths), nil
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

func (m *edgeMutation) Save(ctx context.Context, auths security.Authorizations) (graph.Edge, error) {
	doc, err := m.store.getEdgeDoc(ctx, m.id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		for _, endpoint := range []string{m.out, m.in} {
			v, err := m.store.getVertexDoc(ctx, endpoint)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, fmt.Errorf("edge %s: vertex %s does not exist", m.id, endpoint)
			}
		}
		doc = &edgeDoc{
			vertexDoc: vertexDoc{ID: m.id, Visibility: m.visibility},
			Label:     m.label,
			Out:       m.out,
			In:        m.in,
			Seq:       m.store.seq.Add(1),
		}
	} else if !auths.CanSee(doc.Visibility) {
		return nil, fmt.Errorf("edge %s: not authorized", m.id)
	}
	if m.alterVis != nil {
		doc.Visibility = *m.alterVis
	}
	doc.Hidden = false
	applyOps(&doc.vertexDoc, m.ops)
	if err := m.store.putEdgeDoc(ctx, doc); err != nil {
		return nil, err
	}
	return newEdge(doc, auths), nil
}

func applyOps(doc *vertexDoc, ops []op) {
	for _, o := range ops {
		switch {
		case o.remove && o.key == "":
			doc.Props = removeProp(doc.Props, o.name)
		case o.remove:
			doc.Props = removePropValue(doc.Props, o.key, o.name)
		default:
			doc.Props = setProp(doc.Props, o.key, o.name, o.value, o.vis)
		}
	}
}

func setProp(props []graph.Property, key, name string, value any, vis security.Visibility) []graph.Property {
	for i := range props {
		if props[i].Key == key && props[i].Name == name {
			props[i].Value = value
			props[i].Visibility = vis
			return props
		}
	}
	return append(props, graph.Property{Key: key, Name: name, Value: value, Visibility: vis})
}

func removeProp(props []graph.Property, name string) []graph.Property {
	out := props[:0]
	for _, p := range props {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

func removePropValue(props []graph.Property, key, name string) []graph.Property {
	out := props[:0]
	for _, p := range props {
		if !(p.Key == key && p.Name == name) {
			out = append(out, p)
		}
	}
	return out
}
