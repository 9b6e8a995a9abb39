package natsgraph

import (
	"sort"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

// element is an immutable view over a stored document with invisible
// properties filtered out.
type element struct {
	id         string
	visibility security.Visibility
	hidden     bool
	props      []graph.Property
}

func (e *element) ID() string                      { return e.id }
func (e *element) Visibility() security.Visibility { return e.visibility }
func (e *element) Hidden() bool                    { return e.hidden }

func (e *element) Property(name string) (any, bool) {
	for _, p := range e.props {
		if p.Name == name && p.Key == "" {
			return p.Value, true
		}
	}
	for _, p := range e.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func (e *element) Properties(name string) []graph.Property {
	var out []graph.Property
	for _, p := range e.props {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func (e *element) PropertyNames() []string {
	seen := make(map[string]struct{}, len(e.props))
	var out []string
	for _, p := range e.props {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p.Name)
	}
	return out
}

type vertex struct {
	element
}

type edge struct {
	element
	label string
	out   string
	in    string
}

func (e *edge) Label() string       { return e.label }
func (e *edge) OutVertexID() string { return e.out }
func (e *edge) InVertexID() string  { return e.in }

func newVertex(doc *vertexDoc, auths security.Authorizations) *vertex {
	return &vertex{element: newElement(doc, auths)}
}

func newEdge(doc *edgeDoc, auths security.Authorizations) *edge {
	return &edge{
		element: newElement(&doc.vertexDoc, auths),
		label:   doc.Label,
		out:     doc.Out,
		in:      doc.In,
	}
}

func newElement(doc *vertexDoc, auths security.Authorizations) element {
	e := element{id: doc.ID, visibility: doc.Visibility, hidden: doc.Hidden}
	for _, p := range doc.Props {
		if auths.CanSee(p.Visibility) {
			e.props = append(e.props, p)
		}
	}
	return e
}

func sortEdgeDocs(docs []*edgeDoc) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
}

func propMatches(props []graph.Property, name string, value any, anyValue bool) bool {
	for _, p := range props {
		if p.Name != name {
			continue
		}
		if anyValue || p.Value == value {
			return true
		}
	}
	return false
}
