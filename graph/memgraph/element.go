package memgraph

import (
	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

// vertex and edge are immutable views over a record copy; the copy is
// taken under the store lock with invisible properties filtered out.

type vertex struct {
	r *record
}

func (v *vertex) ID() string                      { return v.r.id }
func (v *vertex) Visibility() security.Visibility { return v.r.visibility }
func (v *vertex) Hidden() bool                    { return v.r.hidden }

func (v *vertex) Property(name string) (any, bool) { return propValue(v.r, name) }

func (v *vertex) Properties(name string) []graph.Property { return propValues(v.r, name) }

func (v *vertex) PropertyNames() []string { return propNames(v.r) }

type edge struct {
	record
	label string
	out   string
	in    string
}

func (e *edge) ID() string                      { return e.id }
func (e *edge) Visibility() security.Visibility { return e.visibility }
func (e *edge) Hidden() bool                    { return e.hidden }
func (e *edge) Label() string                   { return e.label }
func (e *edge) OutVertexID() string             { return e.out }
func (e *edge) InVertexID() string              { return e.in }

func (e *edge) Property(name string) (any, bool) { return propValue(&e.record, name) }

func (e *edge) Properties(name string) []graph.Property { return propValues(&e.record, name) }

func (e *edge) PropertyNames() []string { return propNames(&e.record) }

func propValue(r *record, name string) (any, bool) {
	for _, p := range r.props {
		if p.Name == name && p.Key == "" {
			return p.Value, true
		}
	}
	// Fall back to the first keyed value so single-value reads of
	// multi-valued properties still answer.
	for _, p := range r.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func propValues(r *record, name string) []graph.Property {
	var out []graph.Property
	for _, p := range r.props {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func propNames(r *record) []string {
	seen := make(map[string]struct{}, len(r.props))
	var out []string
	for _, p := range r.props {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p.Name)
	}
	return out
}
