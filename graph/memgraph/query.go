package memgraph

import (
	"context"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

type filter struct {
	name     string
	value    any
	anyValue bool
}

type query struct {
	store     *Store
	auths     security.Authorizations
	filters   []filter
	edgeLabel string
	hasLabel  bool
	limit     int
	hasLimit  bool
}

// Query implements graph.Store.
func (s *Store) Query(auths security.Authorizations) graph.Query {
	return &query{store: s, auths: auths}
}

func (q *query) HasConceptType(conceptType string) graph.Query {
	q.filters = append(q.filters, filter{name: graph.ConceptTypeProperty, value: conceptType})
	return q
}

func (q *query) HasEdgeLabel(label string) graph.Query {
	q.edgeLabel = label
	q.hasLabel = true
	return q
}

func (q *query) Has(property string, value any) graph.Query {
	q.filters = append(q.filters, filter{name: property, value: value})
	return q
}

func (q *query) HasProperty(property string) graph.Query {
	q.filters = append(q.filters, filter{name: property, anyValue: true})
	return q
}

func (q *query) Limit(n int) graph.Query {
	q.limit = n
	q.hasLimit = true
	return q
}

func (q *query) Vertices(context.Context) ([]graph.Vertex, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	var out []graph.Vertex
	for _, r := range q.store.vertices {
		if !readable(r, graph.FetchHints{}, q.auths) {
			continue
		}
		v := view(r, q.auths)
		if !q.matches(v) {
			continue
		}
		if q.hasLimit && len(out) >= q.limit {
			break
		}
		out = append(out, &vertex{v})
	}
	return out, nil
}

func (q *query) Edges(context.Context) ([]graph.Edge, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	var out []graph.Edge
	for _, id := range q.store.edgeOrder {
		e := q.store.edges[id]
		if e == nil || !readable(&e.record, graph.FetchHints{}, q.auths) {
			continue
		}
		if q.hasLabel && e.label != q.edgeLabel {
			continue
		}
		v := view(&e.record, q.auths)
		if !q.matches(v) {
			continue
		}
		if q.hasLimit && len(out) >= q.limit {
			break
		}
		out = append(out, edgeView(e, q.auths))
	}
	return out, nil
}

// TotalHits counts every match regardless of Limit, so Limit(0)
// queries stay cheap existence checks.
func (q *query) TotalHits(context.Context) (int64, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	var total int64
	if q.hasLabel {
		for _, id := range q.store.edgeOrder {
			e := q.store.edges[id]
			if e == nil || !readable(&e.record, graph.FetchHints{}, q.auths) || e.label != q.edgeLabel {
				continue
			}
			if q.matches(view(&e.record, q.auths)) {
				total++
			}
		}
		return total, nil
	}
	for _, r := range q.store.vertices {
		if !readable(r, graph.FetchHints{}, q.auths) {
			continue
		}
		if q.matches(view(r, q.auths)) {
			total++
		}
	}
	return total, nil
}

func (q *query) matches(r *record) bool {
	for _, f := range q.filters {
		found := false
		for _, p := range r.props {
			if p.Name != f.name {
				continue
			}
			if f.anyValue || p.Value == f.value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
