package natsgraph

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

func (q *query) Vertices(ctx context.Context) ([]graph.Vertex, error) {
	docs, err := q.store.allVertexDocs(ctx)
	if err != nil {
		return nil, err
	}
	var out []graph.Vertex
	for _, doc := range docs {
		if !docReadable(doc, graph.FetchHints{}, q.auths) {
			continue
		}
		v := newVertex(doc, q.auths)
		if !q.matches(v.props) {
			continue
		}
		if q.hasLimit && len(out) >= q.limit {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func (q *query) Edges(ctx context.Context) ([]graph.Edge, error) {
	docs, err := q.store.allEdgeDocs(ctx)
	if err != nil {
		return nil, err
	}
	var out []graph.Edge
	for _, doc := range docs {
		if !docReadable(&doc.vertexDoc, graph.FetchHints{}, q.auths) {
			continue
		}
		if q.hasLabel && doc.Label != q.edgeLabel {
			continue
		}
		e := newEdge(doc, q.auths)
		if !q.matches(e.props) {
			continue
		}
		if q.hasLimit && len(out) >= q.limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (q *query) TotalHits(ctx context.Context) (int64, error) {
	var total int64
	if q.hasLabel {
		docs, err := q.store.allEdgeDocs(ctx)
		if err != nil {
			return 0, err
		}
		for _, doc := range docs {
			if !docReadable(&doc.vertexDoc, graph.FetchHints{}, q.auths) || doc.Label != q.edgeLabel {
				continue
			}
			if q.matches(newEdge(doc, q.auths).props) {
				total++
			}
		}
		return total, nil
	}
	docs, err := q.store.allVertexDocs(ctx)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		if !docReadable(doc, graph.FetchHints{}, q.auths) {
			continue
		}
		if q.matches(newVertex(doc, q.auths).props) {
			total++
		}
	}
	return total, nil
}

func (q *query) matches(props []graph.Property) bool {
	for _, f := range q.filters {
		if !propMatches(props, f.name, f.value, f.anyValue) {
			return false
		}
	}
	return true
}
