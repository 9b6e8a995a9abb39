package registry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
)

// Ontology implements SchemaRepository.
func (r *Repository) Ontology(ctx context.Context) (*ontology.Schema, error) {
	return r.OntologyIn(ctx, ontology.PublicNamespace)
}

// OntologyIn implements SchemaRepository. The snapshot is served from
// the per-namespace cache and built on demand.
func (r *Repository) OntologyIn(ctx context.Context, namespace string) (*ontology.Schema, error) {
	key := nsKey(namespace)
	if schema, ok := r.schemaCache.Get(key); ok {
		return schema, nil
	}

	schema, err := r.buildSchema(ctx, namespace)
	if err != nil {
		return nil, err
	}

	if _, err := r.schemaCache.Set(key, schema); err != nil {
		r.logger.Warn("Failed to cache schema snapshot",
			slog.String("namespace", key),
			slog.String("error", err.Error()))
	}
	return schema, nil
}

// VisiblePropertyTitles implements SchemaRepository.
func (r *Repository) VisiblePropertyTitles(ctx context.Context) (map[string]string, error) {
	const key = "public"
	if titles, ok := r.titlesCache.Get(key); ok {
		return titles, nil
	}

	schema, err := r.Ontology(ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	for _, p := range schema.Properties() {
		if !p.UserVisible() {
			continue
		}
		title := p.DisplayName()
		if title == "" {
			title = p.Name()
		}
		titles[p.Name()] = title
	}

	if _, err := r.titlesCache.Set(key, titles); err != nil {
		r.logger.Warn("Failed to cache property titles", slog.String("error", err.Error()))
	}
	return titles, nil
}

// edgeIndex is everything the snapshot builder derives from catalog
// edges, keyed by vertex id.
type edgeIndex struct {
	parentOf    map[string][]string // child id -> parent ids (must end up singular)
	propertyOf  map[string][]string // owner id -> property ids, insertion order
	domainOf    map[string][]string // relationship id -> concept ids
	rangeOf     map[string][]string // relationship id -> concept ids
	inverseOf   map[string][]string // relationship id -> relationship ids
	dependentOf map[string][]orderedRef
}

type orderedRef struct {
	id    string
	order int
}

// buildSchema loads the full catalog for a namespace in one pass:
// the three vertex sets concurrently, then every catalog edge, then
// assembles elements with their associations resolved in memory.
func (r *Repository) buildSchema(ctx context.Context, namespace string) (*ontology.Schema, error) {
	start := time.Now()
	auths := authsFor(namespace)
	hints := graph.FetchHints{}

	var conceptVerts, relVerts, propVerts []graph.Vertex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conceptVerts, err = r.store.VerticesWithProperty(gctx, PropKind, kindConceptVertex, hints, auths)
		return ontology.WrapStore(err, "load concepts", "", namespace)
	})
	g.Go(func() error {
		var err error
		relVerts, err = r.store.VerticesWithProperty(gctx, PropKind, kindRelationshipVertex, hints, auths)
		return ontology.WrapStore(err, "load relationships", "", namespace)
	})
	g.Go(func() error {
		var err error
		propVerts, err = r.store.VerticesWithProperty(gctx, PropKind, kindPropertyVertex, hints, auths)
		return ontology.WrapStore(err, "load properties", "", namespace)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nameOf := make(map[string]string, len(conceptVerts)+len(relVerts)+len(propVerts))
	kindOf := make(map[string]string, len(nameOf))
	for _, v := range conceptVerts {
		nameOf[v.ID()] = graph.PropertyString(v, PropName)
		kindOf[v.ID()] = kindConceptVertex
	}
	for _, v := range relVerts {
		nameOf[v.ID()] = graph.PropertyString(v, PropName)
		kindOf[v.ID()] = kindRelationshipVertex
	}
	for _, v := range propVerts {
		nameOf[v.ID()] = graph.PropertyString(v, PropName)
		kindOf[v.ID()] = kindPropertyVertex
	}

	idx, err := r.loadEdgeIndex(ctx, namespace, kindOf)
	if err != nil {
		return nil, err
	}

	// Single-parent invariant check before assembling anything.
	for childID, parents := range idx.parentOf {
		if len(parents) > 1 {
			conflicts := make([]string, 0, len(parents))
			for _, pid := range parents {
				conflicts = append(conflicts, nameOf[pid])
			}
			sort.Strings(conflicts)
			return nil, &ontology.ConsistencyError{
				Entity:    nameOf[childID],
				Conflicts: conflicts,
				Message:   "element has more than one parent",
			}
		}
	}

	names := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if name, ok := nameOf[id]; ok && name != "" {
				out = append(out, name)
			}
		}
		return out
	}
	singleParent := func(id string) string {
		parents := idx.parentOf[id]
		if len(parents) == 0 {
			return ""
		}
		return nameOf[parents[0]]
	}
	dependents := func(id string) []string {
		refs := idx.dependentOf[id]
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].order < refs[j].order })
		out := make([]string, 0, len(refs))
		for _, ref := range refs {
			if name, ok := nameOf[ref.id]; ok && name != "" {
				out = append(out, name)
			}
		}
		return out
	}

	concepts := make(map[string]ontology.Concept, len(conceptVerts))
	for _, v := range conceptVerts {
		name := nameOf[v.ID()]
		if name == "" {
			continue
		}
		concepts[name] = &graphConcept{
			graphElement:  graphElement{repo: r, namespace: namespace, vertex: v, kind: ontology.KindConcept},
			parentName:    singleParent(v.ID()),
			propertyNames: names(idx.propertyOf[v.ID()]),
		}
	}

	relationships := make(map[string]ontology.Relationship, len(relVerts))
	for _, v := range relVerts {
		name := nameOf[v.ID()]
		if name == "" {
			continue
		}
		relationships[name] = &graphRelationship{
			graphElement:   graphElement{repo: r, namespace: namespace, vertex: v, kind: ontology.KindRelationship},
			parentName:     singleParent(v.ID()),
			domainNames:    names(idx.domainOf[v.ID()]),
			rangeNames:     names(idx.rangeOf[v.ID()]),
			inverseOfNames: names(idx.inverseOf[v.ID()]),
			propertyNames:  names(idx.propertyOf[v.ID()]),
		}
	}

	properties := make(map[string]ontology.SchemaProperty, len(propVerts))
	for _, v := range propVerts {
		name := nameOf[v.ID()]
		if name == "" {
			continue
		}
		base := graphProperty{
			graphElement:   graphElement{repo: r, namespace: namespace, vertex: v, kind: ontology.KindProperty},
			dependentNames: dependents(v.ID()),
		}
		if base.DataType() == ontology.PropertyTypeExtendedDataTable {
			base.columnNames = names(idx.propertyOf[v.ID()])
			properties[name] = &graphTableProperty{graphProperty: base}
		} else {
			properties[name] = &base
		}
	}

	r.metrics.recordSnapshot(nsKey(namespace), len(concepts), len(relationships), len(properties))
	r.logger.Debug("Built schema snapshot",
		slog.String("namespace", nsKey(namespace)),
		slog.Int("concepts", len(concepts)),
		slog.Int("relationships", len(relationships)),
		slog.Int("properties", len(properties)),
		slog.Duration("elapsed", time.Since(start)))

	return ontology.NewSchema(namespace, concepts, relationships, properties), nil
}

// loadEdgeIndex loads every catalog edge visible in the namespace,
// one query per label, preserving insertion order within each vertex's
// association lists.
func (r *Repository) loadEdgeIndex(ctx context.Context, namespace string, kindOf map[string]string) (*edgeIndex, error) {
	auths := authsFor(namespace)
	idx := &edgeIndex{
		parentOf:    make(map[string][]string),
		propertyOf:  make(map[string][]string),
		domainOf:    make(map[string][]string),
		rangeOf:     make(map[string][]string),
		inverseOf:   make(map[string][]string),
		dependentOf: make(map[string][]orderedRef),
	}

	for _, label := range []string{EdgeIsA, EdgeHasProperty, EdgeHasEdge, EdgeInverseOf, EdgeHasDependentProperty} {
		edges, err := r.store.Query(auths).HasEdgeLabel(label).Edges(ctx)
		if err != nil {
			return nil, ontology.WrapStore(err, "load edges "+label, "", namespace)
		}
		for _, e := range edges {
			out, in := e.OutVertexID(), e.InVertexID()
			switch label {
			case EdgeIsA:
				idx.parentOf[out] = appendUnique(idx.parentOf[out], in)
			case EdgeHasProperty:
				idx.propertyOf[out] = appendUnique(idx.propertyOf[out], in)
			case EdgeHasEdge:
				// A concept-to-relationship edge declares domain; a
				// relationship-to-concept edge declares range.
				switch {
				case kindOf[out] == kindConceptVertex && kindOf[in] == kindRelationshipVertex:
					idx.domainOf[in] = appendUnique(idx.domainOf[in], out)
				case kindOf[out] == kindRelationshipVertex && kindOf[in] == kindConceptVertex:
					idx.rangeOf[out] = appendUnique(idx.rangeOf[out], in)
				}
			case EdgeInverseOf:
				idx.inverseOf[out] = appendUnique(idx.inverseOf[out], in)
			case EdgeHasDependentProperty:
				idx.dependentOf[out] = append(idx.dependentOf[out], orderedRef{
					id:    in,
					order: graph.PropertyInt(e, PropDependentOrder),
				})
			}
		}
	}
	return idx, nil
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
