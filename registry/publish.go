package registry

import (
	"context"
	"time"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// PublishConcept implements SchemaRepository.
func (r *Repository) PublishConcept(ctx context.Context, name, namespace string, user security.User) error {
	concept, err := r.RequireConceptByNameIn(ctx, name, namespace)
	if err != nil {
		return err
	}
	return r.publishElement(ctx, concept.ID(), name, namespace, user)
}

// PublishRelationship implements SchemaRepository.
func (r *Repository) PublishRelationship(ctx context.Context, name, namespace string, user security.User) error {
	rel, err := r.RequireRelationshipByNameIn(ctx, name, namespace)
	if err != nil {
		return err
	}
	return r.publishElement(ctx, rel.ID(), name, namespace, user)
}

// PublishProperty implements SchemaRepository.
func (r *Repository) PublishProperty(ctx context.Context, name, namespace string, user security.User) error {
	prop, err := r.RequirePropertyByNameIn(ctx, name, namespace)
	if err != nil {
		return err
	}
	return r.publishElement(ctx, prop.ID(), name, namespace, user)
}

// publishElement promotes a sandboxed element into the shared catalog:
// the workspace term is stripped from the element and its values,
// workspace-shadowed values replace their public siblings, the
// element's catalog edges are published alongside it, and the
// workspace anchor is detached. Publishing an already-public element
// is a no-op.
func (r *Repository) publishElement(ctx context.Context, id, name, namespace string, user security.User) (err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("publish", start, err) }()

	if ontology.IsPublic(namespace) {
		return ontology.NewValidationError(name, "publishing requires a sandbox namespace")
	}
	// Publishing mutates the shared catalog, so it is gated like any
	// public mutation.
	if err := r.checkPrivileges(user, ontology.PublicNamespace); err != nil {
		return err
	}

	auths := authsFor(namespace)
	vertex, err := r.store.GetVertex(ctx, id, graph.FetchHints{}, auths)
	if err != nil {
		return ontology.WrapStore(err, "load element", name, namespace)
	}
	if vertex == nil {
		return ontology.ErrNotFound
	}

	mut := r.store.PrepareVertex(id, vertex.Visibility())
	changed := false

	if vertex.Visibility().HasWorkspace(namespace) {
		mut.AlterVisibility(vertex.Visibility().WithoutWorkspace(namespace))
		changed = true
	}

	for _, propName := range vertex.PropertyNames() {
		for _, p := range vertex.Properties(propName) {
			if !p.Visibility.HasWorkspace(namespace) {
				continue
			}
			publicVis := p.Visibility.WithoutWorkspace(namespace)
			if p.Key == namespace {
				// A shadow value replaces its public sibling.
				mut.RemovePropertyValue(namespace, p.Name)
				mut.SetProperty(p.Name, p.Value, publicVis)
			} else if p.Key == "" {
				mut.SetProperty(p.Name, p.Value, publicVis)
			} else {
				mut.AddPropertyValue(p.Key, p.Name, p.Value, publicVis)
			}
			changed = true
		}
	}

	if changed {
		stamp(mut, user)
		if _, err := mut.Save(ctx, auths); err != nil {
			return ontology.WrapStore(err, "publish element", name, namespace)
		}
	}

	if err := r.publishEdges(ctx, id, namespace); err != nil {
		return err
	}

	// Detach the workspace anchor so the sandbox no longer claims the
	// element.
	anchorEdge := edgeID(EdgeWorkspaceOntology, workspaceVertexID(namespace), id)
	if err := r.store.SoftDeleteEdge(ctx, anchorEdge, auths); err != nil {
		return ontology.WrapStore(err, "detach workspace anchor", name, namespace)
	}

	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", name, namespace)
	}
	// Every sandbox overlays the public catalog, so a publish
	// invalidates everything.
	r.ClearCache()
	return nil
}

// publishEdges strips the workspace term from the element's catalog
// edges. An edge is only published when its far endpoint is publicly
// visible; an edge into a still-private element stays private until
// that element publishes.
func (r *Repository) publishEdges(ctx context.Context, id, namespace string) error {
	auths := authsFor(namespace)
	for _, label := range []string{EdgeIsA, EdgeHasProperty, EdgeHasEdge, EdgeInverseOf, EdgeHasDependentProperty} {
		edges, err := r.store.EdgesOf(ctx, id, graph.Both, label, graph.FetchHints{}, auths)
		if err != nil {
			return ontology.WrapStore(err, "load edges "+label, id, namespace)
		}
		for _, e := range edges {
			if !e.Visibility().HasWorkspace(namespace) {
				continue
			}
			farID := e.OutVertexID()
			if farID == id {
				farID = e.InVertexID()
			}
			public, err := r.vertexPubliclyVisible(ctx, farID, namespace)
			if err != nil {
				return err
			}
			if !public {
				continue
			}
			mut := r.store.PrepareEdge(e.ID(), e.OutVertexID(), e.InVertexID(), e.Label(), e.Visibility())
			mut.AlterVisibility(e.Visibility().WithoutWorkspace(namespace))
			if _, err := mut.Save(ctx, auths); err != nil {
				return ontology.WrapStore(err, "publish edge "+label, e.ID(), namespace)
			}
		}
	}
	return nil
}

func (r *Repository) vertexPubliclyVisible(ctx context.Context, id, namespace string) (bool, error) {
	v, err := r.store.GetVertex(ctx, id, graph.FetchHints{}, authsFor(namespace))
	if err != nil {
		return false, ontology.WrapStore(err, "load vertex", id, namespace)
	}
	if v == nil {
		return false, nil
	}
	return !v.Visibility().Sandboxed(), nil
}
