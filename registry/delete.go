package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// Deletes operate on the public catalog only, require the admin
// privilege, and are guarded by delete-safety checks that span every
// workspace: an element with children, or still referenced by live
// data anywhere, cannot be deleted.

// DeleteConcept implements SchemaRepository.
func (r *Repository) DeleteConcept(ctx context.Context, name string, user security.User) (err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("delete_concept", start, err) }()

	if err := r.checkDeletePrivileges(user, ontology.PublicNamespace); err != nil {
		return err
	}
	concept, err := r.RequireConceptByName(ctx, name)
	if err != nil {
		return err
	}

	children, err := r.ChildConcepts(ctx, name)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return &ontology.DeleteBlockedError{Entity: name, Reason: "concept has child concepts"}
	}

	// No relationship may still name this concept in its domain or
	// range.
	schema, err := r.Ontology(ctx)
	if err != nil {
		return err
	}
	for _, rel := range schema.Relationships() {
		if containsName(rel.DomainConceptNames(), name) || containsName(rel.RangeConceptNames(), name) {
			return &ontology.DeleteBlockedError{
				Entity: name,
				Reason: fmt.Sprintf("relationship %q references the concept", rel.Name()),
			}
		}
	}

	// Live data in any workspace blocks the delete; the check runs
	// with all-seeing authorizations so sandbox-private data counts.
	hits, err := r.store.Query(security.AllAuthorizations()).
		Has(graph.ConceptTypeProperty, name).
		Limit(0).
		TotalHits(ctx)
	if err != nil {
		return ontology.WrapStore(err, "count live data", name, ontology.PublicNamespace)
	}
	if hits > 0 {
		return &ontology.DeleteBlockedError{
			Entity: name,
			Reason: fmt.Sprintf("%d data elements still carry the concept type", hits),
		}
	}

	if err := r.cascadeExclusiveProperties(ctx, concept.ID(), concept.PropertyNames()); err != nil {
		return err
	}

	if err := r.store.SoftDeleteVertex(ctx, concept.ID(), security.AllAuthorizations()); err != nil {
		return ontology.WrapStore(err, "delete concept", name, ontology.PublicNamespace)
	}
	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", name, ontology.PublicNamespace)
	}
	r.ClearCache()
	return nil
}

// DeleteRelationship implements SchemaRepository.
func (r *Repository) DeleteRelationship(ctx context.Context, name string, user security.User) (err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("delete_relationship", start, err) }()

	if err := r.checkDeletePrivileges(user, ontology.PublicNamespace); err != nil {
		return err
	}
	rel, err := r.RequireRelationshipByName(ctx, name)
	if err != nil {
		return err
	}

	schema, err := r.Ontology(ctx)
	if err != nil {
		return err
	}
	for _, other := range schema.Relationships() {
		if other.ParentName() == name {
			return &ontology.DeleteBlockedError{Entity: name, Reason: "relationship has child relationships"}
		}
	}

	// Live edges use the relationship name as their label.
	hits, err := r.store.Query(security.AllAuthorizations()).
		HasEdgeLabel(name).
		Limit(0).
		TotalHits(ctx)
	if err != nil {
		return ontology.WrapStore(err, "count live edges", name, ontology.PublicNamespace)
	}
	if hits > 0 {
		return &ontology.DeleteBlockedError{
			Entity: name,
			Reason: fmt.Sprintf("%d edges still carry the relationship label", hits),
		}
	}

	if err := r.cascadeExclusiveProperties(ctx, rel.ID(), rel.PropertyNames()); err != nil {
		return err
	}

	if err := r.store.SoftDeleteVertex(ctx, rel.ID(), security.AllAuthorizations()); err != nil {
		return ontology.WrapStore(err, "delete relationship", name, ontology.PublicNamespace)
	}
	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", name, ontology.PublicNamespace)
	}
	r.ClearCache()
	return nil
}

// DeleteProperty implements SchemaRepository.
func (r *Repository) DeleteProperty(ctx context.Context, name string, user security.User) (err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("delete_property", start, err) }()

	if err := r.checkDeletePrivileges(user, ontology.PublicNamespace); err != nil {
		return err
	}
	prop, err := r.RequirePropertyByName(ctx, name)
	if err != nil {
		return err
	}

	hits, err := r.store.Query(security.AllAuthorizations()).
		HasProperty(name).
		Limit(0).
		TotalHits(ctx)
	if err != nil {
		return ontology.WrapStore(err, "count live values", name, ontology.PublicNamespace)
	}
	if hits > 0 {
		return &ontology.DeleteBlockedError{
			Entity: name,
			Reason: fmt.Sprintf("%d elements still carry a value of the property", hits),
		}
	}

	if err := r.store.SoftDeleteVertex(ctx, prop.ID(), security.AllAuthorizations()); err != nil {
		return ontology.WrapStore(err, "delete property", name, ontology.PublicNamespace)
	}
	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", name, ontology.PublicNamespace)
	}
	r.ClearCache()
	return nil
}

// cascadeExclusiveProperties soft-deletes the schema properties owned
// solely by the element being deleted. A property shared with any
// other owner, in any workspace, survives.
func (r *Repository) cascadeExclusiveProperties(ctx context.Context, ownerID string, propertyNames []string) error {
	all := security.AllAuthorizations()
	schema, err := r.Ontology(ctx)
	if err != nil {
		return err
	}
	for _, pn := range propertyNames {
		prop := schema.PropertyByName(pn)
		if prop == nil {
			continue
		}
		owners, err := r.store.AdjacentVertexIDs(ctx, prop.ID(), graph.In, EdgeHasProperty, graph.FetchHints{}, all)
		if err != nil {
			return ontology.WrapStore(err, "load property owners", pn, ontology.PublicNamespace)
		}
		exclusive := true
		for _, o := range owners {
			if o != ownerID {
				exclusive = false
				break
			}
		}
		if !exclusive {
			continue
		}
		if err := r.store.SoftDeleteVertex(ctx, prop.ID(), all); err != nil {
			return ontology.WrapStore(err, "delete property", pn, ontology.PublicNamespace)
		}
	}
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
