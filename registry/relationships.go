package registry

import (
	"context"
	"time"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// RelationshipByName implements SchemaRepository.
func (r *Repository) RelationshipByName(ctx context.Context, name string) (ontology.Relationship, error) {
	return r.RelationshipByNameIn(ctx, name, ontology.PublicNamespace)
}

// RelationshipByNameIn implements SchemaRepository.
func (r *Repository) RelationshipByNameIn(ctx context.Context, name, namespace string) (ontology.Relationship, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return schema.RelationshipByName(name), nil
}

// RequireRelationshipByName implements SchemaRepository.
func (r *Repository) RequireRelationshipByName(ctx context.Context, name string) (ontology.Relationship, error) {
	return r.RequireRelationshipByNameIn(ctx, name, ontology.PublicNamespace)
}

// RequireRelationshipByNameIn implements SchemaRepository.
func (r *Repository) RequireRelationshipByNameIn(ctx context.Context, name, namespace string) (ontology.Relationship, error) {
	rel, err := r.RelationshipByNameIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, ontology.ErrNotFound
	}
	return rel, nil
}

// RelationshipByIntent implements SchemaRepository.
func (r *Repository) RelationshipByIntent(ctx context.Context, intent string) (ontology.Relationship, error) {
	return r.RelationshipByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// RelationshipByIntentIn implements SchemaRepository.
func (r *Repository) RelationshipByIntentIn(ctx context.Context, intent, namespace string) (ontology.Relationship, error) {
	if override := r.cfg.IntentOverride(string(ontology.KindRelationship), intent); override != "" {
		return r.RelationshipByNameIn(ctx, override, namespace)
	}
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	var matches []ontology.Relationship
	for _, rel := range schema.Relationships() {
		if hasIntent(rel, intent) {
			matches = append(matches, rel)
		}
	}
	if err := checkIntentAmbiguity(intent, elementNames(matches)); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// RequireRelationshipByIntent implements SchemaRepository.
func (r *Repository) RequireRelationshipByIntent(ctx context.Context, intent string) (ontology.Relationship, error) {
	return r.RequireRelationshipByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// RequireRelationshipByIntentIn implements SchemaRepository.
func (r *Repository) RequireRelationshipByIntentIn(ctx context.Context, intent, namespace string) (ontology.Relationship, error) {
	rel, err := r.RelationshipByIntentIn(ctx, intent, namespace)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, ontology.ErrNotFound
	}
	return rel, nil
}

// GetOrCreateRelationship implements SchemaRepository.
func (r *Repository) GetOrCreateRelationship(ctx context.Context, parentName, name, displayName string, domainConcepts, rangeConcepts []string, user security.User) (ontology.Relationship, error) {
	return r.GetOrCreateRelationshipIn(ctx, ontology.PublicNamespace, parentName, name, displayName, domainConcepts, rangeConcepts, user)
}

// GetOrCreateRelationshipIn implements SchemaRepository. Creation is
// idempotent by name; every relationship except the root must declare
// at least one domain and one range concept, all of which must already
// exist.
func (r *Repository) GetOrCreateRelationshipIn(ctx context.Context, namespace, parentName, name, displayName string, domainConcepts, rangeConcepts []string, user security.User) (rel ontology.Relationship, err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("get_or_create_relationship", start, err) }()

	if name == "" {
		if displayName == "" {
			return nil, ontology.NewValidationError("", "relationship requires a name or display name")
		}
		extras := append(append([]string{}, domainConcepts...), rangeConcepts...)
		name = GenerateDynamicName(ontology.KindRelationship, displayName, namespace, extras...)
	}

	existing, err := r.RelationshipByNameIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := r.checkPrivileges(user, namespace); err != nil {
		return nil, err
	}

	isRoot := name == ontology.RootRelationshipName
	if !isRoot && (len(domainConcepts) == 0 || len(rangeConcepts) == 0) {
		return nil, ontology.NewValidationError(name, "relationship requires at least one domain and one range concept")
	}

	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	conceptIDs := make(map[string]string, len(domainConcepts)+len(rangeConcepts))
	for _, cn := range append(append([]string{}, domainConcepts...), rangeConcepts...) {
		c := schema.ConceptByName(cn)
		if c == nil {
			return nil, ontology.NewValidationError(name, "concept %q does not exist", cn)
		}
		conceptIDs[cn] = c.ID()
	}

	var parentID string
	bootstrappedRoot := false
	if !isRoot {
		if parentName == "" {
			parentName = ontology.RootRelationshipName
		}
		parent, err := r.RelationshipByNameIn(ctx, parentName, namespace)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			if parentName != ontology.RootRelationshipName {
				return nil, ontology.NewValidationError(name, "parent relationship %q does not exist", parentName)
			}
			root, err := r.createRelationshipVertex(ctx, ontology.PublicNamespace, ontology.RootRelationshipName, "Top Object Property", security.SystemUser)
			if err != nil {
				return nil, err
			}
			parentID = root
			bootstrappedRoot = true
		} else {
			parentID = parent.ID()
		}
	}

	vertexID, err := r.createRelationshipVertex(ctx, namespace, name, displayName, user)
	if err != nil {
		return nil, err
	}

	if parentID != "" {
		if err := r.createCatalogEdge(ctx, namespace, EdgeIsA, vertexID, parentID, nil); err != nil {
			return nil, err
		}
	}
	for _, cn := range domainConcepts {
		if err := r.createCatalogEdge(ctx, namespace, EdgeHasEdge, conceptIDs[cn], vertexID, nil); err != nil {
			return nil, err
		}
	}
	for _, cn := range rangeConcepts {
		if err := r.createCatalogEdge(ctx, namespace, EdgeHasEdge, vertexID, conceptIDs[cn], nil); err != nil {
			return nil, err
		}
	}
	if err := r.anchorToWorkspace(ctx, namespace, vertexID); err != nil {
		return nil, err
	}

	if err := r.store.Flush(ctx); err != nil {
		return nil, ontology.WrapStore(err, "flush", name, namespace)
	}
	if bootstrappedRoot {
		r.invalidate(ontology.PublicNamespace)
	} else {
		r.invalidate(namespace)
	}

	return r.RequireRelationshipByNameIn(ctx, name, namespace)
}

func (r *Repository) createRelationshipVertex(ctx context.Context, namespace, name, displayName string, user security.User) (string, error) {
	if displayName == "" {
		displayName = name
	}
	vis := elementVisibility(namespace)
	id := RelationshipID(name, namespace)

	mut := r.store.PrepareVertex(id, vis)
	mut.SetProperty(PropKind, kindRelationshipVertex, vis)
	mut.SetProperty(PropName, name, vis)
	mut.SetProperty(PropDisplayName, displayName, vis)
	mut.SetProperty(PropUserVisible, false, vis)
	mut.SetProperty(PropDeleteable, true, vis)
	mut.SetProperty(PropUpdateable, true, vis)
	stamp(mut, user)
	if _, err := mut.Save(ctx, authsFor(namespace)); err != nil {
		return "", ontology.WrapStore(err, "create relationship", name, namespace)
	}
	return id, nil
}

// AddDomainConceptsToRelationship implements SchemaRepository.
func (r *Repository) AddDomainConceptsToRelationship(ctx context.Context, relationshipName string, conceptNames []string, user security.User) error {
	return r.AddDomainConceptsToRelationshipIn(ctx, ontology.PublicNamespace, relationshipName, conceptNames, user)
}

// AddDomainConceptsToRelationshipIn implements SchemaRepository.
// Adding a concept already in the domain is a no-op thanks to
// deterministic edge ids.
func (r *Repository) AddDomainConceptsToRelationshipIn(ctx context.Context, namespace, relationshipName string, conceptNames []string, user security.User) error {
	return r.addRelationshipConcepts(ctx, namespace, relationshipName, conceptNames, user, true)
}

// AddRangeConceptsToRelationship implements SchemaRepository.
func (r *Repository) AddRangeConceptsToRelationship(ctx context.Context, relationshipName string, conceptNames []string, user security.User) error {
	return r.AddRangeConceptsToRelationshipIn(ctx, ontology.PublicNamespace, relationshipName, conceptNames, user)
}

// AddRangeConceptsToRelationshipIn implements SchemaRepository.
func (r *Repository) AddRangeConceptsToRelationshipIn(ctx context.Context, namespace, relationshipName string, conceptNames []string, user security.User) error {
	return r.addRelationshipConcepts(ctx, namespace, relationshipName, conceptNames, user, false)
}

func (r *Repository) addRelationshipConcepts(ctx context.Context, namespace, relationshipName string, conceptNames []string, user security.User, domain bool) error {
	if len(conceptNames) == 0 {
		return nil
	}
	if err := r.checkPrivileges(user, namespace); err != nil {
		return err
	}
	rel, err := r.RequireRelationshipByNameIn(ctx, relationshipName, namespace)
	if err != nil {
		return err
	}
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return err
	}
	for _, cn := range conceptNames {
		c := schema.ConceptByName(cn)
		if c == nil {
			return ontology.NewValidationError(relationshipName, "concept %q does not exist", cn)
		}
		out, in := rel.ID(), c.ID()
		if domain {
			out, in = c.ID(), rel.ID()
		}
		if err := r.createCatalogEdge(ctx, namespace, EdgeHasEdge, out, in, nil); err != nil {
			return err
		}
	}
	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", relationshipName, namespace)
	}
	r.invalidate(namespace)
	return nil
}

// AddInverseOf implements SchemaRepository.
func (r *Repository) AddInverseOf(ctx context.Context, relationshipName, inverseName string, user security.User) error {
	return r.AddInverseOfIn(ctx, ontology.PublicNamespace, relationshipName, inverseName, user)
}

// AddInverseOfIn implements SchemaRepository. The declaration is
// symmetric: both directions are stored so each relationship reports
// the other as its inverse.
func (r *Repository) AddInverseOfIn(ctx context.Context, namespace, relationshipName, inverseName string, user security.User) error {
	if err := r.checkPrivileges(user, namespace); err != nil {
		return err
	}
	rel, err := r.RequireRelationshipByNameIn(ctx, relationshipName, namespace)
	if err != nil {
		return err
	}
	inverse, err := r.RequireRelationshipByNameIn(ctx, inverseName, namespace)
	if err != nil {
		return err
	}
	if err := r.createCatalogEdge(ctx, namespace, EdgeInverseOf, rel.ID(), inverse.ID(), nil); err != nil {
		return err
	}
	if err := r.createCatalogEdge(ctx, namespace, EdgeInverseOf, inverse.ID(), rel.ID(), nil); err != nil {
		return err
	}
	if err := r.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", relationshipName, namespace)
	}
	r.invalidate(namespace)
	return nil
}
