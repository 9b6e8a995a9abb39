package registry

import (
	"context"
	"time"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// ConceptByName implements SchemaRepository.
func (r *Repository) ConceptByName(ctx context.Context, name string) (ontology.Concept, error) {
	return r.ConceptByNameIn(ctx, name, ontology.PublicNamespace)
}

// ConceptByNameIn implements SchemaRepository.
func (r *Repository) ConceptByNameIn(ctx context.Context, name, namespace string) (ontology.Concept, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return schema.ConceptByName(name), nil
}

// RequireConceptByName implements SchemaRepository.
func (r *Repository) RequireConceptByName(ctx context.Context, name string) (ontology.Concept, error) {
	return r.RequireConceptByNameIn(ctx, name, ontology.PublicNamespace)
}

// RequireConceptByNameIn implements SchemaRepository.
func (r *Repository) RequireConceptByNameIn(ctx context.Context, name, namespace string) (ontology.Concept, error) {
	concept, err := r.ConceptByNameIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, ontology.ErrNotFound
	}
	return concept, nil
}

// ConceptByID implements SchemaRepository.
func (r *Repository) ConceptByID(ctx context.Context, id string) (ontology.Concept, error) {
	return r.ConceptByIDIn(ctx, id, ontology.PublicNamespace)
}

// ConceptByIDIn implements SchemaRepository.
func (r *Repository) ConceptByIDIn(ctx context.Context, id, namespace string) (ontology.Concept, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	for _, c := range schema.Concepts() {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, nil
}

// ConceptByIntent implements SchemaRepository.
func (r *Repository) ConceptByIntent(ctx context.Context, intent string) (ontology.Concept, error) {
	return r.ConceptByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// ConceptByIntentIn implements SchemaRepository.
func (r *Repository) ConceptByIntentIn(ctx context.Context, intent, namespace string) (ontology.Concept, error) {
	if override := r.cfg.IntentOverride(string(ontology.KindConcept), intent); override != "" {
		return r.ConceptByNameIn(ctx, override, namespace)
	}
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	var matches []ontology.Concept
	for _, c := range schema.Concepts() {
		if hasIntent(c, intent) {
			matches = append(matches, c)
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

// RequireConceptByIntent implements SchemaRepository.
func (r *Repository) RequireConceptByIntent(ctx context.Context, intent string) (ontology.Concept, error) {
	return r.RequireConceptByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// RequireConceptByIntentIn implements SchemaRepository.
func (r *Repository) RequireConceptByIntentIn(ctx context.Context, intent, namespace string) (ontology.Concept, error) {
	concept, err := r.ConceptByIntentIn(ctx, intent, namespace)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, ontology.ErrNotFound
	}
	return concept, nil
}

// GetOrCreateConcept implements SchemaRepository.
func (r *Repository) GetOrCreateConcept(ctx context.Context, parentName, name, displayName string, user security.User) (ontology.Concept, error) {
	return r.GetOrCreateConceptIn(ctx, ontology.PublicNamespace, parentName, name, displayName, user)
}

// GetOrCreateConceptIn implements SchemaRepository. Creation is
// idempotent by name: an existing concept is returned unchanged no
// matter what parent or display name the call carries.
func (r *Repository) GetOrCreateConceptIn(ctx context.Context, namespace, parentName, name, displayName string, user security.User) (concept ontology.Concept, err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("get_or_create_concept", start, err) }()

	if name == "" {
		if displayName == "" {
			return nil, ontology.NewValidationError("", "concept requires a name or display name")
		}
		name = GenerateDynamicName(ontology.KindConcept, displayName, namespace)
	}

	existing, err := r.ConceptByNameIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := r.checkPrivileges(user, namespace); err != nil {
		return nil, err
	}

	var parentID string
	bootstrappedRoot := false
	if name != ontology.RootConceptName {
		if parentName == "" {
			parentName = ontology.RootConceptName
		}
		parent, err := r.ConceptByNameIn(ctx, parentName, namespace)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			if parentName != ontology.RootConceptName {
				return nil, ontology.NewValidationError(name, "parent concept %q does not exist", parentName)
			}
			// Implicit root bootstrap: the root concept always lives
			// in the public catalog.
			root, err := r.createConceptVertex(ctx, ontology.PublicNamespace, ontology.RootConceptName, "Thing", security.SystemUser)
			if err != nil {
				return nil, err
			}
			parentID = root
			bootstrappedRoot = true
		} else {
			parentID = parent.ID()
		}
	}

	vertexID, err := r.createConceptVertex(ctx, namespace, name, displayName, user)
	if err != nil {
		return nil, err
	}

	if parentID != "" {
		if err := r.createCatalogEdge(ctx, namespace, EdgeIsA, vertexID, parentID, nil); err != nil {
			return nil, err
		}
	}
	if err := r.anchorToWorkspace(ctx, namespace, vertexID); err != nil {
		return nil, err
	}

	if err := r.store.Flush(ctx); err != nil {
		return nil, ontology.WrapStore(err, "flush", name, namespace)
	}
	// A root bootstrapped from inside a sandbox touched the public
	// catalog too, so every cached snapshot is stale.
	if bootstrappedRoot {
		r.invalidate(ontology.PublicNamespace)
	} else {
		r.invalidate(namespace)
	}

	return r.RequireConceptByNameIn(ctx, name, namespace)
}

// createConceptVertex writes the concept vertex itself, without edges.
func (r *Repository) createConceptVertex(ctx context.Context, namespace, name, displayName string, user security.User) (string, error) {
	if displayName == "" {
		displayName = name
	}
	vis := elementVisibility(namespace)
	id := ConceptID(name, namespace)

	mut := r.store.PrepareVertex(id, vis)
	mut.SetProperty(PropKind, kindConceptVertex, vis)
	mut.SetProperty(PropName, name, vis)
	mut.SetProperty(PropDisplayName, displayName, vis)
	mut.SetProperty(PropUserVisible, false, vis)
	mut.SetProperty(PropDeleteable, true, vis)
	mut.SetProperty(PropUpdateable, true, vis)
	stamp(mut, user)
	if _, err := mut.Save(ctx, authsFor(namespace)); err != nil {
		return "", ontology.WrapStore(err, "create concept", name, namespace)
	}
	return id, nil
}

// createCatalogEdge writes one catalog edge with optional edge
// properties.
func (r *Repository) createCatalogEdge(ctx context.Context, namespace, label, outID, inID string, props map[string]any) error {
	vis := elementVisibility(namespace)
	mut := r.store.PrepareEdge(edgeID(label, outID, inID), outID, inID, label, vis)
	for name, value := range props {
		mut.SetProperty(name, value, vis)
	}
	if _, err := mut.Save(ctx, authsFor(namespace)); err != nil {
		return ontology.WrapStore(err, "create edge "+label, outID, namespace)
	}
	return nil
}

// anchorToWorkspace links a sandboxed element to its workspace anchor
// vertex so publish can find and detach it. Public elements are not
// anchored.
func (r *Repository) anchorToWorkspace(ctx context.Context, namespace, elementID string) error {
	if ontology.IsPublic(namespace) {
		return nil
	}
	vis := elementVisibility(namespace)
	anchorID := workspaceVertexID(namespace)
	mut := r.store.PrepareVertex(anchorID, vis)
	mut.SetProperty(PropName, namespace, vis)
	if _, err := mut.Save(ctx, authsFor(namespace)); err != nil {
		return ontology.WrapStore(err, "create workspace anchor", namespace, namespace)
	}
	return r.createCatalogEdge(ctx, namespace, EdgeWorkspaceOntology, anchorID, elementID, nil)
}

// AncestorConcepts implements SchemaRepository.
func (r *Repository) AncestorConcepts(ctx context.Context, name string) ([]ontology.Concept, error) {
	return r.AncestorConceptsIn(ctx, name, ontology.PublicNamespace)
}

// AncestorConceptsIn implements SchemaRepository. The chain is ordered
// nearest parent first and excludes the concept itself.
func (r *Repository) AncestorConceptsIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	concept := schema.ConceptByName(name)
	if concept == nil {
		return nil, ontology.ErrNotFound
	}

	var ancestors []ontology.Concept
	seen := map[string]struct{}{name: {}}
	for parent := concept.ParentConceptName(); parent != ""; {
		if _, cycle := seen[parent]; cycle {
			return nil, &ontology.ConsistencyError{Entity: name, Message: "concept hierarchy contains a cycle"}
		}
		seen[parent] = struct{}{}
		p := schema.ConceptByName(parent)
		if p == nil {
			break
		}
		ancestors = append(ancestors, p)
		parent = p.ParentConceptName()
	}
	return ancestors, nil
}

// ChildConcepts implements SchemaRepository.
func (r *Repository) ChildConcepts(ctx context.Context, name string) ([]ontology.Concept, error) {
	return r.ChildConceptsIn(ctx, name, ontology.PublicNamespace)
}

// ChildConceptsIn implements SchemaRepository.
func (r *Repository) ChildConceptsIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if schema.ConceptByName(name) == nil {
		return nil, ontology.ErrNotFound
	}
	var children []ontology.Concept
	for _, c := range schema.Concepts() {
		if c.ParentConceptName() == name {
			children = append(children, c)
		}
	}
	return children, nil
}

// ConceptAndAllChildren implements SchemaRepository.
func (r *Repository) ConceptAndAllChildren(ctx context.Context, name string) ([]ontology.Concept, error) {
	return r.ConceptAndAllChildrenIn(ctx, name, ontology.PublicNamespace)
}

// ConceptAndAllChildrenIn implements SchemaRepository. Breadth-first
// over the child relation, deduplicated by name, the concept itself
// first.
func (r *Repository) ConceptAndAllChildrenIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	root := schema.ConceptByName(name)
	if root == nil {
		return nil, ontology.ErrNotFound
	}

	childrenOf := make(map[string][]ontology.Concept)
	for _, c := range schema.Concepts() {
		if p := c.ParentConceptName(); p != "" {
			childrenOf[p] = append(childrenOf[p], c)
		}
	}

	var out []ontology.Concept
	seen := make(map[string]struct{})
	queue := []ontology.Concept{root}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if _, dup := seen[c.Name()]; dup {
			continue
		}
		seen[c.Name()] = struct{}{}
		out = append(out, c)
		queue = append(queue, childrenOf[c.Name()]...)
	}
	return out, nil
}

// ConceptAndAllChildrenNames implements SchemaRepository.
func (r *Repository) ConceptAndAllChildrenNames(ctx context.Context, name string) ([]string, error) {
	return r.ConceptAndAllChildrenNamesIn(ctx, name, ontology.PublicNamespace)
}

// ConceptAndAllChildrenNamesIn implements SchemaRepository.
func (r *Repository) ConceptAndAllChildrenNamesIn(ctx context.Context, name, namespace string) ([]string, error) {
	concepts, err := r.ConceptAndAllChildrenIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, c.Name())
	}
	return names, nil
}

// hasIntent reports whether an element carries the intent.
func hasIntent(e ontology.Element, intent string) bool {
	for _, i := range e.Intents() {
		if i == intent {
			return true
		}
	}
	return false
}

func elementNames[E ontology.Element](elements []E) []string {
	names := make([]string, 0, len(elements))
	for _, e := range elements {
		names = append(names, e.Name())
	}
	return names
}
