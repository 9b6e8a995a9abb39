package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// PropertyByName implements SchemaRepository.
func (r *Repository) PropertyByName(ctx context.Context, name string) (ontology.SchemaProperty, error) {
	return r.PropertyByNameIn(ctx, name, ontology.PublicNamespace)
}

// PropertyByNameIn implements SchemaRepository.
func (r *Repository) PropertyByNameIn(ctx context.Context, name, namespace string) (ontology.SchemaProperty, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return schema.PropertyByName(name), nil
}

// RequirePropertyByName implements SchemaRepository.
func (r *Repository) RequirePropertyByName(ctx context.Context, name string) (ontology.SchemaProperty, error) {
	return r.RequirePropertyByNameIn(ctx, name, ontology.PublicNamespace)
}

// RequirePropertyByNameIn implements SchemaRepository.
func (r *Repository) RequirePropertyByNameIn(ctx context.Context, name, namespace string) (ontology.SchemaProperty, error) {
	prop, err := r.PropertyByNameIn(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, ontology.ErrNotFound
	}
	return prop, nil
}

// PropertiesByIntent implements SchemaRepository.
func (r *Repository) PropertiesByIntent(ctx context.Context, intent string) ([]ontology.SchemaProperty, error) {
	return r.PropertiesByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// PropertiesByIntentIn implements SchemaRepository.
func (r *Repository) PropertiesByIntentIn(ctx context.Context, intent, namespace string) ([]ontology.SchemaProperty, error) {
	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}
	var matches []ontology.SchemaProperty
	for _, p := range schema.Properties() {
		if hasIntent(p, intent) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// PropertyByIntent implements SchemaRepository.
func (r *Repository) PropertyByIntent(ctx context.Context, intent string) (ontology.SchemaProperty, error) {
	return r.PropertyByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// PropertyByIntentIn implements SchemaRepository.
func (r *Repository) PropertyByIntentIn(ctx context.Context, intent, namespace string) (ontology.SchemaProperty, error) {
	if override := r.cfg.IntentOverride(string(ontology.KindProperty), intent); override != "" {
		return r.PropertyByNameIn(ctx, override, namespace)
	}
	matches, err := r.PropertiesByIntentIn(ctx, intent, namespace)
	if err != nil {
		return nil, err
	}
	if err := checkIntentAmbiguity(intent, elementNames(matches)); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// RequirePropertyByIntent implements SchemaRepository.
func (r *Repository) RequirePropertyByIntent(ctx context.Context, intent string) (ontology.SchemaProperty, error) {
	return r.RequirePropertyByIntentIn(ctx, intent, ontology.PublicNamespace)
}

// RequirePropertyByIntentIn implements SchemaRepository.
func (r *Repository) RequirePropertyByIntentIn(ctx context.Context, intent, namespace string) (ontology.SchemaProperty, error) {
	prop, err := r.PropertyByIntentIn(ctx, intent, namespace)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, ontology.ErrNotFound
	}
	return prop, nil
}

// AddPropertyTo implements SchemaRepository.
func (r *Repository) AddPropertyTo(ctx context.Context, req AddPropertyRequest, user security.User) (ontology.SchemaProperty, error) {
	return r.AddPropertyToIn(ctx, ontology.PublicNamespace, req, user)
}

// AddPropertyToIn implements SchemaRepository. A new property is
// created with everything the request carries; an existing property
// keeps its creation-time attributes (data type, text index hints) and
// has its mutable attributes and associations updated.
func (r *Repository) AddPropertyToIn(ctx context.Context, namespace string, req AddPropertyRequest, user security.User) (prop ontology.SchemaProperty, err error) {
	start := time.Now()
	defer func() { r.metrics.recordOperation("add_property", start, err) }()

	if len(req.Concepts) == 0 && len(req.Relationships) == 0 && len(req.ExtendedDataTableNames) == 0 {
		return nil, ontology.NewValidationError(req.Name, "property must be attached to at least one concept, relationship, or table")
	}
	if req.Name == "" {
		if req.DisplayName == "" {
			return nil, ontology.NewValidationError("", "property requires a name or display name")
		}
		owners := make([]string, 0, len(req.Concepts)+len(req.Relationships)+len(req.ExtendedDataTableNames))
		owners = append(owners, req.Concepts...)
		owners = append(owners, req.Relationships...)
		owners = append(owners, req.ExtendedDataTableNames...)
		req.Name = GenerateDynamicName(ontology.KindProperty, req.DisplayName, namespace, owners...)
	}
	if req.DataType == "" {
		return nil, ontology.NewValidationError(req.Name, "property requires a data type")
	}

	if err := r.checkPrivileges(user, namespace); err != nil {
		return nil, err
	}

	schema, err := r.OntologyIn(ctx, namespace)
	if err != nil {
		return nil, err
	}

	ownerIDs, err := r.resolveOwners(schema, req)
	if err != nil {
		return nil, err
	}

	dependentIDs := make([]string, 0, len(req.DependentPropertyNames))
	for _, dn := range req.DependentPropertyNames {
		dp := schema.PropertyByName(dn)
		if dp == nil {
			return nil, ontology.NewValidationError(req.Name, "dependent property %q does not exist", dn)
		}
		dependentIDs = append(dependentIDs, dp.ID())
	}

	existing := schema.PropertyByName(req.Name)
	req.Searchable = r.determineSearchable(req)

	vis := elementVisibility(namespace)
	vertexID := PropertyID(req.Name, namespace)
	if existing != nil {
		vertexID = existing.ID()
	}

	mut := r.store.PrepareVertex(vertexID, vis)
	if existing == nil {
		mut.SetProperty(PropKind, kindPropertyVertex, vis)
		mut.SetProperty(PropName, req.Name, vis)
		mut.SetProperty(PropDataType, string(req.DataType), vis)
		if len(req.TextIndexHints) > 0 {
			mut.SetProperty(PropTextIndexHints, joinHints(req.TextIndexHints), vis)
		}
		if err := r.store.DefineProperty(ctx, graph.PropertyDefinition{
			Name:           req.Name,
			DataType:       req.DataType,
			TextIndexHints: req.TextIndexHints,
			Sortable:       req.Sortable,
			Boost:          req.Boost,
		}); err != nil {
			return nil, ontology.WrapStore(err, "define property", req.Name, namespace)
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	setElementProp(mut, namespace, PropDisplayName, displayName)
	setElementProp(mut, namespace, PropSearchable, req.Searchable)
	setElementProp(mut, namespace, PropSortable, req.Sortable)
	setElementProp(mut, namespace, PropAddable, req.Addable)
	setElementProp(mut, namespace, PropDeleteable, req.Deleteable)
	setElementProp(mut, namespace, PropUpdateable, req.Updateable)
	setElementProp(mut, namespace, PropUserVisible, req.UserVisible)
	setOrRemove(mut, namespace, PropPropertyGroup, req.PropertyGroup)
	setOrRemove(mut, namespace, PropDisplayFormula, req.DisplayFormula)
	setOrRemove(mut, namespace, PropValidationFormula, req.ValidationFormula)
	setOrRemove(mut, namespace, PropDisplayType, req.DisplayType)
	if req.Boost != 0 {
		setElementProp(mut, namespace, PropBoost, req.Boost)
	}
	if req.PossibleValues != nil {
		encoded, err := json.Marshal(req.PossibleValues)
		if err != nil {
			return nil, ontology.NewValidationError(req.Name, "possible values are not encodable: %v", err)
		}
		setElementProp(mut, namespace, PropPossibleValues, string(encoded))
	}
	if !req.Aggregation.Empty() {
		encoded, err := json.Marshal(req.Aggregation)
		if err != nil {
			return nil, ontology.NewValidationError(req.Name, "aggregation hints are not encodable: %v", err)
		}
		setElementProp(mut, namespace, PropAggregation, string(encoded))
	}
	for _, intent := range req.Intents {
		mut.AddPropertyValue(intent, PropIntent, intent, vis)
	}
	stamp(mut, user)
	if _, err := mut.Save(ctx, authsFor(namespace)); err != nil {
		return nil, ontology.WrapStore(err, "save property", req.Name, namespace)
	}

	for _, ownerID := range ownerIDs {
		if err := r.createCatalogEdge(ctx, namespace, EdgeHasProperty, ownerID, vertexID, nil); err != nil {
			return nil, err
		}
	}

	if req.DependentPropertyNames != nil {
		if err := r.replaceDependentEdges(ctx, namespace, vertexID, dependentIDs); err != nil {
			return nil, err
		}
	}

	if err := r.anchorToWorkspace(ctx, namespace, vertexID); err != nil {
		return nil, err
	}

	if err := r.store.Flush(ctx); err != nil {
		return nil, ontology.WrapStore(err, "flush", req.Name, namespace)
	}
	r.invalidate(namespace)

	return r.RequirePropertyByNameIn(ctx, req.Name, namespace)
}

// resolveOwners maps the request's owner names to vertex ids,
// validating that each exists and that table owners really are
// extended-data tables.
func (r *Repository) resolveOwners(schema *ontology.Schema, req AddPropertyRequest) ([]string, error) {
	ids := make([]string, 0, len(req.Concepts)+len(req.Relationships)+len(req.ExtendedDataTableNames))
	for _, cn := range req.Concepts {
		c := schema.ConceptByName(cn)
		if c == nil {
			return nil, ontology.NewValidationError(req.Name, "concept %q does not exist", cn)
		}
		ids = append(ids, c.ID())
	}
	for _, rn := range req.Relationships {
		rel := schema.RelationshipByName(rn)
		if rel == nil {
			return nil, ontology.NewValidationError(req.Name, "relationship %q does not exist", rn)
		}
		ids = append(ids, rel.ID())
	}
	for _, tn := range req.ExtendedDataTableNames {
		table := schema.ExtendedDataTableByName(tn)
		if table == nil {
			return nil, ontology.NewValidationError(req.Name, "extended data table %q does not exist", tn)
		}
		ids = append(ids, table.ID())
	}
	return ids, nil
}

// replaceDependentEdges rewrites the ordered dependent-property list:
// existing edges are soft-deleted, then the new list is written with a
// zero-based order index per edge.
func (r *Repository) replaceDependentEdges(ctx context.Context, namespace, propertyID string, dependentIDs []string) error {
	auths := authsFor(namespace)
	existing, err := r.store.EdgesOf(ctx, propertyID, graph.Out, EdgeHasDependentProperty, graph.FetchHints{}, auths)
	if err != nil {
		return ontology.WrapStore(err, "load dependent edges", propertyID, namespace)
	}
	for _, e := range existing {
		if err := r.store.SoftDeleteEdge(ctx, e.ID(), auths); err != nil {
			return ontology.WrapStore(err, "remove dependent edge", propertyID, namespace)
		}
	}
	for i, depID := range dependentIDs {
		if err := r.createCatalogEdge(ctx, namespace, EdgeHasDependentProperty, propertyID, depID, map[string]any{
			PropDependentOrder: i,
		}); err != nil {
			return err
		}
	}
	return nil
}

// determineSearchable reconciles the searchable flag with the text
// index hints. A string property declared searchable without any hint
// cannot be indexed, so the flag is coerced off; hints on a
// non-searchable property are suspicious but left alone.
func (r *Repository) determineSearchable(req AddPropertyRequest) bool {
	if req.DataType != ontology.PropertyTypeString {
		return req.Searchable
	}
	if req.Searchable && len(req.TextIndexHints) == 0 {
		r.logger.Warn("String property declared searchable without text index hints; disabling search",
			slog.String("property", req.Name))
		return false
	}
	if !req.Searchable && len(req.TextIndexHints) > 0 {
		r.logger.Warn("String property carries text index hints but is not searchable",
			slog.String("property", req.Name))
	}
	return req.Searchable
}

func setOrRemove(mut graph.VertexMutation, namespace, name, value string) {
	if value == "" {
		removeElementProp(mut, namespace, name)
		return
	}
	setElementProp(mut, namespace, name, value)
}

func joinHints(hints []ontology.TextIndexHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, string(h))
	}
	return strings.Join(parts, ",")
}
