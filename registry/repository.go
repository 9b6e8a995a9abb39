package registry

import (
	"context"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// SchemaRepository is the full operation surface of the registry.
//
// Every lookup comes in two forms: a convenience method that reads the
// shared public catalog, and an ...In variant taking an explicit
// namespace. All logic lives in the namespace-explicit form; the
// convenience form passes ontology.PublicNamespace.
//
// Plain lookups return nil on a miss; Require variants return
// ontology.ErrNotFound instead, so call sites don't repeat the nil
// check.
type SchemaRepository interface {
	// Ontology returns the cached schema snapshot for the public
	// catalog.
	Ontology(ctx context.Context) (*ontology.Schema, error)
	// OntologyIn returns the cached schema snapshot for a namespace,
	// building it on demand.
	OntologyIn(ctx context.Context, namespace string) (*ontology.Schema, error)

	// ClearCache invalidates every cached snapshot.
	ClearCache()
	// ClearCacheIn invalidates one namespace's snapshot.
	ClearCacheIn(namespace string)

	// VisiblePropertyTitles returns display titles for user-visible
	// public properties, keyed by property name. Served from a
	// dedicated cache invalidated together with the snapshot cache.
	VisiblePropertyTitles(ctx context.Context) (map[string]string, error)

	// Concepts.

	ConceptByName(ctx context.Context, name string) (ontology.Concept, error)
	ConceptByNameIn(ctx context.Context, name, namespace string) (ontology.Concept, error)
	RequireConceptByName(ctx context.Context, name string) (ontology.Concept, error)
	RequireConceptByNameIn(ctx context.Context, name, namespace string) (ontology.Concept, error)
	ConceptByID(ctx context.Context, id string) (ontology.Concept, error)
	ConceptByIDIn(ctx context.Context, id, namespace string) (ontology.Concept, error)
	ConceptByIntent(ctx context.Context, intent string) (ontology.Concept, error)
	ConceptByIntentIn(ctx context.Context, intent, namespace string) (ontology.Concept, error)
	RequireConceptByIntent(ctx context.Context, intent string) (ontology.Concept, error)
	RequireConceptByIntentIn(ctx context.Context, intent, namespace string) (ontology.Concept, error)

	// GetOrCreateConcept creates a concept if absent, idempotently by
	// name. An empty parentName defaults to the root concept for
	// every concept except the root itself.
	GetOrCreateConcept(ctx context.Context, parentName, name, displayName string, user security.User) (ontology.Concept, error)
	GetOrCreateConceptIn(ctx context.Context, namespace, parentName, name, displayName string, user security.User) (ontology.Concept, error)

	// AncestorConcepts walks the single-parent chain from the concept
	// to the root, nearest first, excluding the concept itself.
	AncestorConcepts(ctx context.Context, name string) ([]ontology.Concept, error)
	AncestorConceptsIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error)
	// ChildConcepts returns the direct children.
	ChildConcepts(ctx context.Context, name string) ([]ontology.Concept, error)
	ChildConceptsIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error)
	// ConceptAndAllChildren returns the transitive closure including
	// the concept itself, deduplicated by name.
	ConceptAndAllChildren(ctx context.Context, name string) ([]ontology.Concept, error)
	ConceptAndAllChildrenIn(ctx context.Context, name, namespace string) ([]ontology.Concept, error)
	// ConceptAndAllChildrenNames is the query-filter helper form,
	// returning names only.
	ConceptAndAllChildrenNames(ctx context.Context, name string) ([]string, error)
	ConceptAndAllChildrenNamesIn(ctx context.Context, name, namespace string) ([]string, error)

	// DeleteConcept removes an unreferenced, childless public concept
	// and cascades to its exclusively-owned sandbox-private
	// properties. Deletes are never permitted from within a sandbox.
	DeleteConcept(ctx context.Context, name string, user security.User) error

	// Relationships.

	RelationshipByName(ctx context.Context, name string) (ontology.Relationship, error)
	RelationshipByNameIn(ctx context.Context, name, namespace string) (ontology.Relationship, error)
	RequireRelationshipByName(ctx context.Context, name string) (ontology.Relationship, error)
	RequireRelationshipByNameIn(ctx context.Context, name, namespace string) (ontology.Relationship, error)
	RelationshipByIntent(ctx context.Context, intent string) (ontology.Relationship, error)
	RelationshipByIntentIn(ctx context.Context, intent, namespace string) (ontology.Relationship, error)
	RequireRelationshipByIntent(ctx context.Context, intent string) (ontology.Relationship, error)
	RequireRelationshipByIntentIn(ctx context.Context, intent, namespace string) (ontology.Relationship, error)

	// GetOrCreateRelationship creates a relationship if absent. Every
	// relationship except the root must declare at least one domain
	// and one range concept.
	GetOrCreateRelationship(ctx context.Context, parentName, name, displayName string, domainConcepts, rangeConcepts []string, user security.User) (ontology.Relationship, error)
	GetOrCreateRelationshipIn(ctx context.Context, namespace, parentName, name, displayName string, domainConcepts, rangeConcepts []string, user security.User) (ontology.Relationship, error)

	AddDomainConceptsToRelationship(ctx context.Context, relationshipName string, conceptNames []string, user security.User) error
	AddDomainConceptsToRelationshipIn(ctx context.Context, namespace, relationshipName string, conceptNames []string, user security.User) error
	AddRangeConceptsToRelationship(ctx context.Context, relationshipName string, conceptNames []string, user security.User) error
	AddRangeConceptsToRelationshipIn(ctx context.Context, namespace, relationshipName string, conceptNames []string, user security.User) error

	// AddInverseOf declares two relationships as inverses of each
	// other, symmetrically.
	AddInverseOf(ctx context.Context, relationshipName, inverseName string, user security.User) error
	AddInverseOfIn(ctx context.Context, namespace, relationshipName, inverseName string, user security.User) error

	// DeleteRelationship removes an unreferenced, childless public
	// relationship.
	DeleteRelationship(ctx context.Context, name string, user security.User) error

	// Properties.

	PropertyByName(ctx context.Context, name string) (ontology.SchemaProperty, error)
	PropertyByNameIn(ctx context.Context, name, namespace string) (ontology.SchemaProperty, error)
	RequirePropertyByName(ctx context.Context, name string) (ontology.SchemaProperty, error)
	RequirePropertyByNameIn(ctx context.Context, name, namespace string) (ontology.SchemaProperty, error)
	// PropertiesByIntent returns every property carrying the intent.
	PropertiesByIntent(ctx context.Context, intent string) ([]ontology.SchemaProperty, error)
	PropertiesByIntentIn(ctx context.Context, intent, namespace string) ([]ontology.SchemaProperty, error)
	// PropertyByIntent returns the single property carrying the
	// intent, raising a consistency error on ambiguity when no
	// configuration override exists.
	PropertyByIntent(ctx context.Context, intent string) (ontology.SchemaProperty, error)
	PropertyByIntentIn(ctx context.Context, intent, namespace string) (ontology.SchemaProperty, error)
	RequirePropertyByIntent(ctx context.Context, intent string) (ontology.SchemaProperty, error)
	RequirePropertyByIntentIn(ctx context.Context, intent, namespace string) (ontology.SchemaProperty, error)

	// AddPropertyTo declares or updates a property and its
	// associations. It is the single entry point for property
	// declaration.
	AddPropertyTo(ctx context.Context, req AddPropertyRequest, user security.User) (ontology.SchemaProperty, error)
	AddPropertyToIn(ctx context.Context, namespace string, req AddPropertyRequest, user security.User) (ontology.SchemaProperty, error)

	// DeleteProperty removes a public property carried by no live
	// element.
	DeleteProperty(ctx context.Context, name string, user security.User) error

	// Publish promotes a sandboxed element into the shared catalog.
	// Publishing an already-public element is a no-op.

	PublishConcept(ctx context.Context, name, namespace string, user security.User) error
	PublishRelationship(ctx context.Context, name, namespace string, user security.User) error
	PublishProperty(ctx context.Context, name, namespace string, user security.User) error
}

// AddPropertyRequest carries everything AddPropertyTo needs. At least
// one of Concepts, Relationships, or ExtendedDataTableNames must be
// non-empty. When Name is empty a deterministic dynamic name is
// generated from DisplayName.
type AddPropertyRequest struct {
	Name        string
	DisplayName string
	DataType    ontology.PropertyType

	Concepts               []string
	Relationships          []string
	ExtendedDataTableNames []string

	TextIndexHints []ontology.TextIndexHint
	Searchable     bool
	Sortable       bool
	Addable        bool
	Deleteable     bool
	Updateable     bool
	UserVisible    bool

	Aggregation       ontology.AggregationHints
	PropertyGroup     string
	DisplayFormula    string
	ValidationFormula string
	DisplayType       string
	PossibleValues    map[string]string
	Boost             float64

	// DependentPropertyNames replaces the property's ordered
	// dependent list. Order is preserved exactly. A nil slice leaves
	// the existing list untouched; an empty non-nil slice clears it.
	DependentPropertyNames []string

	Intents []string
}
