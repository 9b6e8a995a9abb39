package ontology

import (
	"context"

	"github.com/c360studio/semreg/security"
)

// RootRelationshipName is the implicit root of the relationship
// hierarchy. It is the only relationship allowed to have no domain or
// range concepts.
const RootRelationshipName = "topObjectProperty"

// Relationship is an edge-type declaration between concepts. It is a
// catalog entry, not an edge instance.
type Relationship interface {
	Element

	// ParentName returns the name of the single IS_A parent
	// relationship, or empty for the root.
	ParentName() string

	// DomainConceptNames returns the ordered allowed source concepts.
	DomainConceptNames() []string
	// RangeConceptNames returns the ordered allowed target concepts.
	RangeConceptNames() []string
	// InverseOfNames returns the names of declared inverse
	// relationships.
	InverseOfNames() []string

	DisplayName() string
	TitleFormula() string
	SubtitleFormula() string
	TimeFormula() string
	Color() string

	UserVisible() bool
	Deleteable() bool
	Updateable() bool
	CoreConcept() bool

	PropertyNames() []string

	SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error
	RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error

	AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error

	ClientAPI(namespace string) *ClientRelationship
}
