package ontology

import (
	"context"

	"github.com/c360studio/semreg/security"
)

// RootConceptName is the implicit root of the concept hierarchy. Every
// concept except the root has exactly one parent.
const RootConceptName = "thing"

// Concept is a node type in the catalog.
type Concept interface {
	Element

	// ParentConceptName returns the name of the single IS_A parent, or
	// empty for the root concept.
	ParentConceptName() string

	DisplayName() string
	Color() string
	TitleFormula() string
	SubtitleFormula() string
	TimeFormula() string

	// GlyphIcon returns the raw icon bytes, or nil when none is set.
	GlyphIcon() []byte

	UserVisible() bool
	Deleteable() bool
	Updateable() bool
	CoreConcept() bool

	// PropertyNames returns the names of the schema properties attached
	// to this concept.
	PropertyNames() []string

	// SetProperty writes one attribute through to the backing store,
	// stamping modified-by/modified-date metadata, and flushes so the
	// change is visible to subsequent reads.
	SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error
	// RemoveProperty soft-deletes one attribute.
	RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error

	AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	// UpdateIntents reconciles the stored intents against the given
	// set, issuing exactly one add or remove per differing entry.
	UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error

	// ClientAPI externalizes the concept for presentation, omitting
	// unset optional fields.
	ClientAPI(namespace string) *ClientConcept
}
