package ontology

import (
	"context"

	"github.com/c360studio/semreg/security"
)

// SchemaProperty is an attribute declaration attachable to concepts,
// relationships, and extended-data tables.
type SchemaProperty interface {
	Element

	DisplayName() string
	DataType() PropertyType

	// TextIndexHints returns the index hints declared at creation time.
	TextIndexHints() []TextIndexHint

	Searchable() bool
	Sortable() bool
	Addable() bool
	Deleteable() bool
	Updateable() bool
	UserVisible() bool

	// Aggregation returns the optional aggregation hints.
	Aggregation() AggregationHints

	PropertyGroup() string
	DisplayFormula() string
	ValidationFormula() string
	DisplayType() string

	// PossibleValues returns the optional value enumeration, keyed by
	// stored value with display label values. Nil when unset.
	PossibleValues() map[string]string

	Boost() float64

	// DependentPropertyNames returns the ordered dependent property
	// names. Order is significant and persisted per edge.
	DependentPropertyNames() []string

	SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error
	RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error

	AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error
	UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error

	ClientAPI(namespace string) *ClientProperty
}

// ExtendedDataTableProperty is the distinguished property sub-kind for
// tabular attachments. Its data type is always
// PropertyTypeExtendedDataTable.
type ExtendedDataTableProperty interface {
	SchemaProperty

	// TableColumnNames returns the names of the column properties owned
	// by this table.
	TableColumnNames() []string
}
