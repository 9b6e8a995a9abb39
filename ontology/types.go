// Package ontology defines the storage-agnostic element model for the
// schema registry: concepts (node types), relationships (edge-type
// declarations), and schema properties, together with the namespace and
// sandbox-status semantics shared by every storage backend.
package ontology

import (
	"fmt"
	"strings"
	"time"
)

// PublicNamespace is the namespace of the shared catalog. Private
// workspaces use their workspace identifier as the namespace.
const PublicNamespace = ""

// IsPublic reports whether the namespace refers to the shared catalog.
func IsPublic(namespace string) bool {
	return namespace == PublicNamespace
}

// SandboxStatus describes the visibility state of an element relative
// to a namespace.
type SandboxStatus string

const (
	// SandboxPublic means the element is visible to everyone.
	SandboxPublic SandboxStatus = "PUBLIC"
	// SandboxPrivate means the element is scoped to exactly one workspace.
	SandboxPrivate SandboxStatus = "PRIVATE"
	// SandboxPublicChanged means a public element has a private shadow
	// in the querying workspace.
	SandboxPublicChanged SandboxStatus = "PUBLIC_CHANGED"
)

// ElementKind discriminates the three catalog entity kinds. It is used
// for intent override lookup and dynamic name generation.
type ElementKind string

const (
	KindConcept      ElementKind = "concept"
	KindRelationship ElementKind = "relationship"
	KindProperty     ElementKind = "property"
)

// PropertyType enumerates the data types a schema property can declare.
type PropertyType string

const (
	PropertyTypeString            PropertyType = "string"
	PropertyTypeInteger           PropertyType = "integer"
	PropertyTypeDouble            PropertyType = "double"
	PropertyTypeBoolean           PropertyType = "boolean"
	PropertyTypeDate              PropertyType = "date"
	PropertyTypeCurrency          PropertyType = "currency"
	PropertyTypeGeoLocation       PropertyType = "geoLocation"
	PropertyTypeGeoShape          PropertyType = "geoShape"
	PropertyTypeBinary            PropertyType = "binary"
	PropertyTypeDirectory         PropertyType = "directory"
	PropertyTypeExtendedDataTable PropertyType = "extendedDataTable"
)

// ParsePropertyType parses a stored property type string.
func ParsePropertyType(s string) (PropertyType, error) {
	switch PropertyType(strings.TrimSpace(s)) {
	case PropertyTypeString, PropertyTypeInteger, PropertyTypeDouble,
		PropertyTypeBoolean, PropertyTypeDate, PropertyTypeCurrency,
		PropertyTypeGeoLocation, PropertyTypeGeoShape, PropertyTypeBinary,
		PropertyTypeDirectory, PropertyTypeExtendedDataTable:
		return PropertyType(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("unknown property type: %q", s)
	}
}

// TextIndexHint controls how a string property is indexed for search.
type TextIndexHint string

const (
	TextIndexFullText   TextIndexHint = "FULL_TEXT"
	TextIndexExactMatch TextIndexHint = "EXACT_MATCH"
)

// AggregationHints carry optional aggregation configuration for a
// property, used by downstream search/analytics consumers.
type AggregationHints struct {
	Type             string `json:"type,omitempty"`
	Precision        int    `json:"precision,omitempty"`
	Interval         string `json:"interval,omitempty"`
	MinDocumentCount int    `json:"minDocumentCount,omitempty"`
	TimeZone         string `json:"timeZone,omitempty"`
	CalendarField    string `json:"calendarField,omitempty"`
}

// Empty reports whether no aggregation hint is set.
func (a AggregationHints) Empty() bool {
	return a == AggregationHints{}
}

// Metadata common to every element kind.
type Metadata struct {
	ModifiedBy   string
	ModifiedDate time.Time
}

// Element is the contract shared by all three catalog entity kinds.
// Equality across snapshots is defined solely by Name.
type Element interface {
	// ID returns the backing graph element id.
	ID() string
	// Name returns the stable technical name. Two elements are the
	// same element iff their names are equal.
	Name() string
	// Kind returns the element kind discriminator.
	Kind() ElementKind
	// SandboxStatus computes the element's visibility state relative
	// to the given namespace.
	SandboxStatus(namespace string) SandboxStatus
	// Intents returns the free-form semantic tags attached to the
	// element, used for indirect lookup.
	Intents() []string
}
