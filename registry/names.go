// Package registry implements the schema repository: the full
// operation surface over catalog concepts, relationships, and schema
// properties, backed by an injected graph.Store. It owns id
// derivation, namespace resolution, privilege checks, intent
// resolution, delete safety, publish semantics, and the per-namespace
// schema snapshot cache.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/c360studio/semreg/ontology"
)

// Vertex id prefixes per element kind. The id is the prefix followed
// by a SHA-256 hash of the element name (or namespace+name when
// sandboxed), which makes get-or-create idempotent without a
// uniqueness index.
const (
	conceptIDPrefix      = "o_c_"
	relationshipIDPrefix = "o_r_"
	propertyIDPrefix     = "o_p_"
	edgeIDPrefix         = "o_e_"
	workspaceIDVertex    = "o_w_"
)

// Graph property names on catalog vertices.
const (
	PropKind              = "ontology.kind"
	PropName              = "ontology.name"
	PropDisplayName       = "ontology.displayName"
	PropColor             = "ontology.color"
	PropTitleFormula      = "ontology.titleFormula"
	PropSubtitleFormula   = "ontology.subtitleFormula"
	PropTimeFormula       = "ontology.timeFormula"
	PropGlyphIcon         = "ontology.glyphIcon"
	PropUserVisible       = "ontology.userVisible"
	PropDeleteable        = "ontology.deleteable"
	PropUpdateable        = "ontology.updateable"
	PropCoreConcept       = "ontology.coreConcept"
	PropIntent            = "ontology.intent"
	PropDataType          = "ontology.dataType"
	PropTextIndexHints    = "ontology.textIndexHints"
	PropSearchable        = "ontology.searchable"
	PropSortable          = "ontology.sortable"
	PropAddable           = "ontology.addable"
	PropDisplayType       = "ontology.displayType"
	PropPropertyGroup     = "ontology.propertyGroup"
	PropDisplayFormula    = "ontology.displayFormula"
	PropValidationFormula = "ontology.validationFormula"
	PropPossibleValues    = "ontology.possibleValues"
	PropBoost             = "ontology.boost"
	PropAggregation       = "ontology.aggregation"
	PropModifiedBy        = "ontology.modifiedBy"
	PropModifiedDate      = "ontology.modifiedDate"
)

// Edge labels linking catalog vertices.
const (
	EdgeIsA                  = "ontology.isA"
	EdgeHasProperty          = "ontology.hasProperty"
	EdgeHasEdge              = "ontology.hasEdge"
	EdgeInverseOf            = "ontology.inverseOf"
	EdgeHasDependentProperty = "ontology.hasDependentProperty"
	EdgeWorkspaceOntology    = "ontology.workspace"

	// PropDependentOrder is the edge-level order index on dependent
	// property edges. Ordering is significant and persisted here.
	PropDependentOrder = "ontology.dependentOrder"
)

// Vertex kind markers stored under PropKind.
const (
	kindConceptVertex      = "concept"
	kindRelationshipVertex = "relationship"
	kindPropertyVertex     = "property"
)

// OntologyVisibilitySource is the base visibility term on every
// catalog vertex and edge. Readers present it alongside their
// workspace terms.
const OntologyVisibilitySource = "ontology"

// ConceptID derives the deterministic vertex id of a concept. Two
// calls with the same name in the same namespace resolve to the same
// vertex.
func ConceptID(name, namespace string) string {
	return elementID(conceptIDPrefix, name, namespace)
}

// RelationshipID derives the deterministic vertex id of a
// relationship.
func RelationshipID(name, namespace string) string {
	return elementID(relationshipIDPrefix, name, namespace)
}

// PropertyID derives the deterministic vertex id of a schema property.
func PropertyID(name, namespace string) string {
	return elementID(propertyIDPrefix, name, namespace)
}

func elementID(prefix, name, namespace string) string {
	h := sha256.New()
	if !ontology.IsPublic(namespace) {
		h.Write([]byte(namespace))
	}
	h.Write([]byte(name))
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// edgeID derives a deterministic edge id so repeated association
// writes land on the same edge.
func edgeID(label, outID, inID string) string {
	h := sha256.Sum256([]byte(label + "|" + outID + "|" + inID))
	return edgeIDPrefix + hex.EncodeToString(h[:])
}

// workspaceVertexID derives the vertex id anchoring a workspace's
// ontology membership edges.
func workspaceVertexID(namespace string) string {
	h := sha256.Sum256([]byte(namespace))
	return workspaceIDVertex + hex.EncodeToString(h[:])
}

const dynamicNameMaxLen = 50

// GenerateDynamicName builds a deterministic machine-safe identifier
// from a human display name. Identical inputs always yield the
// identical string; display names that collide after truncation still
// disambiguate through the hash suffix.
func GenerateDynamicName(kind ontology.ElementKind, displayName, namespace string, extra ...string) string {
	base := camelCase(displayName)
	if len(base) > dynamicNameMaxLen {
		base = base[:dynamicNameMaxLen]
	}
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{'|'})
	h.Write([]byte(displayName))
	h.Write([]byte{'|'})
	h.Write([]byte(namespace))
	for _, e := range extra {
		h.Write([]byte{'|'})
		h.Write([]byte(e))
	}
	suffix := hex.EncodeToString(h.Sum(nil))[:10]
	if base == "" {
		base = string(kind)
	}
	return fmt.Sprintf("%s_%s", base, suffix)
}

// camelCase lowercases the first word, capitalizes the rest, and
// strips everything that is not a letter or digit.
func camelCase(s string) string {
	var b strings.Builder
	wordStart := false
	first := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			wordStart = true
			continue
		}
		switch {
		case first:
			b.WriteRune(unicode.ToLower(r))
			first = false
			wordStart = false
		case wordStart:
			b.WriteRune(unicode.ToUpper(r))
			wordStart = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
