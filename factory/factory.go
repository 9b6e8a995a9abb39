// Package factory seeds and maintains a declarative catalog baseline:
// a Catalog of concept, relationship, and property specs is applied
// idempotently against a repository, so services can declare the
// schema they need at startup and converge toward it.
package factory

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/registry"
	"github.com/c360studio/semreg/security"
)

//go:embed assets/default_glyph.svg
var defaultGlyph []byte

// ConceptSpec declares one concept.
type ConceptSpec struct {
	Name            string `yaml:"name"`
	Parent          string `yaml:"parent,omitempty"`
	DisplayName     string `yaml:"displayName,omitempty"`
	Color           string `yaml:"color,omitempty"`
	TitleFormula    string `yaml:"titleFormula,omitempty"`
	SubtitleFormula string `yaml:"subtitleFormula,omitempty"`
	TimeFormula     string `yaml:"timeFormula,omitempty"`
	// GlyphIcon is the raw icon bytes. Nil means the embedded default
	// glyph for user-visible concepts and no glyph otherwise. An
	// existing icon is never overwritten.
	GlyphIcon   []byte   `yaml:"glyphIcon,omitempty"`
	UserVisible bool     `yaml:"userVisible,omitempty"`
	CoreConcept bool     `yaml:"coreConcept,omitempty"`
	Intents     []string `yaml:"intents,omitempty"`
}

// RelationshipSpec declares one relationship.
type RelationshipSpec struct {
	Name        string   `yaml:"name"`
	Parent      string   `yaml:"parent,omitempty"`
	DisplayName string   `yaml:"displayName,omitempty"`
	Domain      []string `yaml:"domain,omitempty"`
	Range       []string `yaml:"range,omitempty"`
	// InverseOf names a relationship this one is the inverse of. Both
	// sides must exist by the time the spec applies.
	InverseOf   string   `yaml:"inverseOf,omitempty"`
	UserVisible bool     `yaml:"userVisible,omitempty"`
	Intents     []string `yaml:"intents,omitempty"`
}

// PropertySpec declares one schema property.
type PropertySpec struct {
	Name                   string                   `yaml:"name,omitempty"`
	DisplayName            string                   `yaml:"displayName"`
	DataType               ontology.PropertyType    `yaml:"dataType"`
	Concepts               []string                 `yaml:"concepts,omitempty"`
	Relationships          []string                 `yaml:"relationships,omitempty"`
	Tables                 []string                 `yaml:"tables,omitempty"`
	TextIndexHints         []ontology.TextIndexHint `yaml:"textIndexHints,omitempty"`
	Searchable             bool                     `yaml:"searchable,omitempty"`
	Sortable               bool                     `yaml:"sortable,omitempty"`
	Addable                bool                     `yaml:"addable,omitempty"`
	Deleteable             bool                     `yaml:"deleteable,omitempty"`
	Updateable             bool                     `yaml:"updateable,omitempty"`
	UserVisible            bool                     `yaml:"userVisible,omitempty"`
	PropertyGroup          string                   `yaml:"propertyGroup,omitempty"`
	DisplayType            string                   `yaml:"displayType,omitempty"`
	PossibleValues         map[string]string        `yaml:"possibleValues,omitempty"`
	Boost                  float64                  `yaml:"boost,omitempty"`
	DependentPropertyNames []string                 `yaml:"dependentProperties,omitempty"`
	Intents                []string                 `yaml:"intents,omitempty"`
}

// Catalog is an ordered set of specs. Concepts apply first, then
// relationships, then properties, each in declaration order, so later
// specs can reference earlier ones.
type Catalog struct {
	Concepts      []ConceptSpec      `yaml:"concepts,omitempty"`
	Relationships []RelationshipSpec `yaml:"relationships,omitempty"`
	Properties    []PropertySpec     `yaml:"properties,omitempty"`
}

// Factory applies catalogs against a repository.
type Factory struct {
	repo   registry.SchemaRepository
	logger *slog.Logger
}

// New creates a Factory.
func New(repo registry.SchemaRepository, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{repo: repo, logger: logger}
}

// Apply converges a namespace toward the catalog. It is idempotent:
// existing elements are kept, missing ones created, display attributes
// filled in only where currently unset.
func (f *Factory) Apply(ctx context.Context, namespace string, catalog Catalog, user security.User) error {
	for _, spec := range catalog.Concepts {
		if err := f.applyConcept(ctx, namespace, spec, user); err != nil {
			return fmt.Errorf("concept %s: %w", spec.Name, err)
		}
	}
	for _, spec := range catalog.Relationships {
		if err := f.applyRelationship(ctx, namespace, spec, user); err != nil {
			return fmt.Errorf("relationship %s: %w", spec.Name, err)
		}
	}
	for _, spec := range catalog.Properties {
		if err := f.applyProperty(ctx, namespace, spec, user); err != nil {
			return fmt.Errorf("property %s: %w", spec.Name, err)
		}
	}
	return nil
}

// EnsureBaseline seeds the root elements when the public catalog is
// empty. Safe to call on every startup.
func (f *Factory) EnsureBaseline(ctx context.Context, user security.User) error {
	schema, err := f.repo.Ontology(ctx)
	if err != nil {
		return err
	}
	if schema.ConceptByName(ontology.RootConceptName) != nil &&
		schema.RelationshipByName(ontology.RootRelationshipName) != nil {
		return nil
	}
	f.logger.Info("Seeding catalog baseline")
	return f.Apply(ctx, ontology.PublicNamespace, Baseline(), user)
}

// Baseline is the minimal catalog every deployment carries: the root
// concept and root relationship.
func Baseline() Catalog {
	return Catalog{
		Concepts: []ConceptSpec{
			{Name: ontology.RootConceptName, DisplayName: "Thing", CoreConcept: true},
		},
		Relationships: []RelationshipSpec{
			{Name: ontology.RootRelationshipName, DisplayName: "Top Object Property"},
		},
	}
}

func (f *Factory) applyConcept(ctx context.Context, namespace string, spec ConceptSpec, user security.User) error {
	concept, err := f.repo.GetOrCreateConceptIn(ctx, namespace, spec.Parent, spec.Name, spec.DisplayName, user)
	if err != nil {
		return err
	}
	auths := security.NewAuthorizations(registry.OntologyVisibilitySource, namespace)

	type attr struct {
		prop    string
		current string
		want    string
	}
	for _, a := range []attr{
		{registry.PropColor, concept.Color(), spec.Color},
		{registry.PropTitleFormula, concept.TitleFormula(), spec.TitleFormula},
		{registry.PropSubtitleFormula, concept.SubtitleFormula(), spec.SubtitleFormula},
		{registry.PropTimeFormula, concept.TimeFormula(), spec.TimeFormula},
	} {
		// Fill in, never overwrite: an operator-tuned value survives
		// re-applying the catalog.
		if a.want == "" || a.current != "" {
			continue
		}
		if err := concept.SetProperty(ctx, a.prop, a.want, user, auths); err != nil {
			return err
		}
	}

	if spec.UserVisible && !concept.UserVisible() {
		if err := concept.SetProperty(ctx, registry.PropUserVisible, true, user, auths); err != nil {
			return err
		}
	}
	if spec.CoreConcept && !concept.CoreConcept() {
		if err := concept.SetProperty(ctx, registry.PropCoreConcept, true, user, auths); err != nil {
			return err
		}
	}

	icon := spec.GlyphIcon
	if icon == nil && spec.UserVisible {
		icon = defaultGlyph
	}
	if icon != nil && concept.GlyphIcon() == nil {
		encoded := base64.StdEncoding.EncodeToString(icon)
		if err := concept.SetProperty(ctx, registry.PropGlyphIcon, encoded, user, auths); err != nil {
			return err
		}
	}

	if spec.Intents != nil {
		if err := concept.UpdateIntents(ctx, spec.Intents, user, auths); err != nil {
			return err
		}
	}
	return nil
}

func (f *Factory) applyRelationship(ctx context.Context, namespace string, spec RelationshipSpec, user security.User) error {
	rel, err := f.repo.GetOrCreateRelationshipIn(ctx, namespace, spec.Parent, spec.Name, spec.DisplayName, spec.Domain, spec.Range, user)
	if err != nil {
		return err
	}
	auths := security.NewAuthorizations(registry.OntologyVisibilitySource, namespace)

	// An existing relationship may predate the spec's full domain and
	// range; adding is idempotent.
	if missing := missingNames(rel.DomainConceptNames(), spec.Domain); len(missing) > 0 {
		if err := f.repo.AddDomainConceptsToRelationshipIn(ctx, namespace, rel.Name(), missing, user); err != nil {
			return err
		}
	}
	if missing := missingNames(rel.RangeConceptNames(), spec.Range); len(missing) > 0 {
		if err := f.repo.AddRangeConceptsToRelationshipIn(ctx, namespace, rel.Name(), missing, user); err != nil {
			return err
		}
	}

	if spec.InverseOf != "" && !containsName(rel.InverseOfNames(), spec.InverseOf) {
		if err := f.repo.AddInverseOfIn(ctx, namespace, rel.Name(), spec.InverseOf, user); err != nil {
			return err
		}
	}

	if spec.UserVisible && !rel.UserVisible() {
		if err := rel.SetProperty(ctx, registry.PropUserVisible, true, user, auths); err != nil {
			return err
		}
	}
	if spec.Intents != nil {
		if err := rel.UpdateIntents(ctx, spec.Intents, user, auths); err != nil {
			return err
		}
	}
	return nil
}

func (f *Factory) applyProperty(ctx context.Context, namespace string, spec PropertySpec, user security.User) error {
	_, err := f.repo.AddPropertyToIn(ctx, namespace, registry.AddPropertyRequest{
		Name:                   spec.Name,
		DisplayName:            spec.DisplayName,
		DataType:               spec.DataType,
		Concepts:               spec.Concepts,
		Relationships:          spec.Relationships,
		ExtendedDataTableNames: spec.Tables,
		TextIndexHints:         spec.TextIndexHints,
		Searchable:             spec.Searchable,
		Sortable:               spec.Sortable,
		Addable:                spec.Addable,
		Deleteable:             spec.Deleteable,
		Updateable:             spec.Updateable,
		UserVisible:            spec.UserVisible,
		PropertyGroup:          spec.PropertyGroup,
		DisplayType:            spec.DisplayType,
		PossibleValues:         spec.PossibleValues,
		Boost:                  spec.Boost,
		DependentPropertyNames: spec.DependentPropertyNames,
		Intents:                spec.Intents,
	}, user)
	return err
}

func missingNames(have, want []string) []string {
	var missing []string
	for _, w := range want {
		if !containsName(have, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
