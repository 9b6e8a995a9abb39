package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// graphElement is the shared backing for the three element kinds. It
// holds the vertex view captured at snapshot build time; writes go
// through the store and refresh the view so subsequent reads on the
// same instance observe them.
//
// Sandbox writes never touch public values: they land on a
// workspace-keyed sibling of the same property, and reads prefer the
// workspace value over the public one. This is what makes a published
// element's public values survive sandbox edits.
type graphElement struct {
	repo      *Repository
	namespace string
	vertex    graph.Vertex
	kind      ontology.ElementKind
}

func (e *graphElement) ID() string { return e.vertex.ID() }

func (e *graphElement) Name() string { return e.propString(PropName) }

func (e *graphElement) Kind() ontology.ElementKind { return e.kind }

func (e *graphElement) Intents() []string {
	props := e.vertex.Properties(PropIntent)
	out := make([]string, 0, len(props))
	for _, p := range props {
		if s, ok := p.Value.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// propAny resolves one attribute with sandbox shadowing: the
// workspace-scoped value wins, then the public value, then whatever is
// there.
func (e *graphElement) propAny(name string) (any, bool) {
	props := e.vertex.Properties(name)
	if len(props) == 0 {
		return nil, false
	}
	if !ontology.IsPublic(e.namespace) {
		for _, p := range props {
			if p.Visibility.HasWorkspace(e.namespace) {
				return p.Value, true
			}
		}
	}
	for _, p := range props {
		if !p.Visibility.Sandboxed() {
			return p.Value, true
		}
	}
	return props[0].Value, true
}

func (e *graphElement) propString(name string) string {
	v, ok := e.propAny(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (e *graphElement) propBool(name string) bool {
	v, ok := e.propAny(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (e *graphElement) propFloat(name string) float64 {
	v, ok := e.propAny(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// metadata stamps alone never make a public element read as changed.
func isMetadataProp(name string) bool {
	return name == PropModifiedBy || name == PropModifiedDate
}

// SandboxStatus computes the element's visibility state relative to a
// namespace. An element scoped to the namespace is PRIVATE; a public
// element with at least one property carrying both a namespace-private
// value and a public sibling is PUBLIC_CHANGED.
func (e *graphElement) SandboxStatus(namespace string) ontology.SandboxStatus {
	if ontology.IsPublic(namespace) {
		return ontology.SandboxPublic
	}
	if e.vertex.Visibility().HasWorkspace(namespace) {
		return ontology.SandboxPrivate
	}
	for _, name := range e.vertex.PropertyNames() {
		if isMetadataProp(name) {
			continue
		}
		var private, public bool
		for _, p := range e.vertex.Properties(name) {
			if p.Visibility.HasWorkspace(namespace) {
				private = true
			} else if !p.Visibility.Sandboxed() {
				public = true
			}
		}
		if private && public {
			return ontology.SandboxPublicChanged
		}
	}
	return ontology.SandboxPublic
}

// stamp records who changed the element and when. Metadata is written
// with the catalog's base visibility so it never shadows a public
// value.
func stamp(mut graph.VertexMutation, actor security.User) {
	vis := security.Visibility{Source: OntologyVisibilitySource}
	mut.SetProperty(PropModifiedBy, actor.Username, vis)
	mut.SetProperty(PropModifiedDate, time.Now().UTC().Format(time.RFC3339), vis)
}

// setElementProp writes one attribute with sandbox shadowing. Public
// writes replace the default value; sandbox writes land on a
// workspace-keyed sibling so the public value survives.
func setElementProp(mut graph.VertexMutation, namespace, name string, value any) {
	vis := elementVisibility(namespace)
	if ontology.IsPublic(namespace) {
		mut.SetProperty(name, value, vis)
		return
	}
	mut.AddPropertyValue(namespace, name, value, vis)
}

// removeElementProp removes one attribute with sandbox scoping. A
// sandbox removal drops only the workspace's own value.
func removeElementProp(mut graph.VertexMutation, namespace, name string) {
	if ontology.IsPublic(namespace) {
		mut.RemoveProperty(name)
		return
	}
	mut.RemovePropertyValue(namespace, name)
}

// commit saves a mutation, flushes, refreshes the captured vertex
// view, and invalidates the namespace snapshot.
func (e *graphElement) commit(ctx context.Context, mut graph.VertexMutation, auths security.Authorizations) error {
	if _, err := mut.Save(ctx, auths); err != nil {
		return ontology.WrapStore(err, "save element", e.Name(), e.namespace)
	}
	if err := e.repo.store.Flush(ctx); err != nil {
		return ontology.WrapStore(err, "flush", e.Name(), e.namespace)
	}
	if v, err := e.repo.store.GetVertex(ctx, e.vertex.ID(), graph.FetchHints{}, authsFor(e.namespace)); err == nil && v != nil {
		e.vertex = v
	}
	e.repo.invalidate(e.namespace)
	return nil
}

func (e *graphElement) setProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error {
	if err := e.repo.checkPrivileges(actor, e.namespace); err != nil {
		return err
	}
	mut := e.repo.store.PrepareVertex(e.vertex.ID(), elementVisibility(e.namespace))
	setElementProp(mut, e.namespace, name, value)
	stamp(mut, actor)
	return e.commit(ctx, mut, auths)
}

func (e *graphElement) removeProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error {
	if err := e.repo.checkPrivileges(actor, e.namespace); err != nil {
		return err
	}
	mut := e.repo.store.PrepareVertex(e.vertex.ID(), elementVisibility(e.namespace))
	removeElementProp(mut, e.namespace, name)
	stamp(mut, actor)
	return e.commit(ctx, mut, auths)
}

func (e *graphElement) addIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	if err := e.repo.checkPrivileges(actor, e.namespace); err != nil {
		return err
	}
	mut := e.repo.store.PrepareVertex(e.vertex.ID(), elementVisibility(e.namespace))
	mut.AddPropertyValue(intent, PropIntent, intent, elementVisibility(e.namespace))
	stamp(mut, actor)
	return e.commit(ctx, mut, auths)
}

func (e *graphElement) removeIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	if err := e.repo.checkPrivileges(actor, e.namespace); err != nil {
		return err
	}
	mut := e.repo.store.PrepareVertex(e.vertex.ID(), elementVisibility(e.namespace))
	mut.RemovePropertyValue(intent, PropIntent)
	stamp(mut, actor)
	return e.commit(ctx, mut, auths)
}

// updateIntents reconciles stored intents against the desired set with
// one add or remove per differing entry, batched into a single save.
func (e *graphElement) updateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error {
	if err := e.repo.checkPrivileges(actor, e.namespace); err != nil {
		return err
	}
	desired := make(map[string]struct{}, len(intents))
	for _, intent := range intents {
		desired[intent] = struct{}{}
	}
	current := make(map[string]struct{})
	for _, intent := range e.Intents() {
		current[intent] = struct{}{}
	}

	mut := e.repo.store.PrepareVertex(e.vertex.ID(), elementVisibility(e.namespace))
	changed := false
	for intent := range current {
		if _, keep := desired[intent]; !keep {
			mut.RemovePropertyValue(intent, PropIntent)
			changed = true
		}
	}
	for _, intent := range intents {
		if _, have := current[intent]; !have {
			mut.AddPropertyValue(intent, PropIntent, intent, elementVisibility(e.namespace))
			changed = true
		}
	}
	if !changed {
		return nil
	}
	stamp(mut, actor)
	return e.commit(ctx, mut, auths)
}

func (e *graphElement) glyphIcon() []byte {
	encoded := e.propString(PropGlyphIcon)
	if encoded == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	return raw
}

// graphConcept implements ontology.Concept. Hierarchy and property
// associations are resolved at snapshot build time.
type graphConcept struct {
	graphElement
	parentName    string
	propertyNames []string
}

var _ ontology.Concept = (*graphConcept)(nil)

func (c *graphConcept) ParentConceptName() string { return c.parentName }
func (c *graphConcept) DisplayName() string       { return c.propString(PropDisplayName) }
func (c *graphConcept) Color() string             { return c.propString(PropColor) }
func (c *graphConcept) TitleFormula() string      { return c.propString(PropTitleFormula) }
func (c *graphConcept) SubtitleFormula() string   { return c.propString(PropSubtitleFormula) }
func (c *graphConcept) TimeFormula() string       { return c.propString(PropTimeFormula) }
func (c *graphConcept) GlyphIcon() []byte         { return c.glyphIcon() }
func (c *graphConcept) UserVisible() bool         { return c.propBool(PropUserVisible) }
func (c *graphConcept) Deleteable() bool          { return c.propBool(PropDeleteable) }
func (c *graphConcept) Updateable() bool          { return c.propBool(PropUpdateable) }
func (c *graphConcept) CoreConcept() bool         { return c.propBool(PropCoreConcept) }

func (c *graphConcept) PropertyNames() []string { return c.propertyNames }

func (c *graphConcept) SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error {
	return c.setProperty(ctx, name, value, actor, auths)
}

func (c *graphConcept) RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error {
	return c.removeProperty(ctx, name, actor, auths)
}

func (c *graphConcept) AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return c.addIntent(ctx, intent, actor, auths)
}

func (c *graphConcept) RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return c.removeIntent(ctx, intent, actor, auths)
}

func (c *graphConcept) UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error {
	return c.updateIntents(ctx, intents, actor, auths)
}

func (c *graphConcept) ClientAPI(namespace string) *ontology.ClientConcept {
	out := &ontology.ClientConcept{
		ID:              c.ID(),
		Title:           c.Name(),
		DisplayName:     c.DisplayName(),
		ParentConcept:   c.parentName,
		Color:           c.Color(),
		TitleFormula:    c.TitleFormula(),
		SubtitleFormula: c.SubtitleFormula(),
		TimeFormula:     c.TimeFormula(),
		UserVisible:     c.UserVisible(),
		Deleteable:      c.Deleteable(),
		Updateable:      c.Updateable(),
		CoreConcept:     c.CoreConcept(),
		Intents:         c.Intents(),
		Properties:      c.propertyNames,
		SandboxStatus:   c.SandboxStatus(namespace),
	}
	if len(c.GlyphIcon()) > 0 {
		out.GlyphIconHref = "ontology/" + c.Name() + "/glyph"
	}
	return out
}

// graphRelationship implements ontology.Relationship.
type graphRelationship struct {
	graphElement
	parentName     string
	domainNames    []string
	rangeNames     []string
	inverseOfNames []string
	propertyNames  []string
}

var _ ontology.Relationship = (*graphRelationship)(nil)

func (r *graphRelationship) ParentName() string           { return r.parentName }
func (r *graphRelationship) DomainConceptNames() []string { return r.domainNames }
func (r *graphRelationship) RangeConceptNames() []string  { return r.rangeNames }
func (r *graphRelationship) InverseOfNames() []string     { return r.inverseOfNames }
func (r *graphRelationship) DisplayName() string          { return r.propString(PropDisplayName) }
func (r *graphRelationship) Color() string                { return r.propString(PropColor) }
func (r *graphRelationship) TitleFormula() string         { return r.propString(PropTitleFormula) }
func (r *graphRelationship) SubtitleFormula() string      { return r.propString(PropSubtitleFormula) }
func (r *graphRelationship) TimeFormula() string          { return r.propString(PropTimeFormula) }
func (r *graphRelationship) UserVisible() bool            { return r.propBool(PropUserVisible) }
func (r *graphRelationship) Deleteable() bool             { return r.propBool(PropDeleteable) }
func (r *graphRelationship) Updateable() bool             { return r.propBool(PropUpdateable) }
func (r *graphRelationship) CoreConcept() bool            { return r.propBool(PropCoreConcept) }

func (r *graphRelationship) PropertyNames() []string { return r.propertyNames }

func (r *graphRelationship) SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error {
	return r.setProperty(ctx, name, value, actor, auths)
}

func (r *graphRelationship) RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error {
	return r.removeProperty(ctx, name, actor, auths)
}

func (r *graphRelationship) AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return r.addIntent(ctx, intent, actor, auths)
}

func (r *graphRelationship) RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return r.removeIntent(ctx, intent, actor, auths)
}

func (r *graphRelationship) UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error {
	return r.updateIntents(ctx, intents, actor, auths)
}

func (r *graphRelationship) ClientAPI(namespace string) *ontology.ClientRelationship {
	return &ontology.ClientRelationship{
		ID:              r.ID(),
		Title:           r.Name(),
		DisplayName:     r.DisplayName(),
		Parent:          r.parentName,
		DomainConcepts:  r.domainNames,
		RangeConcepts:   r.rangeNames,
		InverseOfs:      r.inverseOfNames,
		Color:           r.Color(),
		TitleFormula:    r.TitleFormula(),
		SubtitleFormula: r.SubtitleFormula(),
		TimeFormula:     r.TimeFormula(),
		UserVisible:     r.UserVisible(),
		Deleteable:      r.Deleteable(),
		Updateable:      r.Updateable(),
		CoreConcept:     r.CoreConcept(),
		Intents:         r.Intents(),
		Properties:      r.propertyNames,
		SandboxStatus:   r.SandboxStatus(namespace),
	}
}

// graphProperty implements ontology.SchemaProperty.
type graphProperty struct {
	graphElement
	dependentNames []string
	columnNames    []string
}

var _ ontology.SchemaProperty = (*graphProperty)(nil)

func (p *graphProperty) DisplayName() string { return p.propString(PropDisplayName) }

func (p *graphProperty) DataType() ontology.PropertyType {
	dt, err := ontology.ParsePropertyType(p.propString(PropDataType))
	if err != nil {
		return ontology.PropertyTypeString
	}
	return dt
}

func (p *graphProperty) TextIndexHints() []ontology.TextIndexHint {
	stored := p.propString(PropTextIndexHints)
	if stored == "" {
		return nil
	}
	parts := strings.Split(stored, ",")
	out := make([]ontology.TextIndexHint, 0, len(parts))
	for _, part := range parts {
		out = append(out, ontology.TextIndexHint(part))
	}
	return out
}

func (p *graphProperty) Searchable() bool  { return p.propBool(PropSearchable) }
func (p *graphProperty) Sortable() bool    { return p.propBool(PropSortable) }
func (p *graphProperty) Addable() bool     { return p.propBool(PropAddable) }
func (p *graphProperty) Deleteable() bool  { return p.propBool(PropDeleteable) }
func (p *graphProperty) Updateable() bool  { return p.propBool(PropUpdateable) }
func (p *graphProperty) UserVisible() bool { return p.propBool(PropUserVisible) }

func (p *graphProperty) Aggregation() ontology.AggregationHints {
	stored := p.propString(PropAggregation)
	if stored == "" {
		return ontology.AggregationHints{}
	}
	var hints ontology.AggregationHints
	if err := json.Unmarshal([]byte(stored), &hints); err != nil {
		return ontology.AggregationHints{}
	}
	return hints
}

func (p *graphProperty) PropertyGroup() string     { return p.propString(PropPropertyGroup) }
func (p *graphProperty) DisplayFormula() string    { return p.propString(PropDisplayFormula) }
func (p *graphProperty) ValidationFormula() string { return p.propString(PropValidationFormula) }
func (p *graphProperty) DisplayType() string       { return p.propString(PropDisplayType) }

func (p *graphProperty) PossibleValues() map[string]string {
	stored := p.propString(PropPossibleValues)
	if stored == "" {
		return nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(stored), &values); err != nil {
		return nil
	}
	return values
}

func (p *graphProperty) Boost() float64 { return p.propFloat(PropBoost) }

func (p *graphProperty) DependentPropertyNames() []string { return p.dependentNames }

func (p *graphProperty) SetProperty(ctx context.Context, name string, value any, actor security.User, auths security.Authorizations) error {
	return p.setProperty(ctx, name, value, actor, auths)
}

func (p *graphProperty) RemoveProperty(ctx context.Context, name string, actor security.User, auths security.Authorizations) error {
	return p.removeProperty(ctx, name, actor, auths)
}

func (p *graphProperty) AddIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return p.addIntent(ctx, intent, actor, auths)
}

func (p *graphProperty) RemoveIntent(ctx context.Context, intent string, actor security.User, auths security.Authorizations) error {
	return p.removeIntent(ctx, intent, actor, auths)
}

func (p *graphProperty) UpdateIntents(ctx context.Context, intents []string, actor security.User, auths security.Authorizations) error {
	return p.updateIntents(ctx, intents, actor, auths)
}

func (p *graphProperty) ClientAPI(namespace string) *ontology.ClientProperty {
	out := &ontology.ClientProperty{
		ID:                p.ID(),
		Title:             p.Name(),
		DisplayName:       p.DisplayName(),
		DataType:          p.DataType(),
		TextIndexHints:    p.TextIndexHints(),
		Searchable:        p.Searchable(),
		Sortable:          p.Sortable(),
		Addable:           p.Addable(),
		Deleteable:        p.Deleteable(),
		Updateable:        p.Updateable(),
		UserVisible:       p.UserVisible(),
		PropertyGroup:     p.PropertyGroup(),
		DisplayFormula:    p.DisplayFormula(),
		ValidationFormula: p.ValidationFormula(),
		DisplayType:       p.DisplayType(),
		PossibleValues:    p.PossibleValues(),
		Boost:             p.Boost(),
		DependentNames:    p.dependentNames,
		TableColumns:      p.columnNames,
		Intents:           p.Intents(),
		SandboxStatus:     p.SandboxStatus(namespace),
	}
	if agg := p.Aggregation(); !agg.Empty() {
		out.Aggregation = &agg
	}
	return out
}

// graphTableProperty is the extended-data table sub-kind.
type graphTableProperty struct {
	graphProperty
}

var _ ontology.ExtendedDataTableProperty = (*graphTableProperty)(nil)

func (p *graphTableProperty) TableColumnNames() []string { return p.columnNames }
