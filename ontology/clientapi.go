package ontology

// Client API types externalize catalog elements for presentation.
// Optional fields are omitted when unset rather than emitted as empty
// placeholders.

// ClientConcept is the presentation form of a Concept.
type ClientConcept struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	DisplayName     string        `json:"displayName,omitempty"`
	ParentConcept   string        `json:"parentConcept,omitempty"`
	Color           string        `json:"color,omitempty"`
	TitleFormula    string        `json:"titleFormula,omitempty"`
	SubtitleFormula string        `json:"subtitleFormula,omitempty"`
	TimeFormula     string        `json:"timeFormula,omitempty"`
	GlyphIconHref   string        `json:"glyphIconHref,omitempty"`
	UserVisible     bool          `json:"userVisible"`
	Deleteable      bool          `json:"deleteable"`
	Updateable      bool          `json:"updateable"`
	CoreConcept     bool          `json:"coreConcept,omitempty"`
	Intents         []string      `json:"intents,omitempty"`
	Properties      []string      `json:"properties,omitempty"`
	SandboxStatus   SandboxStatus `json:"sandboxStatus,omitempty"`
}

// ClientRelationship is the presentation form of a Relationship.
type ClientRelationship struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	DisplayName     string        `json:"displayName,omitempty"`
	Parent          string        `json:"parentIri,omitempty"`
	DomainConcepts  []string      `json:"domainConcepts,omitempty"`
	RangeConcepts   []string      `json:"rangeConcepts,omitempty"`
	InverseOfs      []string      `json:"inverseOfs,omitempty"`
	Color           string        `json:"color,omitempty"`
	TitleFormula    string        `json:"titleFormula,omitempty"`
	SubtitleFormula string        `json:"subtitleFormula,omitempty"`
	TimeFormula     string        `json:"timeFormula,omitempty"`
	UserVisible     bool          `json:"userVisible"`
	Deleteable      bool          `json:"deleteable"`
	Updateable      bool          `json:"updateable"`
	CoreConcept     bool          `json:"coreConcept,omitempty"`
	Intents         []string      `json:"intents,omitempty"`
	Properties      []string      `json:"properties,omitempty"`
	SandboxStatus   SandboxStatus `json:"sandboxStatus,omitempty"`
}

// ClientProperty is the presentation form of a SchemaProperty.
type ClientProperty struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	DisplayName       string            `json:"displayName,omitempty"`
	DataType          PropertyType      `json:"dataType"`
	TextIndexHints    []TextIndexHint   `json:"textIndexHints,omitempty"`
	Searchable        bool              `json:"searchable"`
	Sortable          bool              `json:"sortable"`
	Addable           bool              `json:"addable"`
	Deleteable        bool              `json:"deleteable"`
	Updateable        bool              `json:"updateable"`
	UserVisible       bool              `json:"userVisible"`
	Aggregation       *AggregationHints `json:"aggregation,omitempty"`
	PropertyGroup     string            `json:"propertyGroup,omitempty"`
	DisplayFormula    string            `json:"displayFormula,omitempty"`
	ValidationFormula string            `json:"validationFormula,omitempty"`
	DisplayType       string            `json:"displayType,omitempty"`
	PossibleValues    map[string]string `json:"possibleValues,omitempty"`
	Boost             float64           `json:"boost,omitempty"`
	DependentNames    []string          `json:"dependentPropertyIris,omitempty"`
	TableColumns      []string          `json:"tablePropertyIris,omitempty"`
	Intents           []string          `json:"intents,omitempty"`
	SandboxStatus     SandboxStatus     `json:"sandboxStatus,omitempty"`
}
