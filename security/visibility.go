// Package security provides the visibility, authorization, and
// privilege model consumed by the registry. Visibility descriptors
// scope graph elements to workspaces; authorizations decide what a
// caller can see; privileges decide what a caller can change.
package security

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Visibility is the JSON descriptor attached to every graph element
// and property. Source is the base visibility expression (empty for
// world-readable); Workspaces scopes the element to private
// workspaces.
type Visibility struct {
	Source     string   `json:"source,omitempty"`
	Workspaces []string `json:"workspaces,omitempty"`
}

// Public is the world-readable visibility.
var Public = Visibility{}

// ForWorkspace returns a visibility scoped to a single workspace.
func ForWorkspace(workspaceID string) Visibility {
	if workspaceID == "" {
		return Public
	}
	return Visibility{Workspaces: []string{workspaceID}}
}

// HasWorkspace reports whether the descriptor is scoped to the given
// workspace.
func (v Visibility) HasWorkspace(workspaceID string) bool {
	for _, w := range v.Workspaces {
		if w == workspaceID {
			return true
		}
	}
	return false
}

// Sandboxed reports whether the descriptor is scoped to any workspace.
func (v Visibility) Sandboxed() bool {
	return len(v.Workspaces) > 0
}

// WithoutWorkspace returns a copy of the descriptor with the given
// workspace term removed. Used when publishing a sandboxed element.
func (v Visibility) WithoutWorkspace(workspaceID string) Visibility {
	if !v.HasWorkspace(workspaceID) {
		return v
	}
	out := Visibility{Source: v.Source}
	for _, w := range v.Workspaces {
		if w != workspaceID {
			out.Workspaces = append(out.Workspaces, w)
		}
	}
	return out
}

// Label renders the store-native visibility label. Terms are sorted so
// the label is deterministic for equal descriptors.
func (v Visibility) Label() string {
	terms := make([]string, 0, len(v.Workspaces)+1)
	if v.Source != "" {
		terms = append(terms, v.Source)
	}
	terms = append(terms, v.Workspaces...)
	sort.Strings(terms)
	return strings.Join(terms, "&")
}

// MarshalJSON keeps the wire form stable for storage backends.
func (v Visibility) MarshalJSON() ([]byte, error) {
	type wire Visibility
	return json.Marshal(wire(v))
}

// Translator converts visibility descriptors to and from the store's
// native label form.
type Translator struct{}

// NewTranslator returns a Translator.
func NewTranslator() *Translator { return &Translator{} }

// ToLabel converts a descriptor into a store visibility label.
func (t *Translator) ToLabel(v Visibility) string {
	return v.Label()
}

// FromLabel parses a store visibility label back into a descriptor.
// Workspace terms are recognized by the workspace id prefix.
func (t *Translator) FromLabel(label string) Visibility {
	if label == "" {
		return Public
	}
	var v Visibility
	for _, term := range strings.Split(label, "&") {
		if strings.HasPrefix(term, WorkspaceIDPrefix) {
			v.Workspaces = append(v.Workspaces, term)
		} else if v.Source == "" {
			v.Source = term
		} else {
			v.Source = fmt.Sprintf("%s&%s", v.Source, term)
		}
	}
	return v
}
