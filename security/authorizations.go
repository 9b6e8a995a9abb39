package security

import "sort"

// Authorizations is the credential set presented on every graph read
// and write. An element is visible when every term of its visibility
// descriptor is covered by the set (the empty descriptor is visible to
// everyone).
type Authorizations struct {
	terms map[string]struct{}
	all   bool
}

// AllAuthorizations can see every element regardless of visibility.
// Reserved for system operations such as delete-safety checks, which
// must observe live data in every workspace.
func AllAuthorizations() Authorizations {
	return Authorizations{all: true}
}

// NewAuthorizations builds an authorization set from terms.
func NewAuthorizations(terms ...string) Authorizations {
	a := Authorizations{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		if t != "" {
			a.terms[t] = struct{}{}
		}
	}
	return a
}

// With returns a copy of the set extended with additional terms.
func (a Authorizations) With(terms ...string) Authorizations {
	if a.all {
		return a
	}
	existing := a.Terms()
	existing = append(existing, terms...)
	return NewAuthorizations(existing...)
}

// Has reports whether the set contains the term.
func (a Authorizations) Has(term string) bool {
	_, ok := a.terms[term]
	return ok
}

// Terms returns the sorted terms of the set.
func (a Authorizations) Terms() []string {
	out := make([]string, 0, len(a.terms))
	for t := range a.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CanSee reports whether a visibility descriptor is readable with this
// authorization set.
func (a Authorizations) CanSee(v Visibility) bool {
	if a.all {
		return true
	}
	if v.Source != "" && !a.Has(v.Source) {
		return false
	}
	for _, w := range v.Workspaces {
		if !a.Has(w) {
			return false
		}
	}
	return true
}
