package registry

import (
	"sort"

	"github.com/c360studio/semreg/ontology"
)

// Intent resolution is indirect lookup: callers ask for "the element
// tagged with this intent" instead of hardcoding names. A
// configuration override short-circuits the catalog scan entirely; a
// scan that matches more than one element is a consistency error, not
// an arbitrary pick.

// checkIntentAmbiguity raises a ConsistencyError naming every match
// when an intent scan finds more than one element.
func checkIntentAmbiguity(intent string, names []string) error {
	if len(names) <= 1 {
		return nil
	}
	sort.Strings(names)
	return &ontology.ConsistencyError{
		Entity:    intent,
		Conflicts: names,
		Message:   "intent matches more than one element",
	}
}
