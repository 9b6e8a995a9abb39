package graph

// ConceptTypeProperty is the well-known property carrying the concept
// type of live data vertices. The registry's delete-safety checks
// query it to find elements still referencing a concept.
const ConceptTypeProperty = "conceptType"
