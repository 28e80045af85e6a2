package bundle

// Substitutions is the running source-id to target-id table built while
// a bundle resolves. It is scoped to one import call: the reconciler
// owns it, threads it through each per-mapping resolution, and discards
// it when the import completes.
type Substitutions map[string]string

// NewSubstitutions returns an empty substitution table.
func NewSubstitutions() Substitutions {
	return make(Substitutions)
}

// Register records that srcID resolved to targetID. Identity mappings
// (srcID == targetID) are recorded too so dependents can distinguish
// "resolved" from "never seen".
func (s Substitutions) Register(srcID, targetID string) {
	s[srcID] = targetID
}

// Resolve returns the target id for a source id, and whether the source
// id has been resolved.
func (s Substitutions) Resolve(srcID string) (string, bool) {
	t, ok := s[srcID]
	return t, ok
}
