package bundle

// Properties carries free-form key/value directives on a mapping.
type Properties map[string]string

// Recognized property keys.
const (
	// PropMapBy selects the lookup key: "id" (default) or "name".
	PropMapBy = "MapBy"

	// PropMapTo is the name to search for when MapBy=name. Defaults to
	// the reference item's own name.
	PropMapTo = "MapTo"

	// PropFailOnNew, when "true", turns NewOrUpdate's create-on-absent
	// fallback into a TargetNotFound error.
	PropFailOnNew = "FailOnNew"

	// PropErrorMessage holds the human-readable message accompanying a
	// non-empty ErrorType. Set by the engine.
	PropErrorMessage = "ErrorMessage"
)

// MapBy values.
const (
	MapByID   = "id"
	MapByName = "name"
)

// MapBy returns the lookup key selector, defaulting to MapByID.
func (p Properties) MapBy() string {
	if v := p[PropMapBy]; v != "" {
		return v
	}
	return MapByID
}

// MapTo returns the name to search for when MapBy=name, or "" to use
// the reference item's name.
func (p Properties) MapTo() string { return p[PropMapTo] }

// FailOnNew reports whether the create-on-absent fallback is disabled.
func (p Properties) FailOnNew() bool { return p[PropFailOnNew] == "true" }

// ErrorMessage returns the human-readable resolution error, if any.
func (p Properties) ErrorMessage() string { return p[PropErrorMessage] }

// Clone returns a copy of p. Cloning nil returns nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
