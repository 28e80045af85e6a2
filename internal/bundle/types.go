package bundle

// EntityType identifies the kind of a gateway configuration entity.
// The engine treats types as opaque labels; they scope lookups and
// uniqueness, nothing more.
type EntityType string

// Well-known entity types. The set is open: hosts may reconcile types
// not listed here.
const (
	TypeFolder          EntityType = "FOLDER"
	TypePolicy          EntityType = "POLICY"
	TypeService         EntityType = "SERVICE"
	TypePolicyAlias     EntityType = "POLICY_ALIAS"
	TypeClusterProperty EntityType = "CLUSTER_PROPERTY"
	TypeIDProviderConfig EntityType = "ID_PROVIDER_CONFIG"
	TypeJDBCConnection  EntityType = "JDBC_CONNECTION"
	TypeSecurePassword  EntityType = "SECURE_PASSWORD"
)

// Well-known target-side identities. Every gateway has these; a mapping
// whose SrcID is one of them never requires a reference Item.
const (
	// RootFolderID is the id of the root folder present on every gateway.
	RootFolderID = "0000000000000000ffffffffffffec76"

	// InternalIDProviderID is the id of the built-in internal identity
	// provider present on every gateway.
	InternalIDProviderID = "0000000000000000fffffffffffffffe"
)

// WellKnownID reports whether id names a pre-existing target-side
// identity that bundles may reference without shipping its content.
func WellKnownID(id string) bool {
	return id == RootFolderID || id == InternalIDProviderID
}

// Item is one exported entity snapshot.
//
// Content is the entity's serialized form. It is owned by the Bundle for
// the duration of an import and is never mutated by the engine; the
// reference rewriter works on a copy.
type Item struct {
	// ID is the source-side entity id.
	ID string `json:"id" yaml:"id"`

	// Type is the entity type.
	Type EntityType `json:"type" yaml:"type"`

	// Name is the entity's display name, used for MapBy=name lookups.
	Name string `json:"name" yaml:"name"`

	// Scope is the id of the containing entity for hierarchically scoped
	// types (parent folder for folders and policies, backing policy for
	// aliases). Empty for unscoped types.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`

	// Content is the opaque serialized entity payload. Embedded ids of
	// other entities appear verbatim and are patched by the reference
	// rewriter before persistence.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Bundle is an exported entity graph plus the instructions for
// reconciling it against a target gateway.
//
// PRECONDITION: Mappings is a valid dependency order. An entity that
// another entity depends on appears no later than its dependent. The
// engine asserts violations it can detect (see engine.ErrCodeStaleReference)
// but never reorders.
type Bundle struct {
	// References holds the exported entity snapshots, keyed by source id
	// through Reference.
	References []Item `json:"references" yaml:"references"`

	// Mappings is the ordered list of reconciliation directives, one per
	// entity. Order is dependency order.
	Mappings []Mapping `json:"mappings" yaml:"mappings"`
}

// Reference returns the reference Item for a source id, or nil if the
// bundle does not carry one.
func (b *Bundle) Reference(srcID string) *Item {
	for i := range b.References {
		if b.References[i].ID == srcID {
			return &b.References[i]
		}
	}
	return nil
}

// Mapping is one entity's reconciliation directive plus, after
// resolution, its outcome. The engine resolves mappings in place on a
// copy of the caller's list.
type Mapping struct {
	// Type is the entity type the directive applies to.
	Type EntityType `json:"type" yaml:"type"`

	// SrcID is the source-side entity id.
	SrcID string `json:"srcId" yaml:"srcId"`

	// SrcURI optionally locates the entity on the source gateway.
	SrcURI string `json:"srcUri,omitempty" yaml:"srcUri,omitempty"`

	// Action is the caller-declared resolution policy.
	Action Action `json:"action" yaml:"action"`

	// TargetID is an optional explicit pin on input. After resolution it
	// holds the resolved target id (empty when the mapping errored or was
	// ignored without a pin).
	TargetID string `json:"targetId,omitempty" yaml:"targetId,omitempty"`

	// TargetURI locates the resolved entity on the target gateway. Set by
	// the engine.
	TargetURI string `json:"targetUri,omitempty" yaml:"targetUri,omitempty"`

	// Properties carries free-form directives. Recognized keys are
	// documented in properties.go.
	Properties Properties `json:"properties,omitempty" yaml:"properties,omitempty"`

	// ActionTaken is the resolved outcome. Set by the engine; mutually
	// exclusive with ErrorType.
	ActionTaken ActionTaken `json:"actionTaken,omitempty" yaml:"actionTaken,omitempty"`

	// ErrorType is the resolution error category. Set by the engine;
	// mutually exclusive with ActionTaken. The human-readable message is
	// carried in Properties under PropErrorMessage.
	ErrorType ErrorType `json:"errorType,omitempty" yaml:"errorType,omitempty"`
}

// Resolved reports whether the mapping has been resolved to either an
// outcome or an error.
func (m *Mapping) Resolved() bool {
	return m.ActionTaken != "" || m.ErrorType != ""
}

// SetOutcome records a successful resolution.
func (m *Mapping) SetOutcome(taken ActionTaken, targetID string) {
	m.ActionTaken = taken
	m.TargetID = targetID
}

// SetError records a resolution error with its human-readable message.
func (m *Mapping) SetError(errType ErrorType, message string) {
	m.ErrorType = errType
	if m.Properties == nil {
		m.Properties = Properties{}
	}
	m.Properties[PropErrorMessage] = message
}
