package bundle

// Action is a caller-declared resolution policy for one mapping.
type Action string

const (
	// ActionNewOrExisting reuses a matching target entity, creating it
	// only when no match exists.
	ActionNewOrExisting Action = "NewOrExisting"

	// ActionNewOrUpdate overwrites a matching target entity, creating it
	// when no match exists (unless FailOnNew is set).
	ActionNewOrUpdate Action = "NewOrUpdate"

	// ActionAlwaysCreateNew creates unconditionally, never matching an
	// existing target.
	ActionAlwaysCreateNew Action = "AlwaysCreateNew"

	// ActionDelete removes the matching target entity if present.
	ActionDelete Action = "Delete"

	// ActionIgnore skips the entity entirely, optionally pinning a target
	// id for dependents to reference.
	ActionIgnore Action = "Ignore"
)

// ValidActions defines the closed set of mapping actions.
var ValidActions = map[Action]bool{
	ActionNewOrExisting:   true,
	ActionNewOrUpdate:     true,
	ActionAlwaysCreateNew: true,
	ActionDelete:          true,
	ActionIgnore:          true,
}

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool { return ValidActions[a] }

// ActionTaken is the actual outcome of resolving a mapping.
type ActionTaken string

const (
	TakenCreatedNew      ActionTaken = "CreatedNew"
	TakenUsedExisting    ActionTaken = "UsedExisting"
	TakenUpdatedExisting ActionTaken = "UpdatedExisting"
	TakenDeleted         ActionTaken = "Deleted"
	TakenIgnored         ActionTaken = "Ignored"
)

// ValidActionsTaken defines the closed set of resolution outcomes.
var ValidActionsTaken = map[ActionTaken]bool{
	TakenCreatedNew:      true,
	TakenUsedExisting:    true,
	TakenUpdatedExisting: true,
	TakenDeleted:         true,
	TakenIgnored:         true,
}

// Valid reports whether t is a recognized outcome.
func (t ActionTaken) Valid() bool { return ValidActionsTaken[t] }

// Mutating reports whether the outcome changed the target store.
// Audit entries are emitted only for mutating outcomes.
func (t ActionTaken) Mutating() bool {
	switch t {
	case TakenCreatedNew, TakenUpdatedExisting, TakenDeleted:
		return true
	}
	return false
}

// ErrorType categorizes an expected, per-mapping business condition.
// These are reported on the mapping, never raised as Go errors: any
// non-empty ErrorType anywhere in a bundle forces the whole import to
// roll back.
type ErrorType string

const (
	// ErrorTargetNotFound means a required existing target is absent
	// (NewOrUpdate with FailOnNew, or a strict dependency check).
	ErrorTargetNotFound ErrorType = "TargetNotFound"

	// ErrorUniqueKeyConflict means a create would violate a type-scoped
	// uniqueness rule on the target.
	ErrorUniqueKeyConflict ErrorType = "UniqueKeyConflict"

	// ErrorTargetReadOnly means an update or delete was attempted against
	// a protected entity.
	ErrorTargetReadOnly ErrorType = "TargetReadOnly"
)

// ValidErrorTypes defines the closed set of per-mapping error categories.
var ValidErrorTypes = map[ErrorType]bool{
	ErrorTargetNotFound:    true,
	ErrorUniqueKeyConflict: true,
	ErrorTargetReadOnly:    true,
}

// Valid reports whether e is a recognized error category.
func (e ErrorType) Valid() bool { return ValidErrorTypes[e] }
