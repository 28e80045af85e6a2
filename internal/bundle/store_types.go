package bundle

import (
	"context"
	"errors"
	"time"
)

// ErrUniqueConflict is returned by EntityTx.Create when the new entity
// would violate a type-scoped uniqueness rule. Store implementations
// wrap it; the engine tests with errors.Is.
var ErrUniqueConflict = errors.New("unique key conflict")

// EntityStore is the host-supplied persistence adapter. The engine
// never persists directly: every durable effect of an import goes
// through one EntityTx obtained here, so the whole bundle commits or
// rolls back as a unit.
type EntityStore interface {
	// Begin opens the transactional scope for one import call.
	Begin(ctx context.Context) (EntityTx, error)
}

// EntityTx is one import's transactional view of the entity store.
// Reads observe writes made earlier in the same transaction.
//
// Find and FindByName return (nil, nil) when no entity matches; a
// non-nil error always means the store itself failed.
type EntityTx interface {
	// Find looks an entity up by id within a type.
	Find(ctx context.Context, typ EntityType, id string) (*Item, error)

	// FindByName looks an entity up by NFC-normalized name within
	// (type, scope). An empty scope matches only unscoped entities.
	FindByName(ctx context.Context, typ EntityType, name, scope string) (*Item, error)

	// Create persists a new entity and returns its id (item.ID, unless
	// the store assigns ids). Returns an error wrapping ErrUniqueConflict
	// on a uniqueness violation.
	Create(ctx context.Context, item Item) (string, error)

	// Update overwrites the entity with the given id.
	Update(ctx context.Context, id string, item Item) error

	// Delete removes the entity with the given id.
	Delete(ctx context.Context, id string) error

	// IsReadOnly reports whether the entity is protected against
	// mutation. Protected entities can still be matched and reused,
	// but any update or delete against them must fail. Unknown ids
	// are not protected.
	IsReadOnly(ctx context.Context, id string) (bool, error)

	Commit() error
	Rollback() error
}

// AuditVerb names the kind of committed mutation an audit record
// describes.
type AuditVerb string

const (
	VerbCreated AuditVerb = "CREATED"
	VerbUpdated AuditVerb = "UPDATED"
	VerbDeleted AuditVerb = "DELETED"
)

// AuditRecord describes one committed mutation.
type AuditRecord struct {
	EntityID   string     `json:"entityId"`
	EntityType EntityType `json:"entityType"`
	EntityName string     `json:"entityName"`
	Verb       AuditVerb  `json:"verb"`
	Actor      string     `json:"actor"`
	At         time.Time  `json:"at"`
}

// AuditEmitter records administrative audit entries. It is invoked
// exactly once per import, after a real (non-dry-run) commit, with one
// record per entity actually created, updated, or deleted.
type AuditEmitter interface {
	RecordChanges(ctx context.Context, records []AuditRecord) error
}
